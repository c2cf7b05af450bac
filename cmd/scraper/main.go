package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"motostats/internal/env"
	"motostats/internal/models"
	"motostats/internal/storage"
	"motostats/pkg/graceful"
	"motostats/pkg/otomoto"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-bucket name] [-concurrency n] url filepath\n\n", os.Args[0])
	fmt.Fprintln(flag.CommandLine.Output(), "saves offers data as csv in a given filepath")
	flag.PrintDefaults()
}

func main() {
	bucket := flag.String("bucket", "", "also upload a compressed snapshot to this MinIO bucket")
	concurrency := flag.Int("concurrency", 8, "result pages fetched at once")
	quiet := flag.Bool("quiet", false, "disable the progress bar")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	url, filepath := flag.Arg(0), flag.Arg(1)

	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	start := time.Now()
	client := otomoto.NewClient()
	opts := []otomoto.Option{otomoto.WithConcurrency(*concurrency)}

	if !*quiet {
		probe := otomoto.NewScraper(client)
		sum, err := probe.Summarize(ctx, url)
		if err != nil {
			log.Fatalf("Failed to read search summary: %v", err)
		}
		total := sum.Offers
		if total == 0 {
			total = -1
		}
		bar := progressbar.Default(int64(total), "offers")
		defer bar.Finish()
		opts = append(opts, otomoto.WithProgress(bar))
	}

	offers, err := otomoto.NewScraper(client, opts...).Offers(ctx, url)
	if err != nil {
		log.Fatalf("Failed to scrape %s: %v", url, err)
	}

	if err := save(filepath, offers); err != nil {
		log.Fatal(err)
	}

	if *bucket != "" {
		if err := upload(ctx, *bucket, models.NewSnapshot(url, offers)); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("\n%d records\nprocessed in: %.2f sec\n", len(offers), time.Since(start).Seconds())
}

func save(path string, offers []models.Offer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := otomoto.WriteCSV(f, offers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func upload(ctx context.Context, bucket string, snap models.Snapshot) error {
	s3Service, err := storage.NewS3Service()
	if err != nil {
		return err
	}
	if _, err := s3Service.CreateBucket(ctx, bucket, ""); err != nil {
		return err
	}
	key, err := s3Service.PutSnapshot(ctx, bucket, snap)
	if err != nil {
		return err
	}
	log.Printf("Snapshot stored as %s/%s", bucket, key)
	return nil
}
