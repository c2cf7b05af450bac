package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"motostats/internal/enrich"
	"motostats/internal/env"
	"motostats/internal/keys"
	"motostats/internal/models"
	"motostats/internal/report"
	"motostats/internal/service"
	"motostats/internal/stats"
	"motostats/internal/storage"
	"motostats/pkg/geocode"
	"motostats/pkg/graceful"
	"motostats/pkg/kafkaclient"
)

// reportEvent announces a stored report on REPORT_TOPIC.
type reportEvent struct {
	Snapshot string `json:"snapshot"`
	Report   string `json:"report"`
	Source   string `json:"source"`
	Offers   int    `json:"offers"`
}

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	kafkaBroker := env.MustGetEnv("KAFKA_BROKER")
	kafkaTopic := env.MustGetEnv("KAFKA_TOPIC")
	kafkaGroupID := env.MustGetEnv("KAFKA_GROUP_ID")
	reportBucket := env.MustGetEnv("REPORT_BUCKET")

	log.Printf("Connecting to Kafka broker: %s on topic: %s with group ID: %s", kafkaBroker, kafkaTopic, kafkaGroupID)

	consumer, err := kafkaclient.NewKafkaConsumer(kafkaclient.ConsumerConfig{
		Brokers: strings.Split(kafkaBroker, ","),
		Topic:   kafkaTopic,
		GroupID: kafkaGroupID,
	})
	if err != nil {
		log.Fatalf("Failed to create kafka consumer %v", err)
	}

	s3Service, err := storage.NewS3Service()
	if err != nil {
		log.Fatal(err)
	}
	if _, err := s3Service.CreateBucket(ctx, reportBucket, ""); err != nil {
		log.Fatal(err)
	}

	var archive *storage.OfferArchive
	if dsn := env.Get("DATABASE_URL", ""); dsn != "" {
		archive, err = storage.NewOfferArchive(ctx, dsn)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer archive.Close()
		if err := archive.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
	}

	var publisher *kafkaclient.Publisher
	if topic := env.Get("REPORT_TOPIC", ""); topic != "" {
		publisher, err = kafkaclient.NewPublisher(strings.Split(kafkaBroker, ","), topic)
		if err != nil {
			log.Fatalf("Failed to create kafka publisher %v", err)
		}
		defer publisher.Close()
	}

	geocoder, closeGeocoder, err := geocode.Open(geocodeConfig())
	if err != nil {
		log.Fatalf("Failed to create geocoder: %v", err)
	}
	defer closeGeocoder()
	builder := report.NewBuilder(nil, geocoder, report.WithGeocodeWorkers(env.Int("GEOCODE_WORKERS", 4)))

	agg := &aggregator{
		builder: builder,
		store:   s3Service,
		bucket:  reportBucket,
		archive: archive,
		publish: publisher,
	}
	pipeline := enrich.NewPipeline("aggregator",
		enrich.NewStage(agg.buildReport),
		enrich.NewStage(agg.storeReport, agg.archiveOffers),
		enrich.NewStage(agg.announce),
	)

	consumer.StartConsuming(ctx)
	iterator := service.NewSnapshotIterator(consumer, s3Service)

	tasks := make(chan *task)
	go func() {
		defer close(tasks)
		for obj := range iterator.Objects(ctx) {
			tasks <- &task{obj: obj}
		}
	}()
	pipeline.Process(ctx, tasks, func(t *task, err error) {
		if err != nil {
			log.Printf("Failed to process %s/%s: %v", t.obj.Bucket, t.obj.Key, err)
			return
		}
		log.Printf("Report for %s stored as %s", t.obj.Key, t.reportKey)
	})

	consumer.Stop()
	log.Println("Main method finished, application exiting.")
}

// task carries one snapshot through the aggregation stages.
type task struct {
	obj       *service.FetchedObject[*models.Snapshot]
	report    *stats.Report
	reportKey string
}

type aggregator struct {
	builder *report.Builder
	store   *storage.S3Service
	bucket  string
	archive *storage.OfferArchive
	publish *kafkaclient.Publisher
}

var errNoReport = errors.New("no report built")

func (a *aggregator) buildReport(ctx context.Context, t *task) error {
	snap := t.obj.Data
	log.Printf("Snapshot %s: %d offers from %s", snap.ID, len(snap.Offers), snap.URL)

	rep, err := a.builder.FromOffers(ctx, snap.Offers)
	if err != nil {
		return err
	}
	t.report = rep
	return nil
}

func (a *aggregator) storeReport(ctx context.Context, t *task) error {
	if t.report == nil {
		return errNoReport
	}
	key := keys.Report(t.obj.Key)
	if err := a.store.PutReport(ctx, a.bucket, key, t.report); err != nil {
		return err
	}
	t.reportKey = key
	return nil
}

func (a *aggregator) archiveOffers(ctx context.Context, t *task) error {
	if a.archive == nil {
		return nil
	}
	n, err := a.archive.SaveSnapshot(ctx, *t.obj.Data)
	if err != nil {
		return err
	}
	log.Printf("Archived %d offers of snapshot %s", n, t.obj.Data.ID)
	return nil
}

// announce publishes a reportEvent once the report is stored.
func (a *aggregator) announce(ctx context.Context, t *task) error {
	if a.publish == nil || t.reportKey == "" {
		return nil
	}
	snap := t.obj.Data
	payload, err := json.Marshal(reportEvent{
		Snapshot: t.obj.Key,
		Report:   t.reportKey,
		Source:   snap.URL,
		Offers:   len(snap.Offers),
	})
	if err != nil {
		return err
	}
	return a.publish.Publish(ctx, snap.ID, payload)
}

func geocodeConfig() geocode.Config {
	return geocode.Config{
		Provider:  env.Get("GEOCODER", "arcgis"),
		Timeout:   env.Duration("GEOCODE_TIMEOUT", 10*time.Second),
		Attempts:  env.Int("GEOCODE_ATTEMPTS", 5),
		Backoff:   env.Duration("GEOCODE_BACKOFF", time.Second),
		CachePath: env.Get("GEOCODE_CACHE_PATH", ""),
	}
}
