package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"motostats/internal/dashboard"
	"motostats/internal/env"
	"motostats/internal/mapview"
	"motostats/internal/report"
	"motostats/internal/server"
	"motostats/pkg/geocode"
	"motostats/pkg/graceful"
	"motostats/pkg/otomoto"
)

func main() {
	env.LoadEnv()
	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	geocoder, closeGeocoder, err := geocode.Open(geocode.Config{
		Provider:  env.Get("GEOCODER", "arcgis"),
		Timeout:   env.Duration("GEOCODE_TIMEOUT", 10*time.Second),
		Attempts:  env.Int("GEOCODE_ATTEMPTS", 5),
		Backoff:   env.Duration("GEOCODE_BACKOFF", time.Second),
		CachePath: env.Get("GEOCODE_CACHE_PATH", "geocode.db"),
	})
	if err != nil {
		log.Fatalf("Failed to create geocoder: %v", err)
	}
	defer func() {
		if err := closeGeocoder(); err != nil {
			log.Printf("Failed to close geocoder: %v", err)
		}
	}()

	scraper := otomoto.NewScraper(otomoto.NewClient(),
		otomoto.WithConcurrency(env.Int("SCRAPE_CONCURRENCY", 8)))
	builder := report.NewBuilder(scraper, geocoder,
		report.WithGeocodeWorkers(env.Int("GEOCODE_WORKERS", 8)))

	var opts []mapview.Option
	if geocoder != nil {
		opts = append(opts, mapview.WithGeocoder(geocoder))
	}
	dash := dashboard.New(mapview.New(opts...))

	srv := server.New(dash, builder, server.WithTimeout(env.Duration("DATA_TIMEOUT", server.DefaultTimeout)))
	httpServer := &http.Server{
		Addr:              env.Get("HTTP_ADDR", ":8080"),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := graceful.Shutdown(ctx, httpServer, env.Duration("SHUTDOWN_TIMEOUT", 30*time.Second)); err != nil {
			log.Printf("Shutdown failed: %v", err)
		}
		srv.Hub().Close()
	}()

	log.Printf("Listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Main method finished, application exiting.")
}
