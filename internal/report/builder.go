// Package report turns a search URL or a set of offers into the dashboard
// report.
package report

import (
	"context"
	"fmt"
	"log"
	"time"

	"motostats/internal/enrich"
	"motostats/internal/models"
	"motostats/internal/stats"
	"motostats/pkg/geo"
	"motostats/pkg/geocode"
)

// OfferSource yields every offer of a search. *otomoto.Scraper satisfies it.
type OfferSource interface {
	Offers(ctx context.Context, url string) ([]models.Offer, error)
}

type job struct {
	offers []models.Offer
	report stats.Report
}

type Builder struct {
	source   OfferSource
	geocoder geocode.Geocoder
	workers  int
	pipeline *enrich.Pipeline[job]
}

type Option func(*Builder)

// WithGeocodeWorkers bounds concurrent geocoding lookups.
func WithGeocodeWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// NewBuilder creates a Builder. source may be nil when only FromOffers is
// used; a nil geocoder leaves every location unresolved.
func NewBuilder(source OfferSource, geocoder geocode.Geocoder, opts ...Option) *Builder {
	b := &Builder{source: source, geocoder: geocoder, workers: 8}
	for _, opt := range opts {
		opt(b)
	}

	b.pipeline = enrich.NewPipeline("report",
		enrich.NewStage(removeOutliers),
		enrich.NewStage(
			yearPrice,
			yearMilage,
			yearQuantity,
			fuelType,
			b.locations,
		),
	)
	return b
}

// Build scrapes url and aggregates the offers.
func (b *Builder) Build(ctx context.Context, url string) (*stats.Report, error) {
	if b.source == nil {
		return nil, fmt.Errorf("report: no offer source configured")
	}

	start := time.Now()
	offers, err := b.source.Offers(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", url, err)
	}
	log.Printf("%d records", len(offers))
	log.Printf("processed in: %.2f sec", time.Since(start).Seconds())

	return b.FromOffers(ctx, offers)
}

// FromOffers aggregates already scraped offers.
func (b *Builder) FromOffers(ctx context.Context, offers []models.Offer) (*stats.Report, error) {
	j := &job{offers: offers}
	if err := b.pipeline.Run(ctx, j); err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &j.report, nil
}

func removeOutliers(_ context.Context, j *job) error {
	j.offers = stats.RemoveOutliers(j.offers)
	return nil
}

func yearPrice(_ context.Context, j *job) error {
	j.report.YearPrice = stats.YearPrice(j.offers)
	return nil
}

func yearMilage(_ context.Context, j *job) error {
	j.report.YearMilage = stats.YearMilage(j.offers)
	return nil
}

func yearQuantity(_ context.Context, j *job) error {
	j.report.YearQuantity = stats.YearQuantity(j.offers)
	return nil
}

func fuelType(_ context.Context, j *job) error {
	j.report.FuelType = stats.FuelType(j.offers)
	return nil
}

func (b *Builder) locations(ctx context.Context, j *job) error {
	names, counts := stats.LocationCounts(j.offers)
	ds := stats.LocationDataset{
		Labels: make([]models.LatLng, len(names)),
		Series: counts,
		Names:  names,
	}

	if b.geocoder != nil && len(names) > 0 {
		queries := make([]string, len(names))
		for i, n := range names {
			queries[i] = geo.Query(n)
		}
		coords, err := geocode.Batch(ctx, b.geocoder, queries, b.workers)
		if err != nil {
			return fmt.Errorf("geocode locations: %w", err)
		}
		ds.Labels = coords
	}

	j.report.LocationData = ds
	return nil
}
