package geocode

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"motostats/internal/models"
)

// Batch geocodes queries with at most limit lookups in flight. The result is
// index-aligned with queries. Failed or unresolved queries map to
// models.Unresolved; only cancellation of ctx is returned as an error.
func Batch(ctx context.Context, g Geocoder, queries []string, limit int) ([]models.LatLng, error) {
	out := make([]models.LatLng, len(queries))

	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i, q := range queries {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := g.Geocode(ctx, q)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("geocode %q: %v", q, err)
				out[i] = models.Unresolved
			case !res.OK():
				out[i] = models.Unresolved
			default:
				out[i] = res.Location
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
