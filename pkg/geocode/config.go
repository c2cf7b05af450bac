package geocode

import (
	"fmt"
	"net/http"
	"time"
)

// Config selects a provider and the layers wrapped around it.
type Config struct {
	// Provider is "arcgis", "nominatim" or "none".
	Provider  string
	Timeout   time.Duration
	Attempts  int
	Backoff   time.Duration
	CachePath string
}

// Open builds Provider wrapped in Retrying and, when CachePath is set, a
// Cache. It returns a nil Geocoder for "none". The returned close func is
// never nil.
func Open(cfg Config) (Geocoder, func() error, error) {
	noop := func() error { return nil }
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var provider Geocoder
	switch cfg.Provider {
	case "", "arcgis":
		provider = NewArcGIS(httpClient)
	case "nominatim":
		provider = NewNominatim(httpClient)
	case "none":
		return nil, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown geocoder %q", cfg.Provider)
	}

	g := Geocoder(NewRetrying(provider, cfg.Attempts, cfg.Backoff, cfg.Timeout))
	if cfg.CachePath == "" {
		return g, noop, nil
	}
	cache, err := OpenCache(cfg.CachePath, g)
	if err != nil {
		return nil, noop, err
	}
	return cache, cache.Close, nil
}
