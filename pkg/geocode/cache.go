package geocode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"motostats/internal/models"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query      TEXT PRIMARY KEY,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	display    TEXT NOT NULL DEFAULT '',
	provider   TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`

// Cache stores definitive answers (OK and ZERO_RESULTS) in SQLite.
type Cache struct {
	db   *sql.DB
	next Geocoder
}

// OpenCache opens or creates the cache database at path. Use ":memory:" for
// a process-local cache.
func OpenCache(path string, next Geocoder) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create geocode cache schema: %w", err)
	}
	return &Cache{db: db, next: next}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Geocode(ctx context.Context, query string) (*Result, error) {
	res, err := c.lookup(ctx, query)
	if err != nil {
		log.Printf("geocode cache lookup %q: %v", query, err)
	}
	if res != nil {
		return res, nil
	}

	res, err = c.next.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	if res.Status == StatusOK || res.Status == StatusZeroResults {
		if err := c.store(ctx, res); err != nil {
			log.Printf("geocode cache store %q: %v", query, err)
		}
	}
	return res, nil
}

func (c *Cache) lookup(ctx context.Context, query string) (*Result, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT lat, lng, display, provider, status FROM geocode_cache WHERE query = ?`, query)

	res := &Result{Query: query}
	var status string
	err := row.Scan(&res.Location.Lat, &res.Location.Lng, &res.DisplayName, &res.Provider, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res.Status = Status(status)
	if res.Status != StatusOK {
		res.Location = models.Unresolved
	}
	return res, nil
}

func (c *Cache) store(ctx context.Context, res *Result) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO geocode_cache (query, lat, lng, display, provider, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.Query, res.Location.Lat, res.Location.Lng, res.DisplayName, res.Provider, string(res.Status),
		time.Now().Unix())
	return err
}

// Len returns the number of cached queries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM geocode_cache`).Scan(&n)
	return n, err
}
