package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"motostats/internal/models"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         UUID PRIMARY KEY,
	url        TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS offers (
	snapshot_id UUID NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	price       INT,
	year        INT,
	mileage     INT,
	capacity    INT,
	fuel        TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (snapshot_id, position)
);
CREATE INDEX IF NOT EXISTS offers_year_idx ON offers (year);
`

var offerColumns = []string{"snapshot_id", "position", "price", "year", "mileage", "capacity", "fuel", "location"}

// OfferArchive keeps every scraped offer in Postgres for later analysis.
type OfferArchive struct {
	pool *pgxpool.Pool
}

func NewOfferArchive(ctx context.Context, dsn string) (*OfferArchive, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &OfferArchive{pool: pool}, nil
}

func (a *OfferArchive) Close() {
	a.pool.Close()
}

func (a *OfferArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, archiveSchema); err != nil {
		return fmt.Errorf("create archive schema: %w", err)
	}
	return nil
}

// SaveSnapshot archives snap and its offers in one transaction. A snapshot
// that is already archived is skipped and reports zero rows.
func (a *OfferArchive) SaveSnapshot(ctx context.Context, snap models.Snapshot) (int64, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO snapshots (id, url, scraped_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		snap.ID, snap.URL, snap.ScrapedAt)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"offers"}, offerColumns, pgx.CopyFromRows(offerRows(snap)))
	if err != nil {
		return 0, fmt.Errorf("copy offers: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func offerRows(snap models.Snapshot) [][]any {
	rows := make([][]any, len(snap.Offers))
	for i, o := range snap.Offers {
		rows[i] = []any{snap.ID, i, o.Price, o.Year, o.Mileage, o.Capacity, o.Fuel, o.Location}
	}
	return rows
}
