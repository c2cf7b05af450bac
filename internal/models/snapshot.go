package models

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the result of one scrape of a search url.
type Snapshot struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ScrapedAt time.Time `json:"scrapedAt"`
	Offers    []Offer   `json:"offers"`
}

func NewSnapshot(url string, offers []Offer) Snapshot {
	return Snapshot{
		ID:        uuid.NewString(),
		URL:       url,
		ScrapedAt: time.Now().UTC(),
		Offers:    offers,
	}
}
