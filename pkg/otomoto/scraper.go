package otomoto

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"motostats/internal/models"
)

const defaultConcurrency = 8

// Progress receives one increment per parsed offer. *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
}

type Scraper struct {
	client      *Client
	concurrency int
	progress    Progress
}

type Option func(*Scraper)

// WithConcurrency bounds the number of result pages fetched at once.
func WithConcurrency(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithProgress(p Progress) Option {
	return func(s *Scraper) { s.progress = p }
}

func NewScraper(client *Client, opts ...Option) *Scraper {
	s := &Scraper{client: client, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary describes a search before its pages are processed.
type Summary struct {
	Pages  int
	Offers int
}

// Summarize fetches the first page of a search and reads its paginator and offer counter.
func (s *Scraper) Summarize(ctx context.Context, baseURL string) (Summary, error) {
	doc, err := s.client.FetchPage(ctx, baseURL)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Pages: PageCount(doc)}
	if n, ok := OfferCount(doc); ok {
		sum.Offers = n
	}
	return sum, nil
}

// Offers scrapes every result page of a search and returns the offers in page order.
func (s *Scraper) Offers(ctx context.Context, baseURL string) ([]models.Offer, error) {
	sum, err := s.Summarize(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read search summary: %w", err)
	}
	log.Printf("Scraping %d pages (%d offers announced) from %s", sum.Pages, sum.Offers, baseURL)

	pages := make([][]models.Offer, sum.Pages)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range pages {
		pageURL, err := PageURL(baseURL, i+1)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			offers, err := s.page(gctx, pageURL)
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			pages[i] = offers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.Offer
	for _, p := range pages {
		all = append(all, p...)
	}
	return all, nil
}

func (s *Scraper) page(ctx context.Context, pageURL string) ([]models.Offer, error) {
	doc, err := s.client.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	offers := ParseOffers(doc)
	if s.progress != nil {
		if err := s.progress.Add(len(offers)); err != nil {
			log.Printf("Progress update failed: %v", err)
		}
	}
	return offers, nil
}
