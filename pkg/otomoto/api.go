// Package otomoto scrapes vehicle offers from otomoto-style search result pages.
package otomoto

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultTimeout = 100 * time.Second

type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewClient() *Client {
	return &Client{
		httpClient: http.DefaultClient,
		userAgent:  "motostats-scraper/1.0",
		timeout:    defaultTimeout,
	}
}

// FetchPage downloads url and parses its body.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status for %s: %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// PageURL returns the url of the n-th result page of a search.
func PageURL(baseURL string, n int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search url %q: %w", baseURL, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
