package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"motostats/internal/models"
)

const nominatimURL = "https://nominatim.openstreetmap.org/search"

// nominatimResponse is shaped for the search API response.
type nominatimResponse []struct {
	PlaceID     int64   `json:"place_id"`
	OsmType     string  `json:"osm_type"`
	OsmID       int64   `json:"osm_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	AddressType string  `json:"addresstype"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
}

type Nominatim struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	language   string
}

func NewNominatim(httpClient *http.Client) *Nominatim {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Nominatim{
		httpClient: httpClient,
		baseURL:    nominatimURL,
		userAgent:  "motostats-geocoder/1.0",
		language:   "pl",
	}
}

func (n *Nominatim) Geocode(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return invalid(query, "nominatim"), nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("accept-language", n.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status: %s", resp.Status)
	}

	var results nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim: decode response: %w", err)
	}
	if len(results) == 0 {
		return zeroResults(query, "nominatim"), nil
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: bad latitude %q: %w", first.Lat, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("nominatim: bad longitude %q: %w", first.Lon, err)
	}

	return &Result{
		Query:       query,
		Location:    models.LatLng{Lat: lat, Lng: lon},
		DisplayName: first.DisplayName,
		Provider:    "nominatim",
		Status:      StatusOK,
	}, nil
}
