package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"motostats/internal/models"
)

const arcgisURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/findAddressCandidates"

type arcgisResponse struct {
	Candidates []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
		Score float64 `json:"score"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ArcGIS queries the public World Geocoding Service.
type ArcGIS struct {
	httpClient *http.Client
	baseURL    string
}

func NewArcGIS(httpClient *http.Client) *ArcGIS {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ArcGIS{httpClient: httpClient, baseURL: arcgisURL}
}

func (a *ArcGIS) Geocode(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return invalid(query, "arcgis"), nil
	}

	params := url.Values{}
	params.Set("SingleLine", query)
	params.Set("f", "json")
	params.Set("maxLocations", "1")
	params.Set("outFields", "Match_addr")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arcgis: unexpected status: %s", resp.Status)
	}

	var body arcgisResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("arcgis: decode response: %w", err)
	}
	if body.Error != nil {
		return nil, fmt.Errorf("arcgis: error %d: %s", body.Error.Code, body.Error.Message)
	}
	if len(body.Candidates) == 0 {
		return zeroResults(query, "arcgis"), nil
	}

	best := body.Candidates[0]
	return &Result{
		Query:       query,
		Location:    models.LatLng{Lat: best.Location.Y, Lng: best.Location.X},
		DisplayName: best.Address,
		Provider:    "arcgis",
		Status:      StatusOK,
	}, nil
}
