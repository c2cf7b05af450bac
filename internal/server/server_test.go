package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"motostats/internal/charts"
	"motostats/internal/dashboard"
	"motostats/internal/mapview"
	"motostats/internal/models"
	"motostats/internal/stats"
	"motostats/pkg/geocode"
)

type stubBuilder struct {
	rep  *stats.Report
	err  error
	wait bool
}

func (b stubBuilder) Build(ctx context.Context, _ string) (*stats.Report, error) {
	if b.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.rep, b.err
}

type stubGeocoder map[string]*geocode.Result

func (g stubGeocoder) Geocode(_ context.Context, q string) (*geocode.Result, error) {
	if res, ok := g[q]; ok {
		return res, nil
	}
	return nil, errors.New("connection reset")
}

var krakow = models.LatLng{Lat: 50.0647, Lng: 19.945}

func sampleReport() *stats.Report {
	return &stats.Report{
		YearPrice:    stats.SeriesDataset{Labels: []int{2010, 2012}, Series: [][]int{{20000, 30000}}},
		YearMilage:   stats.SeriesDataset{Labels: []int{2010, 2012}, Series: [][]int{{200000, 150000}}},
		YearQuantity: stats.SeriesDataset{Labels: []int{2010, 2012}, Series: [][]int{{1, 2}}, Names: []string{"Diesel"}},
		FuelType:     stats.PieDataset{Labels: []string{"Diesel"}, Series: []int{3}},
		LocationData: stats.LocationDataset{
			Labels: []models.LatLng{krakow, models.Unresolved},
			Series: []int{3, 2},
		},
	}
}

func newTestServer(t *testing.T, b ReportBuilder, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	geo := stubGeocoder{
		"Kraków":    {Location: krakow, Status: geocode.StatusOK},
		"Atlantyda": {Location: models.Unresolved, Status: geocode.StatusZeroResults},
	}
	dash := dashboard.New(mapview.New(mapview.WithGeocoder(geo)))
	s := New(dash, b, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postForm(t *testing.T, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(target, form)
	if err != nil {
		t.Fatalf("POST %s: %v", target, err)
	}
	return resp
}

func TestHandleData(t *testing.T) {
	tests := []struct {
		name       string
		builder    stubBuilder
		form       url.Values
		timeout    time.Duration
		wantStatus int
	}{
		{
			name:       "report returned",
			builder:    stubBuilder{rep: sampleReport()},
			form:       url.Values{"url": {"https://www.otomoto.pl/osobowe/"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing url",
			builder:    stubBuilder{rep: sampleReport()},
			form:       url.Values{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "relative url",
			builder:    stubBuilder{rep: sampleReport()},
			form:       url.Values{"url": {"/osobowe"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "scrape failure",
			builder:    stubBuilder{err: errors.New("unexpected status: 503")},
			form:       url.Values{"url": {"https://www.otomoto.pl/osobowe/"}},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "timeout",
			builder:    stubBuilder{wait: true},
			form:       url.Values{"url": {"https://www.otomoto.pl/osobowe/"}},
			timeout:    20 * time.Millisecond,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ts := newTestServer(t, tt.builder, WithTimeout(tt.timeout))
			resp := postForm(t, ts.URL+"/data", tt.form)
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if n := len(s.dash.View().Markers()); n != 0 {
					t.Errorf("markers = %d after failed submission", n)
				}
				return
			}

			var body map[string]json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for _, k := range []string{"yearPrice", "yearMilage", "yearQuantity", "fuelType", "locationData"} {
				if _, ok := body[k]; !ok {
					t.Errorf("response missing %q", k)
				}
			}
			if n := len(s.dash.View().Markers()); n != 3 {
				t.Errorf("markers = %d, want 3", n)
			}
		})
	}
}

func TestHandleMarkers(t *testing.T) {
	s, ts := newTestServer(t, stubBuilder{rep: sampleReport()})
	if err := s.dash.Apply(s.dash.Begin(), sampleReport()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	tests := []struct {
		name         string
		query        string
		wantStatus   int
		wantFeatures int
	}{
		{"default viewport", "", http.StatusOK, 1},
		{"bounds around krakow", "zoom=8&north=51&south=49&east=21&west=19", http.StatusOK, 1},
		{"bounds elsewhere", "zoom=8&north=55&south=54&east=19&west=18", http.StatusOK, 0},
		{"partial bounds", "north=51", http.StatusBadRequest, 0},
		{"bad zoom", "zoom=far", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/markers?" + tt.query)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var fc struct {
				Type     string `json:"type"`
				Features []struct {
					Properties map[string]any `json:"properties"`
				} `json:"features"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if fc.Type != "FeatureCollection" {
				t.Errorf("type = %q", fc.Type)
			}
			if len(fc.Features) != tt.wantFeatures {
				t.Fatalf("features = %d, want %d", len(fc.Features), tt.wantFeatures)
			}
			if tt.wantFeatures == 1 {
				p := fc.Features[0].Properties
				if p["cluster"] != true || p["point_count"] != float64(3) {
					t.Errorf("properties = %+v, want cluster of 3", p)
				}
			}
		})
	}
}

func TestHandleGeocode(t *testing.T) {
	tests := []struct {
		name        string
		address     string
		wantStatus  int
		wantAlert   string
		wantMarkers int
	}{
		{"ok", "Kraków", http.StatusOK, "", 1},
		{"zero results", "Atlantyda", http.StatusUnprocessableEntity, "Geocode was not successful for the following reason: ZERO_RESULTS", 0},
		{"transport error", "Nowhere", http.StatusBadGateway, "", 0},
		{"empty", "", http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ts := newTestServer(t, stubBuilder{})
			resp := postForm(t, ts.URL+"/api/geocode", url.Values{"address": {tt.address}})
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantAlert != "" {
				var body map[string]string
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["alert"] != tt.wantAlert {
					t.Errorf("alert = %q, want %q", body["alert"], tt.wantAlert)
				}
			}
			if n := len(s.dash.View().Markers()); n != tt.wantMarkers {
				t.Errorf("markers = %d, want %d", n, tt.wantMarkers)
			}
		})
	}
}

func TestCharts(t *testing.T) {
	s, ts := newTestServer(t, stubBuilder{})

	resp, err := http.Get(ts.URL + "/charts")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status before report = %d, want 404", resp.StatusCode)
	}

	if err := s.dash.Apply(s.dash.Begin(), sampleReport()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	resp, err = http.Get(ts.URL + "/charts")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), charts.MountYearPrice) {
		t.Errorf("charts page status %d, body missing %s", resp.StatusCode, charts.MountYearPrice)
	}

	resp, err = http.Get(ts.URL + "/charts/" + charts.MountFuelType + ".png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("png status %d, content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(ts.URL + "/charts/chart_nope.png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown mount status = %d, want 404", resp.StatusCode)
	}
}

func TestPages(t *testing.T) {
	_, ts := newTestServer(t, stubBuilder{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `id="urlForm"`) {
		t.Error("index page missing form")
	}

	resp = postForm(t, ts.URL+"/stats", url.Values{"url": {"https://www.otomoto.pl/osobowe/"}})
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	page := string(body)
	for _, want := range append([]string{`id="map"`, "https://www.otomoto.pl/osobowe/"}, charts.Mounts...) {
		if !strings.Contains(page, want) {
			t.Errorf("stats page missing %q", want)
		}
	}

	resp, err = http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("health = %q", body)
	}
}

func TestWebSocketRefresh(t *testing.T) {
	s, ts := newTestServer(t, stubBuilder{rep: sampleReport()})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev Event
	if err := conn.ReadJSON(&ev); err != nil || ev.Type != "hello" {
		t.Fatalf("hello = %+v, %v", ev, err)
	}

	deadline := time.Now().Add(time.Second)
	for s.Hub().Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	resp := postForm(t, ts.URL+"/data", url.Values{"url": {"https://www.otomoto.pl/osobowe/"}})
	resp.Body.Close()

	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "refresh" || ev.Markers != 3 {
		t.Errorf("event = %+v, want refresh with 3 markers", ev)
	}
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds(url.Values{"north": {"51"}, "south": {"49"}, "east": {"21"}, "west": {"19"}})
	if err != nil {
		t.Fatalf("parseBounds: %v", err)
	}
	if b.Min[0] != 19 || b.Min[1] != 49 || b.Max[0] != 21 || b.Max[1] != 51 {
		t.Errorf("bounds = %+v", b)
	}
	if _, err := parseBounds(url.Values{"north": {"x"}}); err == nil {
		t.Error("expected error for bad number")
	}
	if b, _ := parseBounds(url.Values{}); b != mapview.World {
		t.Errorf("empty bounds = %+v, want world", b)
	}
}
