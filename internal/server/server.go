// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paulmach/orb"

	"motostats/internal/charts"
	"motostats/internal/dashboard"
	"motostats/internal/mapview"
	"motostats/internal/stats"
	"motostats/pkg/geocode"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultTimeout bounds one POST /data request.
const DefaultTimeout = 100 * time.Minute

// ReportBuilder builds the report for a search URL. *report.Builder satisfies it.
type ReportBuilder interface {
	Build(ctx context.Context, url string) (*stats.Report, error)
}

type Server struct {
	dash    *dashboard.Dashboard
	builder ReportBuilder
	hub     *Hub
	timeout time.Duration
	tmpl    *template.Template
}

type Option func(*Server)

func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(dash *dashboard.Dashboard, builder ReportBuilder, opts ...Option) *Server {
	s := &Server{
		dash:    dash,
		builder: builder,
		hub:     NewHub(),
		timeout: DefaultTimeout,
		tmpl:    template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/stats", s.handleStats)
	r.Post("/data", s.handleData)

	r.Get("/charts", s.handleCharts)
	r.Get("/charts/{mount}.png", s.handleChartImage)
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		r.Get("/markers", s.handleMarkers)
		r.Post("/geocode", s.handleGeocode)
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, "index.html", nil)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	target, err := formURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.render(w, "stats.html", map[string]any{
		"URL":    target,
		"MapID":  "map",
		"Mounts": charts.Mounts,
		"Center": s.dash.View().Center(),
		"Zoom":   s.dash.View().Zoom(),
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "Error executing template", http.StatusInternalServerError)
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	target, err := formURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	gen := s.dash.Begin()
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	rep, err := s.builder.Build(ctx, target)
	if err != nil {
		log.Printf("build report for %s: %v", target, err)
		if errors.Is(err, context.DeadlineExceeded) {
			http.Error(w, "timed out collecting offers", http.StatusGatewayTimeout)
			return
		}
		http.Error(w, "failed to collect offers", http.StatusBadGateway)
		return
	}

	switch err := s.dash.Apply(gen, rep); {
	case errors.Is(err, dashboard.ErrStale):
		log.Printf("discarding refresh: %v", err)
	case err != nil:
		log.Printf("apply report: %v", err)
		fallthrough
	default:
		s.hub.Broadcast(Event{Type: "refresh", Generation: gen, Markers: len(s.dash.View().Markers())})
	}

	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	zoom := s.dash.View().Zoom()
	if v := q.Get("zoom"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid zoom", http.StatusBadRequest)
			return
		}
		zoom = z
	}

	bounds, err := parseBounds(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.dash.View().GeoJSON(bounds, zoom))
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.FormValue("address"))
	if address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	marker, err := s.dash.View().CodeAddress(r.Context(), address)
	var se *geocode.StatusError
	switch {
	case errors.As(err, &se):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"alert": se.Error()})
		return
	case err != nil:
		log.Printf("geocode %q: %v", address, err)
		http.Error(w, "geocoding failed", http.StatusBadGateway)
		return
	}

	s.hub.Broadcast(Event{Type: "marker"})
	writeJSON(w, http.StatusOK, marker)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.dash.WriteChartsPage(w); err != nil {
		if errors.Is(err, dashboard.ErrNoReport) {
			http.Error(w, "no report yet", http.StatusNotFound)
			return
		}
		log.Printf("render charts: %v", err)
	}
}

func (s *Server) handleChartImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.dash.ChartImage(chi.URLParam(r, "mount"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r, Event{Type: "hello", Generation: s.dash.Generation()})
}

func formURL(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.FormValue("url"))
	if raw == "" {
		return "", errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.New("url must be an absolute http(s) URL")
	}
	return u.String(), nil
}

// parseBounds reads north/south/east/west. Without any of them the whole
// world is used.
func parseBounds(q url.Values) (orb.Bound, error) {
	keys := []string{"north", "south", "east", "west"}
	var vals [4]float64
	present := 0
	for i, k := range keys {
		v := q.Get(k)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return orb.Bound{}, errors.New("invalid " + k)
		}
		vals[i] = f
		present++
	}
	switch present {
	case 0:
		return mapview.World, nil
	case 4:
		north, south, east, west := vals[0], vals[1], vals[2], vals[3]
		return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}, nil
	default:
		return orb.Bound{}, errors.New("bounds need north, south, east and west")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}
