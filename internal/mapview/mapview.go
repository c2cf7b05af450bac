// Package mapview holds the server-side state of the dashboard map: its fixed
// viewport, the current markers and their clustering.
package mapview

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"motostats/internal/models"
	"motostats/internal/stats"
	"motostats/pkg/geocode"
)

// Center and Zoom are the fixed initial viewport (Warsaw, country level).
var Center = models.LatLng{Lat: 52.2296756, Lng: 21.0122287}

const Zoom = 6

// Marker is a single pin. Markers are recreated on every refresh and never
// reused across refreshes.
type Marker struct {
	ID       string        `json:"id"`
	Label    string        `json:"label,omitempty"`
	Position models.LatLng `json:"position"`
}

type MapView struct {
	mu       sync.RWMutex
	geocoder geocode.Geocoder
	cluster  ClusterOptions
	markers  []Marker
}

type Option func(*MapView)

func WithGeocoder(g geocode.Geocoder) Option {
	return func(m *MapView) { m.geocoder = g }
}

func WithClusterOptions(o ClusterOptions) Option {
	return func(m *MapView) { m.cluster = o.withDefaults() }
}

// New creates an empty map view centred on Center at Zoom.
func New(opts ...Option) *MapView {
	m := &MapView{cluster: ClusterOptions{}.withDefaults()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MapView) Center() models.LatLng { return Center }

func (m *MapView) Zoom() int { return Zoom }

// PlaceMarkers replaces every marker with the contents of ds. For each label
// with a non-sentinel latitude it creates exactly as many markers as the
// matching series count, all at that coordinate. It returns the number of
// markers placed.
func (m *MapView) PlaceMarkers(ds stats.LocationDataset) int {
	n := min(len(ds.Labels), len(ds.Series))

	markers := make([]Marker, 0, n)
	for i := 0; i < n; i++ {
		pos := ds.Labels[i]
		if pos.IsSentinel() {
			continue
		}
		var label string
		if i < len(ds.Names) {
			label = ds.Names[i]
		}
		for j := 0; j < ds.Series[i]; j++ {
			markers = append(markers, newMarker(pos, label))
		}
	}

	m.mu.Lock()
	m.markers = markers
	m.mu.Unlock()
	return len(markers)
}

// AddMarker appends one marker without touching existing ones.
func (m *MapView) AddMarker(pos models.LatLng, label string) Marker {
	mk := newMarker(pos, label)
	m.mu.Lock()
	m.markers = append(m.markers, mk)
	m.mu.Unlock()
	return mk
}

func (m *MapView) ClearMarkers() {
	m.mu.Lock()
	m.markers = nil
	m.mu.Unlock()
}

// Markers returns a copy of the current markers.
func (m *MapView) Markers() []Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Marker, len(m.markers))
	copy(out, m.markers)
	return out
}

// CodeAddress geocodes address and, when the lookup succeeds, adds a marker at
// the first result. A non-OK status is returned as *geocode.StatusError and
// adds nothing.
func (m *MapView) CodeAddress(ctx context.Context, address string) (Marker, error) {
	if m.geocoder == nil {
		return Marker{}, fmt.Errorf("mapview: no geocoder configured")
	}
	res, err := m.geocoder.Geocode(ctx, address)
	if err != nil {
		return Marker{}, err
	}
	if !res.OK() {
		return Marker{}, &geocode.StatusError{Query: address, Status: res.Status}
	}
	return m.AddMarker(res.Location, address), nil
}

func newMarker(pos models.LatLng, label string) Marker {
	return Marker{ID: uuid.NewString(), Label: label, Position: pos}
}
