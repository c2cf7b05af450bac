package mapview

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"motostats/internal/models"
)

// ClusterOptions tune the grid clustering. Radius is in screen pixels at the
// requested zoom; Extent is the tile size in pixels.
type ClusterOptions struct {
	Radius    float64
	MinPoints int
	Extent    int
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.Radius <= 0 {
		o.Radius = 60
	}
	if o.MinPoints <= 0 {
		o.MinPoints = 2
	}
	if o.Extent <= 0 {
		o.Extent = 256
	}
	return o
}

const (
	minZoom = 0
	maxZoom = 22
	maxLat  = 85.05112878
)

// World covers every marker.
var World = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Cluster is a group of nearby markers. A cluster with Count 1 is a plain
// marker and carries that marker's ID.
type Cluster struct {
	ID        string        `json:"id"`
	Position  models.LatLng `json:"position"`
	Count     int           `json:"count"`
	MarkerIDs []string      `json:"markerIds"`
}

type projected struct {
	idx int
	p   rtreego.Point
}

func (p *projected) Bounds() rtreego.Rect {
	return p.p.ToRect(0.01)
}

// Clusters groups the markers inside bounds at the given zoom level.
func (m *MapView) Clusters(bounds orb.Bound, zoom int) []Cluster {
	zoom = max(minZoom, min(maxZoom, zoom))
	opts := m.cluster

	var visible []Marker
	for _, mk := range m.Markers() {
		if bounds.Contains(orb.Point{mk.Position.Lng, mk.Position.Lat}) {
			visible = append(visible, mk)
		}
	}
	if len(visible) == 0 {
		return nil
	}

	points := make([]*projected, len(visible))
	objs := make([]rtreego.Spatial, len(visible))
	for i, mk := range visible {
		x, y := project(mk.Position, zoom, opts.Extent)
		points[i] = &projected{idx: i, p: rtreego.Point{x, y}}
		objs[i] = points[i]
	}
	tree := rtreego.NewTree(2, 25, 50, objs...)

	processed := make([]bool, len(visible))
	var clusters []Cluster
	for _, p := range points {
		if processed[p.idx] {
			continue
		}

		var group []*projected
		for _, obj := range tree.SearchIntersect(p.p.ToRect(opts.Radius + 0.01)) {
			q := obj.(*projected)
			if processed[q.idx] || dist(p.p, q.p) > opts.Radius {
				continue
			}
			group = append(group, q)
		}

		if len(group) < opts.MinPoints {
			processed[p.idx] = true
			mk := visible[p.idx]
			clusters = append(clusters, Cluster{
				ID:        mk.ID,
				Position:  mk.Position,
				Count:     1,
				MarkerIDs: []string{mk.ID},
			})
			continue
		}

		var sumX, sumY float64
		ids := make([]string, 0, len(group))
		for _, q := range group {
			processed[q.idx] = true
			sumX += q.p[0]
			sumY += q.p[1]
			ids = append(ids, visible[q.idx].ID)
		}
		n := float64(len(group))
		clusters = append(clusters, Cluster{
			ID:        uuid.NewString(),
			Position:  unproject(sumX/n, sumY/n, zoom, opts.Extent),
			Count:     len(group),
			MarkerIDs: ids,
		})
	}
	return clusters
}

// GeoJSON renders Clusters as a FeatureCollection of points.
func (m *MapView) GeoJSON(bounds orb.Bound, zoom int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range m.Clusters(bounds, zoom) {
		f := geojson.NewFeature(orb.Point{c.Position.Lng, c.Position.Lat})
		f.Properties["cluster"] = c.Count > 1
		f.Properties["cluster_id"] = c.ID
		f.Properties["point_count"] = c.Count
		fc.Append(f)
	}
	return fc
}

// project converts a coordinate to Web-Mercator pixel space at zoom.
func project(ll models.LatLng, zoom, extent int) (float64, float64) {
	lat := max(-maxLat, min(maxLat, ll.Lat))
	sin := math.Sin(lat * math.Pi / 180)
	x := (ll.Lng + 180) / 360
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi

	scale := math.Exp2(float64(zoom)) * float64(extent)
	return x * scale, y * scale
}

func unproject(x, y float64, zoom, extent int) models.LatLng {
	scale := math.Exp2(float64(zoom)) * float64(extent)
	x /= scale
	y /= scale
	return models.LatLng{
		Lat: math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi,
		Lng: x*360 - 180,
	}
}

func dist(a, b rtreego.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
