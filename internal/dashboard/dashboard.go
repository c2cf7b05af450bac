// Package dashboard ties the current report to the map view and the charts.
package dashboard

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"motostats/internal/charts"
	"motostats/internal/mapview"
	"motostats/internal/stats"
)

var (
	// ErrStale is returned by Apply when a newer submission has already been applied.
	ErrStale = errors.New("dashboard: stale refresh")
	// ErrNoReport is returned while no report has been applied yet.
	ErrNoReport = errors.New("dashboard: no report")
)

type Dashboard struct {
	view *mapview.MapView

	next atomic.Uint64

	mu      sync.RWMutex
	applied uint64
	report  *stats.Report
	page    *charts.ECharts
	images  *charts.PNG
}

func New(view *mapview.MapView) *Dashboard {
	if view == nil {
		view = mapview.New()
	}
	return &Dashboard{view: view}
}

func (d *Dashboard) View() *mapview.MapView {
	return d.view
}

// Begin reserves a generation for a new submission.
func (d *Dashboard) Begin() uint64 {
	return d.next.Add(1)
}

// Apply makes rep the current report: the charts are re-rendered and the
// markers cleared and re-placed. A generation older than the last applied
// one is discarded with ErrStale. Chart errors are returned after the markers
// have been placed.
func (d *Dashboard) Apply(gen uint64, rep *stats.Report) error {
	if rep == nil {
		return ErrNoReport
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if gen <= d.applied {
		return fmt.Errorf("%w: generation %d, applied %d", ErrStale, gen, d.applied)
	}

	page, images := charts.NewECharts(), charts.NewPNG()
	chartErr := errors.Join(charts.Render(page, rep), charts.Render(images, rep))

	placed := d.view.PlaceMarkers(rep.LocationData)
	log.Printf("dashboard: generation %d applied, %d markers", gen, placed)

	d.applied = gen
	d.report = rep
	d.page = page
	d.images = images
	return chartErr
}

// Generation returns the generation of the current report.
func (d *Dashboard) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.applied
}

func (d *Dashboard) Report() (*stats.Report, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.report, d.report != nil
}

// RenderCharts renders the current report into r.
func (d *Dashboard) RenderCharts(r charts.Renderer) error {
	rep, ok := d.Report()
	if !ok {
		return ErrNoReport
	}
	return charts.Render(r, rep)
}

// WriteChartsPage writes the interactive chart page of the current report.
func (d *Dashboard) WriteChartsPage(w io.Writer) error {
	d.mu.RLock()
	page := d.page
	d.mu.RUnlock()
	if page == nil {
		return ErrNoReport
	}
	return page.WritePage(w)
}

// ChartImage returns the PNG rendered for mount.
func (d *Dashboard) ChartImage(mount string) ([]byte, bool) {
	d.mu.RLock()
	images := d.images
	d.mu.RUnlock()
	if images == nil {
		return nil, false
	}
	return images.Image(mount)
}
