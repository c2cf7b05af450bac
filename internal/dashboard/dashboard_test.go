package dashboard

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"motostats/internal/charts"
	"motostats/internal/mapview"
	"motostats/internal/models"
	"motostats/internal/stats"
)

func report(count int) *stats.Report {
	return &stats.Report{
		YearPrice:    stats.SeriesDataset{Labels: []int{2010, 2012}, Series: [][]int{{20000, 30000}}},
		YearMilage:   stats.SeriesDataset{Labels: []int{2010, 2012}, Series: [][]int{{200000, 150000}}},
		YearQuantity: stats.SeriesDataset{Labels: []int{2010, 2012}, Series: [][]int{{1, 2}}, Names: []string{"Diesel"}},
		FuelType:     stats.PieDataset{Labels: []string{"Diesel"}, Series: []int{3}},
		LocationData: stats.LocationDataset{
			Labels: []models.LatLng{{Lat: 50.06, Lng: 19.94}, models.Unresolved},
			Series: []int{count, 7},
		},
	}
}

func TestDashboard_Apply(t *testing.T) {
	d := New(nil)
	if _, ok := d.Report(); ok {
		t.Fatal("new dashboard has a report")
	}

	gen := d.Begin()
	if err := d.Apply(gen, report(3)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := len(d.View().Markers()); got != 3 {
		t.Errorf("markers = %d, want 3", got)
	}
	if d.Generation() != gen {
		t.Errorf("Generation = %d, want %d", d.Generation(), gen)
	}

	var buf bytes.Buffer
	if err := d.WriteChartsPage(&buf); err != nil {
		t.Fatalf("WriteChartsPage: %v", err)
	}
	if !strings.Contains(buf.String(), charts.MountFuelType) {
		t.Error("chart page missing fuel chart")
	}
	if _, ok := d.ChartImage(charts.MountYearQuantity); !ok {
		t.Error("missing quantity image")
	}
}

func TestDashboard_ReplacesMarkers(t *testing.T) {
	d := New(mapview.New())
	d.View().AddMarker(models.LatLng{Lat: 54, Lng: 18}, "manual")

	if err := d.Apply(d.Begin(), report(2)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	first := d.View().Markers()
	if err := d.Apply(d.Begin(), report(1)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	second := d.View().Markers()

	if len(first) != 2 || len(second) != 1 {
		t.Fatalf("markers = %d then %d, want 2 then 1", len(first), len(second))
	}
	for _, m := range first {
		if m.ID == second[0].ID {
			t.Error("marker survived refresh")
		}
	}
}

func TestDashboard_StaleGeneration(t *testing.T) {
	d := New(nil)
	older := d.Begin()
	newer := d.Begin()

	if err := d.Apply(newer, report(4)); err != nil {
		t.Fatalf("Apply newer: %v", err)
	}
	err := d.Apply(older, report(1))
	if !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if got := len(d.View().Markers()); got != 4 {
		t.Errorf("markers = %d, want 4 from the newer report", got)
	}
	rep, _ := d.Report()
	if rep.LocationData.Series[0] != 4 {
		t.Error("stale report replaced the newer one")
	}
}

func TestDashboard_OlderFinishingFirstIsApplied(t *testing.T) {
	d := New(nil)
	older := d.Begin()
	newer := d.Begin()

	if err := d.Apply(older, report(1)); err != nil {
		t.Fatalf("Apply older: %v", err)
	}
	if err := d.Apply(newer, report(2)); err != nil {
		t.Fatalf("Apply newer: %v", err)
	}
	if got := len(d.View().Markers()); got != 2 {
		t.Errorf("markers = %d, want 2", got)
	}
}

type recorder struct{ mounts []string }

func (r *recorder) Line(m string, _ stats.SeriesDataset) error {
	r.mounts = append(r.mounts, m)
	return nil
}

func (r *recorder) StackedBar(m string, _ stats.SeriesDataset) error {
	r.mounts = append(r.mounts, m)
	return nil
}

func (r *recorder) Pie(m string, _ stats.PieDataset) error {
	r.mounts = append(r.mounts, m)
	return nil
}

func TestDashboard_RenderCharts(t *testing.T) {
	d := New(nil)
	if err := d.RenderCharts(&recorder{}); !errors.Is(err, ErrNoReport) {
		t.Fatalf("err = %v, want ErrNoReport", err)
	}
	if err := d.WriteChartsPage(&bytes.Buffer{}); !errors.Is(err, ErrNoReport) {
		t.Fatalf("err = %v, want ErrNoReport", err)
	}

	if err := d.Apply(d.Begin(), report(1)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	r := &recorder{}
	if err := d.RenderCharts(r); err != nil {
		t.Fatalf("RenderCharts: %v", err)
	}
	if !reflect.DeepEqual(r.mounts, charts.Mounts) {
		t.Errorf("mounts = %v, want %v", r.mounts, charts.Mounts)
	}
}

func TestDashboard_NilReport(t *testing.T) {
	if err := New(nil).Apply(1, nil); !errors.Is(err, ErrNoReport) {
		t.Errorf("err = %v, want ErrNoReport", err)
	}
}
