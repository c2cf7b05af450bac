package charts

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"motostats/internal/models"
	"motostats/internal/stats"
)

func sampleReport() *stats.Report {
	return &stats.Report{
		YearPrice:  stats.SeriesDataset{Labels: []int{2010, 2012, 2014}, Series: [][]int{{22500, 30000, 41000}}},
		YearMilage: stats.SeriesDataset{Labels: []int{2010, 2012, 2014}, Series: [][]int{{190000, 150000, 120000}}},
		YearQuantity: stats.SeriesDataset{
			Labels: []int{2010, 2012, 2014},
			Series: [][]int{{1, 2, 0}, {1, 0, 1}},
			Names:  []string{"Benzyna", "Diesel"},
		},
		FuelType: stats.PieDataset{Labels: []string{"Benzyna", "Diesel"}, Series: []int{3, 2}},
		LocationData: stats.LocationDataset{
			Labels: []models.LatLng{{Lat: 50.06, Lng: 19.94}},
			Series: []int{3},
		},
	}
}

type call struct {
	kind  string
	mount string
	data  any
}

type recorder struct {
	calls []call
	fail  string
}

func (r *recorder) record(kind, mount string, data any) error {
	r.calls = append(r.calls, call{kind, mount, data})
	if mount == r.fail {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Line(mount string, ds stats.SeriesDataset) error {
	return r.record("line", mount, ds)
}

func (r *recorder) StackedBar(mount string, ds stats.SeriesDataset) error {
	return r.record("bar", mount, ds)
}

func (r *recorder) Pie(mount string, ds stats.PieDataset) error {
	return r.record("pie", mount, ds)
}

func TestRender_PassesDatasetsUnmodified(t *testing.T) {
	rep := sampleReport()
	r := &recorder{}
	if err := Render(r, rep); err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := []call{
		{"line", MountYearPrice, rep.YearPrice},
		{"line", MountYearMilage, rep.YearMilage},
		{"bar", MountYearQuantity, rep.YearQuantity},
		{"pie", MountFuelType, rep.FuelType},
	}
	if !reflect.DeepEqual(r.calls, want) {
		t.Errorf("calls = %+v\nwant  %+v", r.calls, want)
	}
	if !reflect.DeepEqual(rep, sampleReport()) {
		t.Error("report was modified during render")
	}
}

func TestRender_Errors(t *testing.T) {
	r := &recorder{fail: MountYearMilage}
	err := Render(r, sampleReport())
	if err == nil || !strings.Contains(err.Error(), MountYearMilage) {
		t.Fatalf("err = %v, want failure naming %s", err, MountYearMilage)
	}
	if len(r.calls) != 4 {
		t.Errorf("calls = %d, want all 4 charts attempted", len(r.calls))
	}

	if err := Render(&recorder{}, nil); err == nil {
		t.Error("expected error for nil report")
	}
}

func TestECharts(t *testing.T) {
	e := NewECharts()
	if err := Render(e, sampleReport()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if e.Len() != 4 {
		t.Fatalf("Len = %d, want 4", e.Len())
	}

	var buf bytes.Buffer
	if err := e.WritePage(&buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	html := buf.String()
	for _, mount := range Mounts {
		if !strings.Contains(html, mount) {
			t.Errorf("page missing chart %s", mount)
		}
	}
	for _, want := range []string{"Benzyna", "30px", "total"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPNG(t *testing.T) {
	p := NewPNG()
	if err := Render(p, sampleReport()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, mount := range Mounts {
		img, ok := p.Image(mount)
		if !ok {
			t.Errorf("no image for %s", mount)
			continue
		}
		if !bytes.HasPrefix(img, []byte("\x89PNG")) {
			t.Errorf("%s is not a PNG", mount)
		}
	}
	if _, ok := p.Image("chart_unknown"); ok {
		t.Error("unexpected image for unknown mount")
	}
}

func TestSeriesName(t *testing.T) {
	tests := []struct {
		name string
		ds   stats.SeriesDataset
		i    int
		want string
	}{
		{"named", stats.SeriesDataset{Series: [][]int{{1}, {2}}, Names: []string{"a", "b"}}, 1, "b"},
		{"single unnamed", stats.SeriesDataset{Series: [][]int{{1}}}, 0, titles[MountYearPrice]},
		{"multi unnamed", stats.SeriesDataset{Series: [][]int{{1}, {2}}}, 1, "series 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := seriesName(tt.ds, MountYearPrice, tt.i); got != tt.want {
				t.Errorf("seriesName = %q, want %q", got, tt.want)
			}
		})
	}
}
