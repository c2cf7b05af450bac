package charts

import (
	"io"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"motostats/internal/stats"
)

// ECharts collects interactive charts into a single HTML page. Chart ids
// equal their mount ids.
type ECharts struct {
	mu     sync.Mutex
	charts []components.Charter
}

func NewECharts() *ECharts {
	return &ECharts{}
}

func (e *ECharts) add(c components.Charter) {
	e.mu.Lock()
	e.charts = append(e.charts, c)
	e.mu.Unlock()
}

func initOpts(mount string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		ChartID:   mount,
		PageTitle: "motostats",
		Width:     "900px",
		Height:    "400px",
	})
}

func pointLabels() charts.SeriesOpts {
	return charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})
}

func (e *ECharts) Line(mount string, ds stats.SeriesDataset) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(mount),
		charts.WithTitleOpts(opts.Title{Title: titles[mount]}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(ds.Labels)
	for i, s := range ds.Series {
		data := make([]opts.LineData, len(s))
		for j, v := range s {
			data[j] = opts.LineData{Value: v}
		}
		line.AddSeries(seriesName(ds, mount, i), data, pointLabels())
	}
	e.add(line)
	return nil
}

func (e *ECharts) StackedBar(mount string, ds stats.SeriesDataset) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(mount),
		charts.WithTitleOpts(opts.Title{Title: titles[mount]}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	bar.SetXAxis(ds.Labels)
	for i, s := range ds.Series {
		data := make([]opts.BarData, len(s))
		for j, v := range s {
			data[j] = opts.BarData{Value: v}
		}
		bar.AddSeries(seriesName(ds, mount, i), data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "total", BarWidth: "30px"}),
		)
	}
	e.add(bar)
	return nil
}

func (e *ECharts) Pie(mount string, ds stats.PieDataset) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts(mount),
		charts.WithTitleOpts(opts.Title{Title: titles[mount]}),
	)
	data := make([]opts.PieData, len(ds.Labels))
	for i, l := range ds.Labels {
		var v int
		if i < len(ds.Series) {
			v = ds.Series[i]
		}
		data[i] = opts.PieData{Name: l, Value: v}
	}
	pie.AddSeries(titles[mount], data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}),
	)
	e.add(pie)
	return nil
}

// Len returns the number of collected charts.
func (e *ECharts) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.charts)
}

// WritePage renders the collected charts as one HTML page.
func (e *ECharts) WritePage(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	page := components.NewPage()
	page.SetPageTitle("motostats")
	page.AddCharts(e.charts...)
	return page.Render(w)
}
