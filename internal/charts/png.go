package charts

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"

	"github.com/wcharczuk/go-chart/v2"

	"motostats/internal/stats"
)

// PNG renders static chart images keyed by mount id.
type PNG struct {
	Width, Height int

	mu     sync.Mutex
	images map[string][]byte
}

func NewPNG() *PNG {
	return &PNG{Width: 900, Height: 400, images: map[string][]byte{}}
}

func (p *PNG) store(mount string, buf *bytes.Buffer) {
	p.mu.Lock()
	p.images[mount] = buf.Bytes()
	p.mu.Unlock()
}

// Image returns the rendered image for mount.
func (p *PNG) Image(mount string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.images[mount]
	return b, ok
}

func (p *PNG) Line(mount string, ds stats.SeriesDataset) error {
	xs := make([]float64, len(ds.Labels))
	for i, l := range ds.Labels {
		xs[i] = float64(l)
	}

	var series []chart.Series
	for i, s := range ds.Series {
		ys := make([]float64, len(s))
		labels := make([]chart.Value2, 0, len(s))
		for j, v := range s {
			ys[j] = float64(v)
			if j < len(xs) {
				labels = append(labels, chart.Value2{XValue: xs[j], YValue: ys[j], Label: strconv.Itoa(v)})
			}
		}
		name := seriesName(ds, mount, i)
		series = append(series,
			chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys},
			chart.AnnotationSeries{Name: name + " labels", Annotations: labels},
		)
	}

	graph := chart.Chart{
		Title:  titles[mount],
		Width:  p.Width,
		Height: p.Height,
		XAxis: chart.XAxis{
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return strconv.Itoa(int(f))
				}
				return ""
			},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render line: %w", err)
	}
	p.store(mount, &buf)
	return nil
}

func (p *PNG) StackedBar(mount string, ds stats.SeriesDataset) error {
	bars := make([]chart.StackedBar, len(ds.Labels))
	for j, year := range ds.Labels {
		values := make([]chart.Value, 0, len(ds.Series))
		for i, s := range ds.Series {
			if j < len(s) && s[j] > 0 {
				values = append(values, chart.Value{Label: seriesName(ds, mount, i), Value: float64(s[j])})
			}
		}
		bars[j] = chart.StackedBar{Name: strconv.Itoa(year), Width: BarWidth, Values: values}
	}

	graph := chart.StackedBarChart{
		Title:  titles[mount],
		Width:  p.Width,
		Height: p.Height,
		Bars:   bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render stacked bar: %w", err)
	}
	p.store(mount, &buf)
	return nil
}

func (p *PNG) Pie(mount string, ds stats.PieDataset) error {
	values := make([]chart.Value, 0, len(ds.Labels))
	for i, l := range ds.Labels {
		if i < len(ds.Series) {
			values = append(values, chart.Value{Label: fmt.Sprintf("%s: %d", l, ds.Series[i]), Value: float64(ds.Series[i])})
		}
	}

	graph := chart.PieChart{
		Title:  titles[mount],
		Width:  p.Width,
		Height: p.Height,
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render pie: %w", err)
	}
	p.store(mount, &buf)
	return nil
}
