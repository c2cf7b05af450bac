// Package charts renders the four dashboard charts from a report.
package charts

import (
	"errors"
	"fmt"

	"motostats/internal/stats"
)

// DOM mount ids of the dashboard charts.
const (
	MountYearPrice    = "chart_year_price"
	MountYearMilage   = "chart_year_milage"
	MountYearQuantity = "chart_year_quantity"
	MountFuelType     = "chart_fuel_type"
)

// Mounts lists the chart mount ids in render order.
var Mounts = []string{MountYearPrice, MountYearMilage, MountYearQuantity, MountFuelType}

// BarWidth is the width of the stacked quantity bars, in pixels.
const BarWidth = 30

var titles = map[string]string{
	MountYearPrice:    "Average price by year",
	MountYearMilage:   "Average mileage by year",
	MountYearQuantity: "Offers by year and fuel",
	MountFuelType:     "Fuel type",
}

// Renderer draws one chart into the mount identified by mount.
type Renderer interface {
	Line(mount string, ds stats.SeriesDataset) error
	StackedBar(mount string, ds stats.SeriesDataset) error
	Pie(mount string, ds stats.PieDataset) error
}

// Render draws the four report charts. Each dataset is handed to the renderer
// as is. Every chart is attempted; failures are joined.
func Render(r Renderer, rep *stats.Report) error {
	if rep == nil {
		return errors.New("charts: no report")
	}
	var errs []error
	if err := r.Line(MountYearPrice, rep.YearPrice); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", MountYearPrice, err))
	}
	if err := r.Line(MountYearMilage, rep.YearMilage); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", MountYearMilage, err))
	}
	if err := r.StackedBar(MountYearQuantity, rep.YearQuantity); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", MountYearQuantity, err))
	}
	if err := r.Pie(MountFuelType, rep.FuelType); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", MountFuelType, err))
	}
	return errors.Join(errs...)
}

func seriesName(ds stats.SeriesDataset, mount string, i int) string {
	if i < len(ds.Names) && ds.Names[i] != "" {
		return ds.Names[i]
	}
	if len(ds.Series) == 1 {
		return titles[mount]
	}
	return fmt.Sprintf("series %d", i+1)
}
