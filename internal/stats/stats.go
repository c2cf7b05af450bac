// Package stats aggregates scraped offers into chart datasets.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"motostats/internal/models"
)

const outlierZ = 3

// RemoveOutliers keeps offers with a known price and mileage whose price
// lies within three sample standard deviations of the mean, then applies the
// same filter to mileage on the survivors. A column with fewer than two
// values or zero spread filters nothing.
func RemoveOutliers(offers []models.Offer) []models.Offer {
	kept := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		if o.Price != nil && o.Mileage != nil {
			kept = append(kept, o)
		}
	}
	kept = filterZ(kept, func(o models.Offer) float64 { return float64(*o.Price) })
	kept = filterZ(kept, func(o models.Offer) float64 { return float64(*o.Mileage) })
	return kept
}

func filterZ(offers []models.Offer, value func(models.Offer) float64) []models.Offer {
	if len(offers) < 2 {
		return offers
	}
	xs := make([]float64, len(offers))
	for i, o := range offers {
		xs[i] = value(o)
	}
	mean := stat.Mean(xs, nil)
	std := stat.StdDev(xs, nil)
	if std == 0 || math.IsNaN(std) {
		return offers
	}

	out := offers[:0:0]
	for i, o := range offers {
		if math.Abs((xs[i]-mean)/std) < outlierZ {
			out = append(out, o)
		}
	}
	return out
}

// YearPrice returns the truncated mean price per production year.
func YearPrice(offers []models.Offer) SeriesDataset {
	return yearMean(offers, func(o models.Offer) *int { return o.Price })
}

// YearMilage returns the truncated mean mileage per production year.
func YearMilage(offers []models.Offer) SeriesDataset {
	return yearMean(offers, func(o models.Offer) *int { return o.Mileage })
}

func yearMean(offers []models.Offer, field func(models.Offer) *int) SeriesDataset {
	values := map[int][]float64{}
	for _, o := range offers {
		if o.Year == nil {
			continue
		}
		v := field(o)
		if v == nil {
			continue
		}
		values[*o.Year] = append(values[*o.Year], float64(*v))
	}

	years := sortedInts(values)
	means := make([]int, len(years))
	for i, y := range years {
		means[i] = int(stat.Mean(values[y], nil))
	}
	return SeriesDataset{Labels: years, Series: [][]int{means}}
}

// YearQuantity counts offers per year with one series per fuel type.
func YearQuantity(offers []models.Offer) SeriesDataset {
	counts := map[string]map[int]int{}
	yearSet := map[int]struct{}{}
	for _, o := range offers {
		if o.Year == nil {
			continue
		}
		yearSet[*o.Year] = struct{}{}
		if o.Fuel == "" {
			continue
		}
		if counts[o.Fuel] == nil {
			counts[o.Fuel] = map[int]int{}
		}
		counts[o.Fuel][*o.Year]++
	}

	years := sortedInts(yearSet)
	fuels := sortedStrings(counts)
	series := make([][]int, len(fuels))
	for i, f := range fuels {
		row := make([]int, len(years))
		for j, y := range years {
			row[j] = counts[f][y]
		}
		series[i] = row
	}
	return SeriesDataset{Labels: years, Series: series, Names: fuels}
}

// FuelType counts offers per fuel type.
func FuelType(offers []models.Offer) PieDataset {
	counts := countBy(offers, func(o models.Offer) string { return o.Fuel })
	labels := sortedStrings(counts)
	series := make([]int, len(labels))
	for i, l := range labels {
		series[i] = counts[l]
	}
	return PieDataset{Labels: labels, Series: series}
}

// LocationCounts returns the distinct locations, sorted, with the number of
// offers listed at each.
func LocationCounts(offers []models.Offer) (names []string, counts []int) {
	byLocation := countBy(offers, func(o models.Offer) string { return o.Location })
	names = sortedStrings(byLocation)
	counts = make([]int, len(names))
	for i, n := range names {
		counts[i] = byLocation[n]
	}
	return names, counts
}

func countBy(offers []models.Offer, key func(models.Offer) string) map[string]int {
	counts := map[string]int{}
	for _, o := range offers {
		if k := key(o); k != "" {
			counts[k]++
		}
	}
	return counts
}

func sortedInts[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStrings[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
