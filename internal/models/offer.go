package models

import "strconv"

// Offer is a single listing scraped from a results page. Numeric fields are
// nil when the listing does not state them or they could not be parsed.
type Offer struct {
	Price    *int   `json:"price"`
	Year     *int   `json:"year"`
	Mileage  *int   `json:"mileage"`
	Capacity *int   `json:"capacity"`
	Fuel     string `json:"fuel"`
	Location string `json:"location"`
}

// OfferFields is the column order used for CSV exports and the archive table.
var OfferFields = []string{"price", "year", "mileage", "capacity", "fuel", "location"}

// Record renders the offer as a CSV row in OfferFields order.
func (o Offer) Record() []string {
	return []string{
		formatInt(o.Price),
		formatInt(o.Year),
		formatInt(o.Mileage),
		formatInt(o.Capacity),
		o.Fuel,
		o.Location,
	}
}

// Int returns a pointer to v. Handy for building offers in tests and parsers.
func Int(v int) *int {
	return &v
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
