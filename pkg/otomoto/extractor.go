package otomoto

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"motostats/internal/models"
)

const (
	offerSelector    = "div.offer-item__content"
	priceSelector    = "span.offer-price__number"
	paramSelector    = "li.offer-item__params-item"
	locationSelector = "span.offer-item__location"
	pageSelector     = "span.page"
	counterSelector  = "#tabs-container span.counter"
)

// PageCount returns the number of result pages announced by the paginator.
// A search with a single page has no paginator at all.
func PageCount(doc *goquery.Document) int {
	pages := doc.Find(pageSelector)
	if pages.Length() < 2 {
		return 1
	}
	// the last span is the "next" arrow
	n, err := strconv.Atoi(compact(pages.Eq(pages.Length() - 2).Text()))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// OfferCount returns the total number of offers shown in the results tab.
func OfferCount(doc *goquery.Document) (int, bool) {
	counter := doc.Find(counterSelector).First()
	if counter.Length() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.Trim(compact(counter.Text()), "()"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseOffers extracts every offer on a result page.
func ParseOffers(doc *goquery.Document) []models.Offer {
	var offers []models.Offer
	doc.Find(offerSelector).Each(func(_ int, s *goquery.Selection) {
		offers = append(offers, parseOffer(s))
	})
	return offers
}

func parseOffer(s *goquery.Selection) models.Offer {
	return models.Offer{
		Price:    parsePrice(s.Find(priceSelector).First().Text()),
		Year:     atoi(param(s, "year")),
		Mileage:  atoi(strings.TrimSuffix(param(s, "mileage"), "km")),
		Capacity: atoi(strings.TrimSuffix(param(s, "engine_capacity"), "cm3")),
		Fuel:     param(s, "fuel_type"),
		Location: strings.Join(strings.Fields(s.Find(locationSelector).First().Text()), " "),
	}
}

// param returns the compacted text of the params item with the given data-code.
func param(s *goquery.Selection, code string) string {
	return compact(s.Find(paramSelector + `[data-code="` + code + `"]`).First().Text())
}

func parsePrice(text string) *int {
	price := compact(text)
	price = strings.NewReplacer("PLN", "", "EUR", "").Replace(price)
	price, _, _ = strings.Cut(price, ",")
	return atoi(price)
}

// compact removes all whitespace, so "125 000 km" becomes "125000km".
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func atoi(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
