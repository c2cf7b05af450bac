// Package geo normalises listing locations before they are geocoded.
package geo

import (
	"strings"
)

var provinces = []string{
	"Dolnośląskie", "Kujawsko-pomorskie", "Lubelskie", "Lubuskie",
	"Łódzkie", "Małopolskie", "Mazowieckie", "Opolskie",
	"Podkarpackie", "Podlaskie", "Pomorskie", "Śląskie",
	"Świętokrzyskie", "Warmińsko-mazurskie", "Wielkopolskie", "Zachodniopomorskie",
}

const country = "Polska"

func IsProvince(place string) bool {
	return canonicalProvince(place) != ""
}

func canonicalProvince(place string) string {
	place = strings.TrimSpace(place)
	for _, p := range provinces {
		if strings.EqualFold(p, place) {
			return p
		}
	}
	return ""
}

// IdentifyPlace classifies a location token as a "province" or a "city".
func IdentifyPlace(place string) string {
	if IsProvince(place) {
		return "province"
	}
	return "city"
}

// Split breaks a listing location such as "Kraków (Małopolskie)" into its city
// and province parts. Either part may be empty.
func Split(location string) (city, province string) {
	location = strings.Join(strings.Fields(location), " ")
	open := strings.LastIndex(location, "(")
	if open == -1 || !strings.HasSuffix(location, ")") {
		if IsProvince(location) {
			return "", canonicalProvince(location)
		}
		return location, ""
	}
	city = strings.TrimSpace(location[:open])
	province = strings.TrimSpace(location[open+1 : len(location)-1])
	if p := canonicalProvince(province); p != "" {
		province = p
	}
	return city, province
}

// Query turns a listing location into a geocoding query, e.g.
// "Kraków (Małopolskie)" -> "Kraków, Małopolskie, Polska".
func Query(location string) string {
	city, province := Split(location)
	parts := make([]string, 0, 3)
	if city != "" {
		parts = append(parts, city)
	}
	if province != "" {
		parts = append(parts, province)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(append(parts, country), ", ")
}
