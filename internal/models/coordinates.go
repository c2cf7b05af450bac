package models

// LatLng is a WGS84 coordinate. A zero latitude marks a location that could
// not be resolved; it never means the equator.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Unresolved is the sentinel returned for locations without coordinates.
var Unresolved = LatLng{}

func (l LatLng) IsSentinel() bool {
	return l.Lat == 0
}
