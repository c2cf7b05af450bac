package stats

import "motostats/internal/models"

// SeriesDataset backs line and bar charts. Series[i][j] is the value of
// series i at Labels[j].
type SeriesDataset struct {
	Labels []int    `json:"labels"`
	Series [][]int  `json:"series"`
	Names  []string `json:"names,omitempty"`
}

type PieDataset struct {
	Labels []string `json:"labels"`
	Series []int    `json:"series"`
}

// LocationDataset pairs coordinates with offer counts. Labels holding the
// sentinel coordinate could not be geocoded.
type LocationDataset struct {
	Labels []models.LatLng `json:"labels"`
	Series []int           `json:"series"`
	Names  []string        `json:"names,omitempty"`
}

// Report is the payload returned to the browser by POST /data.
type Report struct {
	YearPrice    SeriesDataset   `json:"yearPrice"`
	YearMilage   SeriesDataset   `json:"yearMilage"`
	YearQuantity SeriesDataset   `json:"yearQuantity"`
	FuelType     PieDataset      `json:"fuelType"`
	LocationData LocationDataset `json:"locationData"`
}
