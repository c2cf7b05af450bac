package otomoto

import (
	"encoding/csv"
	"fmt"
	"io"

	"motostats/internal/models"
)

// WriteCSV writes offers with a header row in models.OfferFields order.
func WriteCSV(w io.Writer, offers []models.Offer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.OfferFields); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, o := range offers {
		if err := cw.Write(o.Record()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
