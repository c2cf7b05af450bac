package storage

import (
	"reflect"
	"testing"
	"time"

	"motostats/internal/models"
)

func TestSnapshotCodec(t *testing.T) {
	snap := models.Snapshot{
		ID:        "8c7f1f8e-0000-4000-8000-000000000001",
		URL:       "https://www.otomoto.pl/osobowe/audi/a4",
		ScrapedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Offers: []models.Offer{
			{Price: models.Int(35900), Year: models.Int(2012), Fuel: "Diesel", Location: "Kraków (Małopolskie)"},
			{Price: models.Int(12500), Fuel: "Benzyna, LPG"},
		},
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if !reflect.DeepEqual(*got, snap) {
		t.Errorf("decoded = %+v, want %+v", *got, snap)
	}
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	if _, err := DecodeSnapshot([]byte("not zstd")); err == nil {
		t.Error("expected error for non-zstd input")
	}
	plain := encoder.EncodeAll([]byte("{broken"), nil)
	if _, err := DecodeSnapshot(plain); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestOfferRows(t *testing.T) {
	snap := models.Snapshot{
		ID: "id-1",
		Offers: []models.Offer{
			{Price: models.Int(100), Fuel: "Diesel"},
			{Location: "Łódź"},
		},
	}
	rows := offerRows(snap)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if len(r) != len(offerColumns) {
			t.Fatalf("row has %d values, want %d", len(r), len(offerColumns))
		}
	}
	if rows[0][0] != "id-1" || rows[1][1] != 1 {
		t.Errorf("unexpected key columns: %v %v", rows[0][:2], rows[1][:2])
	}
	if p, ok := rows[0][2].(*int); !ok || *p != 100 {
		t.Errorf("price = %v", rows[0][2])
	}
	if p, ok := rows[1][2].(*int); !ok || p != nil {
		t.Errorf("unknown price = %v, want nil *int", rows[1][2])
	}
}
