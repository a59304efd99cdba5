package localtime

import (
	"errors"
	"testing"
	"time"
)

func TestLookup(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"Berlin", 52.473, 13.403, "Europe/Berlin"},
		{"Tokyo", 35.68, 139.69, "Asia/Tokyo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := r.Lookup(tt.lat, tt.lon)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if loc.String() != tt.want {
				t.Errorf("Lookup = %s, want %s", loc, tt.want)
			}
		})
	}
}

func TestLookupHighLatitude(t *testing.T) {
	loc, err := NewResolver().Lookup(78.22, 15.65)
	if err != nil {
		t.Fatalf("Lookup(Svalbard) failed: %v", err)
	}
	_, offset := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC).In(loc).Zone()
	if offset != 2*3600 {
		t.Errorf("Svalbard summer offset = %d, want 7200", offset)
	}
}

func TestLookupOcean(t *testing.T) {
	r := NewResolver()
	loc, err := r.Lookup(-40.0, -30.0)
	if !errors.Is(err, ErrNoZone) {
		t.Errorf("Lookup(South Atlantic) error = %v, want ErrNoZone", err)
	}
	if loc != nil {
		t.Errorf("Lookup(South Atlantic) = %v, want nil", loc)
	}
}

func TestLookupCachesLocations(t *testing.T) {
	r := NewResolver()
	a, err := r.Lookup(52.5, 13.4)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	b, err := r.Lookup(52.4, 13.1)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if a != b {
		t.Error("lookups in the same zone should share a *time.Location")
	}
}

func TestToLocal(t *testing.T) {
	if ToLocal(time.Now(), nil) != nil {
		t.Error("ToLocal with nil location should be nil")
	}

	r := NewResolver()
	loc, err := r.Lookup(52.473, 13.403)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	summer := ToLocal(time.Date(2024, 8, 12, 3, 50, 0, 0, time.UTC), loc)
	if summer.Hour() != 5 {
		t.Errorf("summer local hour = %d, want 5 (CEST)", summer.Hour())
	}
	winter := ToLocal(time.Date(2024, 1, 12, 7, 0, 0, 0, time.UTC), loc)
	if winter.Hour() != 8 {
		t.Errorf("winter local hour = %d, want 8 (CET)", winter.Hour())
	}
}

func TestFixedZone(t *testing.T) {
	f, err := FixedZone("Asia/Tokyo")
	if err != nil {
		t.Fatalf("FixedZone failed: %v", err)
	}
	loc, err := f.Lookup(-40, -30)
	if err != nil || loc.String() != "Asia/Tokyo" {
		t.Errorf("Lookup = %v, %v", loc, err)
	}

	if _, err := FixedZone("Not/AZone"); err == nil {
		t.Error("FixedZone should reject unknown names")
	}
	if _, err := (Fixed{}).Lookup(0, 0); !errors.Is(err, ErrNoZone) {
		t.Errorf("empty Fixed: got %v, want ErrNoZone", err)
	}
}

type failingFinder struct{ err error }

func (f failingFinder) Lookup(float64, float64) (*time.Location, error) { return nil, f.err }

func TestChain(t *testing.T) {
	berlin, err := FixedZone("Europe/Berlin")
	if err != nil {
		t.Fatalf("FixedZone failed: %v", err)
	}
	chain := Chain{NewResolver(), berlin}

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"coordinates win", 35.68, 139.69, "Asia/Tokyo"},
		{"fallback over ocean", -40.0, -30.0, "Europe/Berlin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := chain.Lookup(tt.lat, tt.lon)
			if err != nil || loc.String() != tt.want {
				t.Errorf("Lookup = %v, %v; want %s", loc, err, tt.want)
			}
		})
	}

	if _, err := (Chain{NewResolver()}).Lookup(-40.0, -30.0); !errors.Is(err, ErrNoZone) {
		t.Errorf("ocean without fallback: got %v, want ErrNoZone", err)
	}
	if _, err := (Chain{}).Lookup(0, 0); !errors.Is(err, ErrNoZone) {
		t.Errorf("empty chain: got %v, want ErrNoZone", err)
	}

	broken := errors.New("zone database unreadable")
	if _, err := (Chain{failingFinder{broken}, berlin}).Lookup(0, 0); !errors.Is(err, broken) {
		t.Errorf("hard failure should stop the chain, got %v", err)
	}
}
