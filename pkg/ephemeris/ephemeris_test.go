package ephemeris

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/unklstewy/nightsky/pkg/coordinates"
)

func TestParseBody(t *testing.T) {
	tests := []struct {
		input   string
		want    Body
		wantErr bool
	}{
		{"Sun", Sun, false},
		{"moon", Moon, false},
		{" JUPITER ", Jupiter, false},
		{"Saturn", Saturn, false},
		{"Pluto", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBody(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBody(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrUnknownBody) {
					t.Errorf("ParseBody(%q) error %v does not wrap ErrUnknownBody", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseBody(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBodyClassification(t *testing.T) {
	if Sun.IsPlanet() || Moon.IsPlanet() {
		t.Error("Sun and Moon must not be planets")
	}
	for _, p := range Planets {
		if !p.IsPlanet() {
			t.Errorf("%v should be a planet", p)
		}
	}
	if Body(42).Valid() {
		t.Error("Body(42) should be invalid")
	}

	want := []Body{Mars, Venus, Jupiter, Saturn, Mercury}
	for i, b := range want {
		if Planets[i] != b {
			t.Errorf("Planets[%d] = %v, want %v", i, Planets[i], b)
		}
	}
	if len(AllBodies()) != 7 {
		t.Errorf("AllBodies() has %d entries, want 7", len(AllBodies()))
	}
}

func TestBodyJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Body{"body": Venus})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"body":"Venus"}` {
		t.Errorf("Marshal = %s", data)
	}

	var back struct{ Body Body }
	if err := json.Unmarshal([]byte(`{"Body":"mars"}`), &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Body != Mars {
		t.Errorf("Unmarshal = %v, want Mars", back.Body)
	}
}

func TestLoadRequiresData(t *testing.T) {
	if _, err := Load(Config{}); err == nil {
		t.Error("Load with no directory should fail")
	}
	if _, err := Load(Config{VSOP87Dir: t.TempDir()}); err == nil {
		t.Error("Load from an empty directory should fail")
	}
}

func TestLunisolarSunPosition(t *testing.T) {
	eph := NewLunisolar(Config{})
	berlin := coordinates.NewObserver(52.473, 13.403)

	// Local apparent noon in Berlin near the June solstice is about 11:08 UTC
	noon := time.Date(2024, 6, 21, 11, 8, 0, 0, time.UTC)
	pos, err := eph.Position(Sun, noon, berlin)
	if err != nil {
		t.Fatalf("Position(Sun) failed: %v", err)
	}

	wantAlt := 90 - 52.473 + 23.44
	if math.Abs(pos.Altitude-wantAlt) > 0.3 {
		t.Errorf("Sun altitude = %.3f, want %.3f", pos.Altitude, wantAlt)
	}
	if coordinates.AzimuthDifference(pos.Azimuth, 180) > 3 {
		t.Errorf("Sun azimuth = %.3f, want about 180", pos.Azimuth)
	}

	midnight := time.Date(2024, 6, 21, 23, 8, 0, 0, time.UTC)
	pos, err = eph.Position(Sun, midnight, berlin)
	if err != nil {
		t.Fatalf("Position(Sun) failed: %v", err)
	}
	if pos.Altitude >= 0 {
		t.Errorf("Sun altitude at local midnight = %.3f, want below horizon", pos.Altitude)
	}
}

func TestSunEclipticLongitudeAtEquinox(t *testing.T) {
	eph := NewLunisolar(Config{})

	// March equinox 2024: 03:06 UTC
	lon, err := eph.EclipticLongitude(Sun, time.Date(2024, 3, 20, 3, 6, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("EclipticLongitude(Sun) failed: %v", err)
	}
	if d := math.Min(lon, 360-lon); d > 0.03 {
		t.Errorf("Sun longitude at equinox = %.4f, want ~0", lon)
	}
}

func TestMoonEclipticLongitude(t *testing.T) {
	eph := NewLunisolar(Config{})

	// 1992 April 12 0h TT, apparent longitude 133.167265 degrees.
	// ΔT was close to 58 s.
	ut := time.Date(1992, 4, 11, 23, 59, 2, 0, time.UTC)
	lon, err := eph.EclipticLongitude(Moon, ut)
	if err != nil {
		t.Fatalf("EclipticLongitude(Moon) failed: %v", err)
	}
	if math.Abs(lon-133.167265) > 0.01 {
		t.Errorf("Moon longitude = %.6f, want 133.167265", lon)
	}
}

func TestMoonTopocentricParallax(t *testing.T) {
	eph := NewLunisolar(Config{})
	ts := time.Date(2024, 8, 12, 12, 0, 0, 0, time.UTC)
	obs := coordinates.NewObserver(52.473, 13.403)

	eq, err := eph.Equatorial(Moon, ts)
	if err != nil {
		t.Fatalf("Equatorial(Moon) failed: %v", err)
	}
	geocentric := coordinates.EquatorialToHorizontal(eq, obs, ts)
	topo, err := eph.Position(Moon, ts, obs)
	if err != nil {
		t.Fatalf("Position(Moon) failed: %v", err)
	}

	// Parallax lowers the Moon by up to about a degree, never raises it
	drop := geocentric.Altitude - topo.Altitude
	if drop <= 0 || drop > 1.1 {
		t.Errorf("parallax drop = %.4f degrees, want within (0, 1.1]", drop)
	}

	// The drop is the horizontal parallax scaled by the cosine of the altitude
	_, distanceKm, err := eph.apparentEquatorial(Moon, julianEphemerisDay(ts))
	if err != nil {
		t.Fatalf("apparentEquatorial(Moon) failed: %v", err)
	}
	hp := math.Asin(6378.14/distanceKm) * coordinates.RadiansToDegrees
	want := hp * math.Cos(topo.Altitude*coordinates.DegreesToRadians)
	if math.Abs(drop-want) > 0.05 {
		t.Errorf("parallax drop = %.4f degrees, want %.4f", drop, want)
	}
}

func TestLunisolarPlanetsUnavailable(t *testing.T) {
	eph := NewLunisolar(Config{})
	obs := coordinates.NewObserver(0, 0)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, p := range Planets {
		if _, err := eph.Position(p, ts, obs); !errors.Is(err, ErrBodyUnavailable) {
			t.Errorf("Position(%v) error = %v, want ErrBodyUnavailable", p, err)
		}
	}
	if _, err := eph.Position(Body(99), ts, obs); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("Position(Body(99)) error = %v, want ErrUnknownBody", err)
	}
	if got := eph.Bodies(); len(got) != 2 {
		t.Errorf("Bodies() = %v, want Sun and Moon only", got)
	}
}

func TestDeltaT(t *testing.T) {
	tests := []struct {
		year int
		want float64
		tol  float64
	}{
		{1992, 58.3, 1.0},
		{2010, 66.1, 0.5},
		{2024, 69.2, 0.5},
	}
	for _, tt := range tests {
		got := deltaT(time.Date(tt.year, 1, 1, 0, 0, 0, 0, time.UTC))
		if math.Abs(got-tt.want) > tt.tol {
			t.Errorf("deltaT(%d) = %.2f, want %.2f±%.1f", tt.year, got, tt.want, tt.tol)
		}
	}

	// No jumps where one approximation hands over to the next
	for _, year := range []int{2018, 2030} {
		before := deltaT(time.Date(year-1, 12, 31, 0, 0, 0, 0, time.UTC))
		after := deltaT(time.Date(year, 1, 2, 0, 0, 0, 0, time.UTC))
		if math.Abs(after-before) > 0.5 {
			t.Errorf("deltaT jumps from %.2f to %.2f around %d", before, after, year)
		}
	}
	if late := deltaT(time.Date(2060, 1, 1, 0, 0, 0, 0, time.UTC)); late <= deltaT(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("deltaT(2060) = %.2f, want growth beyond 2030", late)
	}
}

// TestVenusVSOP87 needs the VSOP87B data files; set NIGHTSKY_VSOP87_DIR to run it.
func TestVenusVSOP87(t *testing.T) {
	dir := os.Getenv("NIGHTSKY_VSOP87_DIR")
	if dir == "" {
		t.Skip("NIGHTSKY_VSOP87_DIR not set")
	}
	eph, err := Load(Config{VSOP87Dir: dir})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// 1992 December 20 0h TT: RA 21h04m41.454s, Dec -18°53'16.84"
	ut := time.Date(1992, 12, 19, 23, 59, 1, 0, time.UTC)
	eq, err := eph.Equatorial(Venus, ut)
	if err != nil {
		t.Fatalf("Equatorial(Venus) failed: %v", err)
	}
	wantRA := 21 + 4.0/60 + 41.454/3600
	wantDec := -(18 + 53.0/60 + 16.84/3600)
	if math.Abs(eq.RightAscension-wantRA) > 0.001 {
		t.Errorf("Venus RA = %.5f, want %.5f", eq.RightAscension, wantRA)
	}
	if math.Abs(eq.Declination-wantDec) > 0.01 {
		t.Errorf("Venus Dec = %.5f, want %.5f", eq.Declination, wantDec)
	}
	if len(eph.Bodies()) != 7 {
		t.Errorf("Bodies() = %v, want all seven", eph.Bodies())
	}
}
