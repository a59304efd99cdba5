package almanac

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

// MoonPhase is one of the eight named lunar phases.
type MoonPhase int

const (
	NewMoon MoonPhase = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	LastQuarter
	WaningCrescent
)

var phaseNames = [...]string{
	NewMoon:        "New Moon",
	WaxingCrescent: "Waxing Crescent",
	FirstQuarter:   "First Quarter",
	WaxingGibbous:  "Waxing Gibbous",
	FullMoon:       "Full Moon",
	WaningGibbous:  "Waning Gibbous",
	LastQuarter:    "Last Quarter",
	WaningCrescent: "Waning Crescent",
}

// PhaseNames lists the phase labels in elongation order.
func PhaseNames() []string {
	return append([]string(nil), phaseNames[:]...)
}

func (p MoonPhase) String() string {
	if p < NewMoon || p > WaningCrescent {
		return fmt.Sprintf("MoonPhase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText renders the phase label.
func (p MoonPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase label as produced by MarshalText.
func (p *MoonPhase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase resolves a case-insensitive phase label.
func ParsePhase(name string) (MoonPhase, error) {
	for i, n := range phaseNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return MoonPhase(i), nil
		}
	}
	return NewMoon, fmt.Errorf("unknown moon phase %q", name)
}

// PhaseFromElongation maps a Moon-Sun elongation in degrees onto one of
// eight 45 degree sectors, each centred on its named phase.
func PhaseFromElongation(elongation float64) MoonPhase {
	sector := int(coordinates.NormalizeDegrees(elongation+22.5) / 45.0)
	if sector > int(WaningCrescent) {
		sector = int(NewMoon)
	}
	return MoonPhase(sector)
}

// Illumination returns the illuminated fraction of the lunar disk for an
// elongation in degrees.
func Illumination(elongation float64) float64 {
	return (1 - math.Cos(elongation*coordinates.DegreesToRadians)) / 2
}

// Elongation returns the Moon's ecliptic longitude minus the Sun's, in
// degrees [0, 360). It increases from New Moon through Full Moon.
func Elongation(provider ephemeris.Provider, t time.Time) (float64, error) {
	moon, err := provider.EclipticLongitude(ephemeris.Moon, t)
	if err != nil {
		return 0, fmt.Errorf("failed to get Moon longitude: %w", err)
	}
	sun, err := provider.EclipticLongitude(ephemeris.Sun, t)
	if err != nil {
		return 0, fmt.Errorf("failed to get Sun longitude: %w", err)
	}
	return coordinates.NormalizeDegrees(moon - sun), nil
}

// MoonInfo summarizes the Moon for one day.
type MoonInfo struct {
	Moonrise     *time.Time `json:"moonrise"`
	Moonset      *time.Time `json:"moonset"`
	Phase        MoonPhase  `json:"phase"`
	Elongation   float64    `json:"elongation"`
	Illumination float64    `json:"illumination"`
}

// MoonInfoFromDay builds MoonInfo from the Moon's crossings. When the Moon
// rises or sets more than once the last crossing of each kind is reported.
// The phase is taken at the start of the day.
func MoonInfoFromDay(day BodyDay, provider ephemeris.Provider) (MoonInfo, error) {
	var info MoonInfo
	if ev := day.LastRise(); ev != nil {
		t := ev.Time
		info.Moonrise = &t
	}
	if ev := day.LastSet(); ev != nil {
		t := ev.Time
		info.Moonset = &t
	}

	e, err := Elongation(provider, day.Date)
	if err != nil {
		return info, err
	}
	info.Elongation = e
	info.Phase = PhaseFromElongation(e)
	info.Illumination = Illumination(e)
	return info, nil
}

// MoonInfo computes moonrise, moonset and phase for the UTC day of date.
func (c *Calculator) MoonInfo(ctx context.Context, date time.Time) (MoonInfo, error) {
	day, err := c.RiseSet(ctx, ephemeris.Moon, date)
	if err != nil {
		return MoonInfo{}, err
	}
	return MoonInfoFromDay(day, c.provider)
}
