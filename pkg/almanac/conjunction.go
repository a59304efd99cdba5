package almanac

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"cloudeng.io/errors"

	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

// Sampling selects the instants at which conjunctions are tested.
type Sampling string

const (
	// SampleAtSunrise tests only at the instants the Sun rises that day.
	SampleAtSunrise Sampling = "sunrise"

	// SampleHourly tests at every whole UTC hour of the day.
	SampleHourly Sampling = "hourly"
)

// DefaultConjunctionTolerance is the largest altitude and azimuth
// difference, in degrees, that still counts as a conjunction.
const DefaultConjunctionTolerance = 1.0

// ParseSampling resolves a sampling mode name. Empty selects SampleAtSunrise.
func ParseSampling(s string) (Sampling, error) {
	switch Sampling(strings.ToLower(strings.TrimSpace(s))) {
	case "", SampleAtSunrise:
		return SampleAtSunrise, nil
	case SampleHourly:
		return SampleHourly, nil
	}
	return "", fmt.Errorf("unknown conjunction sampling %q", s)
}

// SampleInstants returns the sampling grid for the day described by sun.
func SampleInstants(mode Sampling, sun BodyDay) []time.Time {
	if mode == SampleHourly {
		out := make([]time.Time, 24)
		for h := range out {
			out[h] = sun.Date.Add(time.Duration(h) * time.Hour)
		}
		return out
	}
	return sun.Rises()
}

// Conjunction is a pair of planets found close together at a sampled instant.
type Conjunction struct {
	First          ephemeris.Body                    `json:"planet1"`
	Second         ephemeris.Body                    `json:"planet2"`
	Time           time.Time                         `json:"utc"`
	FirstPosition  coordinates.HorizontalCoordinates `json:"planet1_altaz"`
	SecondPosition coordinates.HorizontalCoordinates `json:"planet2_altaz"`

	// Separation is the great-circle distance in degrees.
	Separation float64 `json:"separation"`
}

// Pair renders the conjunction as "First-Second".
func (c Conjunction) Pair() string {
	return c.First.String() + "-" + c.Second.String()
}

// ConjunctionDetector tests planet pairs for angular proximity.
type ConjunctionDetector struct {
	provider  ephemeris.Provider
	observer  coordinates.Observer
	tolerance float64
}

// NewConjunctionDetector creates a detector using DefaultConjunctionTolerance.
func NewConjunctionDetector(provider ephemeris.Provider, observer coordinates.Observer) *ConjunctionDetector {
	return &ConjunctionDetector{
		provider:  provider,
		observer:  observer,
		tolerance: DefaultConjunctionTolerance,
	}
}

// Detect reports every unordered pair of planets whose altitudes and
// azimuths both differ by less than the tolerance at one of instants.
// Output is ordered by instant, then by the order of planets. A planet
// that cannot be positioned is skipped and its failure is returned once
// alongside the conjunctions that could be computed.
func (d *ConjunctionDetector) Detect(ctx context.Context, planets []ephemeris.Body, instants []time.Time) ([]Conjunction, error) {
	out := []Conjunction{}
	failed := make(map[ephemeris.Body]bool)
	errs := &errors.M{}

	for _, t := range instants {
		if err := ctx.Err(); err != nil {
			errs.Append(err)
			return out, errs.Err()
		}

		positions := make([]*coordinates.HorizontalCoordinates, len(planets))
		for i, p := range planets {
			pos, err := d.provider.Position(p, t, d.observer)
			if err != nil {
				if !failed[p] {
					failed[p] = true
					errs.Append(fmt.Errorf("conjunction: %v: %w", p, err))
				}
				continue
			}
			positions[i] = &pos
		}

		for i := 0; i < len(planets); i++ {
			for j := i + 1; j < len(planets); j++ {
				a, b := positions[i], positions[j]
				if a == nil || b == nil || planets[i] == planets[j] {
					continue
				}
				if !d.close(*a, *b) {
					continue
				}
				out = append(out, Conjunction{
					First:          planets[i],
					Second:         planets[j],
					Time:           t,
					FirstPosition:  *a,
					SecondPosition: *b,
					Separation:     coordinates.AngularSeparation(*a, *b),
				})
			}
		}
	}

	return out, errs.Err()
}

func (d *ConjunctionDetector) close(a, b coordinates.HorizontalCoordinates) bool {
	return math.Abs(a.Altitude-b.Altitude) < d.tolerance &&
		coordinates.AzimuthDifference(a.Azimuth, b.Azimuth) < d.tolerance
}
