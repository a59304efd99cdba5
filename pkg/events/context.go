// Package events assembles the astronomical events of one day for one
// observer from the ephemeris, almanac, meteor calendar and time zone
// resolver.
package events

import (
	"errors"
	"time"

	"github.com/unklstewy/nightsky/pkg/almanac"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
	"github.com/unklstewy/nightsky/pkg/meteors"
)

// ZoneResolver maps coordinates to a civil time zone.
type ZoneResolver interface {
	Lookup(latitude, longitude float64) (*time.Location, error)
}

// AstronomyContext carries the long-lived, read-only collaborators of the
// aggregator. Build it once at startup and share it between requests.
type AstronomyContext struct {
	// Ephemeris positions the Sun, Moon and planets.
	Ephemeris ephemeris.Provider

	// Showers is the meteor shower calendar.
	Showers *meteors.Calendar

	// Zones resolves the observer's time zone. A nil resolver treats every
	// zone as unknown.
	Zones ZoneResolver

	// Search tunes the horizon crossing search.
	Search almanac.SearchOptions

	// Sampling selects the conjunction sampling grid.
	Sampling almanac.Sampling
}

// Validate checks that the required collaborators are present.
func (a AstronomyContext) Validate() error {
	if a.Ephemeris == nil {
		return errors.New("astronomy context: no ephemeris")
	}
	if a.Showers == nil {
		return errors.New("astronomy context: no meteor shower calendar")
	}
	if _, err := almanac.ParseSampling(string(a.Sampling)); err != nil {
		return err
	}
	return nil
}
