package events

import (
	"time"

	"github.com/unklstewy/nightsky/pkg/almanac"
	"github.com/unklstewy/nightsky/pkg/meteors"
)

// Result is everything computed for one observer and day. Every list is
// non-nil so that it encodes as [] rather than null. Results may be shared
// through the cache and must not be modified.
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Date      string  `json:"date"`
	Timezone  string  `json:"timezone,omitempty"`

	VisiblePlanets []almanac.VisiblePlanetWindow `json:"visible_planets"`
	Conjunctions   []almanac.Conjunction         `json:"conjunctions"`
	MeteorShowers  []meteors.ActiveShower        `json:"meteor_showers"`
	MoonInfo       MoonInfo                      `json:"moon_info"`
	SunInfo        SunInfo                       `json:"sun_info"`

	// Diagnostics lists the per-body failures that were skipped.
	Diagnostics []string `json:"diagnostics"`

	ComputedAt time.Time `json:"computed_at"`
}

// SunInfo holds the Sun's first rising and setting of the day. Fields are
// nil when the event does not occur or, for local times, when the time
// zone is unknown.
type SunInfo struct {
	Sunrise      *time.Time `json:"sunrise_utc"`
	Sunset       *time.Time `json:"sunset_utc"`
	SunriseLocal *time.Time `json:"sunrise_local"`
	SunsetLocal  *time.Time `json:"sunset_local"`
	Timezone     string     `json:"timezone,omitempty"`
	PolarDay     bool       `json:"polar_day,omitempty"`
	PolarNight   bool       `json:"polar_night,omitempty"`
}

// MoonInfo adds local civil times to the lunar summary.
type MoonInfo struct {
	almanac.MoonInfo
	MoonriseLocal *time.Time `json:"moonrise_local,omitempty"`
	MoonsetLocal  *time.Time `json:"moonset_local,omitempty"`
}
