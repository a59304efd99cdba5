// Package localtime resolves an observer's civil time zone from coordinates
// and converts instants to local time.
package localtime

import (
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/bradfitz/latlong"
)

// ErrNoZone is returned when no time zone covers the coordinates,
// typically over open ocean.
var ErrNoZone = errors.New("no time zone for coordinates")

// Resolver maps coordinates to IANA locations. It is safe for concurrent use.
type Resolver struct {
	mu    sync.Mutex
	zones map[string]*time.Location
}

// NewResolver creates a resolver with an empty location cache.
func NewResolver() *Resolver {
	return &Resolver{zones: make(map[string]*time.Location)}
}

// ZoneName returns the IANA zone name covering the coordinates, or "".
func (r *Resolver) ZoneName(latitude, longitude float64) string {
	return latlong.LookupZoneName(latitude, longitude)
}

// Lookup returns the location covering the coordinates.
func (r *Resolver) Lookup(latitude, longitude float64) (*time.Location, error) {
	name := r.ZoneName(latitude, longitude)
	if name == "" {
		return nil, fmt.Errorf("%w: %.4f, %.4f", ErrNoZone, latitude, longitude)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if loc, ok := r.zones[name]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %s: %w", name, err)
	}
	r.zones[name] = loc
	return loc, nil
}

// ToLocal converts t to civil time in loc. It returns nil when loc is nil.
func ToLocal(t time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		return nil
	}
	lt := t.In(loc)
	return &lt
}

// Fixed resolves every coordinate to the same zone. It serves observers
// whose zone is configured explicitly.
type Fixed struct {
	Location *time.Location
}

// FixedZone loads the named zone for use as a Fixed resolver.
func FixedZone(name string) (Fixed, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Fixed{}, fmt.Errorf("failed to load time zone %s: %w", name, err)
	}
	return Fixed{Location: loc}, nil
}

// Lookup returns the fixed zone, or ErrNoZone when none is set.
func (f Fixed) Lookup(latitude, longitude float64) (*time.Location, error) {
	if f.Location == nil {
		return nil, ErrNoZone
	}
	return f.Location, nil
}

// Finder resolves coordinates to a location.
type Finder interface {
	Lookup(latitude, longitude float64) (*time.Location, error)
}

// Chain tries each finder in turn. A finder reporting ErrNoZone passes the
// lookup on to the next one; any other error ends the search.
type Chain []Finder

// Lookup returns the first location found.
func (c Chain) Lookup(latitude, longitude float64) (*time.Location, error) {
	err := fmt.Errorf("%w: %.4f, %.4f", ErrNoZone, latitude, longitude)
	for _, f := range c {
		var loc *time.Location
		loc, err = f.Lookup(latitude, longitude)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, ErrNoZone) {
			return nil, err
		}
	}
	return nil, err
}
