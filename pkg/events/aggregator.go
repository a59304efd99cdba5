package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	cerrors "cloudeng.io/errors"
	"cloudeng.io/logging/ctxlog"
	"cloudeng.io/sync/errgroup"

	"github.com/unklstewy/nightsky/pkg/almanac"
	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
	"github.com/unklstewy/nightsky/pkg/localtime"
	"github.com/unklstewy/nightsky/pkg/meteors"
)

// Aggregator computes Results. It is safe for concurrent use.
type Aggregator struct {
	astro AstronomyContext
	cache *Cache
}

// NewAggregator creates an aggregator. cache may be nil to disable caching.
func NewAggregator(astro AstronomyContext, cache *Cache) (*Aggregator, error) {
	if err := astro.Validate(); err != nil {
		return nil, err
	}
	sampling, _ := almanac.ParseSampling(string(astro.Sampling))
	astro.Sampling = sampling
	return &Aggregator{astro: astro, cache: cache}, nil
}

// Cache returns the result cache, or nil.
func (a *Aggregator) Cache() *Cache {
	return a.cache
}

// Showers returns the meteor shower calendar.
func (a *Aggregator) Showers() *meteors.Calendar {
	return a.astro.Showers
}

// Events returns the astronomical events for the UTC calendar date of date
// as seen from the coordinates, rounded to three decimals. Failures of
// individual bodies and of the time zone lookup become diagnostics; an
// error is returned only for invalid coordinates or a cancelled context.
func (a *Aggregator) Events(ctx context.Context, latitude, longitude float64, date time.Time) (*Result, error) {
	return a.EventsAt(ctx, coordinates.NewObserver(latitude, longitude), date)
}

// EventsAt is like Events for a full observer. The observer's elevation
// enters the topocentric positions, and its Timezone is used when no zone
// covers the coordinates.
func (a *Aggregator) EventsAt(ctx context.Context, at coordinates.Observer, date time.Time) (*Result, error) {
	dayStart, _ := almanac.DayBounds(date)
	key := ObserverKey(at, dayStart)

	observer := key.Observer()
	if err := observer.Validate(); err != nil {
		return nil, err
	}

	if a.cache != nil {
		if r, ok := a.cache.Get(key); ok {
			return r, nil
		}
	}

	logger := ctxlog.Logger(ctx).With("key", key.String())
	started := time.Now()
	diags := &cerrors.M{}

	loc := a.lookupZone(key, diags)
	if loc != nil {
		observer.Timezone = loc.String()
	}

	days, err := a.riseSet(ctx, observer, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to compute events for %v: %w", key, err)
	}

	result := &Result{
		Latitude:    key.Latitude(),
		Longitude:   key.Longitude(),
		Date:        key.Date,
		Timezone:    observer.Timezone,
		Diagnostics: []string{},
		ComputedAt:  time.Now().UTC(),
	}

	// Sun
	sun := days[0]
	var sunWindow almanac.SunWindow
	filterLoc := loc
	if sun.OK() {
		sunWindow = almanac.SunWindowFromDay(sun.Value)
		result.SunInfo = sunInfo(sun.Value, sunWindow, loc)
	} else {
		diags.Append(sun.Err)
		result.SunInfo.Timezone = observer.Timezone
		filterLoc = nil
	}

	// Planets
	var planetDays []almanac.BodyDay
	var available []ephemeris.Body
	for _, r := range days[2:] {
		if !r.OK() {
			diags.Append(r.Err)
			continue
		}
		planetDays = append(planetDays, r.Value)
		available = append(available, r.Body)
	}
	result.VisiblePlanets = almanac.FilterVisible(planetDays, sunWindow, filterLoc)

	// A failed Sun search yields no sunrise samples but still carries the date
	instants := almanac.SampleInstants(a.astro.Sampling, sun.Value)
	detector := almanac.NewConjunctionDetector(a.astro.Ephemeris, observer)
	conjunctions, err := detector.Detect(ctx, available, instants)
	var multi *cerrors.M
	if errors.As(err, &multi) {
		diags.Append(multi.Unwrap()...)
	} else {
		diags.Append(err)
	}
	result.Conjunctions = conjunctions

	// Moon
	moon := days[1]
	moonDay := moon.Value
	if !moon.OK() {
		diags.Append(moon.Err)
		moonDay = almanac.BodyDay{Body: ephemeris.Moon, Date: dayStart}
	}
	info, err := almanac.MoonInfoFromDay(moonDay, a.astro.Ephemeris)
	if err != nil {
		diags.Append(fmt.Errorf("moon phase: %w", err))
	}
	result.MoonInfo = MoonInfo{MoonInfo: info}
	if info.Moonrise != nil {
		result.MoonInfo.MoonriseLocal = localtime.ToLocal(*info.Moonrise, loc)
	}
	if info.Moonset != nil {
		result.MoonInfo.MoonsetLocal = localtime.ToLocal(*info.Moonset, loc)
	}

	result.MeteorShowers = a.astro.Showers.Active(dayStart)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to compute events for %v: %w", key, err)
	}

	for _, err := range diags.Unwrap() {
		result.Diagnostics = append(result.Diagnostics, err.Error())
		logger.Warn("skipped computation", "error", err.Error())
	}
	logger.Debug("computed events",
		"visible_planets", len(result.VisiblePlanets),
		"conjunctions", len(result.Conjunctions),
		"meteor_showers", len(result.MeteorShowers),
		"diagnostics", len(result.Diagnostics),
		"duration", time.Since(started))

	if a.cache != nil {
		a.cache.Add(key, result)
	}
	return result, nil
}

// lookupZone resolves the zone from the coordinates, then from the key's
// own zone when the coordinates have none.
func (a *Aggregator) lookupZone(key Key, diags *cerrors.M) *time.Location {
	err := localtime.ErrNoZone
	if a.astro.Zones != nil {
		var loc *time.Location
		if loc, err = a.astro.Zones.Lookup(key.Latitude(), key.Longitude()); err == nil {
			return loc
		}
	}
	if key.Zone != "" && errors.Is(err, localtime.ErrNoZone) {
		loc, lerr := time.LoadLocation(key.Zone)
		if lerr == nil {
			return loc
		}
		err = lerr
	}
	if a.astro.Zones != nil || key.Zone != "" {
		diags.Append(fmt.Errorf("time zone: %w", err))
	}
	return nil
}

// riseSet searches horizon crossings for every body in parallel. The
// returned slice holds the Sun, then the Moon, then the planets in
// enumeration order. Body failures are kept in the results; only
// cancellation is returned as an error.
func (a *Aggregator) riseSet(ctx context.Context, observer coordinates.Observer, day time.Time) ([]almanac.Result[almanac.BodyDay], error) {
	calc := almanac.NewCalculator(a.astro.Ephemeris, observer, a.astro.Search)
	bodies := ephemeris.AllBodies()
	results := make([]almanac.Result[almanac.BodyDay], len(bodies))

	var g errgroup.T
	for i, body := range bodies {
		g.Go(func() error {
			d, err := calc.RiseSet(ctx, body, day)
			results[i] = almanac.Result[almanac.BodyDay]{Body: body, Value: d, Err: err}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func sunInfo(day almanac.BodyDay, w almanac.SunWindow, loc *time.Location) SunInfo {
	info := SunInfo{
		Sunrise:    w.Sunrise,
		Sunset:     w.Sunset,
		PolarDay:   day.AlwaysUp(),
		PolarNight: day.AlwaysDown(),
	}
	if loc != nil {
		info.Timezone = loc.String()
	}
	if w.Sunrise != nil {
		info.SunriseLocal = localtime.ToLocal(*w.Sunrise, loc)
	}
	if w.Sunset != nil {
		info.SunsetLocal = localtime.ToLocal(*w.Sunset, loc)
	}
	return info
}
