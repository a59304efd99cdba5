package almanac

import (
	"context"
	"fmt"
	"time"

	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

// RiseSetEvent is a horizon crossing of a body.
type RiseSetEvent struct {
	Body     ephemeris.Body                    `json:"body"`
	Time     time.Time                         `json:"utc"`
	IsRise   bool                              `json:"is_rise"`
	Position coordinates.HorizontalCoordinates `json:"altaz"`
}

// BodyDay holds a body's horizon crossings for one UTC day.
type BodyDay struct {
	Body ephemeris.Body

	// Date is 00:00:00 UTC of the day searched.
	Date time.Time

	// Events are chronological. Zero, one or several crossings are all valid.
	Events []RiseSetEvent

	// AboveAtStart records whether the body was up at 00:00:00 UTC.
	AboveAtStart bool
}

// FirstRise returns the earliest rising, or nil.
func (d BodyDay) FirstRise() *RiseSetEvent { return d.find(true, false) }

// FirstSet returns the earliest setting, or nil.
func (d BodyDay) FirstSet() *RiseSetEvent { return d.find(false, false) }

// LastRise returns the latest rising, or nil.
func (d BodyDay) LastRise() *RiseSetEvent { return d.find(true, true) }

// LastSet returns the latest setting, or nil.
func (d BodyDay) LastSet() *RiseSetEvent { return d.find(false, true) }

func (d BodyDay) find(rise, last bool) *RiseSetEvent {
	var found *RiseSetEvent
	for i := range d.Events {
		if d.Events[i].IsRise != rise {
			continue
		}
		ev := d.Events[i]
		found = &ev
		if !last {
			return found
		}
	}
	return found
}

// Rises returns the instants at which the body rises.
func (d BodyDay) Rises() []time.Time {
	var out []time.Time
	for _, ev := range d.Events {
		if ev.IsRise {
			out = append(out, ev.Time)
		}
	}
	return out
}

// AlwaysUp reports a body that stays above the horizon all day.
func (d BodyDay) AlwaysUp() bool {
	return len(d.Events) == 0 && d.AboveAtStart
}

// AlwaysDown reports a body that stays below the horizon all day.
func (d BodyDay) AlwaysDown() bool {
	return len(d.Events) == 0 && !d.AboveAtStart
}

// DayBounds returns [00:00:00, 23:59:59] UTC for the calendar date of t.
// The calendar fields are read in t's own location.
func DayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Second)
}

// Calculator finds horizon crossings for one observer.
type Calculator struct {
	provider ephemeris.Provider
	observer coordinates.Observer
	search   SearchOptions
}

// NewCalculator creates a rise/set calculator.
func NewCalculator(provider ephemeris.Provider, observer coordinates.Observer, search SearchOptions) *Calculator {
	return &Calculator{
		provider: provider,
		observer: observer,
		search:   search.withDefaults(),
	}
}

// Observer returns the observer the calculator works for.
func (c *Calculator) Observer() coordinates.Observer {
	return c.observer
}

// RiseSet finds the instants in the UTC day of date at which body's
// altitude crosses zero.
func (c *Calculator) RiseSet(ctx context.Context, body ephemeris.Body, date time.Time) (BodyDay, error) {
	start, end := DayBounds(date)
	day := BodyDay{Body: body, Date: start}

	above := func(t time.Time) (bool, error) {
		pos, err := c.provider.Position(body, t, c.observer)
		if err != nil {
			return false, err
		}
		return pos.Altitude > 0, nil
	}

	up, err := above(start)
	if err != nil {
		return day, fmt.Errorf("failed to position %v: %w", body, err)
	}
	day.AboveAtStart = up

	transitions, err := FindTransitions(ctx, above, start, end, c.search)
	if err != nil {
		return day, fmt.Errorf("failed to search %v horizon crossings: %w", body, err)
	}

	day.Events = make([]RiseSetEvent, 0, len(transitions))
	for _, tr := range transitions {
		pos, err := c.provider.Position(body, tr.Time, c.observer)
		if err != nil {
			return day, fmt.Errorf("failed to position %v at crossing: %w", body, err)
		}
		day.Events = append(day.Events, RiseSetEvent{
			Body:     body,
			Time:     tr.Time,
			IsRise:   tr.Value,
			Position: pos,
		})
	}

	return day, nil
}
