package almanac

import (
	"time"

	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

// VisiblePlanetWindow describes a planet that crosses the horizon at least
// partly during local night.
type VisiblePlanetWindow struct {
	Planet    ephemeris.Body                     `json:"planet"`
	Rise      *time.Time                         `json:"rise_utc"`
	Set       *time.Time                         `json:"set_utc"`
	RiseLocal *time.Time                         `json:"rise_local,omitempty"`
	SetLocal  *time.Time                         `json:"set_local,omitempty"`
	RiseAltAz *coordinates.HorizontalCoordinates `json:"rise_altaz"`
	SetAltAz  *coordinates.HorizontalCoordinates `json:"set_altaz"`
}

// SunWindow is the daytime window visibility is judged against.
type SunWindow struct {
	Sunrise  *time.Time
	Sunset   *time.Time
	AlwaysUp bool
}

// SunWindowFromDay derives the daytime window from the Sun's crossings.
func SunWindowFromDay(sun BodyDay) SunWindow {
	w := SunWindow{AlwaysUp: sun.AlwaysUp()}
	if ev := sun.FirstRise(); ev != nil {
		t := ev.Time
		w.Sunrise = &t
	}
	if ev := sun.FirstSet(); ev != nil {
		t := ev.Time
		w.Sunset = &t
	}
	return w
}

// FilterVisible keeps the planets with a rising or setting outside the
// local daytime window, one window per planet, in the order of days.
// With a nil location every planet that crosses the horizon is kept.
func FilterVisible(days []BodyDay, sun SunWindow, loc *time.Location) []VisiblePlanetWindow {
	out := []VisiblePlanetWindow{}
	for _, day := range days {
		if len(day.Events) == 0 {
			continue
		}
		if loc != nil && !crossesAtNight(day, sun, loc) {
			continue
		}

		w := VisiblePlanetWindow{Planet: day.Body}
		if ev := day.FirstRise(); ev != nil {
			t, pos := ev.Time, ev.Position
			w.Rise, w.RiseAltAz = &t, &pos
			w.RiseLocal = localPtr(t, loc)
		}
		if ev := day.FirstSet(); ev != nil {
			t, pos := ev.Time, ev.Position
			w.Set, w.SetAltAz = &t, &pos
			w.SetLocal = localPtr(t, loc)
		}
		out = append(out, w)
	}
	return out
}

// crossesAtNight compares local clock times. When local sunset falls after
// midnight its clock time precedes sunrise, and night is the span between them.
func crossesAtNight(day BodyDay, sun SunWindow, loc *time.Location) bool {
	if sun.Sunrise == nil && sun.Sunset == nil {
		return !sun.AlwaysUp
	}
	for _, ev := range day.Events {
		tod := clockSeconds(ev.Time.In(loc))
		switch {
		case sun.Sunrise != nil && sun.Sunset != nil:
			rise := clockSeconds(sun.Sunrise.In(loc))
			set := clockSeconds(sun.Sunset.In(loc))
			if set < rise {
				if tod > set && tod < rise {
					return true
				}
			} else if tod < rise || tod > set {
				return true
			}
		case sun.Sunrise != nil:
			if tod < clockSeconds(sun.Sunrise.In(loc)) {
				return true
			}
		default:
			if tod > clockSeconds(sun.Sunset.In(loc)) {
				return true
			}
		}
	}
	return false
}

// clockSeconds is the civil time of day in seconds since local midnight.
func clockSeconds(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}

func localPtr(t time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		return nil
	}
	lt := t.In(loc)
	return &lt
}
