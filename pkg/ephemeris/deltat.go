package ephemeris

import (
	"time"

	"github.com/mooncaker816/learnmeeus/v3/deltat"
	"github.com/mooncaker816/learnmeeus/v3/julian"

	"github.com/unklstewy/nightsky/pkg/coordinates"
)

const (
	// deltat.Interp10A tabulates observed values for these years.
	deltaTTableFirst = 1620.0
	deltaTTableLast  = 2018.0
	// Observed ΔT stayed within half a second of the last tabulated value
	// into the mid 2020s. The long-term polynomial takes over from here.
	deltaTHoldUntil = 2030.0
)

var (
	deltaTTableEnd = deltat.Interp10A(julian.CalendarGregorianToJD(int(deltaTTableLast), 1, 1)).Sec()
	deltaTHoldEnd  = deltat.PolyAfter2000(deltaTHoldUntil).Sec()
)

// deltaT returns TT − UT in seconds for the given instant.
func deltaT(t time.Time) float64 {
	y := float64(t.Year()) + (float64(t.YearDay())-0.5)/365.25
	switch {
	case y < 948:
		return deltat.PolyBefore948(y).Sec()
	case y < deltaTTableFirst:
		return deltat.Poly948to1600(y).Sec()
	case y < deltaTTableLast:
		return deltat.Interp10A(coordinates.JulianDay(t)).Sec()
	case y < deltaTHoldUntil:
		return deltaTTableEnd
	default:
		return deltaTTableEnd + deltat.PolyAfter2000(y).Sec() - deltaTHoldEnd
	}
}
