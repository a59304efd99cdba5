package coordinates

import (
	"github.com/mooncaker816/learnmeeus/v3/refraction"
	"github.com/soniakeys/unit"
)

// Saemundsson's formula turns over a couple of degrees below the horizon;
// deeper altitudes reuse the correction at this floor.
const refractionFloor = -1.0

// Refraction returns the atmospheric refraction in degrees for a body at the
// given geometric altitude, using Saemundsson's formula for standard
// pressure and temperature. Returns 0 above 85° where the correction is
// negligible.
func Refraction(altitude float64) float64 {
	if altitude > 85.0 {
		return 0
	}
	if altitude < refractionFloor {
		altitude = refractionFloor
	}
	return refraction.Saemundsson(unit.AngleFromDeg(altitude)).Deg()
}

// Refract lifts a geometric horizontal position to its apparent altitude.
func Refract(h HorizontalCoordinates) HorizontalCoordinates {
	h.Altitude += Refraction(h.Altitude)
	return h
}
