package coordinates

import "math"

// AngularSeparation calculates the great-circle distance between two points
// in the sky given in horizontal coordinates. Returns degrees.
func AngularSeparation(a, b HorizontalCoordinates) float64 {
	aAlt, aAz := a.ToRadians()
	bAlt, bAz := b.ToRadians()
	dAz := bAz - aAz

	sinDist := math.Hypot(
		math.Cos(bAlt)*math.Sin(dAz),
		math.Cos(aAlt)*math.Sin(bAlt)-math.Sin(aAlt)*math.Cos(bAlt)*math.Cos(dAz),
	)
	cosDist := math.Sin(aAlt)*math.Sin(bAlt) +
		math.Cos(aAlt)*math.Cos(bAlt)*math.Cos(dAz)

	return math.Atan2(sinDist, cosDist) * RadiansToDegrees
}

// AzimuthDifference returns the absolute difference between two azimuths,
// taking the short way around north. Result is in [0, 180].
func AzimuthDifference(a, b float64) float64 {
	d := math.Abs(NormalizeAzimuth(a) - NormalizeAzimuth(b))
	if d > 180.0 {
		d = 360.0 - d
	}
	return d
}
