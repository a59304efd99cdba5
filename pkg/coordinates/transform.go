package coordinates

import (
	"math"
	"time"

	"github.com/mooncaker816/learnmeeus/v3/julian"
	"github.com/mooncaker816/learnmeeus/v3/sidereal"
)

// EquatorialToHorizontal converts apparent equatorial coordinates of date to
// horizontal coordinates for a given observer and time.
//
// The hour angle is taken against the local apparent sidereal time, so the
// input should already include nutation and aberration.
//
// Parameters:
//   - equatorial: The equatorial coordinates to convert
//   - observer: The observer's geographic location
//   - timestamp: The time of observation (UTC)
//
// Returns: HorizontalCoordinates (altitude and azimuth in degrees)
func EquatorialToHorizontal(equatorial EquatorialCoordinates, observer Observer, timestamp time.Time) HorizontalCoordinates {
	lst := LocalSiderealTime(observer.Location.Longitude, timestamp)
	ha := (lst - equatorial.RightAscension) * 15.0
	return HorizontalFromHourAngle(ha, equatorial.Declination, observer.Location.Latitude)
}

// HorizontalFromHourAngle converts an hour angle and declination (degrees) to
// altitude/azimuth for an observer at the given latitude.
//
// Azimuth is measured from north through east:
//
//	alt = asin(sin(dec)·sin(lat) + cos(dec)·cos(lat)·cos(HA))
//	az  = atan2(-cos(dec)·sin(HA), sin(dec)·cos(lat) - cos(dec)·cos(HA)·sin(lat))
func HorizontalFromHourAngle(haDeg, decDeg, latDeg float64) HorizontalCoordinates {
	haRad := haDeg * DegreesToRadians
	decRad := decDeg * DegreesToRadians
	latRad := latDeg * DegreesToRadians

	sinAlt := math.Sin(decRad)*math.Sin(latRad) +
		math.Cos(decRad)*math.Cos(latRad)*math.Cos(haRad)
	altRad := math.Asin(clamp(sinAlt, -1, 1))

	azRad := math.Atan2(
		-math.Cos(decRad)*math.Sin(haRad),
		math.Sin(decRad)*math.Cos(latRad)-math.Cos(decRad)*math.Cos(haRad)*math.Sin(latRad),
	)

	return ToHorizontalDegrees(altRad, azRad)
}

// EclipticToEquatorial rotates ecliptic coordinates into the equatorial frame
// using the given obliquity of the ecliptic (degrees).
func EclipticToEquatorial(ecl EclipticCoordinates, obliquityDeg float64) EquatorialCoordinates {
	lon := ecl.Longitude * DegreesToRadians
	lat := ecl.Latitude * DegreesToRadians
	eps := obliquityDeg * DegreesToRadians

	raRad := math.Atan2(
		math.Sin(lon)*math.Cos(eps)-math.Tan(lat)*math.Sin(eps),
		math.Cos(lon),
	)
	decRad := math.Asin(clamp(
		math.Sin(lat)*math.Cos(eps)+math.Cos(lat)*math.Sin(eps)*math.Sin(lon),
		-1, 1,
	))

	return ToEquatorialDegrees(raRad, decRad)
}

// EquatorialToEcliptic is the inverse of EclipticToEquatorial.
func EquatorialToEcliptic(eq EquatorialCoordinates, obliquityDeg float64) EclipticCoordinates {
	ra, dec := eq.ToRadians()
	eps := obliquityDeg * DegreesToRadians

	lon := math.Atan2(
		math.Sin(ra)*math.Cos(eps)+math.Tan(dec)*math.Sin(eps),
		math.Cos(ra),
	)
	lat := math.Asin(clamp(
		math.Sin(dec)*math.Cos(eps)-math.Cos(dec)*math.Sin(eps)*math.Sin(ra),
		-1, 1,
	))

	return EclipticCoordinates{
		Longitude: NormalizeDegrees(lon * RadiansToDegrees),
		Latitude:  lat * RadiansToDegrees,
	}
}

// LocalSiderealTime calculates the local apparent sidereal time for
// a given longitude and UTC time.
//
// Parameters:
//   - longitudeDeg: Observer's longitude in decimal degrees (east positive)
//   - utcTime: The time in UTC
//
// Returns: LST in decimal hours (0-24)
func LocalSiderealTime(longitudeDeg float64, utcTime time.Time) float64 {
	// sidereal.Apparent returns seconds of time at Greenwich
	gast := float64(sidereal.Apparent(JulianDay(utcTime))) / 3600.0
	return NormalizeRA(gast + longitudeDeg/15.0)
}

// JulianDay converts a time to a Julian Day number on the UT scale.
func JulianDay(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// TimeFromJulianDay converts a UT Julian Day back to a UTC time.
func TimeFromJulianDay(jd float64) time.Time {
	return julian.JDToTime(jd).UTC()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
