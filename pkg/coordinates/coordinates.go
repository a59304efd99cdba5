package coordinates

import (
	"errors"
	"fmt"
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi
)

// ErrInvalidObserver is returned when an observer's coordinates are out of range.
var ErrInvalidObserver = errors.New("invalid observer coordinates")

// Geographic represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64 `json:"longitude"`

	// Altitude in meters above mean sea level (MSL)
	Altitude float64 `json:"altitude"`
}

// HorizontalCoordinates represents a position in the local horizontal coordinate system.
// Also known as Alt/Az (Altitude-Azimuth) coordinates.
type HorizontalCoordinates struct {
	// Altitude in degrees above the horizon.
	// 0 = horizon, 90 = zenith, negative values are below the horizon.
	Altitude float64 `json:"altitude"`

	// Azimuth in degrees from north (0-360)
	// 0/360 = North, 90 = East, 180 = South, 270 = West
	Azimuth float64 `json:"azimuth"`
}

// EquatorialCoordinates represents a position in the equatorial coordinate system
// of date (true equator and equinox).
type EquatorialCoordinates struct {
	// RightAscension (RA) in decimal hours (0-24)
	RightAscension float64 `json:"ra"`

	// Declination (Dec) in decimal degrees (-90 to +90)
	Declination float64 `json:"dec"`
}

// EclipticCoordinates represents a position referred to the ecliptic of date.
type EclipticCoordinates struct {
	// Longitude in degrees (0-360), measured from the equinox along the ecliptic
	Longitude float64 `json:"longitude"`

	// Latitude in degrees (-90 to +90) north or south of the ecliptic
	Latitude float64 `json:"latitude"`
}

// Observer represents the geographic location of the observer.
// All transformations depend on it.
type Observer struct {
	// Location is the observer's position on Earth
	Location Geographic `json:"location"`

	// Timezone is the IANA timezone name (e.g., "Europe/Berlin").
	// Empty when no zone could be resolved for the location.
	Timezone string `json:"timezone,omitempty"`
}

// NewObserver returns an observer at the given latitude and longitude.
func NewObserver(latitude, longitude float64) Observer {
	return Observer{Location: Geographic{Latitude: latitude, Longitude: longitude}}
}

// Validate reports whether the observer's coordinates are usable.
func (o Observer) Validate() error {
	lat, lon := o.Location.Latitude, o.Location.Longitude
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidObserver, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidObserver, lon)
	}
	return nil
}

// ToRadians converts the Geographic coordinates to radians.
// Returns (latRad, lonRad, altMeters).
func (g Geographic) ToRadians() (float64, float64, float64) {
	return g.Latitude * DegreesToRadians,
		g.Longitude * DegreesToRadians,
		g.Altitude
}

// ToRadians converts HorizontalCoordinates to radians.
// Returns (altRad, azRad).
func (h HorizontalCoordinates) ToRadians() (float64, float64) {
	return h.Altitude * DegreesToRadians,
		h.Azimuth * DegreesToRadians
}

// ToHorizontalDegrees converts radians to HorizontalCoordinates in degrees.
func ToHorizontalDegrees(altRad, azRad float64) HorizontalCoordinates {
	return HorizontalCoordinates{
		Altitude: altRad * RadiansToDegrees,
		Azimuth:  NormalizeAzimuth(azRad * RadiansToDegrees),
	}
}

// ToRadians converts EquatorialCoordinates to radians.
// Returns (raRad, decRad). RA is converted from hours (1 hour = 15 degrees).
func (e EquatorialCoordinates) ToRadians() (float64, float64) {
	return e.RightAscension * 15.0 * DegreesToRadians, e.Declination * DegreesToRadians
}

// ToEquatorialDegrees converts radians to EquatorialCoordinates.
// Returns RA in hours [0, 24) and Dec in degrees.
func ToEquatorialDegrees(raRad, decRad float64) EquatorialCoordinates {
	return EquatorialCoordinates{
		RightAscension: NormalizeRA(raRad * RadiansToDegrees / 15.0),
		Declination:    decRad * RadiansToDegrees,
	}
}

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	return NormalizeDegrees(azimuth)
}

// NormalizeDegrees reduces an angle to the range [0, 360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360.0)
	if d < 0 {
		d += 360.0
	}
	if d >= 360.0 {
		d = 0
	}
	return d
}

// NormalizeRA ensures right ascension is in the range [0, 24).
func NormalizeRA(ra float64) float64 {
	raHours := math.Mod(ra, 24.0)
	if raHours < 0 {
		raHours += 24.0
	}
	if raHours >= 24.0 {
		raHours = 0
	}
	return raHours
}
