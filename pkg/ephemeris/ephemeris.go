// Package ephemeris positions the Sun, Moon and naked-eye planets for an
// observer. Solar and lunar positions come from analytic series; planets
// come from VSOP87 data files loaded once at startup.
package ephemeris

import (
	"errors"
	"fmt"
	"time"

	"github.com/mooncaker816/learnmeeus/v3/base"
	"github.com/mooncaker816/learnmeeus/v3/elliptic"
	"github.com/mooncaker816/learnmeeus/v3/globe"
	"github.com/mooncaker816/learnmeeus/v3/moonposition"
	"github.com/mooncaker816/learnmeeus/v3/nutation"
	"github.com/mooncaker816/learnmeeus/v3/parallax"
	pp "github.com/mooncaker816/learnmeeus/v3/planetposition"
	"github.com/mooncaker816/learnmeeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/unklstewy/nightsky/pkg/coordinates"
)

// ErrBodyUnavailable is returned when the loaded ephemeris has no series for a body.
var ErrBodyUnavailable = errors.New("body not available in loaded ephemeris")

// Provider computes observer-relative positions.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Position returns the apparent topocentric altitude/azimuth of body at t.
	Position(body Body, t time.Time, observer coordinates.Observer) (coordinates.HorizontalCoordinates, error)

	// EclipticLongitude returns the apparent geocentric ecliptic longitude
	// of date in degrees [0, 360).
	EclipticLongitude(body Body, t time.Time) (float64, error)
}

// Config controls how the ephemeris is loaded.
type Config struct {
	// VSOP87Dir is the directory holding the VSOP87B.* planet files.
	VSOP87Dir string

	// Refraction applies standard atmospheric refraction to altitudes.
	Refraction bool
}

// Ephemeris is the learnmeeus-backed Provider.
// It is read-only after construction.
type Ephemeris struct {
	earth      *pp.V87Planet
	planets    map[Body]*pp.V87Planet
	refraction bool
}

var vsop87Index = map[Body]int{
	Mercury: pp.Mercury,
	Venus:   pp.Venus,
	Mars:    pp.Mars,
	Jupiter: pp.Jupiter,
	Saturn:  pp.Saturn,
}

// Load reads the VSOP87 series for Earth and the five planets.
// Any missing or unreadable file is a configuration error.
func Load(cfg Config) (*Ephemeris, error) {
	if cfg.VSOP87Dir == "" {
		return nil, errors.New("failed to load ephemeris: no VSOP87 directory configured")
	}

	earth, err := pp.LoadPlanetPath(pp.Earth, cfg.VSOP87Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load VSOP87 series for Earth: %w", err)
	}

	planets := make(map[Body]*pp.V87Planet, len(Planets))
	for _, b := range Planets {
		p, err := pp.LoadPlanetPath(vsop87Index[b], cfg.VSOP87Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load VSOP87 series for %v: %w", b, err)
		}
		planets[b] = p
	}

	return &Ephemeris{
		earth:      earth,
		planets:    planets,
		refraction: cfg.Refraction,
	}, nil
}

// NewLunisolar returns an Ephemeris that resolves only the Sun and Moon.
// Planet lookups fail with ErrBodyUnavailable.
func NewLunisolar(cfg Config) *Ephemeris {
	return &Ephemeris{
		planets:    map[Body]*pp.V87Planet{},
		refraction: cfg.Refraction,
	}
}

// Bodies lists the bodies this ephemeris can position.
func (e *Ephemeris) Bodies() []Body {
	out := []Body{Sun, Moon}
	for _, b := range Planets {
		if e.planets[b] != nil {
			out = append(out, b)
		}
	}
	return out
}

// Position implements Provider.
func (e *Ephemeris) Position(body Body, t time.Time, observer coordinates.Observer) (coordinates.HorizontalCoordinates, error) {
	t = t.UTC()
	jde := julianEphemerisDay(t)

	eq, distanceKm, err := e.apparentEquatorial(body, jde)
	if err != nil {
		return coordinates.HorizontalCoordinates{}, err
	}

	if body == Moon {
		eq = topocentric(eq, distanceKm, observer, t)
	}

	hz := coordinates.EquatorialToHorizontal(eq, observer, t)
	if e.refraction {
		hz = coordinates.Refract(hz)
	}
	return hz, nil
}

// EclipticLongitude implements Provider.
func (e *Ephemeris) EclipticLongitude(body Body, t time.Time) (float64, error) {
	jde := julianEphemerisDay(t.UTC())

	switch body {
	case Sun:
		return coordinates.NormalizeDegrees(solar.ApparentLongitude(base.J2000Century(jde)).Deg()), nil
	case Moon:
		lon, _, _ := moonposition.Position(jde)
		dpsi, _ := nutation.Nutation(jde)
		return coordinates.NormalizeDegrees((lon + dpsi).Deg()), nil
	}

	eq, _, err := e.apparentEquatorial(body, jde)
	if err != nil {
		return 0, err
	}
	return coordinates.EquatorialToEcliptic(eq, trueObliquity(jde)).Longitude, nil
}

// Equatorial returns the apparent geocentric right ascension and declination
// of date for body at t.
func (e *Ephemeris) Equatorial(body Body, t time.Time) (coordinates.EquatorialCoordinates, error) {
	eq, _, err := e.apparentEquatorial(body, julianEphemerisDay(t.UTC()))
	return eq, err
}

// apparentEquatorial returns geocentric apparent coordinates and, for the
// Moon, the geocentric distance in kilometres.
func (e *Ephemeris) apparentEquatorial(body Body, jde float64) (coordinates.EquatorialCoordinates, float64, error) {
	switch body {
	case Sun:
		lon := solar.ApparentLongitude(base.J2000Century(jde))
		ecl := coordinates.EclipticCoordinates{Longitude: lon.Deg()}
		return coordinates.EclipticToEquatorial(ecl, trueObliquity(jde)), 0, nil

	case Moon:
		lon, lat, distanceKm := moonposition.Position(jde)
		dpsi, _ := nutation.Nutation(jde)
		ecl := coordinates.EclipticCoordinates{
			Longitude: (lon + dpsi).Deg(),
			Latitude:  lat.Deg(),
		}
		return coordinates.EclipticToEquatorial(ecl, trueObliquity(jde)), distanceKm, nil
	}

	if !body.Valid() {
		return coordinates.EquatorialCoordinates{}, 0, fmt.Errorf("%w: %d", ErrUnknownBody, int(body))
	}
	p := e.planets[body]
	if p == nil || e.earth == nil {
		return coordinates.EquatorialCoordinates{}, 0, fmt.Errorf("%w: %v", ErrBodyUnavailable, body)
	}

	// elliptic.Position applies light time, aberration and nutation
	ra, dec := elliptic.Position(p, e.earth, jde)
	return coordinates.ToEquatorialDegrees(float64(ra), dec.Rad()), 0, nil
}

// topocentric corrects geocentric lunar coordinates for the observer's
// position on the Earth's surface.
func topocentric(eq coordinates.EquatorialCoordinates, distanceKm float64, observer coordinates.Observer, t time.Time) coordinates.EquatorialCoordinates {
	if distanceKm <= 0 {
		return eq
	}

	rhoSin, rhoCos := globe.Earth76.ParallaxConstants(
		unit.AngleFromDeg(observer.Location.Latitude),
		observer.Location.Altitude,
	)
	ra, dec := eq.ToRadians()
	// parallax.Topocentric measures longitude positive west and reads the
	// sidereal time from its last argument, which must be UT.
	raTopo, decTopo := parallax.Topocentric(
		unit.RAFromRad(ra), unit.Angle(dec),
		distanceKm/base.AU, rhoSin, rhoCos,
		unit.AngleFromDeg(-observer.Location.Longitude),
		coordinates.JulianDay(t),
	)
	return coordinates.ToEquatorialDegrees(raTopo.Rad(), decTopo.Rad())
}

func trueObliquity(jde float64) float64 {
	_, deps := nutation.Nutation(jde)
	return (nutation.MeanObliquity(jde) + deps).Deg()
}

func julianEphemerisDay(t time.Time) float64 {
	return coordinates.JulianDay(t) + deltaT(t)/86400.0
}
