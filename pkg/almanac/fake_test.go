package almanac

import (
	"fmt"
	"time"

	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

// fakeProvider positions bodies from plain functions of time.
type fakeProvider struct {
	positions  map[ephemeris.Body]func(time.Time) coordinates.HorizontalCoordinates
	longitudes map[ephemeris.Body]float64
	failing    map[ephemeris.Body]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		positions:  map[ephemeris.Body]func(time.Time) coordinates.HorizontalCoordinates{},
		longitudes: map[ephemeris.Body]float64{},
		failing:    map[ephemeris.Body]error{},
	}
}

func (f *fakeProvider) fixed(body ephemeris.Body, alt, az float64) {
	f.positions[body] = func(time.Time) coordinates.HorizontalCoordinates {
		return coordinates.HorizontalCoordinates{Altitude: alt, Azimuth: az}
	}
}

func (f *fakeProvider) Position(body ephemeris.Body, t time.Time, _ coordinates.Observer) (coordinates.HorizontalCoordinates, error) {
	if err := f.failing[body]; err != nil {
		return coordinates.HorizontalCoordinates{}, err
	}
	fn, ok := f.positions[body]
	if !ok {
		return coordinates.HorizontalCoordinates{}, fmt.Errorf("%w: %v", ephemeris.ErrBodyUnavailable, body)
	}
	return fn(t), nil
}

func (f *fakeProvider) EclipticLongitude(body ephemeris.Body, _ time.Time) (float64, error) {
	if err := f.failing[body]; err != nil {
		return 0, err
	}
	lon, ok := f.longitudes[body]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ephemeris.ErrBodyUnavailable, body)
	}
	return lon, nil
}
