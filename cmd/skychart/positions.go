package main

import (
	"fmt"
	"time"

	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

// BodyPosition is where a body stands at the chart instant.
type BodyPosition struct {
	Body  ephemeris.Body
	Coord coordinates.HorizontalCoordinates
	Err   error
}

// AboveHorizon reports whether the body was positioned and is up.
func (p BodyPosition) AboveHorizon() bool {
	return p.Err == nil && p.Coord.Altitude >= 0
}

// ComputePositions positions every body in bodies. Failures are kept per body
// so that one missing series does not blank the chart.
func ComputePositions(provider ephemeris.Provider, observer coordinates.Observer, bodies []ephemeris.Body, at time.Time) []BodyPosition {
	out := make([]BodyPosition, 0, len(bodies))
	for _, b := range bodies {
		coord, err := provider.Position(b, at, observer)
		if err != nil {
			err = fmt.Errorf("%v: %w", b, err)
		}
		out = append(out, BodyPosition{Body: b, Coord: coord, Err: err})
	}
	return out
}

func bodySymbol(b ephemeris.Body) rune {
	switch b {
	case ephemeris.Sun:
		return '☉'
	case ephemeris.Moon:
		return '☾'
	case ephemeris.Mercury:
		return '☿'
	case ephemeris.Venus:
		return '♀'
	case ephemeris.Mars:
		return '♂'
	case ephemeris.Jupiter:
		return '♃'
	case ephemeris.Saturn:
		return '♄'
	}
	return '*'
}
