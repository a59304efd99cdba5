package ephemeris

import (
	"errors"
	"fmt"
	"strings"
)

// Body identifies a solar-system body the engine can position.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
)

// ErrUnknownBody is returned for identifiers that do not name a Body.
var ErrUnknownBody = errors.New("unknown body")

var bodyNames = [...]string{
	Sun:     "Sun",
	Moon:    "Moon",
	Mercury: "Mercury",
	Venus:   "Venus",
	Mars:    "Mars",
	Jupiter: "Jupiter",
	Saturn:  "Saturn",
}

// Planets is the planet enumeration order used for visibility and
// conjunction output.
var Planets = []Body{Mars, Venus, Jupiter, Saturn, Mercury}

// AllBodies lists every body in a stable order: Sun, Moon, then Planets.
func AllBodies() []Body {
	return append([]Body{Sun, Moon}, Planets...)
}

// Valid reports whether b is a known body.
func (b Body) Valid() bool {
	return b >= Sun && b <= Saturn
}

// IsPlanet reports whether b is one of the five naked-eye planets.
func (b Body) IsPlanet() bool {
	return b >= Mercury && b <= Saturn
}

func (b Body) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyNames[b]
}

// MarshalText renders the body name so JSON output is readable.
func (b Body) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBody, int(b))
	}
	return []byte(bodyNames[b]), nil
}

// UnmarshalText parses a body name.
func (b *Body) UnmarshalText(text []byte) error {
	parsed, err := ParseBody(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBody resolves a case-insensitive body name.
func ParseBody(name string) (Body, error) {
	n := strings.TrimSpace(name)
	for i, bn := range bodyNames {
		if strings.EqualFold(n, bn) {
			return Body(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBody, name)
}
