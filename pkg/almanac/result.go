package almanac

import "github.com/unklstewy/nightsky/pkg/ephemeris"

// Result carries the outcome of a computation for one body so that a
// failure stays attached to the body that caused it.
type Result[T any] struct {
	Body  ephemeris.Body
	Value T
	Err   error
}

// OK reports whether the computation succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
