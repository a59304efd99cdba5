// Package almanac finds the discrete events of a single day for an observer:
// rising and setting, night-time planet visibility, planet conjunctions
// and the Moon's phase.
package almanac

import (
	"context"
	"time"
)

// SearchOptions controls the discrete transition search.
type SearchOptions struct {
	// Step is the coarse sampling interval used to bracket value changes.
	// Changes closer together than Step may be missed.
	Step time.Duration

	// Precision is the width to which each bracket is bisected.
	Precision time.Duration
}

// DefaultSearchOptions samples every 10 minutes and bisects to one second.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Step:      10 * time.Minute,
		Precision: time.Second,
	}
}

func (o SearchOptions) withDefaults() SearchOptions {
	def := DefaultSearchOptions()
	if o.Step <= 0 {
		o.Step = def.Step
	}
	if o.Precision <= 0 {
		o.Precision = def.Precision
	}
	return o
}

// Predicate is a boolean step function of time.
type Predicate func(t time.Time) (bool, error)

// Transition is an instant at which a predicate changes value.
type Transition struct {
	// Time is the first sampled instant carrying the new value; it lies
	// within one Precision after the true change.
	Time time.Time

	// Value is the predicate value after the change.
	Value bool
}

// FindTransitions returns every instant in [t0, t1] at which predicate
// changes value, in chronological order. A predicate that is constant
// over the interval yields no transitions. The first predicate error
// aborts the search.
func FindTransitions(ctx context.Context, predicate Predicate, t0, t1 time.Time, opts SearchOptions) ([]Transition, error) {
	if !t1.After(t0) {
		return nil, nil
	}
	opts = opts.withDefaults()

	prevT := t0
	prevV, err := predicate(prevT)
	if err != nil {
		return nil, err
	}

	var out []Transition
	for prevT.Before(t1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nextT := prevT.Add(opts.Step)
		if nextT.After(t1) {
			nextT = t1
		}
		nextV, err := predicate(nextT)
		if err != nil {
			return nil, err
		}

		if nextV != prevV {
			at, err := bisect(predicate, prevT, nextT, prevV, opts.Precision)
			if err != nil {
				return nil, err
			}
			out = append(out, Transition{Time: at, Value: nextV})
		}
		prevT, prevV = nextT, nextV
	}

	return out, nil
}

// bisect narrows [lo, hi] where predicate(lo) == loV != predicate(hi).
func bisect(predicate Predicate, lo, hi time.Time, loV bool, precision time.Duration) (time.Time, error) {
	for hi.Sub(lo) > precision {
		mid := lo.Add(hi.Sub(lo) / 2)
		v, err := predicate(mid)
		if err != nil {
			return time.Time{}, err
		}
		if v == loV {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}
