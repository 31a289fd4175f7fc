// Package forcing loads radiative forcing tables and reduces a chosen set
// of categories to the single yearly series the two-box model integrates.
package forcing

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	ErrInvalidInput    = errors.New("forcing: invalid input series")
	ErrUnknownCategory = errors.New("forcing: unknown category")
	ErrMalformedTable  = errors.New("forcing: malformed table")
)

// Series is one forcing value in W/m² per calendar year. Years are strictly
// increasing with a spacing of exactly one year.
type Series struct {
	Years  []int
	Values []float64
}

func (s Series) Len() int { return len(s.Years) }

// Validate checks the series can drive the yearly recurrence: it must be
// non-empty, gap free and hold finite values.
func (s Series) Validate() error {
	if len(s.Years) == 0 {
		return fmt.Errorf("%w: empty series", ErrInvalidInput)
	}
	if len(s.Years) != len(s.Values) {
		return fmt.Errorf("%w: %d years but %d values", ErrInvalidInput, len(s.Years), len(s.Values))
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at year %d", ErrInvalidInput, s.Years[i])
		}
		if i == 0 {
			continue
		}
		if s.Years[i] != s.Years[i-1]+1 {
			return fmt.Errorf("%w: year %d follows %d", ErrInvalidInput, s.Years[i], s.Years[i-1])
		}
	}
	return nil
}

// Window returns the part of s with from <= year <= to. A zero bound is
// open. The returned series shares no memory with s.
func (s Series) Window(from, to int) Series {
	lo, hi := windowBounds(s.Years, from, to)
	return Series{
		Years:  slices.Clone(s.Years[lo:hi]),
		Values: slices.Clone(s.Values[lo:hi]),
	}
}

// Constant builds a series of n years starting at first with every value v.
func Constant(first, n int, v float64) Series {
	s := Series{Years: make([]int, n), Values: make([]float64, n)}
	for i := range n {
		s.Years[i] = first + i
		s.Values[i] = v
	}
	return s
}

func windowBounds(years []int, from, to int) (int, int) {
	lo, hi := 0, len(years)
	for lo < hi && from != 0 && years[lo] < from {
		lo++
	}
	for hi > lo && to != 0 && years[hi-1] > to {
		hi--
	}
	return lo, hi
}
