package ga

import (
	"fmt"
	"math/rand"
)

// Bound is the inclusive range [Min, Max] of one dimension.
type Bound struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

// ParameterSpace defines the search box. It is immutable once built.
type ParameterSpace struct {
	bounds []Bound
}

// ValidateBounds checks that at least one dimension exists and that every
// dimension has Min < Max.
func ValidateBounds(bounds []Bound) error {
	if len(bounds) < 1 {
		return &ConfigError{Field: "Bounds", Reason: "must define at least one dimension"}
	}
	for d, b := range bounds {
		// Written as a negation so NaN bounds are rejected too.
		if !(b.Min < b.Max) {
			return &ConfigError{
				Field:  fmt.Sprintf("Bounds[%d]", d),
				Reason: fmt.Sprintf("min must be less than max (got [%g, %g])", b.Min, b.Max),
			}
		}
	}
	return nil
}

// NewParameterSpace validates and copies bounds.
func NewParameterSpace(bounds []Bound) (*ParameterSpace, error) {
	if err := ValidateBounds(bounds); err != nil {
		return nil, err
	}
	return &ParameterSpace{bounds: append([]Bound(nil), bounds...)}, nil
}

// Dims returns the number of dimensions D.
func (s *ParameterSpace) Dims() int {
	return len(s.bounds)
}

// Bounds returns a copy of the per-dimension bounds.
func (s *ParameterSpace) Bounds() []Bound {
	return append([]Bound(nil), s.bounds...)
}

// Lower returns the per-dimension minimums.
func (s *ParameterSpace) Lower() []float64 {
	lower := make([]float64, len(s.bounds))
	for d, b := range s.bounds {
		lower[d] = b.Min
	}
	return lower
}

// Upper returns the per-dimension maximums.
func (s *ParameterSpace) Upper() []float64 {
	upper := make([]float64, len(s.bounds))
	for d, b := range s.bounds {
		upper[d] = b.Max
	}
	return upper
}

// Contains reports whether genes has D components, each within its bounds.
func (s *ParameterSpace) Contains(genes []float64) bool {
	if len(genes) != len(s.bounds) {
		return false
	}
	for d, v := range genes {
		if v < s.bounds[d].Min || v > s.bounds[d].Max {
			return false
		}
	}
	return true
}

// Sample draws one gene vector, uniformly and independently per dimension.
// Exactly D values are drawn from rng, in dimension order.
func (s *ParameterSpace) Sample(rng *rand.Rand) []float64 {
	genes := make([]float64, len(s.bounds))
	for d, b := range s.bounds {
		genes[d] = b.Min + rng.Float64()*(b.Max-b.Min)
	}
	return genes
}
