// Package objective provides the fitness functions a run can minimize.
package objective

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/blendga/internal/ga"
)

// Func is a scalar objective over a gene vector; lower is better.
type Func func(x []float64) float64

// Objective describes a registered benchmark function.
type Objective struct {
	Name        string
	Description string
	// Dims is the required dimensionality, or 0 if any D >= 1 works.
	Dims int
	// Default is the conventional search range, applied to every dimension.
	Default ga.Bound
	Fn      Func
}

// DefaultBounds returns the conventional box for dims dimensions.
func (o Objective) DefaultBounds(dims int) []ga.Bound {
	if o.Dims > 0 {
		dims = o.Dims
	}
	bounds := make([]ga.Bound, dims)
	for d := range bounds {
		bounds[d] = o.Default
	}
	return bounds
}

// CheckDims returns a *ga.ConfigError if the objective cannot take dims.
func (o Objective) CheckDims(dims int) error {
	if o.Dims > 0 && dims != o.Dims {
		return &ga.ConfigError{
			Field:  "Bounds",
			Reason: fmt.Sprintf("objective %q needs %d dimensions (got %d)", o.Name, o.Dims, dims),
		}
	}
	return nil
}

// Evaluator adapts the objective to ga.Evaluator. Gene vectors of the wrong
// length are rejected with an error.
func (o Objective) Evaluator() ga.Evaluator {
	return ga.EvaluatorFunc(func(genes []float64) (float64, error) {
		if o.Dims > 0 && len(genes) != o.Dims {
			return 0, fmt.Errorf("objective %s: expected %d genes, got %d", o.Name, o.Dims, len(genes))
		}
		return o.Fn(genes), nil
	})
}

var registry = map[string]Objective{
	"wave": {
		Name:        "wave",
		Description: "x*sin(x)*y*cos(y)",
		Dims:        2,
		Default:     ga.Bound{Min: 0, Max: 20},
		Fn:          Wave,
	},
	"sphere": {
		Name:        "sphere",
		Description: "sum of squares, minimum 0 at the origin",
		Default:     ga.Bound{Min: -5.12, Max: 5.12},
		Fn:          Sphere,
	},
	"rastrigin": {
		Name:        "rastrigin",
		Description: "highly multimodal, minimum 0 at the origin",
		Default:     ga.Bound{Min: -5.12, Max: 5.12},
		Fn:          Rastrigin,
	},
	"rosenbrock": {
		Name:        "rosenbrock",
		Description: "curved valley, minimum 0 at (1, ..., 1)",
		Default:     ga.Bound{Min: -5, Max: 10},
		Fn:          Rosenbrock,
	},
	"ackley": {
		Name:        "ackley",
		Description: "nearly flat outer region, minimum 0 at the origin",
		Default:     ga.Bound{Min: -32.768, Max: 32.768},
		Fn:          Ackley,
	},
}

// Lookup returns the objective registered under name.
func Lookup(name string) (Objective, error) {
	o, ok := registry[name]
	if !ok {
		return Objective{}, &ga.ConfigError{Field: "Objective", Reason: fmt.Sprintf("unknown objective %q", name)}
	}
	return o, nil
}

// Names lists registered objectives in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wave is x*sin(x)*y*cos(y), the two-parameter demonstration surface.
func Wave(x []float64) float64 {
	return x[0] * math.Sin(x[0]) * x[1] * math.Cos(x[1])
}

func Sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}

func Ackley(x []float64) float64 {
	n := float64(len(x))
	var sumSq, sumCos float64
	for _, v := range x {
		sumSq += v * v
		sumCos += math.Cos(2 * math.Pi * v)
	}
	return -20*math.Exp(-0.2*math.Sqrt(sumSq/n)) - math.Exp(sumCos/n) + 20 + math.E
}
