// Package catalog holds the built-in activation functions the sampler knows
// how to drive.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// InitType names how a parameter's initial values are distributed.
type InitType string

// Known init types. An empty InitType is treated as uniform.
const (
	InitUniform  InitType = "uniform"
	InitGaussian InitType = "gaussian"
)

var ErrUnknownFunction = errors.New("unknown function")

// Param describes one evolved parameter. Min and Max bound its initial
// values.
type Param struct {
	Name     string
	Min      float64
	Max      float64
	InitType InitType
}

// Function is an activation function of x and zero or more parameters.
type Function struct {
	Name   string
	Params []Param

	// Eval receives exactly len(Params) parameters.
	Eval func(x float64, params ...float64) float64
}

// Call evaluates f, panicking if the parameter count is wrong.
func (f Function) Call(x float64, params ...float64) float64 {
	if len(params) != len(f.Params) {
		panic(fmt.Sprintf("catalog: %s takes %d parameters, got %d", f.Name, len(f.Params), len(params)))
	}

	return f.Eval(x, params...)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-clamp(5*x, -60, 60)))
}

func softplus(x float64) float64 {
	return 0.2 * math.Log1p(math.Exp(clamp(5*x, -60, 60)))
}

func plain(name string, f func(float64) float64) Function {
	return Function{Name: name, Eval: func(x float64, _ ...float64) float64 { return f(x) }}
}

var builtins = []Function{
	plain("abs", math.Abs),
	plain("clamped", func(x float64) float64 { return clamp(x, -1, 1) }),
	plain("cube", func(x float64) float64 { return x * x * x }),
	plain("exp", func(x float64) float64 { return math.Exp(clamp(x, -60, 60)) }),
	plain("gauss", func(x float64) float64 {
		z := clamp(x, -3.4, 3.4)
		return math.Exp(-5 * z * z)
	}),
	plain("hat", func(x float64) float64 { return math.Max(0, 1-math.Abs(x)) }),
	plain("identity", func(x float64) float64 { return x }),
	plain("inv", func(x float64) float64 {
		if x == 0 {
			return 0
		}

		return 1 / x
	}),
	plain("log", func(x float64) float64 { return math.Log(math.Max(1e-7, x)) }),
	plain("relu", func(x float64) float64 { return math.Max(0, x) }),
	plain("sigmoid", sigmoid),
	plain("sin", func(x float64) float64 { return math.Sin(clamp(5*x, -60, 60)) }),
	plain("softplus", softplus),
	plain("square", func(x float64) float64 { return x * x }),
	plain("tanh", func(x float64) float64 { return math.Tanh(clamp(2.5*x, -60, 60)) }),

	{
		Name: "bicentral",
		Params: []Param{
			{Name: "lower", Min: -1, Max: 0, InitType: InitUniform},
			{Name: "upper", Min: 0, Max: 1, InitType: InitUniform},
			{Name: "tilt", Min: -1, Max: 1, InitType: InitGaussian},
		},
		Eval: func(x float64, p ...float64) float64 {
			lower, upper, tilt := p[0], p[1], p[2]
			return sigmoid(x-lower) * (1 - sigmoid(x-upper+tilt))
		},
	},
	{
		Name: "multiparam_elu",
		Params: []Param{
			{Name: "a", Min: 0, Max: 1, InitType: InitGaussian},
			{Name: "b", Min: 0.5, Max: 2, InitType: InitUniform},
		},
		Eval: func(x float64, p ...float64) float64 {
			if x > 0 {
				return x
			}

			return p[0] * (math.Exp(p[1]*clamp(x, -60, 60)) - 1)
		},
	},
	{
		Name:   "multiparam_relu",
		Params: []Param{{Name: "tilt", Min: -1, Max: 1, InitType: InitUniform}},
		Eval: func(x float64, p ...float64) float64 {
			return math.Max(x, x*p[0])
		},
	},
	{
		Name:   "multiparam_softplus",
		Params: []Param{{Name: "a", Min: 0, Max: 1, InitType: InitGaussian}},
		Eval: func(x float64, p ...float64) float64 {
			return p[0]*softplus(x) + (1-p[0])*math.Max(0, x)
		},
	},
}

// Builtin returns every built-in function: the parameterless ones sorted by
// name, then the parametrized ones sorted by name.
func Builtin() []Function {
	fns := slices.Clone(builtins)

	slices.SortStableFunc(fns, func(a, b Function) int {
		if pa, pb := len(a.Params) > 0, len(b.Params) > 0; pa != pb {
			if pa {
				return 1
			}

			return -1
		}

		return strings.Compare(a.Name, b.Name)
	})

	return fns
}

// Names returns the names of [Builtin] in order.
func Names() []string {
	fns := Builtin()
	names := make([]string, len(fns))

	for i, f := range fns {
		names[i] = f.Name
	}

	return names
}

// Lookup returns the built-in function called name.
func Lookup(name string) (Function, bool) {
	for _, f := range builtins {
		if f.Name == name {
			return f, true
		}
	}

	return Function{}, false
}

// Select returns the named built-ins in [Builtin] order, without duplicates.
// No names selects everything.
func Select(names []string) ([]Function, error) {
	if len(names) == 0 {
		return Builtin(), nil
	}

	want := make(map[string]bool, len(names))

	for _, name := range names {
		if _, ok := Lookup(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
		}

		want[name] = true
	}

	var out []Function

	for _, f := range Builtin() {
		if want[f.Name] {
			out = append(out, f)
		}
	}

	return out, nil
}
