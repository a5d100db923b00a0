// Package sweep builds plotting datasets by varying one Black-Scholes
// input over a range while holding the other four fixed, evaluating the
// selected output quantity once per sample.
package sweep

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/option-lab/internal/logger"
	"github.com/contactkeval/option-lab/internal/pricing"
)

// ErrInvalidSampleCount rejects sweeps with fewer than two samples.
// A single point is not a curve; callers wanting one value should use
// pricing.Evaluate directly.
var ErrInvalidSampleCount = errors.New("sample count must be >= 2")

// parallelThreshold is the sample count above which the per-point
// evaluations fan out across workers. Points are independent and are
// written by index, so output order never depends on scheduling.
const parallelThreshold = 256

// Variable names the model input being swept.
type Variable string

const (
	VarSpot   Variable = "S"
	VarStrike Variable = "K"
	VarRate   Variable = "r"
	VarSigma  Variable = "sigma"
	VarTime   Variable = "t"
)

// ParseVariable normalizes a user-supplied variable name.
func ParseVariable(s string) (Variable, error) {
	switch strings.TrimSpace(s) {
	case "S", "s", "spot":
		return VarSpot, nil
	case "K", "k", "strike":
		return VarStrike, nil
	case "r", "R", "rate":
		return VarRate, nil
	case "sigma", "vol", "volatility":
		return VarSigma, nil
	case "t", "T", "time":
		return VarTime, nil
	}
	return "", fmt.Errorf("%w: unknown sweep variable %q (want S, K, r, sigma or t)", pricing.ErrInvalidParameter, s)
}

// Label returns the human axis label for the variable.
func (v Variable) Label() string {
	switch v {
	case VarSpot:
		return "Stock Price"
	case VarStrike:
		return "Strike"
	case VarRate:
		return "Interest rate"
	case VarSigma:
		return "Volatility"
	case VarTime:
		return "Time to maturity (Years)"
	}
	return string(v)
}

// Spec fully describes one sweep. The output is a pure function of the
// spec; there is no hidden state.
type Spec struct {
	Base     pricing.Params `json:"base"`     // fixed parameter values (swept field's value is ignored)
	Variable Variable       `json:"variable"` // which input varies
	Start    float64        `json:"start"`    // first sample, inclusive
	Stop     float64        `json:"stop"`     // last sample, inclusive
	N        int            `json:"n"`        // sample count, >= 2
	Output   pricing.Greek  `json:"output"`   // dependent quantity

	// Expression, when non-empty, overrides Output with a formula over
	// the per-point quantities (value, delta, gamma, vega, theta, rho, x).
	Expression string `json:"expression,omitempty"`
}

// Point is one sample of the dataset. A point whose evaluation failed
// (e.g. the range crossed sigma <= 0) keeps its x and is marked
// undefined rather than aborting the sweep, so charts can render a gap.
type Point struct {
	X       float64
	Y       float64
	Defined bool
}

// Dataset is the ordered output of a sweep plus its axis labels.
type Dataset struct {
	XLabel string
	YLabel string
	Points []Point
}

// Defined returns only the defined points, in order.
func (d Dataset) Defined() []Point {
	out := make([]Point, 0, len(d.Points))
	for _, p := range d.Points {
		if p.Defined {
			out = append(out, p)
		}
	}
	return out
}

// Run evaluates the sweep described by spec.
//
// The x samples are n evenly spaced values over [start, stop] inclusive;
// start == stop yields n identical samples. Per-point evaluation failures
// do not abort the sweep: the point is marked undefined and the sweep
// continues. Only a malformed spec (bad sample count, unknown variable or
// greek, broken expression) fails the whole call.
func Run(spec Spec) (Dataset, error) {
	if spec.N < 2 {
		return Dataset{}, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, spec.N)
	}
	// Normalize aliases like "vol" or "strike" so paramsAt sees the
	// canonical variable.
	v, err := ParseVariable(string(spec.Variable))
	if err != nil {
		return Dataset{}, err
	}
	spec.Variable = v

	eval, yLabel, err := spec.evaluator()
	if err != nil {
		return Dataset{}, err
	}

	xs := linspace(spec.Start, spec.Stop, spec.N)
	points := make([]Point, spec.N)

	sample := func(i int) {
		x := xs[i]
		y, err := eval(spec.paramsAt(x), x)
		if err != nil {
			logger.Debugf("sweep point %d undefined (%s=%g): %v", i, spec.Variable, x, err)
			points[i] = Point{X: x}
			return
		}
		points[i] = Point{X: x, Y: y, Defined: true}
	}

	if spec.N < parallelThreshold {
		for i := range xs {
			sample(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := range xs {
			i := i
			g.Go(func() error {
				sample(i)
				return nil
			})
		}
		_ = g.Wait() // workers never return errors; failures mark points undefined
	}

	return Dataset{
		XLabel: spec.Variable.Label(),
		YLabel: yLabel,
		Points: points,
	}, nil
}

// evaluator resolves the dependent quantity once, before any point is
// computed, so a bad greek name or expression fails fast.
func (s Spec) evaluator() (func(pricing.Params, float64) (float64, error), string, error) {
	if s.Expression != "" {
		expr, err := compileExpression(s.Expression)
		if err != nil {
			return nil, "", err
		}
		return expr.evaluate, s.Expression, nil
	}

	g, err := pricing.ParseGreek(string(s.Output))
	if err != nil {
		return nil, "", err
	}
	eval := func(p pricing.Params, _ float64) (float64, error) {
		return pricing.Evaluate(p, g)
	}
	return eval, greekLabel(g), nil
}

// greekLabel is the human axis label for a dependent greek.
func greekLabel(g pricing.Greek) string {
	if g == "" {
		return ""
	}
	s := string(g)
	return strings.ToUpper(s[:1]) + s[1:]
}

// paramsAt returns the fixed parameter set with the swept field
// replaced by x.
func (s Spec) paramsAt(x float64) pricing.Params {
	p := s.Base
	switch s.Variable {
	case VarSpot:
		p.S = x
	case VarStrike:
		p.K = x
	case VarRate:
		p.R = x
	case VarSigma:
		p.Sigma = x
	case VarTime:
		p.T = x
	}
	return p
}

// linspace returns n evenly spaced samples over [start, stop], both
// endpoints included.
func linspace(start, stop float64, n int) []float64 {
	xs := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range xs {
		xs[i] = start + float64(i)*step
	}
	xs[n-1] = stop // avoid accumulated rounding on the last sample
	return xs
}
