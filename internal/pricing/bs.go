package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// stdNormal is the standard normal distribution used for N(x) and phi(x).
var stdNormal = distuv.UnitNormal

// evalContext caches the intermediate quantities shared by the value and
// every greek of a single evaluation. Populating it once per request keeps
// the outputs mutually consistent and avoids recomputing d1/d2 per greek.
type evalContext struct {
	p        Params
	sqrtT    float64 // sqrt(t)
	discount float64 // e^(-r*t)
	d1       float64
	d2       float64
	nd1      float64 // N(d1)
	nd2      float64 // N(d2)
	phiD1    float64 // standard normal pdf at d1
}

func newEvalContext(p Params) (evalContext, error) {
	if err := p.Validate(); err != nil {
		return evalContext{}, err
	}

	ctx := evalContext{p: p}
	ctx.sqrtT = math.Sqrt(p.T)
	ctx.discount = math.Exp(-p.R * p.T)
	ctx.d1 = (math.Log(p.S/p.K) + (p.R+0.5*p.Sigma*p.Sigma)*p.T) / (p.Sigma * ctx.sqrtT)
	ctx.d2 = ctx.d1 - p.Sigma*ctx.sqrtT
	ctx.nd1 = stdNormal.CDF(ctx.d1)
	ctx.nd2 = stdNormal.CDF(ctx.d2)
	ctx.phiD1 = stdNormal.Prob(ctx.d1)
	return ctx, nil
}

// value is the Black-Scholes price. The put price is derived from the
// call price via put-call parity.
func (c evalContext) value() float64 {
	call := c.nd1*c.p.S - c.nd2*c.p.K*c.discount
	if c.p.Type == Call {
		return call
	}
	return call - (c.p.S - c.p.K*c.discount)
}

func (c evalContext) delta() float64 {
	if c.p.Type == Call {
		return c.nd1
	}
	return c.nd1 - 1
}

// gamma and vega are identical for calls and puts.
func (c evalContext) gamma() float64 {
	return c.phiD1 / (c.p.S * c.p.Sigma * c.sqrtT)
}

func (c evalContext) vega() float64 {
	return c.p.S * c.phiD1 * c.sqrtT
}

func (c evalContext) theta() float64 {
	decay := -(c.p.S * c.phiD1 * c.p.Sigma) / (2 * c.sqrtT)
	if c.p.Type == Call {
		return decay - c.p.R*c.p.K*c.discount*c.nd2
	}
	return decay + c.p.R*c.p.K*c.discount*(1-c.nd2)
}

func (c evalContext) rho() float64 {
	if c.p.Type == Call {
		return c.p.K * c.p.T * c.discount * c.nd2
	}
	return -c.p.K * c.p.T * c.discount * (1 - c.nd2)
}

// Evaluate computes the quantity selected by g for the given parameters.
//
// It validates the inputs up front: non-positive S, K, sigma or t is
// rejected with ErrInvalidParameter rather than silently producing
// NaN/Inf, and an unknown option type with ErrInvalidOptionType.
func Evaluate(p Params, g Greek) (float64, error) {
	ctx, err := newEvalContext(p)
	if err != nil {
		return 0, err
	}
	switch g {
	case Value:
		return ctx.value(), nil
	case Delta:
		return ctx.delta(), nil
	case Gamma:
		return ctx.gamma(), nil
	case Vega:
		return ctx.vega(), nil
	case Theta:
		return ctx.theta(), nil
	case Rho:
		return ctx.rho(), nil
	}
	return 0, ErrInvalidParameter
}

// EvaluateAll computes the value and all five greeks from a single
// evaluation context.
func EvaluateAll(p Params) (Greeks, error) {
	ctx, err := newEvalContext(p)
	if err != nil {
		return Greeks{}, err
	}
	return Greeks{
		Value: ctx.value(),
		Delta: ctx.delta(),
		Gamma: ctx.gamma(),
		Vega:  ctx.vega(),
		Theta: ctx.theta(),
		Rho:   ctx.rho(),
	}, nil
}

// Intrinsic returns the option's exercise value against the discounted
// strike, the lower bound of any arbitrage-free market price.
func Intrinsic(s, k, r, t float64, typ OptionType) float64 {
	discount := math.Exp(-r * t)
	if typ == Call {
		return math.Max(0, s-k*discount)
	}
	return math.Max(0, k*discount-s)
}
