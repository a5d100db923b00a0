package pricing

import (
	"fmt"
	"math"

	"github.com/contactkeval/option-lab/internal/logger"
)

const (
	// ivInitialGuess is the starting volatility for the iteration.
	ivInitialGuess = 0.20

	// ivTolerance is applied to the price-space residual |f(sigma)|,
	// not to sigma itself.
	ivTolerance = 0.0005

	// ivMaxIterations caps the Newton-Raphson loop.
	ivMaxIterations = 100

	// ivMinVega guards the Newton update against division by a
	// near-zero derivative (deep in/out of the money, or t close to
	// zero). The solver bisects instead of dividing when it trips.
	ivMinVega = 1e-8

	// The search bracket. The root is assumed to lie in
	// [ivSigmaFloor, ivSigmaCap]; the bracket tightens as residual
	// signs are observed.
	ivSigmaFloor = 1e-4
	ivSigmaCap   = 5.0
)

// ImpliedVolatility solves for the volatility that reproduces an observed
// market price under the Black-Scholes model.
//
// It runs Newton-Raphson on f(sigma) = price(sigma) - marketPrice with
// f'(sigma) = vega(sigma), which is the exact derivative of the price with
// respect to sigma. Vega is strictly positive for valid inputs, so the
// price is strictly increasing in sigma and the root is unique. Each
// residual sign tightens a bracket around the root; a Newton step that
// would leave the bracket, or whose vega is unusably small, is replaced
// by a bisection step, so the iteration cannot run away from a root far
// from the initial guess.
//
// Errors:
//   - ErrInvalidParameter for non-positive S, K or t
//   - ErrInvalidOptionType for an unknown option type
//   - ErrInvalidMarketPrice when the price is at/below intrinsic value or
//     at/above the theoretical upper bound (S for calls, K*e^(-rt) for puts)
//   - ErrDegenerateVega when |vega| < 1e-8 and the bracket is exhausted
//   - ErrNoConvergence when the iteration cap is exhausted
func ImpliedVolatility(s, k, r, t, marketPrice float64, typ OptionType) (float64, error) {
	if s <= 0 || k <= 0 {
		return 0, fmt.Errorf("%w: spot and strike must be > 0", ErrInvalidParameter)
	}
	if t <= 0 {
		return 0, fmt.Errorf("%w: time to expiry must be > 0", ErrInvalidParameter)
	}
	if typ != Call && typ != Put {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOptionType, typ)
	}

	if err := checkPriceBounds(s, k, r, t, marketPrice, typ); err != nil {
		return 0, err
	}

	lo, hi := ivSigmaFloor, ivSigmaCap
	sigma := ivInitialGuess
	for i := 0; i < ivMaxIterations; i++ {
		p := Params{S: s, K: k, R: r, Sigma: sigma, T: t, Type: typ}
		ctx, err := newEvalContext(p)
		if err != nil {
			return 0, err
		}

		diff := ctx.value() - marketPrice
		if math.Abs(diff) < ivTolerance {
			logger.Debugf("implied vol converged after %d iterations: sigma=%.6f", i, sigma)
			return sigma, nil
		}

		// The price is strictly increasing in sigma: a positive
		// residual means the root is below sigma, a negative one above.
		if diff > 0 {
			hi = sigma
		} else {
			lo = sigma
		}

		vega := ctx.vega()
		if vega >= ivMinVega {
			if next := sigma - diff/vega; next > lo && next < hi {
				sigma = next
				continue
			}
		} else if hi-lo < ivSigmaFloor {
			// Flat derivative and nothing left to bisect: no sigma in
			// the bracket can move the residual.
			return 0, fmt.Errorf("%w: vega=%g at sigma=%g", ErrDegenerateVega, vega, sigma)
		}

		// Newton left the bracket or vega is unusable; bisect instead.
		sigma = 0.5 * (lo + hi)
	}

	return 0, fmt.Errorf("%w after %d iterations (last sigma=%g)", ErrNoConvergence, ivMaxIterations, sigma)
}

// checkPriceBounds rejects market prices no volatility can reproduce,
// before any iteration runs.
func checkPriceBounds(s, k, r, t, marketPrice float64, typ OptionType) error {
	intrinsic := Intrinsic(s, k, r, t, typ)

	// As sigma grows without bound the call price approaches S and the
	// put price approaches the discounted strike.
	upper := s
	if typ == Put {
		upper = k * math.Exp(-r*t)
	}

	if marketPrice <= intrinsic {
		return fmt.Errorf("%w: %v <= intrinsic value %v", ErrInvalidMarketPrice, marketPrice, intrinsic)
	}
	if marketPrice >= upper {
		return fmt.Errorf("%w: %v >= upper bound %v", ErrInvalidMarketPrice, marketPrice, upper)
	}
	return nil
}
