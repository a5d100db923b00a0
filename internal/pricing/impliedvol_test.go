package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	const (
		s = 100.0
		k = 100.0
		r = 0.05
		T = 1.0
	)

	price, err := Evaluate(Params{S: s, K: k, R: r, Sigma: 0.2, T: T, Type: Call}, Value)
	require.NoError(t, err)

	iv, err := ImpliedVolatility(s, k, r, T, price, Call)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, iv, 1e-3)
}

func TestImpliedVolatilityRoundTripAcrossSurface(t *testing.T) {
	cases := []struct {
		sigma float64
		k     float64
		T     float64
		typ   OptionType
	}{
		{0.15, 90, 0.5, Call},
		{0.45, 120, 1.0, Call},
		{0.30, 100, 2.0, Put},
		{0.80, 80, 0.25, Put},
	}

	for _, tc := range cases {
		price, err := Evaluate(Params{S: 100, K: tc.k, R: 0.03, Sigma: tc.sigma, T: tc.T, Type: tc.typ}, Value)
		require.NoError(t, err)

		iv, err := ImpliedVolatility(100, tc.k, 0.03, tc.T, price, tc.typ)
		require.NoError(t, err)
		assert.InDeltaf(t, tc.sigma, iv, 1e-3, "sigma=%.2f K=%.0f T=%.2f %s", tc.sigma, tc.k, tc.T, tc.typ)
	}
}

// A root far from the 0.2 starting point must not run away: the raw
// Newton step from 0.2 for this contract overshoots past the bracket
// cap, so convergence depends on the bisection fallback.
func TestImpliedVolatilityRootFarFromInitialGuess(t *testing.T) {
	price, err := Evaluate(Params{S: 100, K: 80, R: 0.03, Sigma: 0.8, T: 0.25, Type: Put}, Value)
	require.NoError(t, err)
	assert.InDelta(t, 6.1779, price, 1e-3)

	iv, err := ImpliedVolatility(100, 80, 0.03, 0.25, price, Put)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, iv, 1e-3)
}

func TestImpliedVolatilityNoConvergence(t *testing.T) {
	// Just inside the upper bound but above the price attainable at the
	// sigma cap, so the residual never closes and the iteration budget
	// runs out.
	_, err := ImpliedVolatility(100, 100, 0.05, 1, 99.9999, Call)
	require.ErrorIs(t, err, ErrNoConvergence)
}

func TestImpliedVolatilityRejectsPriceBelowIntrinsic(t *testing.T) {
	// Intrinsic value of this call is well above 15.
	_, err := ImpliedVolatility(120, 100, 0.05, 1, 15, Call)
	require.ErrorIs(t, err, ErrInvalidMarketPrice)
}

func TestImpliedVolatilityRejectsPriceAboveUpperBound(t *testing.T) {
	// A call can never be worth more than the spot.
	_, err := ImpliedVolatility(100, 100, 0.05, 1, 105, Call)
	require.ErrorIs(t, err, ErrInvalidMarketPrice)

	// A put can never be worth more than the discounted strike.
	_, err = ImpliedVolatility(100, 100, 0.05, 1, 99, Put)
	require.ErrorIs(t, err, ErrInvalidMarketPrice)
}

func TestImpliedVolatilityRejectsBadInputs(t *testing.T) {
	_, err := ImpliedVolatility(100, 100, 0.05, 0, 10, Call)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ImpliedVolatility(-100, 100, 0.05, 1, 10, Call)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ImpliedVolatility(100, 100, 0.05, 1, 10, "swaption")
	require.ErrorIs(t, err, ErrInvalidOptionType)
}

func TestImpliedVolatilityDegenerateVega(t *testing.T) {
	// Deep in-the-money with almost no time left: vega underflows at
	// every sigma, so once the bracket collapses the solver has no way
	// to move the residual.
	_, err := ImpliedVolatility(100, 1, 0.05, 0.01, 99.5, Call)
	require.ErrorIs(t, err, ErrDegenerateVega)
}
