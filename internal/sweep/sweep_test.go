package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-lab/internal/pricing"
)

func baseParams() pricing.Params {
	return pricing.Params{S: 100, K: 100, R: 0.05, Sigma: 0.2, T: 1, Type: pricing.Call}
}

func TestRunShape(t *testing.T) {
	ds, err := Run(Spec{
		Base:     baseParams(),
		Variable: VarSigma,
		Start:    0.01,
		Stop:     1.0,
		N:        1000,
		Output:   pricing.Value,
	})
	require.NoError(t, err)
	require.Len(t, ds.Points, 1000)

	assert.InDelta(t, 0.01, ds.Points[0].X, 1e-12)
	assert.InDelta(t, 1.0, ds.Points[999].X, 1e-12)
	assert.Equal(t, "Volatility", ds.XLabel)
	assert.Equal(t, "Value", ds.YLabel)

	for i := 1; i < len(ds.Points); i++ {
		assert.Greater(t, ds.Points[i].X, ds.Points[i-1].X, "x not strictly increasing at %d", i)
	}
	for i, p := range ds.Points {
		assert.Truef(t, p.Defined, "point %d should be defined", i)
	}
}

// Value must increase along a sigma sweep; spot checks the ys against
// direct engine calls.
func TestRunMatchesDirectEvaluation(t *testing.T) {
	spec := Spec{Base: baseParams(), Variable: VarSpot, Start: 50, Stop: 150, N: 11, Output: pricing.Delta}
	ds, err := Run(spec)
	require.NoError(t, err)

	for _, pt := range ds.Points {
		p := baseParams()
		p.S = pt.X
		want, err := pricing.Evaluate(p, pricing.Delta)
		require.NoError(t, err)
		assert.InDelta(t, want, pt.Y, 1e-12)
	}
}

func TestRunStartEqualsStop(t *testing.T) {
	ds, err := Run(Spec{Base: baseParams(), Variable: VarSpot, Start: 100, Stop: 100, N: 5, Output: pricing.Value})
	require.NoError(t, err)
	require.Len(t, ds.Points, 5)
	for _, p := range ds.Points {
		assert.Equal(t, 100.0, p.X)
		assert.True(t, p.Defined)
	}
}

func TestRunRejectsSampleCount(t *testing.T) {
	for _, n := range []int{-3, 0, 1} {
		_, err := Run(Spec{Base: baseParams(), Variable: VarSigma, Start: 0.1, Stop: 0.5, N: n, Output: pricing.Value})
		require.ErrorIs(t, err, ErrInvalidSampleCount, "n=%d", n)
	}
}

func TestRunMarksInvalidPointsUndefined(t *testing.T) {
	// The range crosses t <= 0: those points must come back undefined,
	// with the rest of the sweep intact.
	ds, err := Run(Spec{Base: baseParams(), Variable: VarTime, Start: -0.5, Stop: 0.5, N: 11, Output: pricing.Value})
	require.NoError(t, err)
	require.Len(t, ds.Points, 11)

	for _, p := range ds.Points {
		if p.X <= 0 {
			assert.Falsef(t, p.Defined, "x=%g should be undefined", p.X)
		} else {
			assert.Truef(t, p.Defined, "x=%g should be defined", p.X)
		}
	}
	assert.NotEmpty(t, ds.Defined())
	assert.Less(t, len(ds.Defined()), len(ds.Points))
}

func TestRunRejectsUnknownVariableAndGreek(t *testing.T) {
	_, err := Run(Spec{Base: baseParams(), Variable: "moneyness", Start: 0, Stop: 1, N: 10, Output: pricing.Value})
	require.Error(t, err)

	_, err = Run(Spec{Base: baseParams(), Variable: VarSigma, Start: 0.1, Stop: 1, N: 10, Output: "charm"})
	require.Error(t, err)
}

func TestRunExpression(t *testing.T) {
	// vega / gamma reduces to S^2 * sigma * t.
	ds, err := Run(Spec{
		Base:       baseParams(),
		Variable:   VarSigma,
		Start:      0.1,
		Stop:       0.5,
		N:          9,
		Expression: "vega / gamma",
	})
	require.NoError(t, err)
	require.Len(t, ds.Points, 9)
	assert.Equal(t, "vega / gamma", ds.YLabel)

	for _, p := range ds.Points {
		require.True(t, p.Defined)
		assert.InDelta(t, 100.0*100.0*p.X*1.0, p.Y, 1e-6)
	}
}

func TestRunExpressionRejectsUnknownIdentifier(t *testing.T) {
	_, err := Run(Spec{Base: baseParams(), Variable: VarSigma, Start: 0.1, Stop: 0.5, N: 9, Expression: "vanna * 2"})
	require.Error(t, err)
}

// Large sweeps run across workers; the output must be identical to the
// sequential path.
func TestRunParallelDeterministic(t *testing.T) {
	spec := Spec{Base: baseParams(), Variable: VarStrike, Start: 50, Stop: 200, N: 2000, Output: pricing.Vega}

	first, err := Run(spec)
	require.NoError(t, err)
	second, err := Run(spec)
	require.NoError(t, err)

	assert.Equal(t, first.Points, second.Points)

	for _, pt := range []Point{first.Points[0], first.Points[1999]} {
		p := baseParams()
		p.K = pt.X
		want, err := pricing.Evaluate(p, pricing.Vega)
		require.NoError(t, err)
		assert.InDelta(t, want, pt.Y, 1e-12)
	}
}

func TestParseVariable(t *testing.T) {
	for in, want := range map[string]Variable{
		"S": VarSpot, "spot": VarSpot,
		"K": VarStrike, "strike": VarStrike,
		"r": VarRate,
		"sigma": VarSigma, "vol": VarSigma,
		"t": VarTime, "time": VarTime,
	} {
		got, err := ParseVariable(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseVariable("theta")
	require.Error(t, err)
}
