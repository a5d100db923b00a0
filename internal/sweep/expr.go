package sweep

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/option-lab/internal/pricing"
)

// exprEvaluator computes a derived dependent quantity from a govaluate
// expression over the per-point outputs, e.g. "vega / gamma" or
// "value - delta * x". Available identifiers: value, delta, gamma,
// vega, theta, rho, and x (the swept input's sample value).
type exprEvaluator struct {
	expr *govaluate.EvaluableExpression
}

func compileExpression(src string) (*exprEvaluator, error) {
	expr, err := govaluate.NewEvaluableExpression(src)
	if err != nil {
		return nil, fmt.Errorf("%w: expression %q: %v", pricing.ErrInvalidParameter, src, err)
	}
	for _, v := range expr.Vars() {
		switch v {
		case "value", "delta", "gamma", "vega", "theta", "rho", "x":
		default:
			return nil, fmt.Errorf("%w: expression %q: unknown identifier %q", pricing.ErrInvalidParameter, src, v)
		}
	}
	return &exprEvaluator{expr: expr}, nil
}

func (e *exprEvaluator) evaluate(p pricing.Params, x float64) (float64, error) {
	g, err := pricing.EvaluateAll(p)
	if err != nil {
		return 0, err
	}

	res, err := e.expr.Evaluate(map[string]interface{}{
		"value": g.Value,
		"delta": g.Delta,
		"gamma": g.Gamma,
		"vega":  g.Vega,
		"theta": g.Theta,
		"rho":   g.Rho,
		"x":     x,
	})
	if err != nil {
		return 0, err
	}

	y, ok := res.(float64)
	if !ok {
		return 0, fmt.Errorf("expression did not produce a number, got %T", res)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("expression produced a non-finite value at x=%g", x)
	}
	return y, nil
}
