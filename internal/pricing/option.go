// Package pricing implements closed-form Black-Scholes valuation of
// European options, the associated sensitivities (Greeks), and a
// Newton-Raphson implied-volatility solver.
//
// All functions are pure: they hold no state, perform no I/O, and are
// safe to call concurrently.
package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors surfaced by the pricing engine and the implied
// volatility solver. Callers match them with errors.Is.
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrInvalidOptionType  = errors.New("invalid option type")
	ErrInvalidMarketPrice = errors.New("market price outside attainable bounds")
	ErrDegenerateVega     = errors.New("vega too small for a stable update")
	ErrNoConvergence      = errors.New("implied vol did not converge")
)

// OptionType identifies the side of a European option.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType normalizes a user-supplied option type string.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: %q (want call or put)", ErrInvalidOptionType, s)
}

// Greek selects which output quantity Evaluate computes.
type Greek string

const (
	Value Greek = "value"
	Delta Greek = "delta"
	Gamma Greek = "gamma"
	Vega  Greek = "vega"
	Theta Greek = "theta"
	Rho   Greek = "rho"
)

// ParseGreek normalizes a user-supplied greek name.
func ParseGreek(s string) (Greek, error) {
	g := Greek(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case Value, Delta, Gamma, Vega, Theta, Rho:
		return g, nil
	}
	return "", fmt.Errorf("%w: unknown greek %q", ErrInvalidParameter, s)
}

// Params is the full input set for one Black-Scholes evaluation.
// Constructed per request and discarded; never mutated.
type Params struct {
	S     float64    `json:"S"`     // spot price of the underlying
	K     float64    `json:"K"`     // strike price
	R     float64    `json:"r"`     // risk-free rate (annual, any sign)
	Sigma float64    `json:"sigma"` // volatility (annual, as a decimal)
	T     float64    `json:"t"`     // time to expiry in years
	Type  OptionType `json:"type"`  // call or put
}

// Validate rejects inputs that would drive the formulas through
// log(x<=0) or a division by zero. Rates may be negative.
func (p Params) Validate() error {
	if p.S <= 0 {
		return fmt.Errorf("%w: spot must be > 0, got %v", ErrInvalidParameter, p.S)
	}
	if p.K <= 0 {
		return fmt.Errorf("%w: strike must be > 0, got %v", ErrInvalidParameter, p.K)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("%w: sigma must be > 0, got %v", ErrInvalidParameter, p.Sigma)
	}
	if p.T <= 0 {
		return fmt.Errorf("%w: time to expiry must be > 0, got %v", ErrInvalidParameter, p.T)
	}
	if p.Type != Call && p.Type != Put {
		return fmt.Errorf("%w: %q", ErrInvalidOptionType, p.Type)
	}
	return nil
}

// Greeks bundles every output quantity computed from one evaluation
// context, so all six are internally consistent.
type Greeks struct {
	Value float64 `json:"value"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// Get returns the quantity selected by g.
func (gr Greeks) Get(g Greek) (float64, error) {
	switch g {
	case Value:
		return gr.Value, nil
	case Delta:
		return gr.Delta, nil
	case Gamma:
		return gr.Gamma, nil
	case Vega:
		return gr.Vega, nil
	case Theta:
		return gr.Theta, nil
	case Rho:
		return gr.Rho, nil
	}
	return 0, fmt.Errorf("%w: unknown greek %q", ErrInvalidParameter, g)
}
