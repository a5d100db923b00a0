// Package chart holds the immutable presentation lookup tables consumed
// by UI clients: axis labels, option-type colors, and default slider
// ranges per sweep variable. None of it affects the correctness of the
// pricing core.
package chart

import (
	"github.com/contactkeval/option-lab/internal/pricing"
	"github.com/contactkeval/option-lab/internal/sweep"
)

// Range is an inclusive [Min, Max] interval for a range slider.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Color returns the line color for an option type.
func Color(typ pricing.OptionType) string {
	if typ == pricing.Put {
		return "#0041C2"
	}
	return "#960019"
}

// DefaultRange returns the initial slider interval for a sweep variable.
func DefaultRange(v sweep.Variable) Range {
	switch v {
	case sweep.VarSpot:
		return Range{Min: 0, Max: 500}
	case sweep.VarStrike:
		return Range{Min: 5, Max: 500}
	case sweep.VarRate:
		return Range{Min: -0.02, Max: 0.1}
	case sweep.VarSigma:
		return Range{Min: 0, Max: 2}
	case sweep.VarTime:
		return Range{Min: 0, Max: 2}
	}
	return Range{}
}

// VariableMeta describes one sweepable input for a UI client.
type VariableMeta struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Range Range  `json:"range"`
}

// Meta is the full presentation bundle served to UI clients.
type Meta struct {
	Variables []VariableMeta    `json:"variables"`
	Greeks    []string          `json:"greeks"`
	Colors    map[string]string `json:"colors"`
}

// Describe builds the presentation bundle. The result is freshly
// allocated; callers may not share it across requests mutably, but the
// underlying tables never change.
func Describe() Meta {
	vars := []sweep.Variable{sweep.VarSpot, sweep.VarStrike, sweep.VarRate, sweep.VarSigma, sweep.VarTime}

	m := Meta{
		Greeks: []string{
			string(pricing.Value), string(pricing.Delta), string(pricing.Gamma),
			string(pricing.Vega), string(pricing.Theta), string(pricing.Rho),
		},
		Colors: map[string]string{
			string(pricing.Call): Color(pricing.Call),
			string(pricing.Put):  Color(pricing.Put),
		},
	}
	for _, v := range vars {
		m.Variables = append(m.Variables, VariableMeta{
			Name:  string(v),
			Label: v.Label(),
			Range: DefaultRange(v),
		})
	}
	return m
}
