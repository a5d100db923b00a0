package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-lab/internal/pricing"
	"github.com/contactkeval/option-lab/internal/sweep"
)

func TestColors(t *testing.T) {
	assert.Equal(t, "#960019", Color(pricing.Call))
	assert.Equal(t, "#0041C2", Color(pricing.Put))
}

func TestDefaultRanges(t *testing.T) {
	assert.Equal(t, Range{Min: 5, Max: 500}, DefaultRange(sweep.VarStrike))
	assert.Equal(t, Range{Min: -0.02, Max: 0.1}, DefaultRange(sweep.VarRate))
}

func TestDescribe(t *testing.T) {
	m := Describe()
	require.Len(t, m.Variables, 5)
	require.Len(t, m.Greeks, 6)

	labels := make(map[string]string)
	for _, v := range m.Variables {
		labels[v.Name] = v.Label
	}
	assert.Equal(t, "Stock Price", labels["S"])
	assert.Equal(t, "Time to maturity (Years)", labels["t"])
}
