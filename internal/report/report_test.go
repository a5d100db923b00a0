package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-lab/internal/sweep"
)

func sampleDataset() sweep.Dataset {
	return sweep.Dataset{
		XLabel: "Volatility",
		YLabel: "Value",
		Points: []sweep.Point{
			{X: 0.1, Y: 4.2, Defined: true},
			{X: 0.2},
			{X: 0.3, Y: 12.6, Defined: true},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteCSV(sampleDataset(), dir, "sweep"))

	b, err := os.ReadFile(filepath.Join(dir, "sweep.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4) // header + 3 points
	assert.Equal(t, "x,y", lines[0])
	// the undefined point keeps its x and leaves y empty
	assert.Equal(t, "0.2,", lines[2])
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJSON(sampleDataset(), dir, "sweep"))

	b, err := os.ReadFile(filepath.Join(dir, "sweep.json"))
	require.NoError(t, err)

	var decoded struct {
		XLabel string `json:"x_label"`
		YLabel string `json:"y_label"`
		Points []struct {
			X float64  `json:"x"`
			Y *float64 `json:"y"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "Volatility", decoded.XLabel)
	require.Len(t, decoded.Points, 3)
	assert.Nil(t, decoded.Points[1].Y)
	require.NotNil(t, decoded.Points[2].Y)
	assert.Equal(t, 12.6, *decoded.Points[2].Y)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(sampleDataset(), &buf)

	out := buf.String()
	assert.Contains(t, out, "VOLATILITY") // tablewriter upper-cases headers
	assert.Contains(t, out, "0.100000")
	assert.Contains(t, out, "-") // undefined marker
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Defined)
	assert.Equal(t, 1, s.Undefined)
	assert.Equal(t, 4.2, s.Min)
	assert.Equal(t, 12.6, s.Max)
	assert.InDelta(t, 8.4, s.Mean, 1e-12)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(sweep.Dataset{Points: []sweep.Point{{X: 1}}})
	require.Error(t, err)
}
