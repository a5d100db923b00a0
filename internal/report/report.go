// Package report writes sweep datasets for downstream consumption:
// CSV and JSON files for charting tools, a terminal table, and summary
// statistics over the defined points.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"

	"github.com/contactkeval/option-lab/internal/sweep"
)

// csvPoint is the CSV row shape. Y is a pointer so undefined points
// serialize as an empty cell instead of a fake zero.
type csvPoint struct {
	X float64  `csv:"x"`
	Y *float64 `csv:"y"`
}

func csvRows(ds sweep.Dataset) []*csvPoint {
	rows := make([]*csvPoint, 0, len(ds.Points))
	for _, p := range ds.Points {
		row := &csvPoint{X: p.X}
		if p.Defined {
			y := p.Y
			row.Y = &y
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the dataset as a two-column CSV file (columns x, y;
// undefined points leave y empty).
func WriteCSV(ds sweep.Dataset, outdir, name string) error {
	f, err := os.Create(filepath.Join(outdir, name+".csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	rows := csvRows(ds)
	return gocsv.MarshalFile(&rows, f)
}

// jsonDataset is the serialized dataset shape; undefined ys become null.
type jsonDataset struct {
	XLabel string      `json:"x_label"`
	YLabel string      `json:"y_label"`
	Points []jsonPoint `json:"points"`
}

type jsonPoint struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

// MarshalDataset converts a dataset to its wire shape.
func MarshalDataset(ds sweep.Dataset) any {
	out := jsonDataset{XLabel: ds.XLabel, YLabel: ds.YLabel}
	for _, p := range ds.Points {
		jp := jsonPoint{X: p.X}
		if p.Defined {
			y := p.Y
			jp.Y = &y
		}
		out.Points = append(out.Points, jp)
	}
	return out
}

// WriteJSON writes the dataset as an indented JSON file.
func WriteJSON(ds sweep.Dataset, outdir, name string) error {
	b, err := json.MarshalIndent(MarshalDataset(ds), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, name+".json"), b, 0644)
}

// RenderTable prints the dataset as a terminal table with the axis
// labels as headers.
func RenderTable(ds sweep.Dataset, out io.Writer) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{ds.XLabel, ds.YLabel})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, p := range ds.Points {
		y := "-"
		if p.Defined {
			y = fmt.Sprintf("%.6f", p.Y)
		}
		table.Append([]string{fmt.Sprintf("%.6f", p.X), y})
	}
	table.Render()
}

// Summary aggregates the defined ys of a dataset.
type Summary struct {
	Defined   int     `json:"defined"`
	Undefined int     `json:"undefined"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
}

// Summarize computes summary statistics over the defined points.
func Summarize(ds sweep.Dataset) (Summary, error) {
	defined := ds.Defined()
	s := Summary{Defined: len(defined), Undefined: len(ds.Points) - len(defined)}
	if len(defined) == 0 {
		return s, fmt.Errorf("no defined points to summarize")
	}

	ys := make(stats.Float64Data, len(defined))
	for i, p := range defined {
		ys[i] = p.Y
	}

	var err error
	if s.Min, err = ys.Min(); err != nil {
		return s, err
	}
	if s.Max, err = ys.Max(); err != nil {
		return s, err
	}
	if s.Mean, err = ys.Mean(); err != nil {
		return s, err
	}
	if s.StdDev, err = ys.StandardDeviation(); err != nil {
		return s, err
	}
	return s, nil
}
