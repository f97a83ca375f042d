package analysis

import (
	"github.com/kjstillabower/weather-insights/internal/dataset"
)

// ColumnSummary is one row of the numeric summary-statistics table shown on
// the overview page.
type ColumnSummary struct {
	Column string
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	Max    float64
}

// Summaries computes descriptive statistics for every numeric column, in
// column order. Empty when the dataset has no numeric columns.
func Summaries(ds *dataset.Dataset) []ColumnSummary {
	var summaries []ColumnSummary
	for _, name := range ds.Classify().Numeric {
		col, err := ds.Col(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, ColumnSummary{
			Column: name,
			Count:  ds.NonNullCount(name),
			Mean:   col.Mean(),
			StdDev: col.StdDev(),
			Min:    col.Min(),
			Median: col.Median(),
			Max:    col.Max(),
		})
	}
	return summaries
}
