// Package analysis implements the insight computations: missing values,
// numeric distribution, categorical frequency, correlation, and time-series
// aggregation. Every function is pure with respect to the dataset, so
// re-running with the same inputs yields identical output.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kjstillabower/weather-insights/internal/dataset"
)

// MaxCategories caps how many distinct values the frequency analysis shows.
const MaxCategories = 25

// maxHistogramBins caps Sturges' rule for very large columns.
const maxHistogramBins = 50

var (
	// ErrNotEnoughNumeric is returned when correlation has fewer than two
	// numeric columns to work with.
	ErrNotEnoughNumeric = errors.New("correlation requires at least two numeric columns")

	// ErrNoValues is returned when a selected column has no present values.
	ErrNoValues = errors.New("column has no values")
)

// ColumnMissing is one row of the missing-value table.
type ColumnMissing struct {
	Column string
	Count  int
}

// MissingReport holds the per-column missing counts (columns with at least
// one missing cell only) and, when anything is missing, the full cell map.
type MissingReport struct {
	Counts []ColumnMissing
	Mask   [][]bool
}

// HasMissing reports whether any cell in the table is missing.
func (r MissingReport) HasMissing() bool { return len(r.Counts) > 0 }

// Missing computes per-column missing counts and the missing-cell map.
// Purely descriptive; no imputation happens anywhere.
func Missing(ds *dataset.Dataset) MissingReport {
	var report MissingReport
	for _, name := range ds.Columns() {
		missing := ds.Rows() - ds.NonNullCount(name)
		if missing > 0 {
			report.Counts = append(report.Counts, ColumnMissing{Column: name, Count: missing})
		}
	}
	if len(report.Counts) > 0 {
		report.Mask = ds.MissingMask()
	}
	return report
}

// Bin is one histogram bucket over [Low, High).
type Bin struct {
	Low   float64
	High  float64
	Count int
}

// BoxStats are the five-number summary backing the box-plot marginal.
type BoxStats struct {
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Distribution is the histogram plus box-plot marginal for a numeric column.
type Distribution struct {
	Column string
	N      int
	Bins   []Bin
	Box    BoxStats
}

// Distribute computes the distribution of a numeric column. Bin count follows
// Sturges' rule, capped at maxHistogramBins.
func Distribute(ds *dataset.Dataset, column string) (Distribution, error) {
	values, err := ds.NumericValues(column)
	if err != nil {
		return Distribution{}, err
	}
	if len(values) == 0 {
		return Distribution{}, fmt.Errorf("%w: %s", ErrNoValues, column)
	}
	sort.Float64s(values)

	min, max := values[0], values[len(values)-1]
	box := BoxStats{
		Min:    min,
		Q1:     stat.Quantile(0.25, stat.Empirical, values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, values, nil),
		Max:    max,
	}

	dist := Distribution{Column: column, N: len(values), Box: box}
	if min == max {
		// Degenerate column: everything lands in one bucket.
		dist.Bins = []Bin{{Low: min, High: max, Count: len(values)}}
		return dist, nil
	}

	bins := binCount(len(values))
	dividers := make([]float64, bins+1)
	width := (max - min) / float64(bins)
	for i := range dividers {
		dividers[i] = min + float64(i)*width
	}
	// stat.Histogram requires every value strictly below the last divider.
	dividers[bins] = math.Nextafter(max, math.Inf(1))

	counts := stat.Histogram(make([]float64, bins), dividers, values, nil)
	dist.Bins = make([]Bin, bins)
	for i := range dist.Bins {
		dist.Bins[i] = Bin{
			Low:   dividers[i],
			High:  dividers[i+1],
			Count: int(counts[i]),
		}
	}
	return dist, nil
}

// binCount applies Sturges' rule with a cap.
func binCount(n int) int {
	bins := int(math.Ceil(math.Log2(float64(n)))) + 1
	if bins < 1 {
		bins = 1
	}
	if bins > maxHistogramBins {
		bins = maxHistogramBins
	}
	return bins
}

// ValueCount is one bar of the frequency chart.
type ValueCount struct {
	Value string
	Count int
}

// Frequency holds value counts for a categorical column, descending by count.
// When Total > Shown the list was truncated to the MaxCategories largest.
type Frequency struct {
	Column string
	Values []ValueCount
	Total  int
	Shown  int
}

// Truncated reports whether categories were omitted.
func (f Frequency) Truncated() bool { return f.Total > f.Shown }

// Frequencies computes value counts for a column. Missing values are
// excluded. Ties break on the value itself so repeated runs are identical.
func Frequencies(ds *dataset.Dataset, column string) (Frequency, error) {
	col, err := ds.Col(column)
	if err != nil {
		return Frequency{}, err
	}
	records := col.Records()
	missing := col.IsNaN()

	counts := make(map[string]int)
	for i, v := range records {
		if missing[i] {
			continue
		}
		counts[v]++
	}

	values := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		values = append(values, ValueCount{Value: v, Count: n})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})

	freq := Frequency{Column: column, Total: len(values)}
	if len(values) > MaxCategories {
		values = values[:MaxCategories]
	}
	freq.Values = values
	freq.Shown = len(values)
	return freq, nil
}

// Correlation is the pairwise Pearson matrix over the numeric columns.
// Matrix[i][j] corresponds to Columns[i] vs Columns[j]; cells with fewer than
// two complete observations, or a constant column, are NaN.
type Correlation struct {
	Columns []string
	Matrix  [][]float64
}

// Correlate computes the Pearson correlation matrix across all numeric
// columns, using pairwise-complete observations.
func Correlate(ds *dataset.Dataset) (Correlation, error) {
	numeric := ds.Classify().Numeric
	if len(numeric) < 2 {
		return Correlation{}, ErrNotEnoughNumeric
	}

	// Column values aligned by row, with per-row presence flags.
	floats := make([][]float64, len(numeric))
	present := make([][]bool, len(numeric))
	for i, name := range numeric {
		col, err := ds.Col(name)
		if err != nil {
			return Correlation{}, err
		}
		floats[i] = col.Float()
		missing := col.IsNaN()
		present[i] = make([]bool, len(missing))
		for r, m := range missing {
			present[i][r] = !m
		}
	}

	matrix := make([][]float64, len(numeric))
	for i := range matrix {
		matrix[i] = make([]float64, len(numeric))
		matrix[i][i] = 1
	}
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r := pairwiseCorrelation(floats[i], floats[j], present[i], present[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return Correlation{Columns: numeric, Matrix: matrix}, nil
}

func pairwiseCorrelation(x, y []float64, xok, yok []bool) float64 {
	var xs, ys []float64
	for r := range x {
		if xok[r] && yok[r] {
			xs = append(xs, x[r])
			ys = append(ys, y[r])
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
