package dataset

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// dateLayouts are the accepted layouts during datetime inference and
// time-series bucketing. A fixed list; open-ended format detection is out of
// scope.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Dataset is one uploaded table held in memory for one session. It is
// immutable after load; every analysis derives its result from the frame on
// each run.
type Dataset struct {
	Name string
	df   dataframe.DataFrame
}

// Load reads a delimited text file into a Dataset. Column types are detected
// during the read; empty cells and the usual NA spellings become missing
// values.
func Load(r io.Reader, name string) (*Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"", "NA", "NaN", "null", "<nil>"}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load csv: %w", df.Err)
	}
	if df.Ncol() == 0 || df.Nrow() == 0 {
		return nil, fmt.Errorf("load csv: file contains no data rows")
	}
	return &Dataset{Name: name, df: df}, nil
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int { return d.df.Nrow() }

// Cols returns the number of columns.
func (d *Dataset) Cols() int { return d.df.Ncol() }

// Columns returns the column names in file order.
func (d *Dataset) Columns() []string { return d.df.Names() }

// Col returns the named column.
func (d *Dataset) Col(name string) (series.Series, error) {
	for _, n := range d.df.Names() {
		if n == name {
			return d.df.Col(name), nil
		}
	}
	return series.Series{}, fmt.Errorf("column %q not in dataset", name)
}

// TypeName returns a display name for the column's detected type.
func (d *Dataset) TypeName(name string) string {
	names := d.df.Names()
	types := d.df.Types()
	for i, n := range names {
		if n == name {
			return string(types[i])
		}
	}
	return ""
}

// NonNullCount returns the number of present (non-missing) values in a column.
func (d *Dataset) NonNullCount(name string) int {
	col, err := d.Col(name)
	if err != nil {
		return 0
	}
	count := 0
	for _, missing := range col.IsNaN() {
		if !missing {
			count++
		}
	}
	return count
}

// Head returns the header row followed by up to n data rows.
func (d *Dataset) Head(n int) [][]string {
	records := d.df.Records()
	if len(records) == 0 {
		return nil
	}
	if n > len(records)-1 {
		n = len(records) - 1
	}
	return records[:n+1]
}

// NumericValues returns the present values of a numeric column. Missing
// entries are dropped.
func (d *Dataset) NumericValues(name string) ([]float64, error) {
	col, err := d.Col(name)
	if err != nil {
		return nil, err
	}
	if t := col.Type(); t != series.Int && t != series.Float {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	floats := col.Float()
	missing := col.IsNaN()
	values := make([]float64, 0, len(floats))
	for i, v := range floats {
		if missing[i] {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// Classification partitions columns into the three semantic groups. Numeric
// and categorical come straight from the detected series types; datetime is
// inferred from the categorical columns.
type Classification struct {
	Numeric     []string
	Categorical []string
	Datetime    []string
}

// Classify recomputes the column classification from the loaded table. The
// result is never cached; replacing the table starts from scratch.
//
// Datetime inference is all-or-nothing per column: every present value must
// parse against the supported layouts, so a single malformed value
// disqualifies the whole column. Missing values do not count against it.
func (d *Dataset) Classify() Classification {
	var c Classification
	names := d.df.Names()
	types := d.df.Types()
	for i, name := range names {
		switch types[i] {
		case series.Int, series.Float:
			c.Numeric = append(c.Numeric, name)
		default:
			c.Categorical = append(c.Categorical, name)
		}
	}
	for _, name := range c.Categorical {
		if d.allValuesParseAsDates(name) {
			c.Datetime = append(c.Datetime, name)
		}
	}
	return c
}

func (d *Dataset) allValuesParseAsDates(name string) bool {
	col, err := d.Col(name)
	if err != nil {
		return false
	}
	records := col.Records()
	missing := col.IsNaN()
	seen := false
	for i, v := range records {
		if missing[i] {
			continue
		}
		if _, ok := ParseDate(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// ParseDate tries the supported layouts in order.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MissingMask returns the row-major missing-cell map for the whole table.
func (d *Dataset) MissingMask() [][]bool {
	names := d.df.Names()
	byColumn := make([][]bool, len(names))
	for i, name := range names {
		byColumn[i] = d.df.Col(name).IsNaN()
	}
	mask := make([][]bool, d.df.Nrow())
	for row := range mask {
		mask[row] = make([]bool, len(names))
		for col := range names {
			mask[row][col] = byColumn[col][row]
		}
	}
	return mask
}
