package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/kjstillabower/weather-insights/internal/dataset"
)

// Granularity is a time-interval grouping for the time-series aggregation.
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// DefaultGranularity is the widget default.
const DefaultGranularity = Monthly

// Granularities lists the selectable granularities in widget order.
func Granularities() []Granularity {
	return []Granularity{Daily, Weekly, Monthly, Quarterly, Yearly}
}

// ParseGranularity maps user input to a Granularity. Empty input selects the
// default; anything else unrecognized is a user input error.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "":
		return DefaultGranularity, nil
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return Granularity(s), nil
	default:
		return "", fmt.Errorf("unknown aggregation granularity %q", s)
	}
}

// TimeBucket is one aggregated interval: its start instant and the number of
// rows that fall inside it.
type TimeBucket struct {
	Start time.Time
	Count int
}

// TimeSeries is the row count per bucket over a datetime column, ascending by
// bucket start. Buckets with no rows are absent.
type TimeSeries struct {
	Column      string
	Granularity Granularity
	Buckets     []TimeBucket
}

// OverTime buckets row counts by the chosen granularity over the selected
// column. Every present value must parse as a datetime at this stage; a value
// that does not is a user input error (the column may have been selected
// without going through inference). Missing values are skipped, so a column
// of only missing values yields an empty series.
func OverTime(ds *dataset.Dataset, column string, g Granularity) (TimeSeries, error) {
	col, err := ds.Col(column)
	if err != nil {
		return TimeSeries{}, err
	}
	records := col.Records()
	missing := col.IsNaN()

	counts := make(map[time.Time]int)
	for i, v := range records {
		if missing[i] {
			continue
		}
		t, ok := dataset.ParseDate(v)
		if !ok {
			return TimeSeries{}, fmt.Errorf("column %q cannot be parsed as datetime: value %q", column, v)
		}
		counts[bucketStart(t, g)]++
	}

	buckets := make([]TimeBucket, 0, len(counts))
	for start, n := range counts {
		buckets = append(buckets, TimeBucket{Start: start, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Start.Before(buckets[j].Start) })

	return TimeSeries{Column: column, Granularity: g, Buckets: buckets}, nil
}

// bucketStart truncates an instant to the start of its bucket in UTC. Weekly
// buckets start on Monday.
func bucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	switch g {
	case Daily:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case Weekly:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Quarterly:
		qm := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, qm, 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default: // Monthly
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
}

// Label renders a bucket start for the chart axis at the given granularity.
func (b TimeBucket) Label(g Granularity) string {
	switch g {
	case Daily, Weekly:
		return b.Start.Format("2006-01-02")
	case Quarterly:
		q := (int(b.Start.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", b.Start.Year(), q)
	case Yearly:
		return b.Start.Format("2006")
	default:
		return b.Start.Format("2006-01")
	}
}
