// Package web serves the data-exploration UI: dataset upload, the overview
// page, and one page per analysis. Pages are plain server-rendered HTML; the
// charts themselves are standalone ECharts documents embedded by iframe.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-insights/internal/analysis"
	"github.com/kjstillabower/weather-insights/internal/charts"
	"github.com/kjstillabower/weather-insights/internal/dataset"
	"github.com/kjstillabower/weather-insights/internal/observability"
	"github.com/kjstillabower/weather-insights/internal/session"
	"github.com/kjstillabower/weather-insights/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// SessionCookie names the cookie binding a browser to its dataset.
const SessionCookie = "insights_session"

// Handlers carries the UI's dependencies.
type Handlers struct {
	logger         *zap.Logger
	store          *session.Store
	maxUploadBytes int64
	templates      *template.Template
}

// New builds the UI handlers. Templates are embedded, so parse failures are
// programming errors surfaced at startup.
func New(logger *zap.Logger, store *session.Store, maxUploadBytes int64) (*Handlers, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handlers{
		logger:         logger,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		templates:      tmpl,
	}, nil
}

// Register mounts every UI route on the router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/", h.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/upload", h.HandleUpload).Methods(http.MethodPost)
	r.HandleFunc("/analysis/{kind}", h.HandleAnalysis).Methods(http.MethodGet)
	r.HandleFunc("/charts/{kind}", h.HandleChart).Methods(http.MethodGet)
}

func (h *Handlers) loggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return h.logger
}

// sessionID returns the browser's session identifier, minting one on first
// contact.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.loggerFrom(r.Context()).Error("render template", zap.String("template", name), zap.Error(err))
	}
}

type columnInfo struct {
	Name    string
	Type    string
	NonNull int
}

type indexPage struct {
	HasDataset  bool
	Name        string
	Rows        int
	Cols        int
	Columns     []columnInfo
	Head        [][]string
	Summaries   []analysis.ColumnSummary
	Numeric     []string
	Categorical []string
	Datetime    []string
	Error       string
	Info        string
}

// HandleIndex renders the overview: shape, column types, a preview, and the
// numeric summary table.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	page := indexPage{
		Error: r.URL.Query().Get("error"),
		Info:  r.URL.Query().Get("info"),
	}

	ds, ok := h.store.Get(sid)
	if ok {
		class := ds.Classify()
		page.HasDataset = true
		page.Name = ds.Name
		page.Rows = ds.Rows()
		page.Cols = ds.Cols()
		page.Head = ds.Head(5)
		page.Summaries = analysis.Summaries(ds)
		page.Numeric = class.Numeric
		page.Categorical = class.Categorical
		page.Datetime = class.Datetime
		for _, name := range ds.Columns() {
			page.Columns = append(page.Columns, columnInfo{
				Name:    name,
				Type:    ds.TypeName(name),
				NonNull: ds.NonNullCount(name),
			})
		}
	} else if page.Info == "" && page.Error == "" {
		page.Info = "Upload a CSV file to begin."
	}

	h.render(w, r, "index.html", page)
}

// HandleUpload loads the posted CSV into the session, replacing whatever was
// there. A failed load leaves the session empty rather than half-updated.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFrom(r.Context())
	sid := h.sessionID(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.uploadFailed(w, r, sid, fmt.Errorf("read upload: %w", err))
		return
	}
	defer file.Close()

	ds, err := dataset.Load(file, header.Filename)
	if err != nil {
		h.uploadFailed(w, r, sid, err)
		return
	}

	h.store.Put(sid, ds)
	observability.DatasetUploadsTotal.WithLabelValues("success").Inc()
	observability.DatasetRowsLoaded.Observe(float64(ds.Rows()))
	logger.Info("dataset loaded",
		zap.String("file", ds.Name),
		zap.Int("rows", ds.Rows()),
		zap.Int("cols", ds.Cols()))

	msg := fmt.Sprintf("Loaded %s: %d rows, %d columns.", ds.Name, ds.Rows(), ds.Cols())
	http.Redirect(w, r, "/?info="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (h *Handlers) uploadFailed(w http.ResponseWriter, r *http.Request, sid string, err error) {
	h.store.Delete(sid)
	observability.DatasetUploadsTotal.WithLabelValues("error").Inc()
	h.loggerFrom(r.Context()).Warn("dataset upload rejected", zap.Error(err))
	msg := fmt.Sprintf("Could not load file: %v", err)
	http.Redirect(w, r, "/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// HandleAnalysis dispatches /analysis/{kind} to the per-kind page.
func (h *Handlers) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	ds, ok := h.store.Get(sid)
	if !ok {
		http.Redirect(w, r, "/?info="+url.QueryEscape("Upload a CSV file to begin."), http.StatusSeeOther)
		return
	}

	switch mux.Vars(r)["kind"] {
	case "missing":
		h.missingPage(w, r, ds)
	case "distribution":
		h.distributionPage(w, r, ds)
	case "frequency":
		h.frequencyPage(w, r, ds)
	case "correlation":
		h.correlationPage(w, r, ds)
	case "timeseries":
		h.timeseriesPage(w, r, ds)
	default:
		http.NotFound(w, r)
	}
}

func observeAnalysis(kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.AnalysisRunsTotal.WithLabelValues(kind, status).Inc()
	observability.AnalysisDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

type missingPage struct {
	Name     string
	Counts   []analysis.ColumnMissing
	ChartURL string
	Info     string
}

func (h *Handlers) missingPage(w http.ResponseWriter, r *http.Request, ds *dataset.Dataset) {
	start := time.Now()
	report := analysis.Missing(ds)
	observeAnalysis("missing", start, nil)

	page := missingPage{Name: ds.Name, Counts: report.Counts}
	if report.HasMissing() {
		page.ChartURL = "/charts/missing"
	} else {
		page.Info = "No missing values in the dataset."
	}
	h.render(w, r, "missing.html", page)
}

type distributionPage struct {
	Name     string
	Columns  []string
	Selected string
	Dist     *analysis.Distribution
	ChartURL string
	Warning  string
	Error    string
}

func (h *Handlers) distributionPage(w http.ResponseWriter, r *http.Request, ds *dataset.Dataset) {
	page := distributionPage{Name: ds.Name, Columns: ds.Classify().Numeric}
	if len(page.Columns) == 0 {
		page.Warning = "The dataset has no numeric columns to plot."
		h.render(w, r, "distribution.html", page)
		return
	}

	column, err := validation.ValidateColumn(r.URL.Query().Get("column"), page.Columns)
	if err != nil {
		page.Error = fmt.Sprintf("Unknown column %q.", r.URL.Query().Get("column"))
		h.render(w, r, "distribution.html", page)
		return
	}
	page.Selected = column

	start := time.Now()
	dist, err := analysis.Distribute(ds, column)
	observeAnalysis("distribution", start, err)
	if err != nil {
		page.Error = fmt.Sprintf("Could not compute distribution: %v", err)
		h.render(w, r, "distribution.html", page)
		return
	}

	page.Dist = &dist
	page.ChartURL = "/charts/distribution?column=" + url.QueryEscape(column)
	h.render(w, r, "distribution.html", page)
}

type frequencyPage struct {
	Name     string
	Columns  []string
	Selected string
	Freq     *analysis.Frequency
	ChartURL string
	Warning  string
	Error    string
}

func (h *Handlers) frequencyPage(w http.ResponseWriter, r *http.Request, ds *dataset.Dataset) {
	page := frequencyPage{Name: ds.Name, Columns: ds.Classify().Categorical}
	if len(page.Columns) == 0 {
		page.Warning = "The dataset has no categorical columns to count."
		h.render(w, r, "frequency.html", page)
		return
	}

	column, err := validation.ValidateColumn(r.URL.Query().Get("column"), page.Columns)
	if err != nil {
		page.Error = fmt.Sprintf("Unknown column %q.", r.URL.Query().Get("column"))
		h.render(w, r, "frequency.html", page)
		return
	}
	page.Selected = column

	start := time.Now()
	freq, err := analysis.Frequencies(ds, column)
	observeAnalysis("frequency", start, err)
	if err != nil {
		page.Error = fmt.Sprintf("Could not compute value counts: %v", err)
		h.render(w, r, "frequency.html", page)
		return
	}

	page.Freq = &freq
	if freq.Truncated() {
		page.Warning = fmt.Sprintf("Column has %d distinct values; showing the %d most frequent.",
			freq.Total, freq.Shown)
	}
	page.ChartURL = "/charts/frequency?column=" + url.QueryEscape(column)
	h.render(w, r, "frequency.html", page)
}

type correlationPage struct {
	Name     string
	Columns  []string
	ChartURL string
	Warning  string
	Error    string
}

func (h *Handlers) correlationPage(w http.ResponseWriter, r *http.Request, ds *dataset.Dataset) {
	page := correlationPage{Name: ds.Name}

	start := time.Now()
	corr, err := analysis.Correlate(ds)
	observeAnalysis("correlation", start, err)
	if err != nil {
		if err == analysis.ErrNotEnoughNumeric {
			page.Warning = "Correlation needs at least two numeric columns."
		} else {
			page.Error = fmt.Sprintf("Could not compute correlation: %v", err)
		}
		h.render(w, r, "correlation.html", page)
		return
	}

	page.Columns = corr.Columns
	page.ChartURL = "/charts/correlation"
	h.render(w, r, "correlation.html", page)
}

type timeseriesPage struct {
	Name          string
	Columns       []string
	Selected      string
	Granularities []analysis.Granularity
	Granularity   analysis.Granularity
	Series        *analysis.TimeSeries
	ChartURL      string
	Warning       string
	Error         string
}

func (h *Handlers) timeseriesPage(w http.ResponseWriter, r *http.Request, ds *dataset.Dataset) {
	page := timeseriesPage{
		Name:          ds.Name,
		Columns:       ds.Classify().Datetime,
		Granularities: analysis.Granularities(),
	}
	if len(page.Columns) == 0 {
		page.Warning = "No datetime-like columns were detected in the dataset."
		h.render(w, r, "timeseries.html", page)
		return
	}

	column, err := validation.ValidateColumn(r.URL.Query().Get("column"), page.Columns)
	if err != nil {
		page.Error = fmt.Sprintf("Unknown column %q.", r.URL.Query().Get("column"))
		h.render(w, r, "timeseries.html", page)
		return
	}
	page.Selected = column

	granularity, err := analysis.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		page.Granularity = analysis.DefaultGranularity
		page.Error = err.Error()
		h.render(w, r, "timeseries.html", page)
		return
	}
	page.Granularity = granularity

	start := time.Now()
	ts, err := analysis.OverTime(ds, column, granularity)
	observeAnalysis("timeseries", start, err)
	if err != nil {
		page.Error = fmt.Sprintf("Could not aggregate over time: %v", err)
		h.render(w, r, "timeseries.html", page)
		return
	}

	page.Series = &ts
	if len(ts.Buckets) == 0 {
		page.Warning = fmt.Sprintf("Column %q has no present values to aggregate.", column)
	} else {
		page.ChartURL = fmt.Sprintf("/charts/timeseries?column=%s&granularity=%s",
			url.QueryEscape(column), url.QueryEscape(string(granularity)))
	}
	h.render(w, r, "timeseries.html", page)
}

// HandleChart serves the standalone ECharts document for one analysis. The
// surrounding page embeds it by iframe, so errors here are plain text.
func (h *Handlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	sid := h.sessionID(w, r)
	ds, ok := h.store.Get(sid)
	if !ok {
		http.Error(w, "no dataset loaded", http.StatusNotFound)
		return
	}

	chart, err := h.buildChart(r, ds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if chart == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(w); err != nil {
		h.loggerFrom(r.Context()).Error("render chart", zap.Error(err))
	}
}

func (h *Handlers) buildChart(r *http.Request, ds *dataset.Dataset) (charts.Renderable, error) {
	column := r.URL.Query().Get("column")
	switch mux.Vars(r)["kind"] {
	case "missing":
		return charts.MissingHeatmap(analysis.Missing(ds), ds.Columns()), nil
	case "distribution":
		selected, err := validation.ValidateColumn(column, ds.Classify().Numeric)
		if err != nil {
			return nil, err
		}
		dist, err := analysis.Distribute(ds, selected)
		if err != nil {
			return nil, err
		}
		return charts.Histogram(dist), nil
	case "frequency":
		selected, err := validation.ValidateColumn(column, ds.Classify().Categorical)
		if err != nil {
			return nil, err
		}
		freq, err := analysis.Frequencies(ds, selected)
		if err != nil {
			return nil, err
		}
		return charts.FrequencyBar(freq), nil
	case "correlation":
		corr, err := analysis.Correlate(ds)
		if err != nil {
			return nil, err
		}
		return charts.CorrelationHeatmap(corr), nil
	case "timeseries":
		selected, err := validation.ValidateColumn(column, ds.Classify().Datetime)
		if err != nil {
			return nil, err
		}
		granularity, err := analysis.ParseGranularity(r.URL.Query().Get("granularity"))
		if err != nil {
			return nil, err
		}
		ts, err := analysis.OverTime(ds, selected, granularity)
		if err != nil {
			return nil, err
		}
		return charts.TimeSeriesLine(ts), nil
	default:
		return nil, nil
	}
}
