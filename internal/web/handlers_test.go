package web

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-insights/internal/session"
)

const peopleCSV = `name,age,salary,joined
alice,34,70000,2021-01-15
bob,,55000,2021-02-20
carol,29,,2021-02-25
dave,41,91000,2021-04-02
`

// uiTest drives the router like a browser, carrying the session cookie
// between requests.
type uiTest struct {
	t      *testing.T
	router *mux.Router
	cookie *http.Cookie
}

func newUITest(t *testing.T) *uiTest {
	t.Helper()
	h, err := New(zap.NewNop(), session.NewStore(), 1<<20)
	require.NoError(t, err)
	router := mux.NewRouter()
	h.Register(router)
	return &uiTest{t: t, router: router}
}

func (u *uiTest) do(req *http.Request) *httptest.ResponseRecorder {
	if u.cookie != nil {
		req.AddCookie(u.cookie)
	}
	rec := httptest.NewRecorder()
	u.router.ServeHTTP(rec, req)
	if u.cookie == nil {
		for _, c := range rec.Result().Cookies() {
			if c.Name == SessionCookie {
				u.cookie = c
			}
		}
	}
	return rec
}

func (u *uiTest) get(path string) *httptest.ResponseRecorder {
	return u.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (u *uiTest) upload(csv string) *httptest.ResponseRecorder {
	u.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "people.csv")
	require.NoError(u.t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(u.t, err)
	require.NoError(u.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return u.do(req)
}

func TestIndex_NoDataset(t *testing.T) {
	ui := newUITest(t)

	rec := ui.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload a CSV file to begin")
	require.NotNil(t, ui.cookie, "first contact must set the session cookie")
}

func TestUpload_Success(t *testing.T) {
	ui := newUITest(t)

	rec := ui.upload(peopleCSV)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/?info=")

	index := ui.get("/")
	body := index.Body.String()
	assert.Contains(t, body, "people.csv")
	assert.Contains(t, body, "4 rows, 4 columns")
	assert.Contains(t, body, "salary")
	assert.Contains(t, body, "joined")
}

func TestUpload_ReplacesPrevious(t *testing.T) {
	ui := newUITest(t)

	ui.upload(peopleCSV)
	ui.upload("x,y\n1,2\n")

	body := ui.get("/").Body.String()
	assert.Contains(t, body, "1 rows, 2 columns")
	assert.NotContains(t, body, "salary")
}

func TestUpload_FailureClearsDataset(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	rec := ui.upload("")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/?error=")

	body := ui.get("/").Body.String()
	assert.NotContains(t, body, "people.csv", "failed load must not keep the old dataset")
}

func TestUpload_MissingFileField(t *testing.T) {
	ui := newUITest(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := ui.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/?error=")
}

func TestAnalysis_NoDatasetRedirects(t *testing.T) {
	ui := newUITest(t)

	rec := ui.get("/analysis/missing")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/?info=")
}

func TestAnalysis_UnknownKind(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	rec := ui.get("/analysis/pivot")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingPage(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	body := ui.get("/analysis/missing").Body.String()

	assert.Contains(t, body, "age")
	assert.Contains(t, body, "salary")
	assert.Contains(t, body, "/charts/missing")
}

func TestMissingPage_CompleteDataset(t *testing.T) {
	ui := newUITest(t)
	ui.upload("a,b\n1,x\n2,y\n")

	body := ui.get("/analysis/missing").Body.String()

	assert.Contains(t, body, "No missing values")
	assert.NotContains(t, body, "/charts/missing")
}

func TestDistributionPage_DefaultColumn(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	body := ui.get("/analysis/distribution").Body.String()

	// First numeric column is the default selection.
	assert.Contains(t, body, `/charts/distribution?column=age`)
	assert.Contains(t, body, "Median")
}

func TestDistributionPage_UnknownColumn(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	body := ui.get("/analysis/distribution?column=name").Body.String()

	assert.Contains(t, body, "Unknown column")
}

func TestDistributionPage_NoNumericColumns(t *testing.T) {
	ui := newUITest(t)
	ui.upload("a,b\nx,y\nz,w\n")

	body := ui.get("/analysis/distribution").Body.String()

	assert.Contains(t, body, "no numeric columns")
}

func TestFrequencyPage(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	body := ui.get("/analysis/frequency?column=name").Body.String()

	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "/charts/frequency?column=name")
}

func TestCorrelationPage_NotEnoughNumeric(t *testing.T) {
	ui := newUITest(t)
	ui.upload("a,b\n1,x\n2,y\n")

	body := ui.get("/analysis/correlation").Body.String()

	assert.Contains(t, body, "at least two numeric columns")
}

func TestCorrelationPage(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	body := ui.get("/analysis/correlation").Body.String()

	assert.Contains(t, body, "/charts/correlation")
}

func TestTimeseriesPage(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	body := ui.get("/analysis/timeseries").Body.String()

	assert.Contains(t, body, "joined")
	assert.Contains(t, body, "granularity=monthly")
	assert.Contains(t, body, "2021-01")
}

func TestTimeseriesPage_BadGranularity(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	body := ui.get("/analysis/timeseries?granularity=hourly").Body.String()

	assert.Contains(t, body, "unknown aggregation granularity")
}

func TestTimeseriesPage_NoDatetimeColumns(t *testing.T) {
	ui := newUITest(t)
	ui.upload("a,b\n1,x\n2,y\n")

	body := ui.get("/analysis/timeseries").Body.String()

	assert.Contains(t, body, "No datetime-like columns")
}

func TestChart_NoDataset(t *testing.T) {
	ui := newUITest(t)

	rec := ui.get("/charts/missing")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChart_Missing(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	rec := ui.get("/charts/missing")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestChart_BadColumn(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	rec := ui.get("/charts/distribution?column=name")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChart_UnknownKind(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	rec := ui.get("/charts/pivot")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChart_TimeSeries(t *testing.T) {
	ui := newUITest(t)
	ui.upload(peopleCSV)

	rec := ui.get("/charts/timeseries?column=joined&granularity=weekly")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")
}
