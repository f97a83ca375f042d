package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-insights/internal/client"
	"github.com/kjstillabower/weather-insights/internal/lifecycle"
	"github.com/kjstillabower/weather-insights/internal/models"
	"github.com/kjstillabower/weather-insights/internal/service"
)

type mockWeatherClient struct {
	result models.WeatherResult
	err    error
	calls  int
}

func (m *mockWeatherClient) CurrentWeather(ctx context.Context, city string) (models.WeatherResult, error) {
	m.calls++
	return m.result, m.err
}

func newTestRouter(mock *mockWeatherClient) *mux.Router {
	logger := zap.NewNop()
	handler := NewHandler(service.NewWeatherService(mock), logger)
	router := mux.NewRouter()
	router.HandleFunc("/weather", handler.GetWeather).Methods("GET")
	return router
}

func doRequest(t *testing.T, router *mux.Router, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return w, body
}

// TestGetWeather_Success verifies the flat success object and status 200.
func TestGetWeather_Success(t *testing.T) {
	mock := &mockWeatherClient{result: models.WeatherResult{
		City:        "London",
		Temperature: 15.5,
		Description: "Clear sky",
	}}
	router := newTestRouter(mock)

	w, body := doRequest(t, router, "/weather?city=London")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if body["city"] != "London" {
		t.Errorf("city = %v, want London", body["city"])
	}
	if body["temperature"] != 15.5 {
		t.Errorf("temperature = %v, want 15.5", body["temperature"])
	}
	if body["description"] != "Clear sky" {
		t.Errorf("description = %v, want \"Clear sky\"", body["description"])
	}
}

// TestGetWeather_MissingCity verifies the required-parameter error ships in a
// 200 body and no upstream call is made.
func TestGetWeather_MissingCity(t *testing.T) {
	mock := &mockWeatherClient{}
	router := newTestRouter(mock)

	for _, target := range []string{"/weather", "/weather?city=", "/weather?city=%20%20"} {
		w, body := doRequest(t, router, target)

		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", target, w.Code)
		}
		if body["error"] != "City parameter is required" {
			t.Errorf("%s: error = %v, want \"City parameter is required\"", target, body["error"])
		}
	}
	if mock.calls != 0 {
		t.Errorf("upstream calls = %d, want 0", mock.calls)
	}
}

// TestGetWeather_NotFound verifies upstream not-found maps to 404.
func TestGetWeather_NotFound(t *testing.T) {
	mock := &mockWeatherClient{err: client.ErrCityNotFound}
	router := newTestRouter(mock)

	w, body := doRequest(t, router, "/weather?city=Atlantis")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if body["error"] != "City not found" {
		t.Errorf("error = %v, want \"City not found\"", body["error"])
	}
}

// TestGetWeather_ServerError verifies other failures map to 500 with details.
func TestGetWeather_ServerError(t *testing.T) {
	mock := &mockWeatherClient{err: errors.New("connection refused")}
	router := newTestRouter(mock)

	w, body := doRequest(t, router, "/weather?city=London")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if body["error"] != "Server error" {
		t.Errorf("error = %v, want \"Server error\"", body["error"])
	}
	details, _ := body["details"].(string)
	if !strings.Contains(details, "connection refused") {
		t.Errorf("details = %q, want the underlying error text", details)
	}
}

// TestHealthHandler verifies healthy and shutting-down states.
func TestHealthHandler(t *testing.T) {
	t.Cleanup(func() { lifecycle.SetShuttingDown(false) })
	handler := HealthHandler("weather-service")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthy status = %d, want 200", w.Code)
	}

	lifecycle.SetShuttingDown(true)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("shutting-down status = %d, want 503", w.Code)
	}
	var body map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "shutting-down" {
		t.Errorf("status = %v, want shutting-down", body["status"])
	}
}
