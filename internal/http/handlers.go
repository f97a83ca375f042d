package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-insights/internal/client"
	"github.com/kjstillabower/weather-insights/internal/lifecycle"
	"github.com/kjstillabower/weather-insights/internal/service"
	"github.com/kjstillabower/weather-insights/internal/validation"
)

// Handler holds dependencies for the weather service HTTP handlers.
type Handler struct {
	weatherService *service.WeatherService
	logger         *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(weatherService *service.WeatherService, logger *zap.Logger) *Handler {
	return &Handler{
		weatherService: weatherService,
		logger:         logger,
	}
}

// GetWeather handles GET /weather?city=<name>.
//
// Response contract:
//   - missing city: 200 {"error":"City parameter is required"}, no upstream call
//   - upstream non-200: 404 {"error":"City not found"}
//   - success: 200 {"city","temperature","description"}
//   - anything else: 500 {"error":"Server error","details":...}
//
// The missing-parameter case deliberately returns 200: existing callers
// expect the error in the body with an OK status.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city, err := validation.ValidateCity(r.URL.Query().Get("city"))
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]string{"error": "City parameter is required"})
		return
	}

	result, err := h.weatherService.Lookup(r.Context(), city)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, client.ErrCityNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "City not found"})
		return
	}
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Error("weather lookup failed", zap.Error(err))
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Server error",
		"details": err.Error(),
	})
}

// HealthHandler reports healthy, or shutting-down with 503 while draining.
// Shared by both binaries.
func HealthHandler(serviceName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, statusCode := "healthy", http.StatusOK
		if lifecycle.IsShuttingDown() {
			status, statusCode = "shutting-down", http.StatusServiceUnavailable
		}
		writeJSON(w, statusCode, map[string]interface{}{
			"status":    status,
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
