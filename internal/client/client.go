package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/kjstillabower/weather-insights/internal/models"
	"github.com/kjstillabower/weather-insights/internal/observability"
)

// WeatherClient fetches current weather for a city from the upstream provider.
type WeatherClient interface {
	CurrentWeather(ctx context.Context, city string) (models.WeatherResult, error)
}

var (
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrCityNotFound      = errors.New("city not found")
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// OpenWeatherClient calls the OpenWeatherMap current-weather endpoint.
// One outbound call per lookup; no retries and no result caching.
type OpenWeatherClient struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewOpenWeatherClient(apiKey, apiURL string) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	return &OpenWeatherClient{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{},
	}, nil
}

// openWeatherResponse mirrors the subset of the upstream body this service
// reads. Main is a pointer so an absent object is distinguishable from zeros.
type openWeatherResponse struct {
	Name string `json:"name"`
	Main *struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// CurrentWeather issues the upstream request and maps the body into a
// WeatherResult. Any non-200 status maps to ErrCityNotFound before the body
// is read; transport failures and malformed bodies surface as wrapped errors.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, city string) (models.WeatherResult, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, city)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherResult{}, fmt.Errorf("build request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return models.WeatherResult{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	// Status alone decides not-found; the body content is irrelevant here.
	if resp.StatusCode != http.StatusOK {
		return models.WeatherResult{}, fmt.Errorf("%w: HTTP %d", ErrCityNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherResult{}, fmt.Errorf("read response body: %w", err)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.WeatherResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return mapResponse(apiResp)
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, city string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// mapResponse extracts name, temperature and the first weather description.
// A missing name, main object or empty weather list is a malformed response.
func mapResponse(apiResp openWeatherResponse) (models.WeatherResult, error) {
	if apiResp.Name == "" || apiResp.Main == nil || len(apiResp.Weather) == 0 {
		return models.WeatherResult{}, fmt.Errorf("%w: missing name, main or weather fields", ErrMalformedResponse)
	}
	return models.WeatherResult{
		City:        apiResp.Name,
		Temperature: apiResp.Main.Temp,
		Description: capitalize(apiResp.Weather[0].Description),
	}, nil
}

// capitalize uppercases the first rune and lowercases the rest.
func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
