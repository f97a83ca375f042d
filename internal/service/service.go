package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-insights/internal/client"
	"github.com/kjstillabower/weather-insights/internal/models"
	"github.com/kjstillabower/weather-insights/internal/observability"
)

// WeatherService is the service layer between the HTTP handlers and the
// upstream client. Every lookup is one upstream call; results are never
// cached and failures are never retried.
type WeatherService struct {
	client client.WeatherClient
}

func NewWeatherService(client client.WeatherClient) *WeatherService {
	return &WeatherService{client: client}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Lookup fetches current weather for the given city from upstream.
func (s *WeatherService) Lookup(ctx context.Context, city string) (models.WeatherResult, error) {
	start := time.Now()
	logger := loggerFromContext(ctx)
	observability.WeatherQueriesTotal.Inc()

	result, err := s.client.CurrentWeather(ctx, city)
	if err != nil {
		return models.WeatherResult{}, fmt.Errorf("fetch weather for %s: %w", city, err)
	}

	if logger != nil {
		logger.Debug("weather served",
			zap.String("city", result.City),
			zap.Duration("duration", time.Since(start)))
	}
	return result, nil
}
