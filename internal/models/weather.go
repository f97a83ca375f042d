package models

// WeatherResult is the flat object returned by GET /weather: the upstream's
// reported city name, metric temperature, and the first weather description
// with its first letter capitalized.
type WeatherResult struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
}
