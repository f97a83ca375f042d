package validation

import (
	"errors"
	"strings"
)

// ErrCityEmpty is returned when the city parameter is missing or whitespace-only.
var ErrCityEmpty = errors.New("city is required")

// ErrUnknownColumn is returned when a selected column is not in the dataset.
var ErrUnknownColumn = errors.New("unknown column")

// ValidateCity trims the input and requires it to be non-empty. No further
// validation is applied; the upstream provider decides whether the city exists.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrCityEmpty
	}
	return s, nil
}

// ValidateColumn trims the input and requires membership in available.
// An empty input selects the first available column (the default widget
// selection); with no available columns it returns ErrUnknownColumn.
func ValidateColumn(input string, available []string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		if len(available) == 0 {
			return "", ErrUnknownColumn
		}
		return available[0], nil
	}
	for _, name := range available {
		if name == s {
			return s, nil
		}
	}
	return "", ErrUnknownColumn
}
