package observability

import (
	"testing"

	"go.uber.org/zap"
)

// TestNewLogger verifies a logger is built and respects LOG_LEVEL.
func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")

	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() returned nil logger")
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Error("logger does not have DEBUG enabled with LOG_LEVEL=DEBUG")
	}
}

// TestParseLogLevel verifies level parsing including the default fallback.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zap.AtomicLevel
	}{
		{"DEBUG", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{" warn ", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"ERROR", zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{"", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"bogus", zap.NewAtomicLevelAt(zap.InfoLevel)},
	}
	for _, tt := range tests {
		got := parseLogLevel(tt.input)
		if got.Level() != tt.want.Level() {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got.Level(), tt.want.Level())
		}
	}
}
