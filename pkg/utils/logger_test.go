package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := NewLogger(debug)
		if err != nil {
			t.Fatalf("NewLogger(%v) error: %v", debug, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != debug {
			t.Errorf("NewLogger(%v): debug enabled = %v", debug, got)
		}
		_ = logger.Sync()
	}
}

func TestNewCommandLogger(t *testing.T) {
	tests := []struct {
		debug     bool
		infoLevel bool
	}{
		{debug: true, infoLevel: true},
		{debug: false, infoLevel: false},
	}
	for _, tt := range tests {
		logger, err := NewCommandLogger(tt.debug)
		if err != nil {
			t.Fatalf("NewCommandLogger(%v) error: %v", tt.debug, err)
		}
		if got := logger.Core().Enabled(zapcore.InfoLevel); got != tt.infoLevel {
			t.Errorf("NewCommandLogger(%v): info enabled = %v, want %v", tt.debug, got, tt.infoLevel)
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Errorf("NewCommandLogger(%v): warnings must be enabled", tt.debug)
		}
	}
}
