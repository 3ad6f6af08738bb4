package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tc := range tests {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q): want %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestInit(t *testing.T) {
	prev := log
	t.Cleanup(func() { log = prev })
	for _, level := range []string{"debug", "production"} {
		if err := Init(level); err != nil {
			t.Fatalf("Init(%q): %v", level, err)
		}
		if L() == nil {
			t.Fatalf("Init(%q) left a nil logger", level)
		}
	}
	if !L().Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Error("production logger should log at info")
	}
}
