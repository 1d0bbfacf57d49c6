package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want *zapcore.Level
	}{
		{"debug", levelPtr(zapcore.DebugLevel)},
		{"info", levelPtr(zapcore.InfoLevel)},
		{"warn", levelPtr(zapcore.WarnLevel)},
		{"error", levelPtr(zapcore.ErrorLevel)},
		{"verbose", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseLevel(tt.in)
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func levelPtr(l zapcore.Level) *zapcore.Level { return &l }

func TestWith(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := With(FromZap(zap.New(core)), String("component", "relay"))

	log.Info("started", Int("count", 2))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "relay" || ctx["count"] != int64(2) {
		t.Errorf("context = %v", ctx)
	}
}

func TestNopDiscards(t *testing.T) {
	log := NewNop()
	log.Error("ignored", Error(nil))
	if With(log, Bool("x", true)) == nil {
		t.Fatal("With returned nil")
	}
}
