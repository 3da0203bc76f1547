package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		env, level string
		want       zapcore.Level
		wantErr    bool
	}{
		{"prod", "", zapcore.InfoLevel, false},
		{"local", "", zapcore.DebugLevel, false},
		{"docker", "warn", zapcore.WarnLevel, false},
		{"prod", "verbose", 0, true},
		{"staging", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := New(tt.env, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if !l.Core().Enabled(tt.want) {
				t.Errorf("level %s not enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
				t.Errorf("level below %s enabled", tt.want)
			}
		})
	}
}

func TestFromContext_Nop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a no-op logger, got nil")
	}
}

func TestWith_PropagatesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx, l := With(ctx, zap.String("trace_id", "t-1"))
	l.Info("direct")
	FromContext(ctx).Info("downstream")

	if logs.Len() != 2 {
		t.Fatalf("entries = %d, want 2", logs.Len())
	}
	for _, e := range logs.All() {
		if e.ContextMap()["trace_id"] != "t-1" {
			t.Errorf("%q missing trace_id: %v", e.Message, e.ContextMap())
		}
	}
}
