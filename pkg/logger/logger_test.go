package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantLevel zapcore.Level
	}{
		{
			name: "Development Config",
			config: Config{
				Level:       "debug",
				Environment: "development",
				ServiceName: "bot",
			},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name: "Production Config",
			config: Config{
				Level:       "info",
				Environment: "production",
				ServiceName: "notifier",
			},
			wantLevel: zapcore.InfoLevel,
		},
		{
			name: "Invalid Level Defaults to Info",
			config: Config{
				Level:       "invalid",
				Environment: "development",
				ServiceName: "bot",
			},
			wantLevel: zapcore.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if !l.zap.Core().Enabled(tt.wantLevel) {
				t.Errorf("Expected level %v to be enabled", tt.wantLevel)
			}
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	l.Info("info message", zap.String("player_id", "447000000001"))
	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	entry := observed.All()[0]
	if entry.Message != "info message" {
		t.Errorf("Expected message 'info message', got '%s'", entry.Message)
	}
	if entry.ContextMap()["player_id"] != "447000000001" {
		t.Errorf("Expected player_id field, got %v", entry.ContextMap()["player_id"])
	}

	observed.TakeAll()
	errVal := errors.New("store unavailable")
	l.Error("error message", errVal)
	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	entry = observed.All()[0]
	if entry.ContextMap()["error"] != "store unavailable" {
		t.Errorf("Expected error field, got %v", entry.ContextMap()["error"])
	}

	// Debug suppressed at info level
	observed.TakeAll()
	l.Debug("debug message")
	if observed.Len() != 0 {
		t.Errorf("Expected 0 log entries, got %d", observed.Len())
	}
}

func TestWith(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := &Logger{zap: zap.New(core)}

	child := l.With(zap.String("component", "ledger"))
	child.Info("child message")

	if observed.Len() != 1 {
		t.Fatalf("Expected 1 log entry, got %d", observed.Len())
	}
	if observed.All()[0].ContextMap()["component"] != "ledger" {
		t.Errorf("Expected component=ledger, got %v", observed.All()[0].ContextMap()["component"])
	}
}
