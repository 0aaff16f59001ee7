package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_DisabledIsNop(t *testing.T) {
	l, err := New(false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("disabled logger should drop every level")
	}
}

func TestNew_DebugEnablesDebugLevel(t *testing.T) {
	l, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug logger should enable debug level")
	}
}

func TestNewServer_Levels(t *testing.T) {
	l, err := NewServer(false)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("server logger should skip debug by default")
	}
	if !l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("server logger should log info")
	}

	l, err = NewServer(true)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug server logger should log debug")
	}
}
