package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_FormatsMessages(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Info("[Server] listening on %s", ":8080")
	log.Error("collect %s failed: %v", "ci", "timeout")
	log.Debug("batch of %d", 3)

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	want := []struct {
		level zapcore.Level
		msg   string
	}{
		{zapcore.InfoLevel, "[Server] listening on :8080"},
		{zapcore.ErrorLevel, "collect ci failed: timeout"},
		{zapcore.DebugLevel, "batch of 3"},
	}
	for i, w := range want {
		if entries[i].Message != w.msg {
			t.Errorf("entry[%d].Message = %q, want %q", i, entries[i].Message, w.msg)
		}
		if entries[i].Level != w.level {
			t.Errorf("entry[%d].Level = %v, want %v", i, entries[i].Level, w.level)
		}
	}
}

func TestNewZapLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		wantErr bool
	}{
		{"info", "console", false},
		{"debug", "json", false},
		{"", "", false},
		{"warn", "json", false},
		{"error", "console", false},
		{"verbose", "console", true},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			l, err := NewZapLogger(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewZapLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if l != nil {
				_ = l.Sync()
			}
		})
	}
}

func TestSilentLogger(t *testing.T) {
	var l Logger = NewSilentLogger()
	l.Info("ignored %d", 1)
	l.Error("ignored")
	l.Debug("ignored")
}
