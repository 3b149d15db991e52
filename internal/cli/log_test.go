package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ctabridge/pkg/observability"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	time.Sleep(10 * time.Millisecond)
	prog.done("Purged 3 entries")

	output := buf.String()
	if !strings.Contains(output, "Purged 3 entries") {
		t.Errorf("output should contain message, got: %s", output)
	}
	if !strings.Contains(output, "ms)") {
		t.Errorf("output should contain duration, got: %s", output)
	}
}

func TestLogHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.SetLogLevel(LogDebug)

	ctx := context.Background()
	observability.Dispatch().OnCallComplete(ctx, "bus", "predictions", true, 3*time.Millisecond, nil)
	observability.Dispatch().OnCallComplete(ctx, "bus", "predictions", false, time.Millisecond, errors.New("boom"))
	observability.Cache().OnCacheHit(ctx, "sqlite")
	observability.Cache().OnCacheEvict(ctx, "sqlite", 90*time.Second)
	observability.HTTP().OnResponse(ctx, "GET", "lapi.transitchicago.com", "/api/1.0/ttarrivals.aspx", 200, time.Millisecond)

	output := buf.String()
	for _, want := range []string{"call done", "call failed", "cache hit", "cache evict", "http response", "ttarrivals.aspx"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSetLogLevelInfoKeepsHooksQuiet(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	c := New(&buf, LogDebug)
	c.SetLogLevel(LogInfo)

	observability.Cache().OnCacheMiss(context.Background(), "memory")
	if buf.Len() != 0 {
		t.Errorf("hooks logged at info level: %s", buf.String())
	}
}
