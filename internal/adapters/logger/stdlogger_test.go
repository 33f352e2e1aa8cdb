package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestStdLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerWithWriter(&buf, LevelWarn)

	l.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	l.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "[WARN] shown")
}

func TestStdLogger_FormatsFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := NewStdLoggerWithWriter(&buf, LevelDebug).With("engine")

	l.Error(context.Background(), errors.New("boom"), "layer failed",
		map[string]interface{}{"z": 1, "a": "x"})

	out := buf.String()
	assert.Contains(t, out, "[ERROR] (engine) layer failed | error: boom | a=x z=1")
}

func TestStdLogger_WithSharesOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewStdLoggerWithWriter(&buf, LevelInfo)
	scheduler := root.With("scheduler")
	alert := root.With("alert")

	scheduler.Debug(context.Background(), "hidden")
	scheduler.Info(context.Background(), "scan complete")
	alert.Warn(context.Background(), "dedup hit")
	root.Info(context.Background(), "untagged")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] (scheduler) scan complete")
	assert.Contains(t, out, "[WARN] (alert) dedup hit")
	assert.Contains(t, out, "[INFO] untagged")
}
