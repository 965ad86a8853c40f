// Package testutil provides compiler doubles and logging helpers for tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug-level logger writing through t.Log, so
// session and compiler logs show up only for failing or -v runs. Extra
// args are attached to every record.
func NewTestLogger(t testing.TB, args ...any) *slog.Logger {
	t.Helper()
	h := slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h).With(args...)
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
