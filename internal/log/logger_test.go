/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{level: slog.LevelDebug, w: &buf}
	l := slog.New(h).With(slog.String("component", "test"))
	l.Info("hello", slog.Int("n", 42), slog.Bool("ok", true))

	out := buf.String()
	for _, want := range []string{"INF", "hello", "component=test", "n=42", "ok=true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	h := &consoleHandler{level: slog.LevelInfo, w: &buf}
	l := slog.New(h).WithGroup("sync")
	l.Info("tick", slog.Float64("pct", 0.5))
	if !strings.Contains(buf.String(), "sync.pct=0.5") {
		t.Fatalf("expected grouped key, got %s", buf.String())
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	h := &consoleHandler{level: slog.LevelWarn, w: &bytes.Buffer{}}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should pass at warn level")
	}
}

func TestWithComponent(t *testing.T) {
	Init(Options{Level: "debug"})
	l := WithComponent("scrollsync")
	if l == nil {
		t.Fatal("nil logger")
	}
	if op := WithOperation(l, "restore"); op == nil {
		t.Fatal("nil op logger")
	}
}
