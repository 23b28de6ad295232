package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TCC_LOG_LEVEL", "")
	t.Setenv("TCC_LOG_FORMAT", "")
	t.Setenv("TCC_LOG_FILE", "")
	t.Setenv("TCC_LOG_SOURCE", "")
	opts := FromEnv()
	if opts.Level != "info" || opts.Format != "console" || opts.AddSource || opts.File != "" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TCC_LOG_LEVEL", "debug")
	t.Setenv("TCC_LOG_FORMAT", "json")
	t.Setenv("TCC_LOG_SOURCE", "true")
	opts := FromEnv()
	if opts.Level != "debug" || opts.Format != "json" || !opts.AddSource {
		t.Fatalf("unexpected overrides: %+v", opts)
	}
}

func TestPrettyTextHandlerOutput(t *testing.T) {
	var sb strings.Builder
	h := &prettyTextHandler{level: slog.LevelInfo, w: &sb}
	l := slog.New(h).With(slog.String("component", "storage"))

	l.Info("project saved", slog.String("name", "demo"), slog.Int("pages", 3))
	out := sb.String()
	for _, want := range []string{"INF", "project saved", "component=storage", "name=demo", "pages=3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestPrettyTextHandlerLevelFilter(t *testing.T) {
	h := &prettyTextHandler{level: slog.LevelWarn, w: &strings.Builder{}}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error must pass at warn level")
	}
}

func TestPrettyTextHandlerGroups(t *testing.T) {
	var sb strings.Builder
	h := &prettyTextHandler{level: slog.LevelDebug, w: &sb}
	l := slog.New(h).WithGroup("repo")
	l.Info("backup", slog.String("file", "x.json"))
	if !strings.Contains(sb.String(), "repo.file=x.json") {
		t.Fatalf("grouped key missing: %q", sb.String())
	}
}

func TestWithComponentAndOperation(t *testing.T) {
	Init(Options{Level: "error"})
	l := WithComponent("service")
	if l == nil {
		t.Fatalf("nil logger")
	}
	if op := WithOperation(l, "save"); op == nil {
		t.Fatalf("nil operation logger")
	}
}
