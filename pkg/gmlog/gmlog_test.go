package gmlog

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelOrdering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarning, WithOutput(&buf), WithColor(false))

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Errorf("debug message should be suppressed at warning level, got: %s", out)
	}
	if strings.Contains(out, "info message") {
		t.Errorf("info message should be suppressed at warning level, got: %s", out)
	}
	if !strings.Contains(out, "warn message") {
		t.Errorf("warn message should be emitted, got: %s", out)
	}
	if !strings.Contains(out, "error message") {
		t.Errorf("error message should always be emitted, got: %s", out)
	}
}

func TestErrorAlwaysEmitted(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelError, WithOutput(&buf), WithColor(false))
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one emitted line, got: %q", out)
	}
	if !strings.Contains(out, "[error] e") {
		t.Errorf("expected error line, got: %q", out)
	}
}

func TestNoColorWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, WithOutput(&buf), WithColor(false))
	l.Info("plain message", "key", "value")

	out := buf.String()
	if strings.ContainsRune(out, '\x1b') {
		t.Errorf("expected no ANSI escapes when color disabled, got: %q", out)
	}
	if !strings.Contains(out, "key=value") {
		t.Errorf("expected key=value pair in output, got: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"":        LevelInfo,
		"WARNING": LevelWarning,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("bogus"); err == nil {
		t.Error("expected error for unknown level")
	}
}
