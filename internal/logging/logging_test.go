package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"loud", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn)
	l.SetOutput(&buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warn("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("filtered messages written:\n%s", out)
	}
	if !strings.Contains(out, `level=warn`) || !strings.Contains(out, `msg="shown 3"`) {
		t.Errorf("warn line missing:\n%s", out)
	}
	if !strings.Contains(out, `level=error`) || !strings.Contains(out, `msg="shown 4"`) {
		t.Errorf("error line missing:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelError)
	l.SetOutput(&buf)
	l.Debug("first")
	l.SetLevel(LevelDebug)
	l.Debug("second")

	out := buf.String()
	if strings.Contains(out, "first") || !strings.Contains(out, "msg=second") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo)
	l.SetOutput(&buf)

	child := l.With("component", "ephem")
	child.Info("ready")
	l.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "component=ephem") {
		t.Errorf("child context missing: %s", lines[0])
	}
	if strings.Contains(lines[1], "component=") {
		t.Errorf("parent picked up child context: %s", lines[1])
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	// Must not panic
	l.Error("nothing %s", "here")
	l.With("k", "v").Warn("still nothing")
}
