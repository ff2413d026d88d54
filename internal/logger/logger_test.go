package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelNormal, &buf)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug line written at normal level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[INF] shown 2") {
		t.Fatalf("info line missing: %q", buf.String())
	}

	buf.Reset()
	log.SetLevel(LevelOff)
	log.Error("nope")
	if buf.Len() != 0 {
		t.Fatalf("expected no output when off, got %q", buf.String())
	}
}

func TestNamedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	root := New(LevelNormal, &buf)
	draft := root.Named("draft").Named("flush")

	draft.Debug("not yet")
	root.SetLevel(LevelVerbose)
	draft.Debug("wrote %s", "intake_draft_v1")

	out := buf.String()
	if strings.Contains(out, "not yet") {
		t.Fatalf("debug written before level change: %q", out)
	}
	if !strings.Contains(out, "[DBG] draft.flush: wrote intake_draft_v1") {
		t.Fatalf("named prefix missing: %q", out)
	}
	if draft.GetLevel() != LevelVerbose {
		t.Fatalf("expected shared verbose level, got %d", draft.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"off", LevelOff},
		{"DEBUG", LevelVerbose},
		{"verbose", LevelVerbose},
		{"info", LevelNormal},
		{"", LevelNormal},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
