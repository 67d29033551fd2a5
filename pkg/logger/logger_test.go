package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestCriticalLevelName(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "json")

	log.Critical("boom", "club_id", "c-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "CRITICAL" {
		t.Fatalf("expected CRITICAL level, got %v", entry["level"])
	}
	if entry["club_id"] != "c-1" {
		t.Fatalf("expected club_id attribute, got %v", entry["club_id"])
	}
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "text")

	log.BusinessError("nothing", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for nil error, got %q", buf.String())
	}

	log.BusinessError("clubs.join: invalid code", errors.New("invalid join code"))
	if !bytes.Contains(buf.Bytes(), []byte("level=WARN")) {
		t.Fatalf("expected warn level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"fatal": LevelCritical,
	}
	for input, want := range cases {
		if got := parseLevel(input, "production"); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
	if got := parseLevel("", "development"); got != slog.LevelDebug {
		t.Fatalf("expected debug default in development, got %v", got)
	}
}
