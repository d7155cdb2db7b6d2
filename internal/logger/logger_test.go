package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWithFiltersByLevel(t *testing.T) {
	prev := Logger
	t.Cleanup(func() {
		Logger = prev
		slog.SetDefault(prev)
	})

	var buf bytes.Buffer
	InitWith(&buf, "warn")
	Info("hidden")
	Warn("shown", "game", "g1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output %q is not a single JSON line: %v", buf.String(), err)
	}
	if line["msg"] != "shown" || line["game"] != "g1" {
		t.Fatalf("logged %v, want msg=shown game=g1", line)
	}
}
