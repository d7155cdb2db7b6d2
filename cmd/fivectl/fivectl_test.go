package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorefive/internal/codec"
	"scorefive/internal/ports"
)

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]int
		wantErr bool
	}{
		{name: "empty", args: nil, want: map[string]int{}},
		{name: "several", args: []string{"Ann=0", "Bo=25"}, want: map[string]int{"Ann": 0, "Bo": 25}},
		{name: "name with equals", args: []string{"a=b=7"}, want: map[string]int{"a=b": 7}},
		{name: "negative parses", args: []string{"Ann=-1"}, want: map[string]int{"Ann": -1}},
		{name: "missing score", args: []string{"Ann"}, wantErr: true},
		{name: "missing name", args: []string{"=5"}, wantErr: true},
		{name: "not a number", args: []string{"Ann=five"}, wantErr: true},
		{name: "duplicate", args: []string{"Ann=1", "Ann=2"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScores(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scorefive.yaml")
	body := "storage:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "games.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"fivectl", "--config", cfgPath, "--owner", "tester"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := run(t, cfgPath, args...)
	require.NoError(t, err, out)
	return out
}

func TestGameLifecycle(t *testing.T) {
	cfg := writeConfig(t)

	out := mustRun(t, cfg, "new", "-p", "Ann", "-p", "Bo", "-p", "Cy", "--limit", "50")
	first, _, _ := strings.Cut(out, "\n")
	id := strings.TrimPrefix(first, "created game ")
	require.NotEmpty(t, id)
	assert.Contains(t, out, "next: Ann")

	out = mustRun(t, cfg, "round", id, "Ann=0", "Bo=50", "Cy=5")
	assert.Contains(t, out, "Bo is out with 50")
	assert.Contains(t, out, "next: Cy")

	assert.Equal(t, "Cy\n", mustRun(t, cfg, "starter", id))
	assert.Equal(t, "Ann\n", mustRun(t, cfg, "starter", id, "0"))

	out = mustRun(t, cfg, "limit", id, "100")
	assert.Contains(t, out, "Bo is back in with 50")

	out = mustRun(t, cfg, "list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "playing")

	jsonPath := filepath.Join(t.TempDir(), "game.json")
	mustRun(t, cfg, "export", "--format", "json", "-o", jsonPath, id)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	fromJSON, err := codec.UnmarshalJSON(data)
	require.NoError(t, err)

	binPath := filepath.Join(t.TempDir(), "game.bin")
	mustRun(t, cfg, "export", "-o", binPath, id)
	data, err = os.ReadFile(binPath)
	require.NoError(t, err)
	fromBinary, err := codec.UnmarshalBinary(data)
	require.NoError(t, err)
	assert.True(t, fromJSON.Equal(fromBinary))
	assert.Equal(t, 100, fromBinary.ScoreLimit())
	assert.Equal(t, 1, fromBinary.RoundCount())

	mustRun(t, cfg, "delete", id)
	_, err = run(t, cfg, "show", id)
	assert.ErrorIs(t, err, ports.ErrRecordNotFound)
}

func TestFinishingGameReportsWinner(t *testing.T) {
	cfg := writeConfig(t)
	out := mustRun(t, cfg, "new", "-p", "Ann", "-p", "Bo")
	first, _, _ := strings.Cut(out, "\n")
	id := strings.TrimPrefix(first, "created game ")

	for range 4 {
		mustRun(t, cfg, "round", id, "Ann=0", "Bo=50")
	}
	out = mustRun(t, cfg, "round", id, "Ann=0", "Bo=50")
	assert.Contains(t, out, "Bo is out with 250")
	assert.Contains(t, out, "game over, Ann wins")
	assert.Contains(t, out, "winner: Ann")

	_, err := run(t, cfg, "round", id, "Ann=0")
	assert.Error(t, err, "no round can follow a finished game")
}

func TestCommandErrors(t *testing.T) {
	cfg := writeConfig(t)
	out := mustRun(t, cfg, "new", "-p", "Ann", "-p", "Bo", "--limit", "100")
	first, _, _ := strings.Cut(out, "\n")
	id := strings.TrimPrefix(first, "created game ")

	for _, args := range [][]string{
		{"new", "-p", "Ann"},
		{"new", "-p", "Ann", "-p", "Bo", "--limit", "10"},
		{"round", id},
		{"round", id, "Ann=0", "Bo=51"},
		{"round", id, "Ann=0", "Zed=1"},
		{"limit", id, "many"},
		{"remove-round", id, "missing"},
		{"starter", id, "9"},
		{"export", "--format", "xml", id},
		{"migrate", "status"},
	} {
		_, err := run(t, cfg, args...)
		assert.Error(t, err, "fivectl %s", strings.Join(args, " "))
	}
}
