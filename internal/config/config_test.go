package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(`
game:
  default_score_limit: 300
storage:
  driver: sqlite
  dsn: /tmp/games.db
nats:
  url: nats://localhost:4222
`))
	require.NoError(t, err)
	assert.Equal(t, 300, c.Game.DefaultScoreLimit)
	assert.Equal(t, DefaultListLimit, c.Game.ListLimit)
	assert.Equal(t, "sqlite", c.Storage.Driver)
	assert.Equal(t, DefaultStorageCollection, c.Storage.Collection)
	assert.Equal(t, "nats://localhost:4222", c.NATS.URL)
	assert.Equal(t, DefaultSubjectPrefix, c.NATS.SubjectPrefix)
}

func TestParseJSON(t *testing.T) {
	c, err := Parse([]byte(`{"game": {"default_score_limit": 100}, "storage": {"collection": "games"}}`))
	require.NoError(t, err)
	assert.Equal(t, 100, c.Game.DefaultScoreLimit)
	assert.Equal(t, "games", c.Storage.Collection)
	assert.Equal(t, "memory", c.Storage.Driver)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "low limit", data: "game:\n  default_score_limit: 49\n"},
		{name: "unknown driver", data: "storage:\n  driver: mongo\n"},
		{name: "sqlite without dsn", data: "storage:\n  driver: sqlite\n"},
		{name: "syntax", data: "game: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Fatalf("Parse(%q) error = nil, want error", tt.data)
			}
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorefive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: postgres\n"), 0o600))

	t.Setenv("SCOREFIVE_STORAGE_DSN", "postgres://localhost/scorefive")
	t.Setenv("SCOREFIVE_DEFAULT_SCORE_LIMIT", "150")
	t.Setenv("SCOREFIVE_NATS_URL", "nats://broker:4222")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Storage.Driver)
	assert.Equal(t, "postgres://localhost/scorefive", c.Storage.DSN)
	assert.Equal(t, 150, c.Game.DefaultScoreLimit)
	assert.Equal(t, "nats://broker:4222", c.NATS.URL)

	t.Setenv("SCOREFIVE_LIST_LIMIT", "many")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestGetFallsBackToDefaults(t *testing.T) {
	if cfg != nil {
		t.Skip("global config already loaded")
	}
	assert.Equal(t, DefaultScoreLimit, GetDefaultScoreLimit())
	assert.Equal(t, DefaultStorageCollection, GetStorageCollection())
}
