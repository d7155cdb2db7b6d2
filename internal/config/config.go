package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultScoreLimit        = 250
	DefaultListLimit         = 100
	DefaultStorageCollection = "scorefive_games"
	DefaultSubjectPrefix     = "scorefive"
	DefaultStorageDriver     = "memory"
)

type GameConfig struct {
	// DefaultScoreLimit is used when a new game does not name one.
	DefaultScoreLimit int `yaml:"default_score_limit"`
	ListLimit         int `yaml:"list_limit"`
}

// StorageConfig selects the record store: memory, sqlite or postgres outside Nakama.
// Inside Nakama only Collection is used.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	Collection string `yaml:"collection"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MetricsConfig struct {
	Address string `yaml:"address"`
}

// Config holds every setting. The file may be YAML or JSON.
type Config struct {
	Game    GameConfig    `yaml:"game"`
	Storage StorageConfig `yaml:"storage"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			DefaultScoreLimit: DefaultScoreLimit,
			ListLimit:         DefaultListLimit,
		},
		Storage: StorageConfig{
			Driver:     DefaultStorageDriver,
			Collection: DefaultStorageCollection,
		},
		NATS: NATSConfig{SubjectPrefix: DefaultSubjectPrefix},
	}
}

// Parse decodes data over the defaults and checks the result.
func Parse(data []byte) (*Config, error) {
	c, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decode(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.fillDefaults()
	return c, nil
}

// LoadConfig reads path, falling back to defaults when it does not exist, then
// applies SCOREFIVE_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if c, err = decode(data); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SCOREFIVE_DEFAULT_SCORE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCOREFIVE_DEFAULT_SCORE_LIMIT: %w", err)
		}
		c.Game.DefaultScoreLimit = n
	}
	if v := os.Getenv("SCOREFIVE_LIST_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCOREFIVE_LIST_LIMIT: %w", err)
		}
		c.Game.ListLimit = n
	}
	if v := os.Getenv("SCOREFIVE_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("SCOREFIVE_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("SCOREFIVE_STORAGE_COLLECTION"); v != "" {
		c.Storage.Collection = v
	}
	if v := os.Getenv("SCOREFIVE_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("SCOREFIVE_NATS_SUBJECT_PREFIX"); v != "" {
		c.NATS.SubjectPrefix = v
	}
	if v := os.Getenv("SCOREFIVE_METRICS_ADDRESS"); v != "" {
		c.Metrics.Address = v
	}
	return nil
}

func (c *Config) fillDefaults() {
	if c.Game.ListLimit <= 0 {
		c.Game.ListLimit = DefaultListLimit
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.Collection == "" {
		c.Storage.Collection = DefaultStorageCollection
	}
}

// Validate rejects settings that would make every game invalid.
func (c *Config) Validate() error {
	if c.Game.DefaultScoreLimit < 50 {
		return fmt.Errorf("default_score_limit %d is below 50", c.Game.DefaultScoreLimit)
	}
	switch c.Storage.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %s needs a dsn", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

var (
	cfg      *Config
	loadOnce sync.Once
	loadErr  error
)

// Load loads the global configuration from path once.
func Load(path string) error {
	loadOnce.Do(func() {
		cfg, loadErr = LoadConfig(path)
	})
	return loadErr
}

// Get returns the global configuration, or the defaults if Load has not succeeded.
func Get() *Config {
	if cfg == nil {
		return Default()
	}
	return cfg
}

// GetDefaultScoreLimit returns the configured starting score limit.
func GetDefaultScoreLimit() int {
	return Get().Game.DefaultScoreLimit
}

// GetStorageCollection returns the Nakama storage collection for game records.
func GetStorageCollection() string {
	return Get().Storage.Collection
}
