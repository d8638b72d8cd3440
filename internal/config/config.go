package config

import (
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/vdparikh/grille"
	"github.com/vdparikh/grille/tinkgrille"
	"gopkg.in/yaml.v3"
)

// Config holds the grille CLI configuration.
type Config struct {
	// Placeholder pads the last block. Exactly one character.
	Placeholder string `yaml:"placeholder"`

	// Size is the default grid edge length: 4, 5 or 6.
	Size int `yaml:"size"`

	// KeyFile is where keysets are read from and written to by default.
	KeyFile string `yaml:"key_file"`

	// KeyFormat is the keyset encoding: json or binary.
	KeyFormat string `yaml:"key_format"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Placeholder: string(grille.DefaultPlaceholder),
		Size:        int(grille.Size4),
		KeyFile:     "grille_keyset.json",
		KeyFormat:   string(tinkgrille.FormatJSON),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GRILLE_PLACEHOLDER"); v != "" {
		c.Placeholder = v
	}
	if v := os.Getenv("GRILLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Size = n
		}
	}
	if v := os.Getenv("GRILLE_KEY_FILE"); v != "" {
		c.KeyFile = v
	}
	if v := os.Getenv("GRILLE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the values that the cipher itself would reject later.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Placeholder) != 1 {
		return fmt.Errorf("placeholder must be exactly one character, got %q", c.Placeholder)
	}
	if !grille.Size(c.Size).Valid() {
		return fmt.Errorf("%w: %d", grille.ErrInvalidSize, c.Size)
	}
	if _, err := tinkgrille.ParseFormat(c.KeyFormat); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// PlaceholderRune returns the placeholder as a rune. Call Validate first.
func (c *Config) PlaceholderRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Placeholder)
	return r
}

// GrilleOptions converts the configuration into grille options.
func (c *Config) GrilleOptions() []grille.Option {
	return []grille.Option{grille.WithPlaceholder(c.PlaceholderRune())}
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
