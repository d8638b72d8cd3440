package grille

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// DefaultPlaceholder pads the last block of a message.
const DefaultPlaceholder = '#'

// Config holds the per-instance settings of a Grille.
type Config struct {
	// Placeholder is appended to fill the last block and stripped from the
	// end of decoded text. It must not occur at the end of meaningful plaintext.
	Placeholder rune

	// Logger receives debug events. A nil Logger discards them.
	Logger *zap.Logger
}

// DefaultConfig returns the configuration used by the package-level functions.
func DefaultConfig() Config {
	return Config{
		Placeholder: DefaultPlaceholder,
		Logger:      zap.NewNop(),
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.Placeholder == utf8.RuneError || !utf8.ValidRune(c.Placeholder) {
		return fmt.Errorf("%w: %q", ErrInvalidPlaceholder, c.Placeholder)
	}
	if c.Placeholder == ' ' {
		// Surrounding spaces are trimmed from input before padding.
		return fmt.Errorf("%w: space cannot be used as placeholder", ErrInvalidPlaceholder)
	}
	return nil
}

// Option configures a Grille.
type Option func(*Config)

// WithPlaceholder sets the padding character.
func WithPlaceholder(r rune) Option {
	return func(c *Config) {
		c.Placeholder = r
	}
}

// WithLogger sets the logger for debug events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
