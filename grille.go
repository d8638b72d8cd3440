// Package grille implements the Cardan grille transposition cipher.
//
// A grille is a square stencil with one hole for every rotation orbit of the
// grid. Encoding writes characters through the holes, turns the stencil 90°
// clockwise and repeats until all four orientations have been used; at that
// point every cell of the grid holds exactly one character. The filled grid is
// read out row by row. Decoding loads the grid and reads back through the same
// four orientations.
//
// Supported grid sizes are 4, 5 and 6. The last block of a message is padded
// with a placeholder character (default '#'), which is stripped from the end of
// decoded text.
//
// This is a classical cipher. It offers no confidentiality against a
// motivated attacker and must not be used to protect real secrets.
//
// Example usage:
//
//	ciphertext, key, err := grille.Encode("ATTACK AT DAWN", grille.Size4)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// The key is the only secret; transport it to the receiver.
//	plaintext, err := grille.Decode(ciphertext, key)
//	if err != nil {
//		log.Fatal(err)
//	}
//	// plaintext is "ATTACK AT DAWN"
package grille

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Grille encodes and decodes text with a fixed configuration.
// A Grille holds no mutable state and is safe for concurrent use.
type Grille struct {
	cfg Config
}

// New creates a Grille with the default configuration modified by opts.
func New(opts ...Option) (*Grille, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Grille{cfg: cfg}, nil
}

// Config returns the configuration of g.
func (g *Grille) Config() Config {
	return g.cfg
}

// Encode generates a fresh key for size and encodes text with it.
func (g *Grille) Encode(text string, size Size) (string, *Key, error) {
	if text == "" {
		return "", nil, ErrEmptyText
	}
	if !utf8.ValidString(text) {
		return "", nil, ErrInvalidText
	}
	if !size.Valid() {
		return "", nil, fmt.Errorf("%w: %d", ErrInvalidSize, int(size))
	}

	key, err := GenerateKey(size)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key: %w", err)
	}
	g.cfg.Logger.Debug("generated grille key",
		zap.Stringer("size", size),
		zap.Uint32("fingerprint", key.Fingerprint()))

	ciphertext, err := g.EncodeWithKey(text, key)
	if err != nil {
		return "", nil, err
	}
	return ciphertext, key, nil
}

// EncodeWithKey encodes text with an existing key.
//
// Surrounding spaces are trimmed, then the text is padded with the
// placeholder to a whole number of key.BlockSize() characters. The
// ciphertext has exactly the padded length.
func (g *Grille) EncodeWithKey(text string, key *Key) (string, error) {
	if text == "" {
		return "", ErrEmptyText
	}
	if !utf8.ValidString(text) {
		return "", ErrInvalidText
	}
	if !key.valid() {
		return "", ErrNilKey
	}

	runes := []rune(normalize(text))
	if len(runes) == 0 {
		return "", fmt.Errorf("%w: input holds only spaces", ErrEmptyText)
	}
	runes = pad(runes, key.BlockSize(), g.cfg.Placeholder)

	out, err := key.stencil.Encrypt(runes)
	if err != nil {
		return "", fmt.Errorf("failed to encode: %w", err)
	}

	g.cfg.Logger.Debug("encoded message",
		zap.Stringer("size", key.Size()),
		zap.Int("blocks", len(runes)/key.BlockSize()),
		zap.Uint32("fingerprint", key.Fingerprint()))
	return string(out), nil
}

// Decode reverses EncodeWithKey. The ciphertext length, counted in
// characters, must be a multiple of key.BlockSize(). Trailing placeholders
// are stripped from the result, including any that belonged to the original
// text.
func (g *Grille) Decode(ciphertext string, key *Key) (string, error) {
	if ciphertext == "" {
		return "", ErrEmptyText
	}
	if !utf8.ValidString(ciphertext) {
		return "", ErrInvalidText
	}
	if !key.valid() {
		return "", ErrNilKey
	}

	n := utf8.RuneCountInString(ciphertext)
	if n%key.BlockSize() != 0 {
		return "", fmt.Errorf("%w: %d characters, block size %d", ErrLengthMismatch, n, key.BlockSize())
	}

	out, err := key.stencil.Decrypt([]rune(ciphertext))
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}

	g.cfg.Logger.Debug("decoded message",
		zap.Stringer("size", key.Size()),
		zap.Int("blocks", n/key.BlockSize()),
		zap.Uint32("fingerprint", key.Fingerprint()))
	return string(unpad(out, g.cfg.Placeholder)), nil
}

var defaultGrille = &Grille{cfg: DefaultConfig()}

// Encode encodes text with a fresh key for size using the default configuration.
func Encode(text string, size Size) (string, *Key, error) {
	return defaultGrille.Encode(text, size)
}

// EncodeWithKey encodes text with key using the default configuration.
func EncodeWithKey(text string, key *Key) (string, error) {
	return defaultGrille.EncodeWithKey(text, key)
}

// Decode decodes ciphertext with key using the default configuration.
func Decode(ciphertext string, key *Key) (string, error) {
	return defaultGrille.Decode(ciphertext, key)
}
