package grille

import "errors"

// Errors returned by the encode and decode paths. They are wrapped with
// context, so match them with errors.Is.
var (
	// ErrEmptyText is returned for empty input, or input that is empty once
	// surrounding spaces are trimmed.
	ErrEmptyText = errors.New("grille: text is empty")

	// ErrLengthMismatch is returned by Decode when the ciphertext length is not
	// a whole number of blocks.
	ErrLengthMismatch = errors.New("grille: ciphertext length is not a multiple of the block size")

	// ErrInvalidSize is returned for grid sizes other than 4, 5 and 6.
	ErrInvalidSize = errors.New("grille: unsupported grille size")

	// ErrInvalidText is returned for input that is not valid UTF-8.
	ErrInvalidText = errors.New("grille: text is not valid UTF-8")

	ErrNilKey = errors.New("grille: key is nil")

	// ErrInvalidKey is returned when key material does not describe a stencil
	// with exactly one hole per orbit.
	ErrInvalidKey = errors.New("grille: invalid key")

	ErrInvalidPlaceholder = errors.New("grille: invalid placeholder")
)
