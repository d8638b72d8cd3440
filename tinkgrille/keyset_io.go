package tinkgrille

import (
	"fmt"
	"io"

	"github.com/google/tink/go/insecurecleartextkeyset"
	"github.com/google/tink/go/keyset"
)

// Format selects the wire encoding of a keyset.
type Format string

const (
	FormatJSON   Format = "json"
	FormatBinary Format = "binary"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatBinary:
		return FormatBinary, nil
	}
	return "", fmt.Errorf("unknown keyset format %q (want json or binary)", name)
}

// WriteKeyset writes handle to w in cleartext.
// WARNING: the keyset is the decoding secret; protect w accordingly.
func WriteKeyset(handle *keyset.Handle, w io.Writer, format Format) error {
	if handle == nil {
		return fmt.Errorf("keyset handle cannot be nil")
	}

	var writer keyset.Writer
	switch format {
	case FormatJSON, "":
		writer = keyset.NewJSONWriter(w)
	case FormatBinary:
		writer = keyset.NewBinaryWriter(w)
	default:
		return fmt.Errorf("unknown keyset format %q", format)
	}

	if err := insecurecleartextkeyset.Write(handle, writer); err != nil {
		return fmt.Errorf("failed to write keyset: %w", err)
	}
	return nil
}

// ReadKeyset reads a cleartext keyset written by WriteKeyset.
func ReadKeyset(r io.Reader, format Format) (*keyset.Handle, error) {
	var reader keyset.Reader
	switch format {
	case FormatJSON, "":
		reader = keyset.NewJSONReader(r)
	case FormatBinary:
		reader = keyset.NewBinaryReader(r)
	default:
		return nil, fmt.Errorf("unknown keyset format %q", format)
	}

	handle, err := insecurecleartextkeyset.Read(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyset: %w", err)
	}
	return handle, nil
}
