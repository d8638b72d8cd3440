package grille

import (
	crand "crypto/rand"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"github.com/vdparikh/grille/subtle"
)

// Size is the edge length of the square grid.
type Size = subtle.Size

// Supported grid sizes.
const (
	Size4 = subtle.Size4
	Size5 = subtle.Size5
	Size6 = subtle.Size6
)

// Coord addresses one grid cell.
type Coord = subtle.Coord

// keyFormatVersion is the first byte of the binary key encoding.
const keyFormatVersion = 1

// Key is the stencil of a Cardan grille: the grid size and one hole per
// rotation orbit, ordered by orbit label. Across the four rotations of the
// grid the holes expose every cell exactly once.
//
// A Key is immutable and safe to share between goroutines. It is the only
// secret needed to decode a message, so callers transport it themselves
// (see MarshalBinary and the tinkgrille package).
type Key struct {
	stencil *subtle.Stencil
}

// NewKey builds a key from explicit hole coordinates. coords[i] must lie on
// orbit i+1 of OrbitMatrix(size).
func NewKey(size Size, coords []Coord) (*Key, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, int(size))
	}
	stencil, err := subtle.NewStencil(size, coords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Key{stencil: stencil}, nil
}

// GenerateKey cuts a random stencil for size. For every orbit one member cell
// is picked uniformly. The generator is seeded once per call from crypto/rand;
// the result is not meant to be cryptographically strong.
func GenerateKey(size Size) (*Key, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("failed to seed key generator: %w", err)
	}
	return GenerateKeyFromSource(size, rand.NewChaCha8(seed))
}

// GenerateKeyFromSource is GenerateKey with a caller-supplied randomness source.
// src is used only for the duration of the call.
func GenerateKeyFromSource(size Size, src rand.Source) (*Key, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, int(size))
	}

	r := rand.New(src)
	orbits := subtle.OrbitCells(size)
	coords := make([]Coord, len(orbits))
	for i, cells := range orbits {
		if len(cells) == 0 {
			panic(fmt.Sprintf("grille: orbit %d of %s has no cells", i+1, size))
		}
		coords[i] = cells[r.IntN(len(cells))]
	}

	stencil, err := subtle.NewStencil(size, coords)
	if err != nil {
		panic(fmt.Sprintf("grille: generated stencil is inconsistent: %v", err))
	}
	return &Key{stencil: stencil}, nil
}

// valid reports whether k carries a stencil. The zero Key does not.
func (k *Key) valid() bool {
	return k != nil && k.stencil != nil
}

// Size returns the grid size of the key, or 0 for the zero Key.
func (k *Key) Size() Size {
	if !k.valid() {
		return 0
	}
	return k.stencil.Size()
}

// Coords returns the hole coordinates in label order.
func (k *Key) Coords() []Coord {
	if !k.valid() {
		return nil
	}
	return k.stencil.Holes()
}

// BlockSize returns the number of characters consumed per grid, Size()².
func (k *Key) BlockSize() int {
	return k.Size().BlockSize()
}

// Equal reports whether two keys describe the same stencil.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	if k.Size() != other.Size() {
		return false
	}
	a, b := k.Coords(), other.Coords()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (k *Key) String() string {
	if !k.valid() {
		return "grille.Key{}"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "grille.Key{size=%s holes=", k.Size())
	for i, c := range k.Coords() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "(%d,%d)", c.Row, c.Col)
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalBinary encodes the key as
// [version][size][row col]... with one row/col byte pair per hole.
func (k *Key) MarshalBinary() ([]byte, error) {
	if !k.valid() {
		return nil, ErrNilKey
	}
	coords := k.Coords()
	buf := make([]byte, 0, 2+2*len(coords))
	buf = append(buf, keyFormatVersion, byte(k.Size()))
	for _, c := range coords {
		buf = append(buf, byte(c.Row), byte(c.Col))
	}
	return buf, nil
}

// UnmarshalBinary decodes a key produced by MarshalBinary. The stencil is
// validated against the orbit table, so a corrupted key is rejected instead
// of silently scrambling the output.
func (k *Key) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("%w: key data too short: %d bytes", ErrInvalidKey, len(data))
	}
	if data[0] != keyFormatVersion {
		return fmt.Errorf("%w: unknown key format version %d", ErrInvalidKey, data[0])
	}

	size := Size(data[1])
	if !size.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSize, int(size))
	}
	body := data[2:]
	if want := 2 * subtle.OrbitCount(size); len(body) != want {
		return fmt.Errorf("%w: %s key needs %d coordinate bytes, got %d", ErrInvalidKey, size, want, len(body))
	}

	coords := make([]Coord, len(body)/2)
	for i := range coords {
		coords[i] = Coord{Row: int(body[2*i]), Col: int(body[2*i+1])}
	}

	parsed, err := NewKey(size, coords)
	if err != nil {
		return err
	}
	*k = *parsed
	return nil
}

// ParseKey decodes a key produced by MarshalBinary.
func ParseKey(data []byte) (*Key, error) {
	k := new(Key)
	if err := k.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return k, nil
}

// Fingerprint returns a short stable identifier for the stencil, used to tell
// keys apart in logs. It is not a secret-preserving digest: the key space is
// small enough that the holes can be recovered from it by enumeration.
// The zero Key has fingerprint 0.
func (k *Key) Fingerprint() uint32 {
	data, err := k.MarshalBinary()
	if err != nil {
		return 0
	}
	h := fnv.New32a()
	h.Write(data)
	return h.Sum32()
}
