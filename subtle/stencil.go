package subtle

import "fmt"

// Stencil is the punched template laid over the grid: one hole per orbit,
// ordered by label. It is the raw key material of the cipher.
//
// Thread safety: a Stencil is never modified after NewStencil returns, so it
// is safe for concurrent use by multiple goroutines.
type Stencil struct {
	size  Size
	holes []Coord
	// centre is the index of the single-cell orbit hole, or -1 for even sizes.
	centre int
}

// NewStencil creates a stencil for size from one hole per orbit label.
// holes[i] must be a cell whose orbit label is i+1.
func NewStencil(size Size, holes []Coord) (*Stencil, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("unsupported grille size %d (must be 4, 5 or 6)", int(size))
	}
	if len(holes) != OrbitCount(size) {
		return nil, fmt.Errorf("stencil for %s needs %d holes, got %d", size, OrbitCount(size), len(holes))
	}
	for i, h := range holes {
		label := LabelAt(size, h)
		if label == 0 {
			return nil, fmt.Errorf("hole %d at (%d,%d) is outside the %s grid", i+1, h.Row, h.Col, size)
		}
		if label != i+1 {
			return nil, fmt.Errorf("hole %d at (%d,%d) lies on orbit %d", i+1, h.Row, h.Col, label)
		}
	}
	centre := -1
	for i, cells := range orbitCells[size] {
		if len(cells) == 1 {
			centre = i
		}
	}
	return &Stencil{
		size:   size,
		holes:  append([]Coord(nil), holes...),
		centre: centre,
	}, nil
}

// turnHoles returns the holes that are open on the given turn. The centre
// of an odd grid maps onto itself, so it is open on the first turn only.
func (s *Stencil) turnHoles(turn int) []Coord {
	if turn == 0 || s.centre < 0 {
		return s.holes
	}
	open := make([]Coord, 0, len(s.holes)-1)
	open = append(open, s.holes[:s.centre]...)
	return append(open, s.holes[s.centre+1:]...)
}

// Size returns the grid size the stencil was cut for.
func (s *Stencil) Size() Size {
	return s.size
}

// Holes returns a copy of the hole coordinates in label order.
func (s *Stencil) Holes() []Coord {
	return append([]Coord(nil), s.holes...)
}

// Encrypt writes plaintext through the stencil block by block.
// For every block of size² runes the stencil is applied four times: the next
// runes go into the open holes, then the grid turns 90° clockwise. On an odd
// grid the centre hole is written on the first turn only, so every cell is
// written exactly once.
// The filled grid is emitted in row-major order.
//
// len(plaintext) must be a multiple of size²; padding is the caller's job.
func (s *Stencil) Encrypt(plaintext []rune) ([]rune, error) {
	n := int(s.size)
	blockSize := s.size.BlockSize()
	if len(plaintext)%blockSize != 0 {
		return nil, fmt.Errorf("plaintext length %d is not a multiple of %d", len(plaintext), blockSize)
	}

	out := make([]rune, 0, len(plaintext))
	cursor := 0
	for cursor < len(plaintext) {
		grid := NewGrid[rune](n)
		for turn := 0; turn < 4; turn++ {
			for _, h := range s.turnHoles(turn) {
				grid[h.Row][h.Col] = plaintext[cursor]
				cursor++
			}
			grid = Rotate(grid)
		}
		for _, row := range grid {
			out = append(out, row...)
		}
	}
	return out, nil
}

// Decrypt reverses Encrypt: each block is loaded row-major and read back
// through the same four stencil orientations.
func (s *Stencil) Decrypt(ciphertext []rune) ([]rune, error) {
	n := int(s.size)
	blockSize := s.size.BlockSize()
	if len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d", len(ciphertext), blockSize)
	}

	out := make([]rune, 0, len(ciphertext))
	for start := 0; start < len(ciphertext); start += blockSize {
		grid := NewGrid[rune](n)
		for i := 0; i < n; i++ {
			copy(grid[i], ciphertext[start+i*n:start+(i+1)*n])
		}
		for turn := 0; turn < 4; turn++ {
			for _, h := range s.turnHoles(turn) {
				out = append(out, grid[h.Row][h.Col])
			}
			grid = Rotate(grid)
		}
	}
	return out, nil
}
