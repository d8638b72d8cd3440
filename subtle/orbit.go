// Package subtle provides the low-level primitives of the Cardan grille.
// This package contains the orbit tables, the grid rotation and the per-block
// transform that works on raw rune slices and coordinates.
// It should not be used directly by most users; instead use the high-level APIs in the parent package.
package subtle

import "fmt"

// Size is the edge length of the square grid. Only Size4, Size5 and Size6 are supported.
type Size int

const (
	Size4 Size = 4
	Size5 Size = 5
	Size6 Size = 6
)

// Valid reports whether s is one of the supported grid sizes.
func (s Size) Valid() bool {
	return s == Size4 || s == Size5 || s == Size6
}

// BlockSize returns the number of cells in one grid, s².
func (s Size) BlockSize() int {
	return int(s) * int(s)
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", int(s), int(s))
}

// Coord addresses one cell of a grid.
type Coord struct {
	Row int
	Col int
}

// Orbit tables. Each label marks the cells that map onto one another under
// repeated 90° clockwise rotation.
var (
	orbit4 = [][]int{
		{1, 2, 3, 1},
		{3, 4, 4, 2},
		{2, 4, 4, 3},
		{1, 3, 2, 1},
	}

	orbit5 = [][]int{
		{1, 2, 3, 4, 1},
		{4, 5, 6, 5, 2},
		{3, 6, 7, 6, 3},
		{2, 5, 6, 5, 4},
		{1, 4, 3, 2, 1},
	}

	orbit6 = [][]int{
		{1, 2, 3, 4, 5, 1},
		{5, 6, 7, 8, 6, 2},
		{4, 8, 9, 9, 7, 3},
		{3, 7, 9, 9, 8, 4},
		{2, 6, 8, 7, 6, 5},
		{1, 5, 4, 3, 2, 1},
	}
)

// orbitCells maps size -> label-1 -> cells carrying that label, in row-major order.
var orbitCells = map[Size][][]Coord{
	Size4: cellsByLabel(orbit4, OrbitCount(Size4)),
	Size5: cellsByLabel(orbit5, OrbitCount(Size5)),
	Size6: cellsByLabel(orbit6, OrbitCount(Size6)),
}

func cellsByLabel(matrix [][]int, count int) [][]Coord {
	cells := make([][]Coord, count)
	for i, row := range matrix {
		for j, label := range row {
			cells[label-1] = append(cells[label-1], Coord{Row: i, Col: j})
		}
	}
	return cells
}

func mustValid(size Size) {
	if !size.Valid() {
		panic(fmt.Sprintf("subtle: unsupported grille size %d", int(size)))
	}
}

// OrbitCount returns the number of distinct orbits of a size×size grid, ⌈size²/4⌉.
// This is also the number of holes in a stencil and the number of characters
// written per rotation.
func OrbitCount(size Size) int {
	switch size {
	case Size4:
		return 4
	case Size5:
		return 7
	case Size6:
		return 9
	}
	mustValid(size)
	return 0
}

// OrbitMatrix returns a copy of the canonical labeled grid for size.
// Labels run from 1 to OrbitCount(size). It panics on an unsupported size.
func OrbitMatrix(size Size) [][]int {
	var src [][]int
	switch size {
	case Size4:
		src = orbit4
	case Size5:
		src = orbit5
	case Size6:
		src = orbit6
	default:
		mustValid(size)
	}

	out := make([][]int, len(src))
	for i, row := range src {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// OrbitCells returns, for each label in order, the cells of OrbitMatrix(size)
// carrying that label. The result is a copy; index 0 holds label 1.
func OrbitCells(size Size) [][]Coord {
	mustValid(size)
	src := orbitCells[size]
	out := make([][]Coord, len(src))
	for i, cells := range src {
		out[i] = append([]Coord(nil), cells...)
	}
	return out
}

// LabelAt returns the orbit label of cell c, or 0 when c is outside the grid.
func LabelAt(size Size, c Coord) int {
	mustValid(size)
	n := int(size)
	if c.Row < 0 || c.Row >= n || c.Col < 0 || c.Col >= n {
		return 0
	}
	switch size {
	case Size4:
		return orbit4[c.Row][c.Col]
	case Size5:
		return orbit5[c.Row][c.Col]
	default:
		return orbit6[c.Row][c.Col]
	}
}
