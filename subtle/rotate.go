package subtle

// Rotate returns a new grid holding grid turned 90° clockwise.
// The element at row i, column j moves to row j, column n-1-i.
// grid must be square; the input is not modified.
func Rotate[T any](grid [][]T) [][]T {
	n := len(grid)
	out := make([][]T, n)
	for i := range out {
		out[i] = make([]T, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[j][n-1-i] = grid[i][j]
		}
	}
	return out
}

// RotateCoord maps a single cell of an n×n grid the same way Rotate moves it.
func RotateCoord(c Coord, n int) Coord {
	return Coord{Row: c.Col, Col: n - 1 - c.Row}
}

// NewGrid allocates an empty n×n grid.
func NewGrid[T any](n int) [][]T {
	grid := make([][]T, n)
	cells := make([]T, n*n)
	for i := range grid {
		grid[i] = cells[i*n : (i+1)*n : (i+1)*n]
	}
	return grid
}
