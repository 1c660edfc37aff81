// Package spatial lays tests out on a square grid so their cleanup regions
// cannot overlap. It is placement math only: nothing here enforces isolation
// at run time.
package spatial

import (
	"math"

	"github.com/flintmc/flint/pkg/spec"
)

// DefaultCellSize is the grid cell edge length in blocks. It comfortably
// fits the maximum cleanup region footprint (15x15).
const DefaultCellSize = 16

// Offset is the world-space translation applied to one test. Y is always 0;
// tests are laid out on the horizontal plane.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// CalculateGridDimensions returns the edge length g of the smallest square
// grid holding total tests: g = ceil(sqrt(total)).
func CalculateGridDimensions(total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(total))))
}

// CalculateOffset returns the world offset of test index within a batch of
// total tests using cells of cellSize blocks. Tests fill the grid row by
// row; the grid is centered so the middle cell (odd g) or the cell just
// past middle (even g) sits at the origin.
func CalculateOffset(index, total, cellSize int) Offset {
	g := CalculateGridDimensions(total)
	if g == 0 {
		return Offset{}
	}
	gx := index % g
	gz := index / g

	base := -(g / 2) * cellSize
	if g%2 == 0 {
		base = -(g/2 - 1) * cellSize
	}

	return Offset{
		X: base + gx*cellSize,
		Y: 0,
		Z: base + gz*cellSize,
	}
}

// AllOffsets returns the offset of every test in a batch of total tests.
func AllOffsets(total, cellSize int) []Offset {
	offsets := make([]Offset, total)
	for i := range offsets {
		offsets[i] = CalculateOffset(i, total, cellSize)
	}
	return offsets
}

// ApplyOffset translates a position by the offset.
func ApplyOffset(pos spec.Pos, off Offset) spec.Pos {
	return spec.Pos{pos[0] + off.X, pos[1] + off.Y, pos[2] + off.Z}
}

// ApplyOffsetToRegion translates both corners of a region by the offset.
func ApplyOffsetToRegion(region spec.Region, off Offset) spec.Region {
	return spec.Region{ApplyOffset(region[0], off), ApplyOffset(region[1], off)}
}
