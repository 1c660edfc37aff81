package spatial

import (
	"testing"

	"github.com/flintmc/flint/pkg/spec"
)

func TestGridDimensions(t *testing.T) {
	cases := []struct{ total, want int }{
		{0, 0}, {1, 1}, {2, 2}, {4, 2}, {5, 3}, {9, 3}, {10, 4}, {16, 4},
	}
	for _, tc := range cases {
		if got := CalculateGridDimensions(tc.total); got != tc.want {
			t.Errorf("CalculateGridDimensions(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestOffsetsEvenGrid(t *testing.T) {
	want := []Offset{
		{0, 0, 0}, {16, 0, 0}, {0, 0, 16}, {16, 0, 16},
	}
	got := AllOffsets(4, 16)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestOffsetsOddGridCentered(t *testing.T) {
	if got := CalculateOffset(4, 9, 16); got != (Offset{0, 0, 0}) {
		t.Errorf("middle cell = %+v, want origin", got)
	}
	if got := CalculateOffset(0, 9, 16); got != (Offset{-16, 0, -16}) {
		t.Errorf("first cell = %+v, want (-16, 0, -16)", got)
	}
	if got := CalculateOffset(8, 9, 16); got != (Offset{16, 0, 16}) {
		t.Errorf("last cell = %+v, want (16, 0, 16)", got)
	}
}

func TestOffsetsDistinct(t *testing.T) {
	for _, total := range []int{1, 2, 3, 7, 12, 25} {
		seen := make(map[Offset]int)
		for i, off := range AllOffsets(total, DefaultCellSize) {
			if off.Y != 0 {
				t.Errorf("total %d index %d: Y = %d, want 0", total, i, off.Y)
			}
			if prev, dup := seen[off]; dup {
				t.Errorf("total %d: offsets %d and %d collide at %+v", total, prev, i, off)
			}
			seen[off] = i
		}
	}
}

func TestApplyOffset(t *testing.T) {
	off := Offset{16, 0, -16}
	if got := ApplyOffset(spec.Pos{1, 2, 3}, off); got != (spec.Pos{17, 2, -13}) {
		t.Errorf("ApplyOffset = %v", got)
	}
	region := spec.Region{{0, 0, 0}, {4, 4, 4}}
	moved := ApplyOffsetToRegion(region, off)
	if moved[0] != (spec.Pos{16, 0, -16}) || moved[1] != (spec.Pos{20, 4, -12}) {
		t.Errorf("ApplyOffsetToRegion = %v", moved)
	}
}
