package engine

import (
	"fmt"
	"strings"
)

// Rotate90 returns the footprint rotated 90 degrees clockwise. Cell (r,c)
// of an M×N input lands at (c, M-1-r) of the N×M output.
func Rotate90(f Footprint) Footprint {
	m := len(f)
	if m == 0 {
		return Footprint{}
	}
	n := len(f[0])

	out := make(Footprint, n)
	for i := range out {
		out[i] = make([]int, m)
	}
	for r := 0; r < m; r++ {
		for c := 0; c < n; c++ {
			out[c][m-1-r] = f[r][c]
		}
	}
	return out
}

// Mirror returns the footprint reflected across its vertical axis
func Mirror(f Footprint) Footprint {
	out := make(Footprint, len(f))
	for r, row := range f {
		mirrored := make([]int, len(row))
		for c, v := range row {
			mirrored[len(row)-1-c] = v
		}
		out[r] = mirrored
	}
	return out
}

// Validate checks that the footprint is non-empty, rectangular, binary and
// has at least one filled cell.
func (f Footprint) Validate() error {
	if len(f) == 0 || len(f[0]) == 0 {
		return fmt.Errorf("%w: footprint has no rows or columns", ErrInvalidShape)
	}
	width := len(f[0])
	filled := 0
	for r, row := range f {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidShape, r, len(row), width)
		}
		for c, v := range row {
			switch v {
			case 0:
			case 1:
				filled++
			default:
				return fmt.Errorf("%w: cell (%d,%d) has value %d, expected 0 or 1", ErrInvalidShape, r, c, v)
			}
		}
	}
	if filled == 0 {
		return fmt.Errorf("%w: footprint has no filled cells", ErrInvalidShape)
	}
	return nil
}

// Rows returns the footprint height
func (f Footprint) Rows() int {
	return len(f)
}

// Cols returns the footprint width
func (f Footprint) Cols() int {
	if len(f) == 0 {
		return 0
	}
	return len(f[0])
}

// Equal reports whether both footprints have the same dimensions and the
// same cell pattern.
func (f Footprint) Equal(other Footprint) bool {
	if len(f) != len(other) {
		return false
	}
	for r := range f {
		if len(f[r]) != len(other[r]) {
			return false
		}
		for c := range f[r] {
			if f[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}

// Cells returns the filled cells in row-major order
func (f Footprint) Cells() []Coord {
	var cells []Coord
	for r, row := range f {
		for c, v := range row {
			if v == 1 {
				cells = append(cells, Coord{Row: r, Col: c})
			}
		}
	}
	return cells
}

// CellCount returns the number of filled cells
func (f Footprint) CellCount() int {
	count := 0
	for _, row := range f {
		for _, v := range row {
			if v == 1 {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy
func (f Footprint) Clone() Footprint {
	out := make(Footprint, len(f))
	for r, row := range f {
		out[r] = append([]int(nil), row...)
	}
	return out
}

// String renders the footprint with '#' for filled and '.' for empty cells,
// one line per row.
func (f Footprint) String() string {
	lines := make([]string, 0, len(f))
	for _, row := range f {
		var b strings.Builder
		for _, v := range row {
			if v == 1 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// OrientationSet is the ordered, deduplicated list of footprints reachable
// from a base shape. It is read-only once generated; accessors hand out
// copies.
type OrientationSet struct {
	shapes []Footprint
}

// GenerateOrientations returns the distinct orientations of base under the
// dihedral group of order 8. The four rotations of base come first (index 0
// is base itself), followed by the rotations of the mirrored base that were
// not already seen.
func GenerateOrientations(base Footprint) (OrientationSet, error) {
	if err := base.Validate(); err != nil {
		return OrientationSet{}, err
	}

	candidates := make([]Footprint, 0, MaxOrientations)
	current := base.Clone()
	for i := 0; i < 4; i++ {
		candidates = append(candidates, current)
		current = Rotate90(current)
	}
	current = Mirror(base)
	for i := 0; i < 4; i++ {
		candidates = append(candidates, current)
		current = Rotate90(current)
	}

	var unique []Footprint
	for _, candidate := range candidates {
		seen := false
		for _, u := range unique {
			if u.Equal(candidate) {
				seen = true
				break
			}
		}
		if !seen {
			unique = append(unique, candidate)
		}
	}

	return OrientationSet{shapes: unique}, nil
}

// Len returns the number of distinct orientations
func (s OrientationSet) Len() int {
	return len(s.shapes)
}

// At returns a copy of the orientation at index i
func (s OrientationSet) At(i int) (Footprint, bool) {
	if i < 0 || i >= len(s.shapes) {
		return nil, false
	}
	return s.shapes[i].Clone(), true
}

// All returns copies of every orientation in generation order
func (s OrientationSet) All() []Footprint {
	out := make([]Footprint, len(s.shapes))
	for i, shape := range s.shapes {
		out[i] = shape.Clone()
	}
	return out
}

// IndexOf returns the index of the orientation structurally equal to f, or -1
func (s OrientationSet) IndexOf(f Footprint) int {
	for i, shape := range s.shapes {
		if shape.Equal(f) {
			return i
		}
	}
	return -1
}

// Next returns the index after i, wrapping around. Rotation treats the set as
// an opaque cycle.
func (s OrientationSet) Next(i int) int {
	if len(s.shapes) == 0 {
		return 0
	}
	return (i + 1) % len(s.shapes)
}

// Flipped returns the index of the mirror image of orientation i. The set is
// closed under reflection so the lookup always succeeds for a valid index;
// for symmetric shapes it may return i itself.
func (s OrientationSet) Flipped(i int) int {
	if i < 0 || i >= len(s.shapes) {
		return i
	}
	if idx := s.IndexOf(Mirror(s.shapes[i])); idx >= 0 {
		return idx
	}
	return i
}
