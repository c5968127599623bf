package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Paths is a perfect matching of the eight edge points of a tile into four
// pairs. Points run clockwise: 0,1 top, 2,3 right, 4,5 bottom, 6,7 left.
type Paths [4][2]int

// Tile is a path puzzle piece. Its matching never changes identity; rotation
// only relabels the points.
type Tile struct {
	ID       int
	paths    Paths
	rotation int
}

// NewTile validates the matching and returns a tile at rotation 0
func NewTile(id int, paths Paths) (Tile, error) {
	if err := validatePaths(paths); err != nil {
		return Tile{}, err
	}
	return Tile{ID: id, paths: paths}, nil
}

// MustTile is NewTile for static tables; it panics on an invalid matching
func MustTile(id int, paths Paths) Tile {
	t, err := NewTile(id, paths)
	if err != nil {
		panic(err)
	}
	return t
}

func validatePaths(paths Paths) error {
	var seen [PointsPerTile]bool
	for _, pair := range paths {
		for _, p := range pair {
			if p < 0 || p >= PointsPerTile {
				return fmt.Errorf("%w: %d", ErrInvalidEdgePoint, p)
			}
			if seen[p] {
				return fmt.Errorf("%w: point %d used twice", ErrInvalidTile, p)
			}
			seen[p] = true
		}
	}
	return nil
}

// Rotate turns the tile 90 degrees clockwise, mapping every point i to (i+2) mod 8
func (t *Tile) Rotate() {
	for i := range t.paths {
		for j := range t.paths[i] {
			t.paths[i][j] = (t.paths[i][j] + 2) % PointsPerTile
		}
	}
	t.rotation = (t.rotation + 1) % Rotations
}

// Rotated returns a copy rotated n quarter turns clockwise
func (t Tile) Rotated(n int) Tile {
	n = ((n % Rotations) + Rotations) % Rotations
	for i := 0; i < n; i++ {
		t.Rotate()
	}
	return t
}

// Rotation reports the number of quarter turns applied since creation (0..3)
func (t Tile) Rotation() int {
	return t.rotation
}

// Paths returns the current labelled matching
func (t Tile) Paths() Paths {
	return t.paths
}

// PathEndpoint returns the other end of the path that starts at point
func (t Tile) PathEndpoint(point int) (int, error) {
	if point < 0 || point >= PointsPerTile {
		return 0, fmt.Errorf("%w: %d", ErrInvalidEdgePoint, point)
	}
	for _, pair := range t.paths {
		if pair[0] == point {
			return pair[1], nil
		}
		if pair[1] == point {
			return pair[0], nil
		}
	}
	return 0, fmt.Errorf("%w: %d not on tile %d", ErrInvalidEdgePoint, point, t.ID)
}

// Valid reports whether the tile carries a perfect matching. The zero Tile is not valid.
func (t Tile) Valid() bool {
	return validatePaths(t.paths) == nil
}

// Equal compares matchings label for label, ignoring pair order
func (t Tile) Equal(other Tile) bool {
	return canonical(t.paths) == canonical(other.paths)
}

// IsSameShape reports whether other is this tile under some rotation
func (t Tile) IsSameShape(other Tile) bool {
	mine := canonical(t.paths)
	for r := 0; r < Rotations; r++ {
		if canonical(other.Rotated(r).paths) == mine {
			return true
		}
	}
	return false
}

// RotationTo returns the number of quarter turns that makes t label-equal to
// target, or false when the tiles differ in shape.
func (t Tile) RotationTo(target Tile) (int, bool) {
	for r := 0; r < Rotations; r++ {
		if t.Rotated(r).Equal(target) {
			return r, true
		}
	}
	return 0, false
}

// Symmetry returns how many of the four rotations look identical (1, 2 or 4)
func (t Tile) Symmetry() int {
	count := 0
	for r := 0; r < Rotations; r++ {
		if t.Rotated(r).Equal(t) {
			count++
		}
	}
	return count
}

func (t Tile) String() string {
	c := canonical(t.paths)
	parts := make([]string, 0, len(c))
	for _, pair := range c {
		parts = append(parts, fmt.Sprintf("%d-%d", pair[0], pair[1]))
	}
	return fmt.Sprintf("tile#%d[%s]@%d", t.ID, strings.Join(parts, " "), t.rotation*90)
}

// canonical sorts each pair and then the pairs, so equal matchings compare equal
func canonical(paths Paths) Paths {
	for i := range paths {
		if paths[i][0] > paths[i][1] {
			paths[i][0], paths[i][1] = paths[i][1], paths[i][0]
		}
	}
	sort.Slice(paths[:], func(i, j int) bool {
		return paths[i][0] < paths[j][0]
	})
	return paths
}
