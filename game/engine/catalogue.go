package engine

import "fmt"

// catalogue holds one tile per rotation class of perfect matchings on eight
// points: 35 distinct tiles, numbered in lexicographic order of their first
// representative.
var catalogue = buildCatalogue()

func buildCatalogue() []Tile {
	var tiles []Tile
	for _, paths := range allMatchings() {
		candidate := Tile{paths: paths}
		duplicate := false
		for _, existing := range tiles {
			if existing.IsSameShape(candidate) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			candidate.ID = len(tiles)
			tiles = append(tiles, candidate)
		}
	}
	return tiles
}

// allMatchings enumerates the 105 perfect matchings of points 0..7, pairing
// the lowest free point with every other free point in turn.
func allMatchings() []Paths {
	var result []Paths
	var current Paths
	var used [PointsPerTile]bool

	var walk func(pair int)
	walk = func(pair int) {
		if pair == len(current) {
			result = append(result, current)
			return
		}
		first := 0
		for used[first] {
			first++
		}
		used[first] = true
		for second := first + 1; second < PointsPerTile; second++ {
			if used[second] {
				continue
			}
			used[second] = true
			current[pair] = [2]int{first, second}
			walk(pair + 1)
			used[second] = false
		}
		used[first] = false
	}
	walk(0)
	return result
}

// CatalogueSize is the number of distinct tiles in a full game
func CatalogueSize() int {
	return len(catalogue)
}

// Catalogue returns fresh copies of every tile at rotation 0
func Catalogue() []Tile {
	tiles := make([]Tile, len(catalogue))
	copy(tiles, catalogue)
	return tiles
}

// TileByID returns the catalogue tile with the given ID at rotation 0
func TileByID(id int) (Tile, error) {
	if id < 0 || id >= len(catalogue) {
		return Tile{}, fmt.Errorf("%w: id %d", ErrUnknownTile, id)
	}
	return catalogue[id], nil
}

// TileFromPaths looks up the catalogue tile with the given shape and returns
// it labelled exactly as paths.
func TileFromPaths(paths Paths) (Tile, error) {
	if err := validatePaths(paths); err != nil {
		return Tile{}, err
	}
	probe := Tile{paths: paths}
	for _, t := range catalogue {
		if r, ok := t.RotationTo(probe); ok {
			return t.Rotated(r), nil
		}
	}
	return Tile{}, fmt.Errorf("%w: %v", ErrUnknownTile, paths)
}

// InCatalogue reports whether t is shaped like the catalogue tile carrying its ID
func InCatalogue(t Tile) bool {
	ref, err := TileByID(t.ID)
	if err != nil {
		return false
	}
	return ref.IsSameShape(t)
}
