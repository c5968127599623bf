package engine

// IsLegalPlacement decides whether the player owning tok may place tile on the
// cell its token faces, given the tiles in hand:
//   - the tile must be shaped like a tile in hand;
//   - a placement that keeps the token on the board is legal;
//   - a placement that eliminates the player is legal only when every rotation
//     of every tile in hand eliminates them too.
//
// Placements are tried on a throwaway copy of the board.
func IsLegalPlacement(b *Board, tok Token, hand []Tile, tile Tile) bool {
	if !holdsShape(hand, tile) {
		return false
	}
	target := b.AdjacentCell(tok)
	eliminated, ok := eliminates(b, tok, target, tile)
	if !ok {
		return false
	}
	if !eliminated {
		return true
	}
	for _, held := range hand {
		for r := 0; r < Rotations; r++ {
			if out, ok := eliminates(b, tok, target, held.Rotated(r)); ok && !out {
				return false
			}
		}
	}
	return true
}

// LegalPlays lists every legal tile orientation from hand. Orientations that
// look identical because of symmetry are listed once.
func LegalPlays(b *Board, tok Token, hand []Tile) []Tile {
	var plays []Tile
	for _, held := range hand {
		var seen []Tile
		for r := 0; r < Rotations; r++ {
			candidate := held.Rotated(r)
			if containsEqual(seen, candidate) {
				continue
			}
			seen = append(seen, candidate)
			if IsLegalPlacement(b, tok, hand, candidate) {
				plays = append(plays, candidate)
			}
		}
	}
	return plays
}

// WouldEliminate reports whether placing tile ahead of tok pushes tok off the
// board. The second result is false when the facing cell cannot take a tile.
func WouldEliminate(b *Board, tok Token, tile Tile) (bool, bool) {
	return eliminates(b, tok, b.AdjacentCell(tok), tile)
}

func eliminates(b *Board, tok Token, target Position, tile Tile) (bool, bool) {
	scratch := b.Clone()
	if err := scratch.PlaceTile(tile, target); err != nil {
		return false, false
	}
	return scratch.IsBoardEdge(TraceMove(scratch, tok)), true
}

func holdsShape(hand []Tile, tile Tile) bool {
	if !tile.Valid() {
		return false
	}
	for _, held := range hand {
		if held.IsSameShape(tile) {
			return true
		}
	}
	return false
}

func containsEqual(tiles []Tile, t Tile) bool {
	for _, other := range tiles {
		if other.Equal(t) {
			return true
		}
	}
	return false
}
