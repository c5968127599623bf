package engine

// Hand holds a player's unplayed tiles
type Hand struct {
	tiles []Tile
}

// NewHand creates a hand holding tiles
func NewHand(tiles ...Tile) *Hand {
	h := &Hand{tiles: make([]Tile, 0, MaxHandSize)}
	h.tiles = append(h.tiles, tiles...)
	return h
}

// Add puts a tile in the hand. Size limits are checked by the engine.
func (h *Hand) Add(t Tile) {
	h.tiles = append(h.tiles, t)
}

// Take removes the tile shaped like t and returns the held copy
func (h *Hand) Take(t Tile) (Tile, bool) {
	for i, held := range h.tiles {
		if held.IsSameShape(t) {
			h.tiles = append(h.tiles[:i], h.tiles[i+1:]...)
			return held, true
		}
	}
	return Tile{}, false
}

// Contains reports whether a tile shaped like t is held
func (h *Hand) Contains(t Tile) bool {
	for _, held := range h.tiles {
		if held.IsSameShape(t) {
			return true
		}
	}
	return false
}

// Tiles returns a copy of the held tiles
func (h *Hand) Tiles() []Tile {
	tiles := make([]Tile, len(h.tiles))
	copy(tiles, h.tiles)
	return tiles
}

// Len returns the number of held tiles
func (h *Hand) Len() int {
	return len(h.tiles)
}

// Full reports whether the hand is at MaxHandSize
func (h *Hand) Full() bool {
	return len(h.tiles) >= MaxHandSize
}

// Clear empties the hand and returns what it held
func (h *Hand) Clear() []Tile {
	tiles := h.tiles
	h.tiles = make([]Tile, 0, MaxHandSize)
	return tiles
}
