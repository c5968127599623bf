package engine

import (
	"math/rand"
	"time"
)

// Deck is the draw pile: tiles not on the board and not in any hand. Tiles
// are drawn from the front.
type Deck struct {
	tiles []Tile
	rng   *rand.Rand
}

// NewDeck returns a shuffled pile holding the whole catalogue
func NewDeck(rng *rand.Rand) *Deck {
	d := NewDeckFromTiles(rng, Catalogue()...)
	d.shuffle()
	return d
}

// NewDeckFromTiles returns a pile holding tiles in the given order
func NewDeckFromTiles(rng *rand.Rand, tiles ...Tile) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Deck{rng: rng, tiles: make([]Tile, len(tiles))}
	copy(d.tiles, tiles)
	return d
}

// Draw removes and returns the front tile
func (d *Deck) Draw() (Tile, error) {
	if len(d.tiles) == 0 {
		return Tile{}, ErrEmptyPile
	}
	t := d.tiles[0]
	d.tiles = d.tiles[1:]
	return t, nil
}

// ReturnAndShuffle puts tiles back into the pile and reshuffles it
func (d *Deck) ReturnAndShuffle(tiles ...Tile) {
	d.tiles = append(d.tiles, tiles...)
	d.shuffle()
}

// Contains reports whether a tile shaped like t is in the pile
func (d *Deck) Contains(t Tile) bool {
	for _, held := range d.tiles {
		if held.IsSameShape(t) {
			return true
		}
	}
	return false
}

// Len returns the number of tiles left
func (d *Deck) Len() int {
	return len(d.tiles)
}

// IsEmpty reports whether the pile is exhausted
func (d *Deck) IsEmpty() bool {
	return len(d.tiles) == 0
}

// Tiles returns a copy of the pile in draw order
func (d *Deck) Tiles() []Tile {
	tiles := make([]Tile, len(d.tiles))
	copy(tiles, d.tiles)
	return tiles
}

func (d *Deck) shuffle() {
	d.rng.Shuffle(len(d.tiles), func(i, j int) {
		d.tiles[i], d.tiles[j] = d.tiles[j], d.tiles[i]
	})
}
