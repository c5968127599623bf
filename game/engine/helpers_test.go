package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// straight connects each point to the point across the tile
	straight = Paths{{0, 5}, {1, 4}, {2, 7}, {3, 6}}
	// uturns connects the two points of every edge
	uturns = Paths{{0, 1}, {2, 3}, {4, 5}, {6, 7}}
	// cornerSplit sends the left-top point right and the left-bottom point up
	cornerSplit = Paths{{7, 2}, {6, 0}, {1, 4}, {3, 5}}
)

func catalogueTile(t *testing.T, paths Paths) Tile {
	t.Helper()
	tile, err := TileFromPaths(paths)
	require.NoError(t, err)
	return tile
}

// fillerTiles returns n catalogue tiles shaped unlike any of exclude
func fillerTiles(t *testing.T, n int, exclude ...Tile) []Tile {
	t.Helper()
	var out []Tile
	for _, c := range Catalogue() {
		if len(out) == n {
			break
		}
		skip := false
		for _, x := range exclude {
			if x.IsSameShape(c) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	require.Len(t, out, n)
	return out
}

func testToken(t *testing.T, color Color, x, y, index int) Token {
	t.Helper()
	tok, err := NewToken(color, Position{X: x, Y: y}, index)
	require.NoError(t, err)
	return tok
}

func testSeat(name string, color Color, hand ...Tile) *Seat {
	return &Seat{
		Name:   name,
		Color:  color,
		Kind:   SeatAutomated,
		Player: NewAutoPlayer(name, rand.New(rand.NewSource(int64(color)+1))),
		Hand:   NewHand(hand...),
	}
}

// resumed builds an in-progress engine from a board, a pile and seats
func resumed(t *testing.T, board *Board, pile []Tile, seats ...*Seat) *GameEngine {
	t.Helper()
	e := NewEngine(Options{
		Seed:  7,
		Board: board,
		Deck:  NewDeckFromTiles(rand.New(rand.NewSource(7)), pile...),
	})
	require.NoError(t, e.Resume(seats))
	return e
}
