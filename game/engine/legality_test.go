package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLegalPlacement_SafeFirstMove(t *testing.T) {
	b := NewBoard()
	tok := testToken(t, Blue, -1, 2, 2)
	s := catalogueTile(t, straight)

	assert.True(t, IsLegalPlacement(b, tok, []Tile{s}, s))
	assert.Equal(t, 0, b.TileCount(), "board must be left untouched")
}

func TestIsLegalPlacement_ForcedElimination(t *testing.T) {
	b := NewBoard()
	tok := testToken(t, Blue, -1, 2, 2)
	u := catalogueTile(t, uturns)

	for r := 0; r < Rotations; r++ {
		out, ok := WouldEliminate(b, tok, u.Rotated(r))
		assert.True(t, ok)
		assert.True(t, out)
	}
	assert.True(t, IsLegalPlacement(b, tok, []Tile{u}, u))
}

func TestIsLegalPlacement_AvoidableElimination(t *testing.T) {
	b := NewBoard()
	tok := testToken(t, Blue, -1, 2, 2)
	u := catalogueTile(t, uturns)
	s := catalogueTile(t, straight)
	hand := []Tile{u, s}

	assert.False(t, IsLegalPlacement(b, tok, hand, u))
	assert.True(t, IsLegalPlacement(b, tok, hand, s))
}

func TestIsLegalPlacement_ShapeMustBeHeld(t *testing.T) {
	b := NewBoard()
	tok := testToken(t, Blue, -1, 2, 2)
	s := catalogueTile(t, straight)
	c := catalogueTile(t, cornerSplit)

	assert.False(t, IsLegalPlacement(b, tok, []Tile{c}, s))
	assert.False(t, IsLegalPlacement(b, tok, []Tile{c}, Tile{}))
	assert.False(t, IsLegalPlacement(b, tok, nil, s))

	// any rotation of a held tile may be proposed
	for r := 0; r < Rotations; r++ {
		candidate := c.Rotated(r)
		out, _ := WouldEliminate(b, tok, candidate)
		if !out {
			assert.True(t, IsLegalPlacement(b, tok, []Tile{c}, candidate), "rotation %d", r)
		}
	}
}

func TestIsLegalPlacement_NonEliminatingAlwaysLegal(t *testing.T) {
	b := NewBoard()
	tok := testToken(t, Blue, 6, 3, 7)
	u := catalogueTile(t, uturns)

	for _, tile := range Catalogue() {
		hand := []Tile{tile, u}
		if tile.IsSameShape(u) {
			hand = []Tile{tile}
		}
		for r := 0; r < Rotations; r++ {
			candidate := tile.Rotated(r)
			out, ok := WouldEliminate(b, tok, candidate)
			assert.True(t, ok)
			if !out {
				assert.True(t, IsLegalPlacement(b, tok, hand, candidate), "%s", candidate)
			}
		}
	}
}

func TestIsLegalPlacement_OccupiedTarget(t *testing.T) {
	b := NewBoard()
	s := catalogueTile(t, straight)
	c := catalogueTile(t, cornerSplit)
	_ = b.PlaceTile(s, Position{X: 0, Y: 2})

	tok := testToken(t, Blue, -1, 2, 2)
	assert.False(t, IsLegalPlacement(b, tok, []Tile{c}, c))
	_, ok := WouldEliminate(b, tok, c)
	assert.False(t, ok)
}

func TestLegalPlays(t *testing.T) {
	b := NewBoard()
	tok := testToken(t, Blue, -1, 2, 2)
	u := catalogueTile(t, uturns)
	s := catalogueTile(t, straight)

	plays := LegalPlays(b, tok, []Tile{u, s})
	if assert.Len(t, plays, 1) {
		assert.True(t, plays[0].Equal(s))
	}

	forced := LegalPlays(b, tok, []Tile{u})
	if assert.Len(t, forced, 1) {
		assert.True(t, forced[0].Equal(u))
	}

	assert.Empty(t, LegalPlays(b, tok, nil))

	c := catalogueTile(t, cornerSplit)
	plays = LegalPlays(b, tok, []Tile{c})
	assert.NotEmpty(t, plays)
	assert.LessOrEqual(t, len(plays), Rotations)
	for _, play := range plays {
		assert.True(t, IsLegalPlacement(b, tok, []Tile{c}, play))
	}
}
