package player

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/tsuro-game/game/engine"
)

func TestInteractive_StagedDecisions(t *testing.T) {
	ctx := context.Background()
	p := NewInteractive("alice")
	require.NoError(t, p.Initialize(ctx, engine.Red, []engine.Color{engine.Blue, engine.Red}))
	assert.Equal(t, "alice", p.Name())

	_, err := p.PlacePawn(ctx, engine.NewBoard())
	assert.ErrorIs(t, err, engine.ErrPlayerUnavailable)

	tok := engine.Token{Color: engine.Red, Pos: engine.Position{X: -1, Y: 4}, Index: 3}
	p.StagePawn(tok)
	assert.True(t, p.HasPawn())
	got, err := p.PlacePawn(ctx, engine.NewBoard())
	require.NoError(t, err)
	assert.Equal(t, tok, got)
	assert.False(t, p.HasPawn(), "a staged pawn is consumed")

	_, err = p.PlayTurn(ctx, engine.NewBoard(), nil, 0)
	assert.ErrorIs(t, err, engine.ErrPlayerUnavailable)

	tile, err := engine.TileByID(4)
	require.NoError(t, err)
	p.StageTile(tile.Rotated(1))
	played, err := p.PlayTurn(ctx, engine.NewBoard(), nil, 0)
	require.NoError(t, err)
	assert.True(t, played.Equal(tile.Rotated(1)))

	_, done := p.Result()
	assert.False(t, done)
	require.NoError(t, p.EndGame(ctx, engine.NewBoard(), []engine.Color{engine.Red}))
	winners, done := p.Result()
	assert.True(t, done)
	assert.Equal(t, []engine.Color{engine.Red}, winners)
}

func TestFirstLegal_IsDeterministic(t *testing.T) {
	ctx := context.Background()
	p := NewFirstLegal("bot")
	require.NoError(t, p.Initialize(ctx, engine.Green, nil))

	board := engine.NewBoard()
	tok, err := p.PlacePawn(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, engine.PhantomPositions(engine.Green)[0], tok)

	require.NoError(t, board.PlaceToken(tok))
	hand := engine.Catalogue()[:3]
	first, err := p.PlayTurn(ctx, board, hand, 10)
	require.NoError(t, err)
	again, err := p.PlayTurn(ctx, board, hand, 10)
	require.NoError(t, err)
	assert.True(t, first.Equal(again))
	assert.True(t, engine.IsLegalPlacement(board, tok, hand, first))

	_, err = p.PlayTurn(ctx, board, nil, 10)
	assert.ErrorIs(t, err, engine.ErrNoLegalPlay)
}

func TestFirstLegal_PlaysFullGame(t *testing.T) {
	ctx := context.Background()
	e := engine.NewEngine(engine.Options{Seed: 21})
	for _, name := range []string{"a", "b", "c"} {
		_, err := e.AddPlayer(NewFirstLegal(name), engine.SeatAutomated)
		require.NoError(t, err)
	}
	require.NoError(t, e.Start(ctx))

	for !e.IsGameOver() {
		seat, err := e.Current()
		require.NoError(t, err)
		tile, err := seat.Player.PlayTurn(ctx, e.Board(), seat.Hand.Tiles(), e.PileSize())
		require.NoError(t, err)
		result, err := e.PlayTurn(ctx, tile)
		require.NoError(t, err)
		require.False(t, result.Cheated)
	}
	assert.NotEmpty(t, e.Winners())
}

func TestNew(t *testing.T) {
	p, err := New("r", "", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.IsType(t, &engine.AutoPlayer{}, p)

	p, err = New("f", "First", nil)
	require.NoError(t, err)
	assert.IsType(t, &FirstLegal{}, p)

	_, err = New("x", "minimax", nil)
	assert.Error(t, err)
}
