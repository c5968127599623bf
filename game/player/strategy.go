package player

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/wricardo/tsuro-game/game/engine"
)

// Strategy names accepted by New
const (
	StrategyRandom = "random"
	StrategyFirst  = "first"
)

// FirstLegal always takes the first option available: the first free phantom
// position clockwise from the top-left corner and the first legal orientation
// in hand order. Games between FirstLegal players are fully reproducible for a
// given deck.
type FirstLegal struct {
	name  string
	color engine.Color
}

// NewFirstLegal creates a FirstLegal player
func NewFirstLegal(name string) *FirstLegal {
	return &FirstLegal{name: name}
}

// Name returns the player name
func (p *FirstLegal) Name() string {
	return p.name
}

// Initialize records the assigned color
func (p *FirstLegal) Initialize(_ context.Context, color engine.Color, _ []engine.Color) error {
	p.color = color
	return nil
}

// PlacePawn picks the first free starting position
func (p *FirstLegal) PlacePawn(_ context.Context, board *engine.Board) (engine.Token, error) {
	free := engine.FreeStartingPositions(board, p.color)
	if len(free) == 0 {
		return engine.Token{}, engine.ErrNoStartAvailable
	}
	return free[0], nil
}

// PlayTurn picks the first legal orientation
func (p *FirstLegal) PlayTurn(_ context.Context, board *engine.Board, hand []engine.Tile, _ int) (engine.Tile, error) {
	tok, ok := board.Token(p.color)
	if !ok {
		return engine.Tile{}, fmt.Errorf("%w: %s", engine.ErrTokenNotFound, p.color)
	}
	plays := engine.LegalPlays(board, tok, hand)
	if len(plays) == 0 {
		return engine.Tile{}, engine.ErrNoLegalPlay
	}
	return plays[0], nil
}

// EndGame is a no-op
func (p *FirstLegal) EndGame(context.Context, *engine.Board, []engine.Color) error {
	return nil
}

// New builds an automated player for a strategy name. An empty name means random.
func New(name, strategy string, rng *rand.Rand) (engine.Player, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyRandom:
		return engine.NewAutoPlayer(name, rng), nil
	case StrategyFirst:
		return NewFirstLegal(name), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", strategy)
}
