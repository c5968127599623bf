package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/wricardo/tsuro-game/game/engine"
)

// Interactive is a player whose decisions arrive from outside, typically via
// the REST API or MCP tools. A decision is staged first and consumed by the
// next engine call that needs it.
type Interactive struct {
	name string

	mu      sync.Mutex
	color   engine.Color
	order   []engine.Color
	pawn    *engine.Token
	tile    *engine.Tile
	winners []engine.Color
	done    bool
}

// NewInteractive creates an interactive player
func NewInteractive(name string) *Interactive {
	return &Interactive{name: name}
}

// Name returns the player name
func (p *Interactive) Name() string {
	return p.name
}

// Initialize records the assigned color and the turn order
func (p *Interactive) Initialize(_ context.Context, color engine.Color, order []engine.Color) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.color = color
	p.order = append([]engine.Color(nil), order...)
	return nil
}

// StagePawn sets the starting token returned by the next PlacePawn call
func (p *Interactive) StagePawn(tok engine.Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pawn = &tok
}

// HasPawn reports whether a starting token is staged
func (p *Interactive) HasPawn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pawn != nil
}

// PlacePawn returns the staged starting token
func (p *Interactive) PlacePawn(_ context.Context, _ *engine.Board) (engine.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pawn == nil {
		return engine.Token{}, fmt.Errorf("%w: %s has not chosen a starting position", engine.ErrPlayerUnavailable, p.name)
	}
	tok := *p.pawn
	p.pawn = nil
	return tok, nil
}

// StageTile sets the tile returned by the next PlayTurn call
func (p *Interactive) StageTile(tile engine.Tile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tile = &tile
}

// PlayTurn returns the staged tile
func (p *Interactive) PlayTurn(_ context.Context, _ *engine.Board, _ []engine.Tile, _ int) (engine.Tile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tile == nil {
		return engine.Tile{}, fmt.Errorf("%w: %s has not chosen a tile", engine.ErrPlayerUnavailable, p.name)
	}
	tile := *p.tile
	p.tile = nil
	return tile, nil
}

// EndGame records the winners
func (p *Interactive) EndGame(_ context.Context, _ *engine.Board, winners []engine.Color) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.winners = append([]engine.Color(nil), winners...)
	p.done = true
	return nil
}

// Result reports the winners once the game has ended
func (p *Interactive) Result() ([]engine.Color, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.Color(nil), p.winners...), p.done
}
