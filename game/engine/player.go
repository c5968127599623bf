package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// Player is the decision-making capability the engine consumes. Players only
// ever see copies of engine state and answer with a decision.
type Player interface {
	Name() string

	// Initialize is called once before play begins
	Initialize(ctx context.Context, color Color, order []Color) error

	// PlacePawn returns a starting token on a free phantom position
	PlacePawn(ctx context.Context, board *Board) (Token, error)

	// PlayTurn proposes the tile, at any rotation, to play this turn
	PlayTurn(ctx context.Context, board *Board, hand []Tile, remaining int) (Tile, error)

	// EndGame is a notification; the engine ignores the outcome beyond logging
	EndGame(ctx context.Context, board *Board, winners []Color) error
}

// FallbackFunc builds the automated player that takes over a seat whose
// player broke the rules.
type FallbackFunc func(name string) Player

// AutoPlayer picks uniformly among legal moves. It is the default fallback.
type AutoPlayer struct {
	name    string
	color   Color
	order   []Color
	winners []Color
	rng     *rand.Rand
	mu      sync.Mutex
}

// NewAutoPlayer creates an automated player driven by rng
func NewAutoPlayer(name string, rng *rand.Rand) *AutoPlayer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &AutoPlayer{name: name, rng: rng}
}

// Name returns the player name
func (p *AutoPlayer) Name() string {
	return p.name
}

// Initialize records the assigned color and the turn order
func (p *AutoPlayer) Initialize(_ context.Context, color Color, order []Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidColor, int(color))
	}
	p.color = color
	p.order = append([]Color(nil), order...)
	return nil
}

// PlacePawn picks a random free phantom position
func (p *AutoPlayer) PlacePawn(_ context.Context, board *Board) (Token, error) {
	free := FreeStartingPositions(board, p.color)
	if len(free) == 0 {
		return Token{}, ErrNoStartAvailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return free[p.rng.Intn(len(free))], nil
}

// PlayTurn picks a random legal tile orientation
func (p *AutoPlayer) PlayTurn(_ context.Context, board *Board, hand []Tile, _ int) (Tile, error) {
	tok, ok := board.Token(p.color)
	if !ok {
		return Tile{}, fmt.Errorf("%w: %s", ErrTokenNotFound, p.color)
	}
	plays := LegalPlays(board, tok, hand)
	if len(plays) == 0 {
		return Tile{}, ErrNoLegalPlay
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return plays[p.rng.Intn(len(plays))], nil
}

// EndGame records the winners
func (p *AutoPlayer) EndGame(_ context.Context, _ *Board, winners []Color) error {
	p.winners = append([]Color(nil), winners...)
	return nil
}

// Won reports whether the player's color was among the winners
func (p *AutoPlayer) Won() bool {
	for _, c := range p.winners {
		if c == p.color {
			return true
		}
	}
	return false
}

// FreeStartingPositions lists phantom positions for color not taken by another token
func FreeStartingPositions(board *Board, color Color) []Token {
	var free []Token
	for _, tok := range PhantomPositions(color) {
		if _, taken := board.TokenAt(tok.Pos, tok.Index); !taken {
			free = append(free, tok)
		}
	}
	return free
}
