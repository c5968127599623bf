package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// TokenMove records where one token went during a turn
type TokenMove struct {
	Color      Color `json:"color"`
	From       Token `json:"from"`
	To         Token `json:"to"`
	Eliminated bool  `json:"eliminated"`
}

// TurnResult describes a resolved turn
type TurnResult struct {
	Turn         int         `json:"turn"`
	Player       string      `json:"player"`
	Color        Color       `json:"color"`
	Tile         Tile        `json:"tile"`
	Position     Position    `json:"position"`
	Cheated      bool        `json:"cheated"`
	CheatReason  string      `json:"cheat_reason,omitempty"`
	Moves        []TokenMove `json:"moves"`
	Eliminated   []Color     `json:"eliminated"`
	GameOver     bool        `json:"game_over"`
	Winners      []Color     `json:"winners,omitempty"`
	DragonHolder *Color      `json:"dragon_holder,omitempty"`
}

// PlayTurn resolves one turn for the seat at the head of the active queue.
// The proposed tile must be shaped like a tile in the seat's hand. A proposal
// that breaks the rules replaces the seat's player with the fallback, which
// picks the tile instead.
func (e *GameEngine) PlayTurn(ctx context.Context, proposed Tile) (*TurnResult, error) {
	if e.phase != PhaseInProgress {
		if e.phase == PhaseGameOver {
			return nil, ErrGameOver
		}
		return nil, fmt.Errorf("%w: game not started", ErrWrongPhase)
	}
	seat := e.active[0]
	tok, ok := e.board.Token(seat.Color)
	if !ok {
		return nil, fmt.Errorf("%w: active seat %s has no token", ErrInvariant, seat.Color)
	}

	result := &TurnResult{
		Turn:   e.turn + 1,
		Player: seat.Name,
		Color:  seat.Color,
	}

	// 1. cheat interception
	if !IsLegalPlacement(e.board, tok, seat.Hand.Tiles(), proposed) {
		reason := fmt.Sprintf("illegal tile play %s", proposed)
		if err := e.ReplaceSeat(ctx, seat.Color, reason); err != nil {
			return nil, err
		}
		result.Cheated = true
		result.CheatReason = reason

		replacement, err := seat.Player.PlayTurn(ctx, e.board.Clone(), seat.Hand.Tiles(), e.deck.Len())
		if err != nil {
			return nil, fmt.Errorf("%w: fallback for %s: %v", ErrInvariant, seat.Color, err)
		}
		if !IsLegalPlacement(e.board, tok, seat.Hand.Tiles(), replacement) {
			return nil, fmt.Errorf("%w: fallback for %s proposed illegal %s", ErrInvariant, seat.Color, replacement)
		}
		proposed = replacement
	}

	// 2. take the held tile and turn it to the proposed orientation
	held, ok := seat.Hand.Take(proposed)
	if !ok {
		return nil, fmt.Errorf("%w: %s not in hand of %s", ErrInvariant, proposed, seat.Color)
	}
	turns, _ := held.RotationTo(proposed)
	placed := held.Rotated(turns)
	if err := e.CheckInvariants(); err != nil {
		return nil, err
	}

	// 3. commit
	target := e.board.AdjacentCell(tok)
	if err := e.board.PlaceTile(placed, target); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	result.Tile = placed
	result.Position = target

	// 4. move every active token
	var dead []*Seat
	for _, s := range e.active {
		from, ok := e.board.Token(s.Color)
		if !ok {
			return nil, fmt.Errorf("%w: active seat %s has no token", ErrInvariant, s.Color)
		}
		to := TraceMove(e.board, from)
		if err := e.board.MoveToken(to); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		out := e.board.IsBoardEdge(to)
		if out {
			dead = append(dead, s)
		}
		if !from.SamePlace(to) {
			result.Moves = append(result.Moves, TokenMove{Color: s.Color, From: from, To: to, Eliminated: out})
		}
	}
	for _, s := range dead {
		result.Eliminated = append(result.Eliminated, s.Color)
	}

	// 5. rotate and draw
	e.active = append(e.active[1:], seat)
	e.turn++
	if t, err := e.deck.Draw(); err == nil {
		seat.Hand.Add(t)
	} else if errors.Is(err, ErrEmptyPile) {
		e.giveDragon(seat)
	}

	// 6. terminal conditions
	if winners, over := e.terminal(dead); over {
		e.finish(winners, dead)
	} else {
		// 7. eliminations and the dragon
		for _, s := range dead {
			e.eliminate(s)
		}
		e.drawAndPassDragon(false)
		e.skipEmptyHands()
	}

	if e.phase == PhaseGameOver {
		result.GameOver = true
		result.Winners = e.WinnerColors()
	}
	if e.dragon != nil {
		c := e.dragon.Color
		result.DragonHolder = &c
	}

	e.logger.Info("turn resolved",
		zap.Int("turn", result.Turn),
		zap.String("player", seat.Name),
		zap.Stringer("color", seat.Color),
		zap.Stringer("tile", placed),
		zap.Stringer("position", target),
		zap.Bool("cheated", result.Cheated),
		zap.Int("eliminated", len(dead)),
		zap.Bool("game_over", result.GameOver),
	)

	if e.phase != PhaseGameOver {
		if err := e.CheckInvariants(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// terminal evaluates game-over conditions in priority order: a full board,
// everyone eliminated at once, then a single survivor.
func (e *GameEngine) terminal(dead []*Seat) ([]*Seat, bool) {
	allDead := len(dead) == len(e.active)
	survivors := make([]*Seat, 0, len(e.active))
	for _, s := range e.active {
		if !containsSeat(dead, s) {
			survivors = append(survivors, s)
		}
	}

	switch {
	case e.board.IsFull():
		if allDead {
			return dead, true
		}
		return survivors, true
	case allDead:
		return dead, true
	case len(survivors) == 1:
		return survivors, true
	}
	return nil, false
}

// finish ends the game. Eliminated seats still hand their tiles back; when
// someone survives, the dragon holder then tops up from the pile.
func (e *GameEngine) finish(winners, dead []*Seat) {
	for _, s := range dead {
		e.eliminate(s)
	}
	if len(e.active) > 0 {
		e.drawAndPassDragon(true)
	}
	e.winners = append([]*Seat(nil), winners...)
	e.phase = PhaseGameOver
	e.logger.Info("game over",
		zap.Strings("winners", seatNames(winners)),
		zap.Int("turns", e.turn),
	)
}

// skipEmptyHands moves seats without tiles to the back of the queue. When no
// active seat holds a tile, nobody can move again and the survivors share the
// win.
func (e *GameEngine) skipEmptyHands() {
	for range e.active {
		head := e.active[0]
		if head.Hand.Len() > 0 {
			return
		}
		e.logger.Debug("skipping seat with empty hand", zap.Stringer("color", head.Color))
		e.active = append(e.active[1:], head)
	}
	e.finish(e.Active(), nil)
}

// eliminate takes a seat out of play: its hand goes back to the pile, its
// token leaves the board and the dragon moves on if it held it.
func (e *GameEngine) eliminate(seat *Seat) {
	if e.dragon == seat {
		e.dragon = e.nextHolder(seat)
	}
	if tiles := seat.Hand.Clear(); len(tiles) > 0 {
		e.deck.ReturnAndShuffle(tiles...)
	}
	if tok, err := e.board.RemoveToken(seat.Color); err == nil {
		seat.Final = &tok
	}
	e.active = removeSeat(e.active, seat)
	e.eliminated = append(e.eliminated, seat)
	e.logger.Info("player eliminated",
		zap.String("player", seat.Name),
		zap.Stringer("color", seat.Color),
	)
}

func containsSeat(seats []*Seat, seat *Seat) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}

func removeSeat(seats []*Seat, seat *Seat) []*Seat {
	out := seats[:0]
	for _, s := range seats {
		if s != seat {
			out = append(out, s)
		}
	}
	return out
}

func seatNames(seats []*Seat) []string {
	names := make([]string, len(seats))
	for i, s := range seats {
		names[i] = s.Name
	}
	return names
}
