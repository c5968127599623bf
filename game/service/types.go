package service

import (
	"time"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
)

// CreateGameRequest creates a table either from a preset or from an explicit roster
type CreateGameRequest struct {
	Preset  string              `json:"preset,omitempty"`
	Seed    int64               `json:"seed,omitempty"`
	Players []config.PlayerSpec `json:"players,omitempty"`
}

// GameInfo provides information about a game session
type GameInfo struct {
	ID             string           `json:"id"`
	Preset         string           `json:"preset,omitempty"`
	Seed           int64            `json:"seed"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	State          engine.GameState `json:"state"`
}

// TurnReport is returned by every operation that plays turns
type TurnReport struct {
	GameID  string               `json:"game_id"`
	Turns   []*engine.TurnResult `json:"turns"`
	State   engine.GameState     `json:"state"`
	Waiting *engine.Color        `json:"waiting_for,omitempty"` // interactive seat whose move is needed
	Message string               `json:"message,omitempty"`
}

// LegalMoves lists the legal orientations for a seat
type LegalMoves struct {
	GameID string            `json:"game_id"`
	Color  engine.Color      `json:"color"`
	Target engine.Position   `json:"target"`
	Tiles  []engine.TileView `json:"tiles"`
}

// GameEvent is pushed to spectators
type GameEvent struct {
	Type      string      `json:"type"` // "created", "started", "turn", "game_over", "deleted"
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}
