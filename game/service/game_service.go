package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
)

var (
	ErrNotYourTurn      = errors.New("not this seat's turn")
	ErrNotInteractive   = errors.New("seat is not interactive")
	ErrPawnNotPlaced    = errors.New("interactive seat has not chosen a starting position")
	ErrRemoteDisabled   = errors.New("remote players are not enabled")
	ErrInvalidRoster    = errors.New("invalid roster")
	ErrInvalidMove      = errors.New("invalid move")
	ErrGameNotStarted   = errors.New("game not started")
	ErrGameAlreadyEnded = errors.New("game already ended")
)

// GameService defines all game-related operations
type GameService interface {
	// Game Management
	CreateGame(ctx context.Context, req CreateGameRequest) (*GameInfo, error)
	GetGame(ctx context.Context, gameID string) (*GameInfo, error)
	// GameExists reports whether gameID is live without waiting for its turn lock
	GameExists(ctx context.Context, gameID string) bool
	ListGames(ctx context.Context) ([]*GameInfo, error)
	DeleteGame(ctx context.Context, gameID string) error

	// Game Operations
	PlacePawn(ctx context.Context, gameID string, color engine.Color, pos engine.Position, index int) (*GameInfo, error)
	StartGame(ctx context.Context, gameID string) (*TurnReport, error)
	PlayTile(ctx context.Context, gameID string, color engine.Color, tileID, rotation int) (*TurnReport, error)
	Advance(ctx context.Context, gameID string) (*TurnReport, error)
	LegalMoves(ctx context.Context, gameID string, color engine.Color) (*LegalMoves, error)

	// Presets
	ListPresets(ctx context.Context) ([]*config.PresetInfo, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, eng *engine.GameEngine, preset string) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// PresetManager loads table presets
type PresetManager interface {
	LoadPreset(name string) (*config.Preset, error)
	ListPresets() ([]*config.PresetInfo, error)
}

// RemoteFactory builds the Player for a remote seat of a game. The returned
// player answers once a remote client connects for that seat.
type RemoteFactory func(gameID string, color engine.Color, name string) engine.Player

// Notifier receives game events for spectators
type Notifier interface {
	Publish(gameID string, state *engine.GameState, event GameEvent)
}

// Session represents an active game
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	Preset    string
	CreatedAt time.Time

	// lastAccessed is unix nanoseconds; it is read without the turn lock
	lastAccessed atomic.Int64

	// mu serializes turns; the engine is single-threaded
	mu    sync.Mutex
	ended bool
}

// Touch records t as the last access time
func (s *Session) Touch(t time.Time) { s.lastAccessed.Store(t.UnixNano()) }

// LastAccessed returns the last access time
func (s *Session) LastAccessed() time.Time { return time.Unix(0, s.lastAccessed.Load()) }

// Lock acquires the session's turn lock
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's turn lock
func (s *Session) Unlock() { s.mu.Unlock() }
