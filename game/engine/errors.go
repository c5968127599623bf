package engine

import "errors"

var (
	// Out-of-range input
	ErrInvalidEdgePoint = errors.New("invalid edge point")
	ErrOutOfGrid        = errors.New("position outside the grid")
	ErrCellOccupied     = errors.New("cell already holds a tile")
	ErrCellEmpty        = errors.New("cell holds no tile")
	ErrInvalidTile      = errors.New("paths do not form a perfect matching")
	ErrUnknownTile      = errors.New("unknown tile")
	ErrInvalidColor     = errors.New("invalid color")
	ErrInvalidSeatKind  = errors.New("invalid seat kind")

	// Tokens
	ErrTokenCollision   = errors.New("another token already occupies that position")
	ErrTokenNotFound    = errors.New("token not on board")
	ErrIllegalStart     = errors.New("illegal starting position")
	ErrDuplicateToken   = errors.New("token for this color already on board")
	ErrNoStartAvailable = errors.New("no free starting position")

	// Draw pile
	ErrEmptyPile = errors.New("draw pile is empty")

	// Lifecycle
	ErrWrongPhase        = errors.New("operation not allowed in current phase")
	ErrGameOver          = errors.New("game is over")
	ErrTooManyPlayers    = errors.New("too many players")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrSeatNotFound      = errors.New("seat not found")
	ErrNoLegalPlay       = errors.New("no legal play available")
	ErrPlayerUnavailable = errors.New("player did not provide a decision")

	// ErrInvariant marks an internal-consistency failure. It indicates an
	// engine bug, never a player fault, and is always returned to the caller.
	ErrInvariant = errors.New("engine invariant violated")
)
