package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Seat binds a player to a color and a hand. The player may be swapped for
// the fallback when caught cheating; the seat itself never changes.
type Seat struct {
	Name           string
	Color          Color
	Kind           SeatKind
	Player         Player
	Hand           *Hand
	ReplacedReason string

	// Final is the resting token of an eliminated seat
	Final *Token
}

// Options configures a GameEngine
type Options struct {
	// Seed drives the draw pile and the default fallback; 0 picks a time-based seed
	Seed     int64
	Logger   *zap.Logger
	Fallback FallbackFunc

	// Deck and Board override the shuffled catalogue and the empty grid
	Deck  *Deck
	Board *Board
}

// GameEngine owns one game: the board, the draw pile, the seats and the turn
// queues. It is single-threaded; callers serialize access.
type GameEngine struct {
	board      *Board
	deck       *Deck
	rng        *rand.Rand
	seed       int64
	seats      []*Seat
	active     []*Seat
	eliminated []*Seat
	winners    []*Seat
	dragon     *Seat
	phase      Phase
	turn       int
	fallback   FallbackFunc
	logger     *zap.Logger
}

// NewEngine creates an engine in the setup phase
func NewEngine(opts Options) *GameEngine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &GameEngine{
		board:  opts.Board,
		deck:   opts.Deck,
		rng:    rng,
		seed:   seed,
		phase:  PhaseSetup,
		logger: logger,
	}
	if e.board == nil {
		e.board = NewBoard()
	}
	if e.deck == nil {
		e.deck = NewDeck(rand.New(rand.NewSource(rng.Int63())))
	}
	e.fallback = opts.Fallback
	if e.fallback == nil {
		e.fallback = func(name string) Player {
			return NewAutoPlayer(name, rand.New(rand.NewSource(rng.Int63())))
		}
	}
	return e
}

// AddPlayer seats a player during setup. Colors follow join order.
func (e *GameEngine) AddPlayer(p Player, kind SeatKind) (*Seat, error) {
	if e.phase != PhaseSetup {
		return nil, fmt.Errorf("%w: cannot add players in %s", ErrWrongPhase, e.phase)
	}
	if len(e.seats) >= MaxPlayers {
		return nil, ErrTooManyPlayers
	}
	seat := &Seat{
		Name:   p.Name(),
		Color:  Color(len(e.seats)),
		Kind:   kind,
		Player: p,
		Hand:   NewHand(),
	}
	e.seats = append(e.seats, seat)
	return seat, nil
}

// Start initializes every player, places pawns and deals starting hands.
// Players that fail to initialize or ask for an illegal starting position are
// replaced by the fallback.
func (e *GameEngine) Start(ctx context.Context) error {
	if e.phase != PhaseSetup {
		return fmt.Errorf("%w: game already started", ErrWrongPhase)
	}
	if len(e.seats) < MinPlayers {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPlayers, len(e.seats), MinPlayers)
	}

	order := e.colorOrder()
	for _, seat := range e.seats {
		if err := seat.Player.Initialize(ctx, seat.Color, order); err != nil {
			if err := e.ReplaceSeat(ctx, seat.Color, fmt.Sprintf("initialize failed: %v", err)); err != nil {
				return err
			}
		}
	}

	// pawns go on a copy so a failed start leaves the board untouched
	board := e.board.Clone()
	tokens := make([]Token, len(e.seats))
	for i, seat := range e.seats {
		tok, err := seat.Player.PlacePawn(ctx, board.Clone())
		if reason := startViolation(board, seat, tok, err); reason != "" {
			if err := e.ReplaceSeat(ctx, seat.Color, reason); err != nil {
				return err
			}
			tok, err = seat.Player.PlacePawn(ctx, board.Clone())
			if reason := startViolation(board, seat, tok, err); reason != "" {
				return fmt.Errorf("%w: fallback pawn for %s: %s", ErrInvariant, seat.Color, reason)
			}
		}
		if err := board.PlaceToken(tok); err != nil {
			return fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		tokens[i] = tok
	}

	e.board = board
	for i, seat := range e.seats {
		e.active = append(e.active, seat)
		for j := 0; j < StartingHandSize; j++ {
			t, err := e.deck.Draw()
			if errors.Is(err, ErrEmptyPile) {
				e.giveDragon(seat)
				break
			}
			seat.Hand.Add(t)
		}
		e.logger.Info("player seated",
			zap.String("player", seat.Name),
			zap.Stringer("color", seat.Color),
			zap.Stringer("kind", seat.Kind),
			zap.Stringer("token", tokens[i]),
		)
	}

	e.phase = PhaseInProgress
	e.logger.Info("game started",
		zap.Int("players", len(e.seats)),
		zap.Int("pile", e.deck.Len()),
		zap.Int64("seed", e.seed),
	)
	return e.CheckInvariants()
}

// Resume starts a game from an arbitrary position: a prepared board with one
// token per seat, prepared hands, and the engine's deck. Seats keep the
// order given, which becomes the turn order.
func (e *GameEngine) Resume(seats []*Seat) error {
	if e.phase != PhaseSetup {
		return fmt.Errorf("%w: game already started", ErrWrongPhase)
	}
	if len(seats) > MaxPlayers {
		return ErrTooManyPlayers
	}
	for _, seat := range seats {
		if _, ok := e.board.Token(seat.Color); !ok {
			return fmt.Errorf("%w: %s", ErrTokenNotFound, seat.Color)
		}
		if seat.Hand == nil {
			seat.Hand = NewHand()
		}
	}
	e.seats = append([]*Seat(nil), seats...)
	e.active = append([]*Seat(nil), seats...)
	e.phase = PhaseInProgress
	return e.CheckInvariants()
}

func startViolation(board *Board, seat *Seat, tok Token, err error) string {
	switch {
	case err != nil:
		return fmt.Sprintf("place pawn failed: %v", err)
	case tok.Color != seat.Color:
		return fmt.Sprintf("pawn color %s does not match seat %s", tok.Color, seat.Color)
	case !tok.IsStartingPosition():
		return fmt.Sprintf("illegal starting position %s", tok)
	}
	if other, taken := board.TokenAt(tok.Pos, tok.Index); taken {
		return fmt.Sprintf("starting position %s already taken by %s", tok, other.Color)
	}
	return ""
}

// ReplaceSeat swaps a seat's player for the fallback for the rest of the game
func (e *GameEngine) ReplaceSeat(ctx context.Context, color Color, reason string) error {
	seat, err := e.Seat(color)
	if err != nil {
		return err
	}
	fb := e.fallback(seat.Name)
	if err := fb.Initialize(ctx, seat.Color, e.colorOrder()); err != nil {
		return fmt.Errorf("%w: fallback initialize: %v", ErrInvariant, err)
	}
	e.logger.Warn("player caught cheating, replaced by automated player",
		zap.String("player", seat.Name),
		zap.Stringer("color", seat.Color),
		zap.Stringer("kind", seat.Kind),
		zap.String("reason", reason),
	)
	seat.Player = fb
	seat.Kind = SeatReplaced
	seat.ReplacedReason = reason
	return nil
}

func (e *GameEngine) colorOrder() []Color {
	order := make([]Color, len(e.seats))
	for i, s := range e.seats {
		order[i] = s.Color
	}
	return order
}

// EndGame notifies every player of the winners. Notification failures are logged.
func (e *GameEngine) EndGame(ctx context.Context) error {
	if e.phase != PhaseGameOver {
		return fmt.Errorf("%w: game not over", ErrWrongPhase)
	}
	winners := e.WinnerColors()
	for _, seat := range e.seats {
		if err := seat.Player.EndGame(ctx, e.board.Clone(), winners); err != nil {
			e.logger.Warn("end game notification failed",
				zap.String("player", seat.Name),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Phase returns the lifecycle phase
func (e *GameEngine) Phase() Phase {
	return e.phase
}

// IsGameOver reports whether winners have been decided
func (e *GameEngine) IsGameOver() bool {
	return e.phase == PhaseGameOver
}

// TurnNumber returns the number of turns played
func (e *GameEngine) TurnNumber() int {
	return e.turn
}

// Seed returns the seed the engine was built with
func (e *GameEngine) Seed() int64 {
	return e.seed
}

// Board returns a copy of the board
func (e *GameEngine) Board() *Board {
	return e.board.Clone()
}

// PileSize returns the number of tiles left to draw
func (e *GameEngine) PileSize() int {
	return e.deck.Len()
}

// Current returns the seat at the head of the active queue
func (e *GameEngine) Current() (*Seat, error) {
	if e.phase != PhaseInProgress || len(e.active) == 0 {
		return nil, fmt.Errorf("%w: no current player in %s", ErrWrongPhase, e.phase)
	}
	return e.active[0], nil
}

// Seat returns the seat for color
func (e *GameEngine) Seat(color Color) (*Seat, error) {
	for _, s := range e.seats {
		if s.Color == color {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSeatNotFound, color)
}

// Seats returns every seat in join order
func (e *GameEngine) Seats() []*Seat {
	return append([]*Seat(nil), e.seats...)
}

// Active returns the in-game seats in turn order
func (e *GameEngine) Active() []*Seat {
	return append([]*Seat(nil), e.active...)
}

// Eliminated returns eliminated seats in elimination order
func (e *GameEngine) Eliminated() []*Seat {
	return append([]*Seat(nil), e.eliminated...)
}

// Winners returns the winners once the game is over
func (e *GameEngine) Winners() []*Seat {
	return append([]*Seat(nil), e.winners...)
}

// WinnerColors returns the winners' colors
func (e *GameEngine) WinnerColors() []Color {
	colors := make([]Color, 0, len(e.winners))
	for _, s := range e.winners {
		colors = append(colors, s.Color)
	}
	return colors
}

// DragonHolder returns the seat holding the dragon tile, if any
func (e *GameEngine) DragonHolder() (*Seat, bool) {
	return e.dragon, e.dragon != nil
}

// LegalPlays lists the legal tile orientations for the seat of color
func (e *GameEngine) LegalPlays(color Color) ([]Tile, error) {
	seat, err := e.Seat(color)
	if err != nil {
		return nil, err
	}
	tok, ok := e.board.Token(color)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, color)
	}
	return LegalPlays(e.board, tok, seat.Hand.Tiles()), nil
}

// CheckInvariants verifies that every tile lives in exactly one of the board,
// the pile or a single hand, that hands hold at most MaxHandSize tiles and that
// every tile comes from the catalogue.
func (e *GameEngine) CheckInvariants() error {
	type zone struct {
		name  string
		tiles []Tile
	}
	zones := []zone{{name: "board"}, {name: "pile", tiles: e.deck.Tiles()}}
	for _, p := range e.board.Tiles() {
		zones[0].tiles = append(zones[0].tiles, p.Tile)
	}
	for _, s := range e.seats {
		if s.Hand.Len() > MaxHandSize {
			return fmt.Errorf("%w: %s holds %d tiles", ErrInvariant, s.Color, s.Hand.Len())
		}
		zones = append(zones, zone{name: "hand of " + s.Color.String(), tiles: s.Hand.Tiles()})
	}

	var seen []Tile
	var owner []string
	for _, z := range zones {
		for _, t := range z.tiles {
			if !InCatalogue(t) {
				return fmt.Errorf("%w: %s in %s is not a catalogue tile", ErrInvariant, t, z.name)
			}
			for i, other := range seen {
				if other.IsSameShape(t) {
					return fmt.Errorf("%w: %s found in both %s and %s", ErrInvariant, t, owner[i], z.name)
				}
			}
			seen = append(seen, t)
			owner = append(owner, z.name)
		}
	}
	return nil
}
