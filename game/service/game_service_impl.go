package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/metrics"
	"github.com/wricardo/tsuro-game/game/player"
)

// Options wires optional collaborators into the service
type Options struct {
	Logger   *zap.Logger
	Metrics  *metrics.Recorder
	Notifier Notifier
	Remote   RemoteFactory

	// DefaultSeed seeds games created without a seed; 0 means time-based
	DefaultSeed int64
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions    SessionManager
	presets     PresetManager
	logger      *zap.Logger
	metrics     *metrics.Recorder
	notifier    Notifier
	remote      RemoteFactory
	defaultSeed int64
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, presets PresetManager, opts Options) GameService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions:    sessions,
		presets:     presets,
		logger:      logger,
		metrics:     opts.Metrics,
		notifier:    opts.Notifier,
		remote:      opts.Remote,
		defaultSeed: opts.DefaultSeed,
	}
}

// CreateGame seats the requested roster in a new game. The game stays in
// setup until StartGame.
func (s *gameServiceImpl) CreateGame(ctx context.Context, req CreateGameRequest) (*GameInfo, error) {
	roster := req.Players
	seed := req.Seed
	presetID := ""

	if req.Preset != "" {
		preset, err := s.presets.LoadPreset(req.Preset)
		if err != nil {
			if errors.Is(err, config.ErrPresetNotFound) {
				available, listErr := s.presets.ListPresets()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, p := range available {
						ids = append(ids, p.ID)
					}
					return nil, fmt.Errorf("%w. Available presets: %v", err, ids)
				}
			}
			return nil, fmt.Errorf("failed to load preset %s: %w", req.Preset, err)
		}
		presetID = preset.ID
		if len(roster) == 0 {
			roster = preset.Players
		}
		if seed == 0 {
			seed = preset.Seed
		}
	}
	if seed == 0 {
		seed = s.defaultSeed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if err := config.ValidateRoster(roster); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	id := uuid.NewString()
	logger := s.logger.With(zap.String("game_id", id))
	eng := engine.NewEngine(engine.Options{Seed: seed, Logger: logger})

	// Automated strategies get their own source so the draw pile stays
	// reproducible for a given seed
	rng := rand.New(rand.NewSource(seed ^ 0x5f3759df))
	for i, spec := range roster {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			name = fmt.Sprintf("player-%d", i+1)
		}
		kind, err := engine.ParseSeatKind(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
		}

		var p engine.Player
		switch kind {
		case engine.SeatInteractive:
			p = player.NewInteractive(name)
		case engine.SeatRemote:
			if s.remote == nil {
				return nil, ErrRemoteDisabled
			}
			p = s.remote(id, engine.Color(i), name)
		default:
			p, err = player.New(name, spec.Strategy, rand.New(rand.NewSource(rng.Int63())))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
			}
		}
		if _, err := eng.AddPlayer(p, kind); err != nil {
			return nil, fmt.Errorf("failed to seat %s: %w", name, err)
		}
	}

	session, err := s.sessions.Create(id, eng, presetID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.metrics.GameCreated()
	logger.Info("game created", zap.String("preset", presetID), zap.Int64("seed", seed), zap.Int("players", len(roster)))

	info := s.info(session)
	s.publish(session.ID, &info.State, "created", "Game created", nil)
	return info, nil
}

// GetGame retrieves game information
func (s *gameServiceImpl) GetGame(ctx context.Context, gameID string) (*GameInfo, error) {
	session, err := s.session(gameID)
	if err != nil {
		return nil, err
	}
	session.Lock()
	defer session.Unlock()
	return s.info(session), nil
}

func (s *gameServiceImpl) GameExists(ctx context.Context, gameID string) bool {
	_, err := s.sessions.Get(gameID)
	return err == nil
}

// ListGames returns all games, oldest first
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	sessions := s.sessions.List()
	result := make([]*GameInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.info(sess))
		sess.Unlock()
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// DeleteGame removes a game
func (s *gameServiceImpl) DeleteGame(ctx context.Context, gameID string) error {
	session, err := s.session(gameID)
	if err != nil {
		return err
	}
	session.Lock()
	defer session.Unlock()

	if err := s.sessions.Delete(session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if session.Engine.Phase() == engine.PhaseInProgress {
		s.metrics.GameAbandoned()
	}
	s.logger.Info("game deleted", zap.String("game_id", session.ID))
	s.publish(session.ID, nil, "deleted", "Game deleted", nil)
	return nil
}

// PlacePawn stages the starting position of an interactive seat
func (s *gameServiceImpl) PlacePawn(ctx context.Context, gameID string, color engine.Color, pos engine.Position, index int) (*GameInfo, error) {
	session, err := s.session(gameID)
	if err != nil {
		return nil, err
	}
	session.Lock()
	defer session.Unlock()

	if session.Engine.Phase() != engine.PhaseSetup {
		return nil, fmt.Errorf("%w: pawns are placed before the game starts", engine.ErrWrongPhase)
	}
	interactive, _, err := s.interactiveSeat(session, color)
	if err != nil {
		return nil, err
	}
	tok, err := engine.NewToken(color, pos, index)
	if err != nil {
		return nil, err
	}
	if !tok.IsStartingPosition() {
		return nil, fmt.Errorf("%w: %s", engine.ErrIllegalStart, tok)
	}
	interactive.StagePawn(tok)

	s.logger.Debug("pawn staged", zap.String("game_id", session.ID), zap.Stringer("color", color), zap.Stringer("token", tok))
	return s.info(session), nil
}

// StartGame places pawns, deals hands and plays until an interactive seat
// must move
func (s *gameServiceImpl) StartGame(ctx context.Context, gameID string) (*TurnReport, error) {
	session, err := s.session(gameID)
	if err != nil {
		return nil, err
	}
	session.Lock()
	defer session.Unlock()

	eng := session.Engine
	if eng.Phase() != engine.PhaseSetup {
		return nil, fmt.Errorf("%w: game already started", engine.ErrWrongPhase)
	}

	kinds := make(map[engine.Color]engine.SeatKind)
	for _, seat := range eng.Seats() {
		kinds[seat.Color] = seat.Kind
		if seat.Kind != engine.SeatInteractive {
			continue
		}
		if p, ok := seat.Player.(*player.Interactive); ok && !p.HasPawn() {
			return nil, fmt.Errorf("%w: %s", ErrPawnNotPlaced, seat.Color)
		}
	}

	if err := eng.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}
	for _, seat := range eng.Seats() {
		if seat.Kind == engine.SeatReplaced {
			s.metrics.Cheat(kinds[seat.Color])
		}
	}
	s.metrics.GameStarted()

	state := eng.Snapshot()
	s.publish(session.ID, &state, "started", "Game started", nil)
	return s.advance(ctx, session, nil)
}

// PlayTile plays a tile for the interactive seat at the head of the queue.
// A proposal that breaks the rules replaces the seat with an automated
// player, exactly like any other seat.
func (s *gameServiceImpl) PlayTile(ctx context.Context, gameID string, color engine.Color, tileID, rotation int) (*TurnReport, error) {
	session, err := s.session(gameID)
	if err != nil {
		return nil, err
	}
	session.Lock()
	defer session.Unlock()

	if err := checkInProgress(session.Engine); err != nil {
		return nil, err
	}
	current, err := session.Engine.Current()
	if err != nil {
		return nil, err
	}
	if current.Color != color {
		return nil, fmt.Errorf("%w: waiting for %s", ErrNotYourTurn, current.Color)
	}
	interactive, seat, err := s.interactiveSeat(session, color)
	if err != nil {
		return nil, err
	}

	if rotation < 0 || rotation >= engine.Rotations {
		return nil, fmt.Errorf("%w: rotation %d", ErrInvalidMove, rotation)
	}
	tile, err := engine.TileByID(tileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	interactive.StageTile(tile.Rotated(rotation))

	proposal, err := interactive.PlayTurn(ctx, session.Engine.Board(), seat.Hand.Tiles(), session.Engine.PileSize())
	if err != nil {
		return nil, err
	}
	result, err := session.Engine.PlayTurn(ctx, proposal)
	if err != nil {
		return nil, fmt.Errorf("failed to play turn: %w", err)
	}
	s.recordTurn(session, result, engine.SeatInteractive)

	return s.advance(ctx, session, []*engine.TurnResult{result})
}

// Advance plays automated and remote turns until an interactive seat is at
// the head of the queue or the game ends
func (s *gameServiceImpl) Advance(ctx context.Context, gameID string) (*TurnReport, error) {
	session, err := s.session(gameID)
	if err != nil {
		return nil, err
	}
	session.Lock()
	defer session.Unlock()

	if session.Engine.Phase() == engine.PhaseSetup {
		return nil, ErrGameNotStarted
	}
	return s.advance(ctx, session, nil)
}

// LegalMoves lists the orientations a seat may legally play
func (s *gameServiceImpl) LegalMoves(ctx context.Context, gameID string, color engine.Color) (*LegalMoves, error) {
	session, err := s.session(gameID)
	if err != nil {
		return nil, err
	}
	session.Lock()
	defer session.Unlock()

	if err := checkInProgress(session.Engine); err != nil {
		return nil, err
	}
	plays, err := session.Engine.LegalPlays(color)
	if err != nil {
		return nil, err
	}
	board := session.Engine.Board()
	tok, ok := board.Token(color)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrTokenNotFound, color)
	}

	moves := &LegalMoves{
		GameID: session.ID,
		Color:  color,
		Target: board.AdjacentCell(tok),
		Tiles:  make([]engine.TileView, 0, len(plays)),
	}
	for _, t := range plays {
		moves.Tiles = append(moves.Tiles, t.View())
	}
	return moves, nil
}

// ListPresets returns all available presets
func (s *gameServiceImpl) ListPresets(ctx context.Context) ([]*config.PresetInfo, error) {
	return s.presets.ListPresets()
}

// advance drives non-interactive seats. The caller holds the session lock.
func (s *gameServiceImpl) advance(ctx context.Context, session *Session, turns []*engine.TurnResult) (*TurnReport, error) {
	eng := session.Engine
	logger := s.logger.With(zap.String("game_id", session.ID))

	for !eng.IsGameOver() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seat, err := eng.Current()
		if err != nil {
			return nil, err
		}
		if seat.Kind == engine.SeatInteractive {
			break
		}

		kind := seat.Kind
		tile, err := seat.Player.PlayTurn(ctx, eng.Board(), seat.Hand.Tiles(), eng.PileSize())
		if err != nil {
			// No answer counts as breaking the rules
			logger.Warn("player failed to choose a tile", zap.String("player", seat.Name), zap.Error(err))
			if err := eng.ReplaceSeat(ctx, seat.Color, err.Error()); err != nil {
				return nil, err
			}
			s.metrics.Cheat(kind)
			kind = seat.Kind
			tile, err = seat.Player.PlayTurn(ctx, eng.Board(), seat.Hand.Tiles(), eng.PileSize())
			if err != nil {
				return nil, fmt.Errorf("%w: fallback failed to play: %v", engine.ErrInvariant, err)
			}
		}

		result, err := eng.PlayTurn(ctx, tile)
		if err != nil {
			logger.Error("turn failed", zap.String("player", seat.Name), zap.Error(err))
			return nil, fmt.Errorf("failed to play turn: %w", err)
		}
		s.recordTurn(session, result, kind)
		turns = append(turns, result)
	}

	if eng.IsGameOver() && !session.ended {
		session.ended = true
		if err := eng.EndGame(ctx); err != nil {
			logger.Warn("failed to notify players", zap.Error(err))
		}
		s.metrics.GameFinished(len(eng.Winners()), eng.Board().TileCount())
		state := eng.Snapshot()
		s.publish(session.ID, &state, "game_over", fmt.Sprintf("Winners: %v", eng.WinnerColors()), eng.WinnerColors())
	}

	report := &TurnReport{
		GameID: session.ID,
		Turns:  turns,
		State:  eng.Snapshot(),
	}
	if report.Turns == nil {
		report.Turns = []*engine.TurnResult{}
	}
	if !eng.IsGameOver() {
		if seat, err := eng.Current(); err == nil {
			c := seat.Color
			report.Waiting = &c
			report.Message = fmt.Sprintf("Waiting for %s (%s)", seat.Name, c)
		}
	} else {
		report.Message = "Game over"
	}
	return report, nil
}

func (s *gameServiceImpl) recordTurn(session *Session, result *engine.TurnResult, kind engine.SeatKind) {
	s.metrics.Turn(result, kind)
	state := session.Engine.Snapshot()
	s.publish(session.ID, &state, "turn", fmt.Sprintf("%s placed tile %d at %s", result.Color, result.Tile.ID, result.Position), result)
}

func (s *gameServiceImpl) session(gameID string) (*Session, error) {
	session, err := s.sessions.Get(gameID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	_ = s.sessions.UpdateLastAccessed(session.ID)
	return session, nil
}

func (s *gameServiceImpl) interactiveSeat(session *Session, color engine.Color) (*player.Interactive, *engine.Seat, error) {
	seat, err := session.Engine.Seat(color)
	if err != nil {
		return nil, nil, err
	}
	p, ok := seat.Player.(*player.Interactive)
	if seat.Kind != engine.SeatInteractive || !ok {
		return nil, nil, fmt.Errorf("%w: %s is %s", ErrNotInteractive, color, seat.Kind)
	}
	return p, seat, nil
}

func (s *gameServiceImpl) info(session *Session) *GameInfo {
	return &GameInfo{
		ID:             session.ID,
		Preset:         session.Preset,
		Seed:           session.Engine.Seed(),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		State:          session.Engine.Snapshot(),
	}
}

func (s *gameServiceImpl) publish(gameID string, state *engine.GameState, kind, message string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(gameID, state, GameEvent{
		Type:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func checkInProgress(eng *engine.GameEngine) error {
	switch eng.Phase() {
	case engine.PhaseSetup:
		return ErrGameNotStarted
	case engine.PhaseGameOver:
		return fmt.Errorf("%w: %v", ErrGameAlreadyEnded, engine.ErrGameOver)
	}
	return nil
}
