package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/metrics"
	"github.com/wricardo/tsuro-game/game/service"
	"github.com/wricardo/tsuro-game/game/session"
)

var errSessionNotFound = errors.New("session not found")

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{sessions: make(map[string]*service.Session)}
}

func (m *MockSessionManager) Create(id string, eng *engine.GameEngine, preset string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}
	session := &service.Session{
		ID:        id,
		Engine:    eng,
		Preset:    preset,
		CreatedAt: time.Now(),
	}
	session.Touch(time.Now())
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, errSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, exists := m.sessions[id]; exists {
		session.Touch(time.Now())
		return nil
	}
	return errSessionNotFound
}

// recordingNotifier collects published event types
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(gameID string, state *engine.GameState, event service.GameEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event.Type)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

// silentPlayer never answers a turn, like a remote client that went away
type silentPlayer struct {
	*engine.AutoPlayer
}

func (p *silentPlayer) PlayTurn(context.Context, *engine.Board, []engine.Tile, int) (engine.Tile, error) {
	return engine.Tile{}, errors.New("remote player timed out")
}

func newTestService(t *testing.T, opts service.Options) (service.GameService, *MockSessionManager) {
	t.Helper()
	presets, err := config.NewManager("", nil)
	require.NoError(t, err)
	sessions := NewMockSessionManager()
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	return service.NewGameService(sessions, presets, opts), sessions
}

func TestGameService_CreateGame(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, service.Options{})

	tests := []struct {
		name    string
		req     service.CreateGameRequest
		players int
		wantErr error
	}{
		{
			name:    "preset",
			req:     service.CreateGameRequest{Preset: "quartet", Seed: 3},
			players: 4,
		},
		{
			name: "explicit roster",
			req: service.CreateGameRequest{Players: []config.PlayerSpec{
				{Name: "a", Kind: "automated"},
				{Name: "b", Kind: "interactive"},
				{Kind: "automated", Strategy: "first"},
			}},
			players: 3,
		},
		{
			name:    "unknown preset",
			req:     service.CreateGameRequest{Preset: "nope"},
			wantErr: config.ErrPresetNotFound,
		},
		{
			name:    "single player",
			req:     service.CreateGameRequest{Players: []config.PlayerSpec{{Name: "solo"}}},
			wantErr: service.ErrInvalidRoster,
		},
		{
			name: "remote without factory",
			req: service.CreateGameRequest{Players: []config.PlayerSpec{
				{Name: "a", Kind: "remote"}, {Name: "b"},
			}},
			wantErr: service.ErrRemoteDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateGame(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, info.ID)
			assert.Equal(t, engine.PhaseSetup, info.State.Phase)
			assert.Len(t, info.State.Seats, tt.players)
			assert.Equal(t, tt.req.Preset, info.Preset)
		})
	}

	t.Run("default names", func(t *testing.T) {
		info, err := svc.CreateGame(ctx, service.CreateGameRequest{Players: []config.PlayerSpec{{}, {}}})
		require.NoError(t, err)
		assert.Equal(t, "player-1", info.State.Seats[0].Name)
		assert.Equal(t, engine.Red, info.State.Seats[1].Color)
	})
}

func TestGameService_AutomatedGame(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc, _ := newTestService(t, service.Options{
		Notifier: notifier,
		Metrics:  metrics.NewRecorder(prometheus.NewRegistry()),
	})

	info, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "quartet", Seed: 11})
	require.NoError(t, err)

	_, err = svc.Advance(ctx, info.ID)
	assert.ErrorIs(t, err, service.ErrGameNotStarted)

	report, err := svc.StartGame(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseGameOver, report.State.Phase)
	assert.NotEmpty(t, report.Turns)
	assert.NotEmpty(t, report.State.Winners)
	assert.Nil(t, report.Waiting)
	assert.Equal(t, len(report.Turns), report.State.Turn)

	last := report.Turns[len(report.Turns)-1]
	assert.True(t, last.GameOver)
	assert.Equal(t, report.State.Winners, last.Winners)

	_, err = svc.StartGame(ctx, info.ID)
	assert.ErrorIs(t, err, engine.ErrWrongPhase)

	again, err := svc.Advance(ctx, info.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Turns)

	_, err = svc.LegalMoves(ctx, info.ID, engine.Blue)
	assert.ErrorIs(t, err, service.ErrGameAlreadyEnded)

	events := notifier.types()
	require.NotEmpty(t, events)
	assert.Equal(t, "created", events[0])
	assert.Equal(t, "started", events[1])
	assert.Contains(t, events, "turn")
	assert.Equal(t, "game_over", events[len(events)-1])
}

func TestGameService_SeedIsReproducible(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, service.Options{})

	play := func() *service.TurnReport {
		info, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "full-table", Seed: 1234})
		require.NoError(t, err)
		report, err := svc.StartGame(ctx, info.ID)
		require.NoError(t, err)
		return report
	}

	first, second := play(), play()
	assert.Equal(t, first.State.Board, second.State.Board)
	assert.Equal(t, first.State.Winners, second.State.Winners)
	assert.Equal(t, len(first.Turns), len(second.Turns))
}

func TestGameService_InteractiveGame(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, service.Options{})

	info, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "duel", Seed: 5})
	require.NoError(t, err)
	require.Equal(t, engine.SeatInteractive, info.State.Seats[0].Kind)

	_, err = svc.StartGame(ctx, info.ID)
	assert.ErrorIs(t, err, service.ErrPawnNotPlaced)

	_, err = svc.PlacePawn(ctx, info.ID, engine.Red, engine.Position{X: -1, Y: 0}, 2)
	assert.ErrorIs(t, err, service.ErrNotInteractive)
	_, err = svc.PlacePawn(ctx, info.ID, engine.Blue, engine.Position{X: 0, Y: 0}, 0)
	assert.ErrorIs(t, err, engine.ErrIllegalStart)
	_, err = svc.PlacePawn(ctx, info.ID, engine.Blue, engine.Position{X: -1, Y: 2}, 9)
	assert.ErrorIs(t, err, engine.ErrInvalidEdgePoint)

	start := engine.PhantomPositions(engine.Blue)[0]
	_, err = svc.PlacePawn(ctx, info.ID, engine.Blue, start.Pos, start.Index)
	require.NoError(t, err)

	report, err := svc.StartGame(ctx, info.ID)
	require.NoError(t, err)
	require.NotNil(t, report.Waiting)
	assert.Equal(t, engine.Blue, *report.Waiting)
	assert.Empty(t, report.Turns)
	require.NotNil(t, report.State.Seats[0].Token)
	assert.Equal(t, start, *report.State.Seats[0].Token)

	_, err = svc.PlacePawn(ctx, info.ID, engine.Blue, start.Pos, start.Index)
	assert.ErrorIs(t, err, engine.ErrWrongPhase)
	_, err = svc.PlayTile(ctx, info.ID, engine.Red, 0, 0)
	assert.ErrorIs(t, err, service.ErrNotYourTurn)
	_, err = svc.PlayTile(ctx, info.ID, engine.Blue, 0, 7)
	assert.ErrorIs(t, err, service.ErrInvalidMove)
	_, err = svc.PlayTile(ctx, info.ID, engine.Blue, 99, 0)
	assert.ErrorIs(t, err, service.ErrInvalidMove)

	for report.Waiting != nil {
		require.Equal(t, engine.Blue, *report.Waiting)
		moves, err := svc.LegalMoves(ctx, info.ID, engine.Blue)
		require.NoError(t, err)
		require.NotEmpty(t, moves.Tiles)

		choice := moves.Tiles[0]
		report, err = svc.PlayTile(ctx, info.ID, engine.Blue, choice.ID, choice.Rotation)
		require.NoError(t, err)
		require.NotEmpty(t, report.Turns)
		assert.Equal(t, engine.Blue, report.Turns[0].Color)
		assert.False(t, report.Turns[0].Cheated)
		assert.Equal(t, moves.Target, report.Turns[0].Position)
	}

	assert.Equal(t, engine.PhaseGameOver, report.State.Phase)
	assert.Equal(t, engine.SeatInteractive, report.State.Seats[0].Kind)
}

func TestGameService_InteractiveCheatIsReplaced(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, service.Options{})

	info, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "duel", Seed: 8})
	require.NoError(t, err)
	start := engine.PhantomPositions(engine.Blue)[3]
	_, err = svc.PlacePawn(ctx, info.ID, engine.Blue, start.Pos, start.Index)
	require.NoError(t, err)
	report, err := svc.StartGame(ctx, info.ID)
	require.NoError(t, err)

	held := make(map[int]bool)
	for _, tv := range report.State.Seats[0].Hand {
		held[tv.ID] = true
	}
	notHeld := -1
	for _, tile := range engine.Catalogue() {
		if !held[tile.ID] {
			notHeld = tile.ID
			break
		}
	}
	require.NotEqual(t, -1, notHeld)

	report, err = svc.PlayTile(ctx, info.ID, engine.Blue, notHeld, 0)
	require.NoError(t, err)
	require.NotEmpty(t, report.Turns)
	assert.True(t, report.Turns[0].Cheated)
	assert.NotEmpty(t, report.Turns[0].CheatReason)

	// Nobody interactive is left, so the game runs to the end
	assert.Equal(t, engine.PhaseGameOver, report.State.Phase)
	assert.Equal(t, engine.SeatReplaced, report.State.Seats[0].Kind)
	assert.NotEmpty(t, report.State.Seats[0].ReplacedReason)
}

func TestGameService_UnresponsiveRemoteIsReplaced(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, service.Options{
		Metrics: metrics.NewRecorder(prometheus.NewRegistry()),
		Remote: func(gameID string, color engine.Color, name string) engine.Player {
			return &silentPlayer{AutoPlayer: engine.NewAutoPlayer(name, nil)}
		},
	})

	info, err := svc.CreateGame(ctx, service.CreateGameRequest{
		Seed: 2,
		Players: []config.PlayerSpec{
			{Name: "far", Kind: "remote"},
			{Name: "near", Kind: "automated"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, engine.SeatRemote, info.State.Seats[0].Kind)

	report, err := svc.StartGame(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseGameOver, report.State.Phase)
	assert.Equal(t, engine.SeatReplaced, report.State.Seats[0].Kind)
	assert.Contains(t, report.State.Seats[0].ReplacedReason, "timed out")
}

func TestGameService_GetListDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, service.Options{})

	first, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "duel"})
	require.NoError(t, err)
	second, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "quartet"})
	require.NoError(t, err)

	got, err := svc.GetGame(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "duel", got.Preset)

	games, err := svc.ListGames(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 2)

	require.NoError(t, svc.DeleteGame(ctx, first.ID))
	_, err = svc.GetGame(ctx, first.ID)
	assert.ErrorIs(t, err, errSessionNotFound)
	assert.Error(t, svc.DeleteGame(ctx, first.ID))

	games, err = svc.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, second.ID, games[0].ID)

	presets, err := svc.ListPresets(ctx)
	require.NoError(t, err)
	assert.Len(t, presets, 3)
}

func TestGameService_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	presets, err := config.NewManager("", nil)
	require.NoError(t, err)
	sessions := session.NewManager(nil)
	svc := service.NewGameService(sessions, presets, service.Options{Logger: zaptest.NewLogger(t)})

	info, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "duel", Seed: 5})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := svc.GetGame(ctx, info.ID)
				if !assert.NoError(t, err) {
					return
				}
				assert.False(t, got.LastAccessedAt.Before(info.CreatedAt))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			sessions.CleanupExpiredSessions(time.Hour)
		}
	}()
	wg.Wait()

	sess, err := sessions.Get(info.ID)
	require.NoError(t, err)
	assert.False(t, sess.LastAccessed().Before(info.LastAccessedAt))
}
