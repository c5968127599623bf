package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/metrics"
	"github.com/wricardo/tsuro-game/game/service"
	"github.com/wricardo/tsuro-game/game/session"
	ws "github.com/wricardo/tsuro-game/transport/websocket"
)

// Test helpers
func setupTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	presets, err := config.NewManager("", logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	hub := ws.NewHub(logger)
	remotes := ws.NewRemotes(100*time.Millisecond, logger)
	svc := service.NewGameService(session.NewManager(logger), presets, service.Options{
		Logger:   logger,
		Metrics:  metrics.NewRecorder(registry),
		Notifier: hub,
		Remote:   remotes.NewPlayer,
	})
	return NewServer(svc, hub, Options{
		Logger:  logger,
		Remotes: remotes,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func createGame(t *testing.T, s *Server, req service.CreateGameRequest) *service.GameInfo {
	t.Helper()
	w := doRequest(t, s, "POST", "/api/games", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info service.GameInfo
	decode(t, w, &info)
	return &info
}

func TestServer_HandleCreateGame(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantSeats  int
	}{
		{"default preset", nil, http.StatusCreated, 2},
		{"named preset", service.CreateGameRequest{Preset: "quartet"}, http.StatusCreated, 4},
		{"roster", service.CreateGameRequest{Players: []config.PlayerSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}}}, http.StatusCreated, 3},
		{"unknown preset", service.CreateGameRequest{Preset: "missing"}, http.StatusNotFound, 0},
		{"one player", service.CreateGameRequest{Players: []config.PlayerSpec{{Name: "a"}}}, http.StatusBadRequest, 0},
		{"bad kind", service.CreateGameRequest{Players: []config.PlayerSpec{{Kind: "alien"}, {}}}, http.StatusBadRequest, 0},
		{"bad body", "not an object", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, "POST", "/api/games", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusCreated {
				var body map[string]interface{}
				decode(t, w, &body)
				assert.NotEmpty(t, body["error"])
				assert.EqualValues(t, tt.wantStatus, body["code"])
				return
			}
			var info service.GameInfo
			decode(t, w, &info)
			assert.NotEmpty(t, info.ID)
			assert.Equal(t, engine.PhaseSetup, info.State.Phase)
			assert.Len(t, info.State.Seats, tt.wantSeats)
		})
	}
}

func TestServer_GameLifecycle(t *testing.T) {
	s := setupTestServer(t)
	info := createGame(t, s, service.CreateGameRequest{Preset: "quartet", Seed: 21})

	w := doRequest(t, s, "GET", "/api/games/"+info.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, "POST", "/api/games/"+info.ID+"/advance", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, s, "POST", "/api/games/"+info.ID+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report service.TurnReport
	decode(t, w, &report)
	assert.Equal(t, engine.PhaseGameOver, report.State.Phase)
	assert.NotEmpty(t, report.Turns)
	assert.NotEmpty(t, report.State.Winners)
	assert.Equal(t, "Game over", report.Message)

	w = doRequest(t, s, "POST", "/api/games/"+info.ID+"/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, s, "GET", "/api/games?phase=game_over", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Games []service.GameInfo `json:"games"`
		Count int                `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = doRequest(t, s, "GET", "/api/games?phase=setup", nil)
	decode(t, w, &list)
	assert.Equal(t, 0, list.Count)

	w = doRequest(t, s, "GET", "/api/games?phase=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, s, "DELETE", "/api/games/"+info.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, s, "GET", "/api/games/"+info.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(t, s, "DELETE", "/api/games/"+info.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_InteractiveGame(t *testing.T) {
	s := setupTestServer(t)
	info := createGame(t, s, service.CreateGameRequest{Preset: "duel", Seed: 5})
	base := "/api/games/" + info.ID

	w := doRequest(t, s, "POST", base+"/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "pawn not placed yet")

	w = doRequest(t, s, "POST", base+"/pawn", map[string]interface{}{
		"color": "blue", "position": map[string]int{"x": 2, "y": 2}, "index": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, s, "POST", base+"/pawn", map[string]interface{}{
		"color": "mauve", "position": map[string]int{"x": -1, "y": 0}, "index": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	start := engine.PhantomPositions(engine.Blue)[0]
	w = doRequest(t, s, "POST", base+"/pawn", PlacePawnRequest{Color: engine.Blue, Position: start.Pos, Index: start.Index})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, s, "POST", base+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report service.TurnReport
	decode(t, w, &report)
	require.NotNil(t, report.Waiting)
	assert.Equal(t, engine.Blue, *report.Waiting)

	w = doRequest(t, s, "POST", base+"/turn", map[string]interface{}{"color": "blue"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "tile_id is required")

	w = doRequest(t, s, "POST", base+"/turn", map[string]interface{}{"color": "red", "tile_id": 0})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(t, s, "GET", base+"/legal-moves", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for report.Waiting != nil {
		w = doRequest(t, s, "GET", base+"/legal-moves?color=blue", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var moves service.LegalMoves
		decode(t, w, &moves)
		require.NotEmpty(t, moves.Tiles)

		choice := moves.Tiles[0]
		w = doRequest(t, s, "POST", base+"/turn", PlayTileRequest{Color: engine.Blue, TileID: &choice.ID, Rotation: choice.Rotation})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		report = service.TurnReport{}
		decode(t, w, &report)
	}
	assert.Equal(t, engine.PhaseGameOver, report.State.Phase)

	w = doRequest(t, s, "GET", base+"/legal-moves?color=blue", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_ReferenceData(t *testing.T) {
	s := setupTestServer(t)

	w := doRequest(t, s, "GET", "/api/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var presets []config.PresetInfo
	decode(t, w, &presets)
	ids := make([]string, 0, len(presets))
	for _, p := range presets {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"duel", "full-table", "quartet"}, ids)

	w = doRequest(t, s, "GET", "/api/tiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tiles []TileInfo
	decode(t, w, &tiles)
	require.Len(t, tiles, engine.CatalogueSize())
	for i, tile := range tiles {
		assert.Equal(t, i, tile.ID)
		assert.Len(t, tile.Paths, 4)
		assert.Contains(t, []int{1, 2, 4}, tile.Symmetry)
	}

	w = doRequest(t, s, "GET", "/api/tiles?id=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var one TileInfo
	decode(t, w, &one)
	assert.Equal(t, 3, one.ID)

	w = doRequest(t, s, "GET", "/api/tiles?id=300", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(t, s, "GET", "/api/tiles?id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)
	createGame(t, s, service.CreateGameRequest{Preset: "duel"})

	w := doRequest(t, s, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = doRequest(t, s, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tsuro_games_created_total")
}

func TestServer_WebSocket(t *testing.T) {
	s := setupTestServer(t)
	server := httptest.NewServer(s)
	defer server.Close()
	wsBase := "ws" + strings.TrimPrefix(server.URL, "http")

	resp, err := http.Get(server.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(server.URL + "/ws?game=unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	info := createGame(t, s, service.CreateGameRequest{Players: []config.PlayerSpec{
		{Name: "far", Kind: "remote"}, {Name: "near"},
	}})

	resp, err = http.Get(server.URL + "/remote?game=" + info.ID + "&color=plaid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s/remote?game=%s&color=blue", wsBase, info.ID), nil)
	require.NoError(t, err)
	conn.Close()

	_, resp, err = websocket.DefaultDialer.Dial(fmt.Sprintf("%s/remote?game=%s&color=red", wsBase, info.ID), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "red is not a remote seat")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("session not found: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{config.ErrPresetNotFound, http.StatusNotFound},
		{service.ErrNotYourTurn, http.StatusConflict},
		{engine.ErrWrongPhase, http.StatusConflict},
		{service.ErrInvalidMove, http.StatusBadRequest},
		{engine.ErrIllegalStart, http.StatusBadRequest},
		{fmt.Errorf("%w: lost a token", engine.ErrInvariant), http.StatusInternalServerError},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestServer_WebSocketDuringTurn(t *testing.T) {
	logger := zaptest.NewLogger(t)
	presets, err := config.NewManager("", logger)
	require.NoError(t, err)
	hub := ws.NewHub(logger)
	remotes := ws.NewRemotes(2*time.Second, logger)
	svc := service.NewGameService(session.NewManager(logger), presets, service.Options{
		Logger:   logger,
		Notifier: hub,
		Remote:   remotes.NewPlayer,
	})
	s := NewServer(svc, hub, Options{Logger: logger, Remotes: remotes})
	server := httptest.NewServer(s)
	defer server.Close()
	wsBase := "ws" + strings.TrimPrefix(server.URL, "http")

	info := createGame(t, s, service.CreateGameRequest{Seed: 3, Players: []config.PlayerSpec{
		{Name: "far", Kind: "remote"}, {Name: "bot", Kind: "automated"},
	}})

	remote, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s/remote?game=%s&color=blue", wsBase, info.ID), nil)
	require.NoError(t, err)
	defer remote.Close()

	started := make(chan int, 1)
	go func() {
		started <- doRequest(t, s, "POST", "/api/games/"+info.ID+"/start", nil).Code
	}()

	// the start request now waits on the silent remote while holding the game
	var frame ws.Frame
	require.NoError(t, remote.ReadJSON(&frame))
	assert.Equal(t, ws.FrameInitialize, frame.Type)

	dialer := websocket.Dialer{HandshakeTimeout: 500 * time.Millisecond}
	spectator, _, err := dialer.Dial(fmt.Sprintf("%s/ws?game=%s", wsBase, info.ID), nil)
	require.NoError(t, err, "spectators must not wait for the turn in progress")
	spectator.Close()

	remote.Close()
	select {
	case code := <-started:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("start did not finish")
	}
}
