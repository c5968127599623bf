package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/service"
	"github.com/wricardo/tsuro-game/game/session"
	"github.com/wricardo/tsuro-game/transport/websocket"
)

// Options configures optional parts of the server
type Options struct {
	Logger  *zap.Logger
	Remotes *websocket.Remotes

	// Metrics serves /metrics; defaults to the global Prometheus registry
	Metrics http.Handler
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	remotes *websocket.Remotes
	metrics http.Handler
	logger  *zap.Logger
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub, opts Options) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		remotes: opts.Remotes,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		router:  mux.NewRouter(),
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = promhttp.Handler()
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Game management
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleDeleteGame).Methods("DELETE")

	// Game operations
	api.HandleFunc("/games/{id}/pawn", s.handlePlacePawn).Methods("POST")
	api.HandleFunc("/games/{id}/start", s.handleStartGame).Methods("POST")
	api.HandleFunc("/games/{id}/turn", s.handlePlayTile).Methods("POST")
	api.HandleFunc("/games/{id}/advance", s.handleAdvance).Methods("POST")
	api.HandleFunc("/games/{id}/legal-moves", s.handleLegalMoves).Methods("GET")

	// Reference data
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/tiles", s.handleListTiles).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/remote", s.handleRemote)

	s.router.Handle("/metrics", s.metrics)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{"error": message, "code": status})
}

// respondServiceError maps service and engine errors to status codes
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrPresetNotFound),
		errors.Is(err, engine.ErrSeatNotFound):
		return http.StatusNotFound

	case errors.Is(err, engine.ErrInvariant):
		return http.StatusInternalServerError

	case errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, service.ErrPawnNotPlaced),
		errors.Is(err, service.ErrGameNotStarted),
		errors.Is(err, service.ErrGameAlreadyEnded),
		errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrGameOver),
		errors.Is(err, engine.ErrTokenNotFound):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidRoster),
		errors.Is(err, service.ErrInvalidMove),
		errors.Is(err, service.ErrNotInteractive),
		errors.Is(err, service.ErrRemoteDisabled),
		errors.Is(err, engine.ErrIllegalStart),
		errors.Is(err, engine.ErrInvalidEdgePoint),
		errors.Is(err, engine.ErrInvalidColor),
		errors.Is(err, engine.ErrInvalidSeatKind),
		errors.Is(err, engine.ErrUnknownTile),
		errors.Is(err, engine.ErrTooManyPlayers),
		errors.Is(err, engine.ErrNotEnoughPlayers):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Game Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGameRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.Preset == "" && len(req.Players) == 0 {
		req.Preset = "duel"
	}

	game, err := s.service.CreateGame(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, game)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	// Optional phase filter: ?phase=in_progress
	if phase := r.URL.Query().Get("phase"); phase != "" {
		var want engine.Phase
		if err := want.UnmarshalText([]byte(phase)); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := games[:0]
		for _, g := range games {
			if g.State.Phase == want {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.service.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	if err := s.service.DeleteGame(r.Context(), gameID); err != nil {
		s.respondServiceError(w, err)
		return
	}
	if s.remotes != nil {
		s.remotes.Forget(gameID)
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Game %s deleted", gameID),
	})
}

// PlacePawnRequest is the body of POST /api/games/{id}/pawn
type PlacePawnRequest struct {
	Color    engine.Color    `json:"color"`
	Position engine.Position `json:"position"`
	Index    int             `json:"index"`
}

func (s *Server) handlePlacePawn(w http.ResponseWriter, r *http.Request) {
	var req PlacePawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	game, err := s.service.PlacePawn(r.Context(), mux.Vars(r)["id"], req.Color, req.Position, req.Index)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.StartGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// PlayTileRequest is the body of POST /api/games/{id}/turn
type PlayTileRequest struct {
	Color    engine.Color `json:"color"`
	TileID   *int         `json:"tile_id"`
	Rotation int          `json:"rotation"`
}

func (s *Server) handlePlayTile(w http.ResponseWriter, r *http.Request) {
	var req PlayTileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.TileID == nil {
		respondError(w, http.StatusBadRequest, "tile_id is required")
		return
	}

	report, err := s.service.PlayTile(r.Context(), mux.Vars(r)["id"], req.Color, *req.TileID, req.Rotation)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Advance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	color, err := engine.ParseColor(r.URL.Query().Get("color"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	moves, err := s.service.LegalMoves(r.Context(), mux.Vars(r)["id"], color)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, moves)
}

// Reference Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, presets)
}

// TileInfo describes a catalogue tile
type TileInfo struct {
	engine.TileView
	Symmetry int `json:"symmetry"`
}

func (s *Server) handleListTiles(w http.ResponseWriter, r *http.Request) {
	catalogue := engine.Catalogue()

	// Single tile: ?id=7
	if raw := r.URL.Query().Get("id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "id must be a number")
			return
		}
		tile, err := engine.TileByID(id)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, TileInfo{TileView: tile.View(), Symmetry: tile.Symmetry()})
		return
	}

	tiles := make([]TileInfo, 0, len(catalogue))
	for _, t := range catalogue {
		tiles = append(tiles, TileInfo{TileView: t.View(), Symmetry: t.Symmetry()})
	}
	respondJSON(w, http.StatusOK, tiles)
}

// WebSocket Handlers

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game")
	if gameID == "" {
		http.Error(w, "game parameter required", http.StatusBadRequest)
		return
	}

	// existence only; a game mid-turn holds its session lock
	if !s.service.GameExists(r.Context(), gameID) {
		http.Error(w, "Invalid game", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, gameID)
}

func (s *Server) handleRemote(w http.ResponseWriter, r *http.Request) {
	if s.remotes == nil {
		http.Error(w, service.ErrRemoteDisabled.Error(), http.StatusNotFound)
		return
	}
	gameID := r.URL.Query().Get("game")
	color, err := engine.ParseColor(r.URL.Query().Get("color"))
	if gameID == "" || err != nil {
		http.Error(w, "game and color parameters required", http.StatusBadRequest)
		return
	}
	s.remotes.ServeRemote(w, r, gameID, color)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
