package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/tsuro-game/game/engine"
)

// Frame types exchanged with a remote player
const (
	FrameInitialize = "initialize"
	FramePlacePawn  = "place_pawn"
	FramePlayTurn   = "play_turn"
	FrameEndGame    = "end_game"
)

var (
	ErrAlreadyAttached = errors.New("a client is already attached to this seat")
	ErrUnknownSeat     = errors.New("no remote seat with that color")
)

// Frame is one request from the server or one reply from the client. A reply
// echoes the request's type and id.
type Frame struct {
	Type string `json:"type"`
	ID   int    `json:"id"`

	// Requests
	Color     *engine.Color     `json:"color,omitempty"`
	Order     []engine.Color    `json:"order,omitempty"`
	Board     *engine.BoardView `json:"board,omitempty"`
	Hand      []engine.TileView `json:"hand,omitempty"`
	Remaining int               `json:"remaining,omitempty"`
	Winners   []engine.Color    `json:"winners,omitempty"`

	// Replies
	Token *engine.Token    `json:"token,omitempty"`
	Tile  *engine.TileView `json:"tile,omitempty"`
	Error string           `json:"error,omitempty"`
}

// RemotePlayer is an engine.Player answered by a websocket client. Every call
// waits at most timeout for the client to attach and reply; a missing,
// late or malformed reply is reported as engine.ErrPlayerUnavailable.
type RemotePlayer struct {
	name    string
	gameID  string
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	attached chan struct{}
	seq      int
}

// NewRemotePlayer creates an unattached remote player
func NewRemotePlayer(gameID, name string, timeout time.Duration, logger *zap.Logger) *RemotePlayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemotePlayer{
		name:     name,
		gameID:   gameID,
		timeout:  timeout,
		logger:   logger.With(zap.String("game_id", gameID), zap.String("player", name)),
		attached: make(chan struct{}),
	}
}

// Name returns the player name
func (p *RemotePlayer) Name() string {
	return p.name
}

// Attach binds a client connection to the seat
func (p *RemotePlayer) Attach(conn *websocket.Conn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return ErrAlreadyAttached
	}
	p.conn = conn
	close(p.attached)
	p.logger.Info("remote player attached", zap.String("remote_addr", conn.RemoteAddr().String()))
	return nil
}

// Attached reports whether a client is connected
func (p *RemotePlayer) Attached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

// Close drops the client connection
func (p *RemotePlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detachLocked()
}

func (p *RemotePlayer) detachLocked() {
	if p.conn == nil {
		return
	}
	p.conn.Close()
	p.conn = nil
	p.attached = make(chan struct{})
}

// Initialize tells the client its color and the turn order
func (p *RemotePlayer) Initialize(ctx context.Context, color engine.Color, order []engine.Color) error {
	_, err := p.call(ctx, Frame{Type: FrameInitialize, Color: &color, Order: order})
	return err
}

// PlacePawn asks the client for a starting position
func (p *RemotePlayer) PlacePawn(ctx context.Context, board *engine.Board) (engine.Token, error) {
	view := board.View()
	reply, err := p.call(ctx, Frame{Type: FramePlacePawn, Board: &view})
	if err != nil {
		return engine.Token{}, err
	}
	if reply.Token == nil {
		return engine.Token{}, fmt.Errorf("%w: reply has no token", engine.ErrPlayerUnavailable)
	}
	return *reply.Token, nil
}

// PlayTurn asks the client for a tile
func (p *RemotePlayer) PlayTurn(ctx context.Context, board *engine.Board, hand []engine.Tile, remaining int) (engine.Tile, error) {
	view := board.View()
	req := Frame{Type: FramePlayTurn, Board: &view, Remaining: remaining, Hand: make([]engine.TileView, 0, len(hand))}
	for _, t := range hand {
		req.Hand = append(req.Hand, t.View())
	}
	reply, err := p.call(ctx, req)
	if err != nil {
		return engine.Tile{}, err
	}
	if reply.Tile == nil {
		return engine.Tile{}, fmt.Errorf("%w: reply has no tile", engine.ErrPlayerUnavailable)
	}
	tile, err := engine.TileFromView(*reply.Tile)
	if err != nil {
		return engine.Tile{}, fmt.Errorf("%w: %v", engine.ErrPlayerUnavailable, err)
	}
	return tile, nil
}

// EndGame sends the winners and closes the connection. No reply is expected.
func (p *RemotePlayer) EndGame(ctx context.Context, board *engine.Board, winners []engine.Color) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	defer p.detachLocked()

	p.seq++
	view := board.View()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(Frame{Type: FrameEndGame, ID: p.seq, Board: &view, Winners: winners})
}

// call sends req and waits for the matching reply
func (p *RemotePlayer) call(ctx context.Context, req Frame) (Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	attached := p.attached
	p.mu.Unlock()

	select {
	case <-attached:
	case <-ctx.Done():
		return Frame{}, fmt.Errorf("%w: no client attached for %s", engine.ErrPlayerUnavailable, p.name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return Frame{}, fmt.Errorf("%w: client detached", engine.ErrPlayerUnavailable)
	}

	p.seq++
	req.ID = p.seq
	deadline, _ := ctx.Deadline()

	p.conn.SetWriteDeadline(deadline)
	if err := p.conn.WriteJSON(req); err != nil {
		p.detachLocked()
		return Frame{}, fmt.Errorf("%w: write %s: %v", engine.ErrPlayerUnavailable, req.Type, err)
	}

	p.conn.SetReadDeadline(deadline)
	var reply Frame
	if err := p.conn.ReadJSON(&reply); err != nil {
		p.logger.Warn("remote player did not answer", zap.String("frame", req.Type), zap.Error(err))
		p.detachLocked()
		return Frame{}, fmt.Errorf("%w: read %s: %v", engine.ErrPlayerUnavailable, req.Type, err)
	}
	if reply.Type != req.Type || reply.ID != req.ID {
		return Frame{}, fmt.Errorf("%w: expected %s #%d, got %s #%d", engine.ErrPlayerUnavailable, req.Type, req.ID, reply.Type, reply.ID)
	}
	if reply.Error != "" {
		return Frame{}, fmt.Errorf("%w: %s", engine.ErrPlayerUnavailable, reply.Error)
	}
	return reply, nil
}

// Remotes tracks remote seats by game and color and attaches connecting clients
type Remotes struct {
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	players map[string]*RemotePlayer
}

// NewRemotes creates a registry whose players wait up to timeout per call
func NewRemotes(timeout time.Duration, logger *zap.Logger) *Remotes {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remotes{
		timeout: timeout,
		logger:  logger,
		players: make(map[string]*RemotePlayer),
	}
}

func remoteKey(gameID string, color engine.Color) string {
	return gameID + "/" + color.String()
}

// NewPlayer creates and registers the player for a remote seat. Its signature
// matches service.RemoteFactory.
func (r *Remotes) NewPlayer(gameID string, color engine.Color, name string) engine.Player {
	p := NewRemotePlayer(gameID, name, r.timeout, r.logger)
	r.mu.Lock()
	r.players[remoteKey(gameID, color)] = p
	r.mu.Unlock()
	return p
}

// Lookup returns the remote player of a seat
func (r *Remotes) Lookup(gameID string, color engine.Color) (*RemotePlayer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[remoteKey(gameID, color)]
	return p, ok
}

// Forget drops and disconnects every remote seat of a game. Players are
// closed after the registry lock is released since Close waits for any call
// in flight.
func (r *Remotes) Forget(gameID string) {
	var dropped []*RemotePlayer
	r.mu.Lock()
	for color := engine.Color(0); color < engine.MaxPlayers; color++ {
		key := remoteKey(gameID, color)
		if p, ok := r.players[key]; ok {
			dropped = append(dropped, p)
			delete(r.players, key)
		}
	}
	r.mu.Unlock()

	for _, p := range dropped {
		p.Close()
	}
}

// ServeRemote upgrades the request and attaches it to the seat
func (r *Remotes) ServeRemote(w http.ResponseWriter, req *http.Request, gameID string, color engine.Color) {
	p, ok := r.Lookup(gameID, color)
	if !ok {
		http.Error(w, ErrUnknownSeat.Error(), http.StatusNotFound)
		return
	}
	if p.Attached() {
		http.Error(w, ErrAlreadyAttached.Error(), http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	if err := p.Attach(conn); err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
		conn.Close()
	}
}
