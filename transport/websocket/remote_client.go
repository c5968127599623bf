package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/tsuro-game/game/engine"
)

// DialRemote connects to the remote seat of a game. baseURL is the server's
// http or https address.
func DialRemote(ctx context.Context, baseURL, gameID string, color engine.Color) (*websocket.Conn, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path += "/remote"
	u.RawQuery = url.Values{"game": {gameID}, "color": {color.String()}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.Redacted(), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	return conn, nil
}

// RemoteClient plays a remote seat with a local engine.Player, answering each
// request frame from the server
type RemoteClient struct {
	conn   *websocket.Conn
	player engine.Player
	logger *zap.Logger
}

// NewRemoteClient wraps an attached connection
func NewRemoteClient(conn *websocket.Conn, p engine.Player, logger *zap.Logger) *RemoteClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteClient{conn: conn, player: p, logger: logger.With(zap.String("player", p.Name()))}
}

// Play answers requests until the server sends end_game and returns the
// winners. The connection is closed on return.
func (c *RemoteClient) Play(ctx context.Context) ([]engine.Color, error) {
	defer c.conn.Close()

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	for {
		var req Frame
		if err := c.conn.ReadJSON(&req); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("connection lost before the game ended: %w", err)
		}

		if req.Type == FrameEndGame {
			board, err := boardOf(req)
			if err != nil {
				board = engine.NewBoard()
			}
			if err := c.player.EndGame(ctx, board, req.Winners); err != nil {
				c.logger.Warn("end of game hook failed", zap.Error(err))
			}
			return req.Winners, nil
		}

		reply := c.answer(ctx, req)
		if reply.Error != "" {
			c.logger.Warn("request failed", zap.String("frame", req.Type), zap.String("error", reply.Error))
		}
		if err := c.conn.WriteJSON(reply); err != nil {
			return nil, fmt.Errorf("write %s reply: %w", req.Type, err)
		}
	}
}

// answer builds the reply for one request. Failures travel in the reply's
// Error field.
func (c *RemoteClient) answer(ctx context.Context, req Frame) Frame {
	reply := Frame{Type: req.Type, ID: req.ID}
	var err error
	switch req.Type {
	case FrameInitialize:
		if req.Color == nil {
			err = errors.New("initialize without a color")
			break
		}
		err = c.player.Initialize(ctx, *req.Color, req.Order)

	case FramePlacePawn:
		var board *engine.Board
		if board, err = boardOf(req); err != nil {
			break
		}
		var tok engine.Token
		if tok, err = c.player.PlacePawn(ctx, board); err == nil {
			reply.Token = &tok
		}

	case FramePlayTurn:
		var board *engine.Board
		if board, err = boardOf(req); err != nil {
			break
		}
		hand := make([]engine.Tile, 0, len(req.Hand))
		for _, v := range req.Hand {
			t, terr := engine.TileFromView(v)
			if terr != nil {
				err = terr
				break
			}
			hand = append(hand, t)
		}
		if err != nil {
			break
		}
		var tile engine.Tile
		if tile, err = c.player.PlayTurn(ctx, board, hand, req.Remaining); err == nil {
			view := tile.View()
			reply.Tile = &view
		}

	default:
		err = fmt.Errorf("unknown frame type %q", req.Type)
	}

	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

func boardOf(req Frame) (*engine.Board, error) {
	if req.Board == nil {
		return nil, fmt.Errorf("%s without a board", req.Type)
	}
	return engine.BoardFromView(*req.Board)
}
