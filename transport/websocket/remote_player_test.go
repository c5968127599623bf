package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/tsuro-game/game/engine"
)

// fakeClient answers frames on a remote player connection
type fakeClient struct {
	conn     *websocket.Conn
	received chan Frame
}

func dialRemote(t *testing.T, remotes *Remotes, gameID string, color engine.Color) *fakeClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remotes.ServeRemote(w, r, gameID, color)
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &fakeClient{conn: conn, received: make(chan Frame, 16)}
}

// serve replies to each request with answer until the connection closes
func (c *fakeClient) serve(answer func(Frame) Frame) {
	go func() {
		for {
			var req Frame
			if err := c.conn.ReadJSON(&req); err != nil {
				close(c.received)
				return
			}
			c.received <- req
			if req.Type == FrameEndGame {
				continue
			}
			reply := answer(req)
			if err := c.conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}()
}

func TestRemotePlayer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	remotes := NewRemotes(2*time.Second, zaptest.NewLogger(t))
	p := remotes.NewPlayer("g1", engine.Red, "far").(*RemotePlayer)
	assert.Equal(t, "far", p.Name())

	start := engine.PhantomPositions(engine.Red)[0]
	client := dialRemote(t, remotes, "g1", engine.Red)
	client.serve(func(req Frame) Frame {
		reply := Frame{Type: req.Type, ID: req.ID}
		switch req.Type {
		case FramePlacePawn:
			reply.Token = &start
		case FramePlayTurn:
			reply.Tile = &req.Hand[1]
		}
		return reply
	})

	require.NoError(t, p.Initialize(ctx, engine.Red, []engine.Color{engine.Blue, engine.Red}))
	init := <-client.received
	require.NotNil(t, init.Color)
	assert.Equal(t, engine.Red, *init.Color)
	assert.Equal(t, []engine.Color{engine.Blue, engine.Red}, init.Order)
	assert.True(t, p.Attached())

	board := engine.NewBoard()
	tok, err := p.PlacePawn(ctx, board)
	require.NoError(t, err)
	assert.Equal(t, start, tok)
	<-client.received

	hand := engine.Catalogue()[:3]
	tile, err := p.PlayTurn(ctx, board, hand, 12)
	require.NoError(t, err)
	assert.True(t, tile.Equal(hand[1]))
	turn := <-client.received
	assert.Len(t, turn.Hand, 3)
	assert.Equal(t, 12, turn.Remaining)
	require.NotNil(t, turn.Board)
	assert.Equal(t, engine.BoardSize, turn.Board.Size)

	require.NoError(t, p.EndGame(ctx, board, []engine.Color{engine.Red}))
	end := <-client.received
	assert.Equal(t, FrameEndGame, end.Type)
	assert.Equal(t, []engine.Color{engine.Red}, end.Winners)
	assert.False(t, p.Attached())
}

func TestRemotePlayer_NoClientTimesOut(t *testing.T) {
	p := NewRemotePlayer("g1", "ghost", 20*time.Millisecond, nil)

	_, err := p.PlayTurn(context.Background(), engine.NewBoard(), engine.Catalogue()[:1], 0)
	assert.ErrorIs(t, err, engine.ErrPlayerUnavailable)
	assert.NoError(t, p.EndGame(context.Background(), engine.NewBoard(), nil))
}

func TestRemotePlayer_BadReplies(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		answer func(Frame) Frame
	}{
		{"wrong type", func(req Frame) Frame { return Frame{Type: "hello", ID: req.ID} }},
		{"wrong id", func(req Frame) Frame { return Frame{Type: req.Type, ID: req.ID + 7} }},
		{"client error", func(req Frame) Frame { return Frame{Type: req.Type, ID: req.ID, Error: "no idea"} }},
		{"missing tile", func(req Frame) Frame { return Frame{Type: req.Type, ID: req.ID} }},
		{"bad paths", func(req Frame) Frame {
			return Frame{Type: req.Type, ID: req.ID, Tile: &engine.TileView{Paths: [][2]int{{0, 1}}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remotes := NewRemotes(time.Second, nil)
			p := remotes.NewPlayer("g1", engine.Blue, "far")
			client := dialRemote(t, remotes, "g1", engine.Blue)
			client.serve(tt.answer)

			_, err := p.PlayTurn(ctx, engine.NewBoard(), engine.Catalogue()[:1], 0)
			assert.ErrorIs(t, err, engine.ErrPlayerUnavailable)
		})
	}
}

func TestRemotePlayer_SilentClient(t *testing.T) {
	remotes := NewRemotes(50*time.Millisecond, nil)
	p := remotes.NewPlayer("g1", engine.Blue, "far").(*RemotePlayer)
	dialRemote(t, remotes, "g1", engine.Blue) // never answers

	_, err := p.PlacePawn(context.Background(), engine.NewBoard())
	assert.ErrorIs(t, err, engine.ErrPlayerUnavailable)
	assert.False(t, p.Attached(), "a client that misses its deadline is dropped")
}

func TestRemotes_Attachment(t *testing.T) {
	remotes := NewRemotes(time.Second, nil)
	remotes.NewPlayer("g1", engine.Green, "far")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		color, err := engine.ParseColor(r.URL.Query().Get("color"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		remotes.ServeRemote(w, r, "g1", color)
	}))
	defer server.Close()
	base := "ws" + strings.TrimPrefix(server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"?color=red", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"?color=green", nil)
	require.NoError(t, err)
	defer conn.Close()

	p, ok := remotes.Lookup("g1", engine.Green)
	require.True(t, ok)
	require.Eventually(t, p.Attached, time.Second, 5*time.Millisecond)

	_, resp, err = websocket.DefaultDialer.Dial(base+"?color=green", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	remotes.Forget("g1")
	_, ok = remotes.Lookup("g1", engine.Green)
	assert.False(t, ok)
	assert.False(t, p.Attached())
}

func TestRemotes_ForgetDuringCall(t *testing.T) {
	remotes := NewRemotes(time.Second, nil)
	p := remotes.NewPlayer("g1", engine.Blue, "far").(*RemotePlayer)
	remotes.NewPlayer("g2", engine.Red, "other")
	client := dialRemote(t, remotes, "g1", engine.Blue)
	require.Eventually(t, p.Attached, time.Second, 5*time.Millisecond)

	calls := make(chan error, 1)
	go func() {
		_, err := p.PlacePawn(context.Background(), engine.NewBoard())
		calls <- err
	}()

	// the request is on the wire, so the call holds the player until its deadline
	var req Frame
	require.NoError(t, client.conn.ReadJSON(&req))
	assert.Equal(t, FramePlacePawn, req.Type)

	forgotten := make(chan struct{})
	go func() {
		remotes.Forget("g1")
		close(forgotten)
	}()

	looked := make(chan bool, 1)
	go func() {
		for {
			if _, ok := remotes.Lookup("g1", engine.Blue); !ok {
				break
			}
			time.Sleep(time.Millisecond)
		}
		_, ok := remotes.Lookup("g2", engine.Red)
		looked <- ok
	}()

	select {
	case ok := <-looked:
		assert.True(t, ok)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("registry blocked behind a call in flight")
	}

	assert.ErrorIs(t, <-calls, engine.ErrPlayerUnavailable)
	<-forgotten
	assert.False(t, p.Attached())
}
