// Package websocket provides the WebSocket transports of the Tsuro server.
//
// The websocket package implements:
//   - A spectator Hub that pushes game events to watchers of a game
//   - RemotePlayer, an engine.Player answered by a client over a socket
//   - RemoteClient, the client side: it answers frames with a local engine.Player
//
// Spectators:
//
// The Hub uses a hub-and-spoke model: a single goroutine owns registration
// and fan-out while each connection gets a read and a write pump. Clients
// subscribe with ?game=<id>. Hub implements service.Notifier, so every
// created, started, turn, game_over and deleted event is pushed as:
//
//	{"game_id": "...", "event": "turn", "message": "...", "state": {...}, "data": {...}}
//
// Remote players:
//
// A remote seat is reserved when the game is created. Its client connects to
// /remote?game=<id>&color=<color> before the game starts and then answers
// request frames with a reply carrying the same type and id:
//
//	-> {"type": "place_pawn", "id": 2, "board": {...}}
//	<- {"type": "place_pawn", "id": 2, "token": {"color": "red", "position": {"x": -1, "y": 0}, "index": 2}}
//
//	-> {"type": "play_turn", "id": 3, "board": {...}, "hand": [...], "remaining": 20}
//	<- {"type": "play_turn", "id": 3, "tile": {"paths": [[0,5],[1,4],[2,7],[3,6]]}}
//
// A client that is not connected, misses the deadline or replies with
// anything else is treated as breaking the rules, and the engine hands the
// seat to an automated player.
//
// Any engine.Player can sit at a remote seat from another process:
//
//	conn, err := websocket.DialRemote(ctx, "http://localhost:8080", gameID, engine.Red)
//	winners, err := websocket.NewRemoteClient(conn, player.NewFirstLegal("bot"), logger).Play(ctx)
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	remotes := websocket.NewRemotes(30*time.Second, logger)
//	svc := service.NewGameService(sessions, presets, service.Options{
//		Notifier: hub,
//		Remote:   remotes.NewPlayer,
//	})
package websocket
