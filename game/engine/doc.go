// Package engine provides the rules engine for the tile path-race game.
//
// The engine package implements the game mechanics including:
//   - Tiles: perfect matchings of eight edge points, with rotation and shape identity
//   - The 6x6 board, tokens and phantom starting positions
//   - Path tracing and board-edge elimination
//   - Move legality (no self-elimination unless every option eliminates)
//   - The draw pile, hands and the dragon tile
//   - Turn resolution and terminal conditions
//
// Core Types:
//
// GameEngine owns a single game. Players are consumed through the Player
// interface; a seat whose player breaks the rules is handed to the fallback
// player for the rest of the game. GameState is a serializable copy of the
// engine at a point in time.
//
// Usage:
//
//	eng := engine.NewEngine(engine.Options{Seed: 42, Logger: logger})
//	eng.AddPlayer(engine.NewAutoPlayer("alice", nil), engine.SeatAutomated)
//	eng.AddPlayer(engine.NewAutoPlayer("bob", nil), engine.SeatAutomated)
//	if err := eng.Start(ctx); err != nil {
//		return err
//	}
//
//	for !eng.IsGameOver() {
//		seat, _ := eng.Current()
//		tile, err := seat.Player.PlayTurn(ctx, eng.Board(), seat.Hand.Tiles(), eng.PileSize())
//		if err != nil {
//			return err
//		}
//		if _, err := eng.PlayTurn(ctx, tile); err != nil {
//			return err
//		}
//	}
//
// Game Rules:
//
// Each turn the current player places a tile from their hand on the cell their
// token faces. Every token touching the new tile follows the paths until it
// reaches an empty cell; tokens that end on the outer edge are eliminated. The
// last player standing wins. If everyone left is eliminated together, or the
// board fills up, the remaining players share the win.
package engine
