// Package service provides the application layer for the Tsuro game server.
//
// The service package implements:
//   - Multi-game management on top of a SessionManager
//   - Roster building from presets or explicit player lists
//   - Driving turns for automated and remote seats
//   - Staging decisions for interactive seats
//   - Spectator notifications and metrics
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// PresetManager loads table presets.
// Notifier receives an event for every created, started, played and finished game.
//
// Turn Flow:
//
// A game is created in setup. Interactive seats choose a starting position
// with PlacePawn, then StartGame places every pawn, deals hands and plays
// automated and remote seats until an interactive seat is at the head of the
// queue. PlayTile submits that seat's move and again advances the game. A
// seat that breaks the rules, or a remote seat that does not answer, is
// replaced by an automated player for the rest of the game.
//
// Usage:
//
//	sessions := session.NewManager(logger)
//	presets, _ := config.NewManager("presets", logger)
//	svc := service.NewGameService(sessions, presets, service.Options{Logger: logger})
//
//	info, err := svc.CreateGame(ctx, service.CreateGameRequest{Preset: "duel"})
//	_, err = svc.PlacePawn(ctx, info.ID, engine.Blue, engine.Position{X: -1, Y: 0}, 2)
//	report, err := svc.StartGame(ctx, info.ID)
//	report, err = svc.PlayTile(ctx, info.ID, engine.Blue, tileID, rotation)
//
// Concurrency:
//
// Each session carries its own lock. Turns of one game are serialized while
// different games proceed independently.
package service
