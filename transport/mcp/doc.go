// Package mcp provides a Model Context Protocol front end for the Tsuro server.
//
// The Client registers one MCP tool per REST endpoint and forwards every call
// to a running server over HTTP, so an AI agent plays through exactly the
// same API as any other client.
//
// MCP Tools:
//   - create_game, list_games, get_game, delete_game
//   - place_pawn, start_game, legal_moves, play_tile, advance
//   - list_presets, list_tiles, game_rules
//
// Results are rendered as text: seat summaries, a 6x6 grid of tile IDs and
// rotations, and one line per resolved turn.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
