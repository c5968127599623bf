// Package api provides the HTTP REST API of the Tsuro server.
//
// The api package implements:
//   - Game lifecycle endpoints (create, pawn placement, start, turns)
//   - Reference data (presets and the tile catalogue)
//   - WebSocket upgrades for spectators and remote players
//   - Health and Prometheus metrics endpoints
//
// Endpoints:
//
// Games:
//   - POST /api/games - Create a game from a preset or an explicit roster
//   - GET /api/games - List games, optionally ?phase=setup|in_progress|game_over
//   - GET /api/games/{id} - Get one game
//   - DELETE /api/games/{id} - Delete a game and drop its remote seats
//
// Play:
//   - POST /api/games/{id}/pawn - Stage an interactive seat's starting token
//   - POST /api/games/{id}/start - Start the game and play until a human must act
//   - POST /api/games/{id}/turn - Play a tile for the interactive seat whose turn it is
//   - POST /api/games/{id}/advance - Resume automated play
//   - GET /api/games/{id}/legal-moves?color=blue - Legal placements for a seat
//
// Reference:
//   - GET /api/presets - List game presets
//   - GET /api/tiles - The tile catalogue, or one tile with ?id=N
//
// Streaming:
//   - GET /ws?game={id} - Spectator event stream
//   - GET /remote?game={id}&color={color} - Attach a remote player
//
// Request/Response Format:
//
// All endpoints accept and return JSON. A create request looks like:
//
//	{
//	  "preset": "quartet",
//	  "seed": 42
//	}
//
// or, with an explicit roster:
//
//	{
//	  "players": [
//	    {"name": "ana", "kind": "interactive"},
//	    {"name": "bot", "kind": "automated", "strategy": "first"}
//	  ]
//	}
//
// Turns are played with:
//
//	{"color": "blue", "tile_id": 12, "rotation": 1}
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message",
//	  "code": 409
//	}
//
// Unknown games and presets map to 404, moves out of turn or phase to 409,
// malformed moves to 400.
package api
