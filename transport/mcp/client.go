package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Tsuro",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Tsuro - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Keep your token on the board. Each turn you place a tile in front of your token and every token touching it slides along the paths. Tokens that reach the board edge are out. The last token standing wins.

AVAILABLE TOOLS:
- create_game: Create a game from a preset or roster
- list_games / get_game / delete_game: Manage games
- place_pawn: Choose the starting spot of an interactive seat
- start_game: Deal tiles and play until a human must move
- legal_moves: Tiles and rotations that keep your token alive
- play_tile: Play a tile for your seat
- advance: Resume automated play
- list_presets / list_tiles: Reference data
- game_rules: Full rules`),
	)

	// Register all tools
	c.registerTools()
}

func gameIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Game ID",
	}
}

func colorProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"blue", "red", "green", "orange", "sienna", "hotpink", "darkgreen", "purple"},
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Game management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game from a preset (default: duel) or an explicit list of players",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Preset ID from list_presets (optional)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Random seed for a reproducible deal (optional)",
				},
				"players": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"name":     map[string]interface{}{"type": "string"},
							"kind":     map[string]interface{}{"type": "string", "enum": []string{"interactive", "automated", "remote"}},
							"strategy": map[string]interface{}{"type": "string", "enum": []string{"random", "first"}},
						},
					},
					"description": "Seats in turn order; overrides the preset roster",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"phase": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"setup", "in_progress", "game_over"},
					"description": "Only list games in this phase (optional)",
				},
			},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get the current state of a game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_game",
		Description: "Delete a game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleDeleteGame)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_pawn",
		Description: "Place an interactive seat's token on a starting spot. Starting spots sit one step outside the 6x6 grid (x or y is -1 or 6) on an edge point facing into the board.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"color":   colorProperty("Your seat color"),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the starting spot (-1..6)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the starting spot (-1..6)",
				},
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Edge point 0-7, clockwise from the top-left: 0,1 top; 2,3 right; 4,5 bottom; 6,7 left",
				},
			},
			Required: []string{"game_id", "color", "x", "y", "index"},
		},
	}, c.handlePlacePawn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start a game once every interactive seat has placed its pawn",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List the tiles and rotations your seat may play this turn",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"color":   colorProperty("Your seat color"),
			},
			Required: []string{"game_id", "color"},
		},
	}, c.handleLegalMoves)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "play_tile",
		Description: "Play a tile from your hand in front of your token",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"color":   colorProperty("Your seat color"),
				"tile_id": map[string]interface{}{
					"type":        "integer",
					"description": "Catalogue ID of a tile in your hand",
				},
				"rotation": map[string]interface{}{
					"type":        "integer",
					"description": "Quarter turns clockwise (0-3)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you chose this tile (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"game_id", "color", "tile_id"},
		},
	}, c.handlePlayTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance",
		Description: "Let automated seats play until an interactive seat must move or the game ends",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleAdvance)

	// Reference data
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_tiles",
		Description: "Show the tile catalogue, or one tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tile_id": map[string]interface{}{
					"type":        "integer",
					"description": "Catalogue ID (optional)",
				},
			},
		},
	}, c.handleListTiles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the complete rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func gamePath(gameID string, parts ...string) string {
	return "/api/games/" + url.PathEscape(gameID) + strings.Join(parts, "")
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := service.CreateGameRequest{
		Preset: request.GetString("preset", ""),
		Seed:   int64(request.GetInt("seed", 0)),
	}
	if raw, ok := args["players"]; ok {
		data, err := json.Marshal(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := json.Unmarshal(data, &body.Players); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid players: %v", err)), nil
		}
	}

	var game service.GameInfo
	if err := c.apiCall(ctx, "POST", "/api/games", body, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\nPreset: %s\nSeed: %d\n\n%s", game.ID, game.Preset, game.Seed, formatGameState(&game.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/games"
	if phase := request.GetString("phase", ""); phase != "" {
		path += "?phase=" + url.QueryEscape(phase)
	}

	var response struct {
		Count int                `json:"count"`
		Games []service.GameInfo `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		result += fmt.Sprintf("- %s (Preset: %s, Phase: %s, Seats: %d, Created: %s)\n",
			g.ID, g.Preset, g.State.Phase, len(g.State.Seats), g.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID := request.GetString("game_id", "")

	var game service.GameInfo
	if err := c.apiCall(ctx, "GET", gamePath(gameID), nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&game)), nil
}

func (c *Client) handleDeleteGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID := request.GetString("game_id", "")

	var response struct {
		Message string `json:"message"`
	}
	if err := c.apiCall(ctx, "DELETE", gamePath(gameID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(response.Message), nil
}

func (c *Client) handlePlacePawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID := request.GetString("game_id", "")
	body := map[string]interface{}{
		"color": request.GetString("color", ""),
		"position": engine.Position{
			X: request.GetInt("x", 0),
			Y: request.GetInt("y", 0),
		},
		"index": request.GetInt("index", 0),
	}

	var game service.GameInfo
	if err := c.apiCall(ctx, "POST", gamePath(gameID, "/pawn"), body, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("✓ Pawn placed\n\n" + formatGameState(&game.State)), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.turnCall(ctx, gamePath(request.GetString("game_id", ""), "/start"), nil)
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.turnCall(ctx, gamePath(request.GetString("game_id", ""), "/advance"), nil)
}

func (c *Client) handlePlayTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = request.GetString("intent", "")

	args := request.GetArguments()
	if _, ok := args["tile_id"]; !ok {
		return mcp.NewToolResultError("tile_id is required"), nil
	}
	body := map[string]interface{}{
		"color":    request.GetString("color", ""),
		"tile_id":  request.GetInt("tile_id", 0),
		"rotation": request.GetInt("rotation", 0),
	}
	return c.turnCall(ctx, gamePath(request.GetString("game_id", ""), "/turn"), body)
}

func (c *Client) turnCall(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var report service.TurnReport
	if err := c.apiCall(ctx, "POST", path, body, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTurnReport(&report)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID := request.GetString("game_id", "")
	color := request.GetString("color", "")

	var moves service.LegalMoves
	if err := c.apiCall(ctx, "GET", gamePath(gameID, "/legal-moves?color="+url.QueryEscape(color)), nil, &moves); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatLegalMoves(&moves)), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []config.PresetInfo
	if err := c.apiCall(ctx, "GET", "/api/presets", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Presets:\n\n"
	for _, p := range presets {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Players: %d\n\n", p.ID, p.Name, p.Description, p.Players)
	}
	return mcp.NewToolResultText(result), nil
}

// tileInfo mirrors the /api/tiles payload
type tileInfo struct {
	engine.TileView
	Symmetry int `json:"symmetry"`
}

func (c *Client) handleListTiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := request.GetArguments()["tile_id"]; ok {
		var tile tileInfo
		path := fmt.Sprintf("/api/tiles?id=%d", request.GetInt("tile_id", 0))
		if err := c.apiCall(ctx, "GET", path, nil, &tile); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatTile(tile)), nil
	}

	var tiles []tileInfo
	if err := c.apiCall(ctx, "GET", "/api/tiles", nil, &tiles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Tile Catalogue (%d tiles):\n\n", len(tiles)))
	for _, t := range tiles {
		b.WriteString(formatTile(t))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(rules), nil
}

const rules = `Tsuro - Complete Rules

BOARD:
• 6x6 grid of cells. Every cell edge has two points, numbered 0-7 clockwise:
  0,1 on top; 2,3 on the right; 4,5 on the bottom; 6,7 on the left.
• Each tile joins its 8 points in 4 paths. There are 35 distinct tiles.

SETUP:
• Each player places a token just outside the board (x or y is -1 or 6),
  on a point facing into the grid. No two tokens may share a spot.
• Each player is dealt 3 tiles.

TURN:
• Play one tile from your hand on the empty cell your token faces,
  rotated 0-3 quarter turns clockwise.
• Every token touching the new tile follows its path until it reaches an
  empty cell or the board edge.
• A token that reaches the board edge is eliminated. Two tokens may come
  to rest on the same point without harm.
• Draw back to 3 tiles. If the pile runs dry, the first player unable to
  draw takes the dragon tile and draws first when tiles return.

LEGAL PLAYS:
• You may not play a tile that eliminates your own token unless every
  tile and rotation in your hand would do so.

WINNING:
• The last token on the board wins. If the last tokens leave together, or
  the board fills, all surviving players share the win.

CHEATING:
• Playing a tile you do not hold, or an illegal rotation, hands your seat
  to an automated player for the rest of the game.

WORKFLOW:
1. create_game (preset "duel" seats you as blue)
2. place_pawn for each interactive seat
3. start_game
4. legal_moves, then play_tile, until the game is over

Good luck staying on the board!`

// Formatting helpers

func formatGameInfo(game *service.GameInfo) string {
	return fmt.Sprintf("Game: %s\nPreset: %s\nSeed: %d\nCreated: %s\n\n%s",
		game.ID, game.Preset, game.Seed,
		game.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(&game.State))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Phase: %s | Turn: %d | Tiles on board: %d | Draw pile: %d\n",
		state.Phase, state.Turn, len(state.Board.Tiles), state.PileSize))
	if state.Current != nil {
		result.WriteString(fmt.Sprintf("Current: %s\n", *state.Current))
	}
	if state.DragonHolder != nil {
		result.WriteString(fmt.Sprintf("Dragon tile: %s\n", *state.DragonHolder))
	}

	result.WriteString("\nSeats:\n")
	for _, seat := range state.Seats {
		result.WriteString(formatSeat(seat))
	}

	result.WriteString("\n")
	result.WriteString(formatBoard(state.Board))

	if state.Phase == engine.PhaseGameOver {
		names := make([]string, 0, len(state.Winners))
		for _, w := range state.Winners {
			names = append(names, w.String())
		}
		result.WriteString(fmt.Sprintf("\n🏁 GAME OVER - Winners: %s", strings.Join(names, ", ")))
	}

	return result.String()
}

func formatSeat(seat engine.SeatView) string {
	status := "active"
	if seat.Eliminated {
		status = "eliminated"
	}
	where := "no token"
	if seat.Token != nil {
		where = fmt.Sprintf("token at %s point %d", seat.Token.Pos, seat.Token.Index)
	}
	line := fmt.Sprintf("- %s %s (%s, %s) %s, hand %d", seat.Color, seat.Name, seat.Kind, status, where, len(seat.Hand))
	if seat.ReplacedReason != "" {
		line += fmt.Sprintf(" [replaced: %s]", seat.ReplacedReason)
	}
	return line + "\n"
}

// formatBoard renders the grid with tile IDs and rotations
func formatBoard(board engine.BoardView) string {
	size := board.Size
	if size == 0 {
		size = engine.BoardSize
	}
	cells := make(map[engine.Position]engine.TileView, len(board.Tiles))
	for _, pt := range board.Tiles {
		cells[pt.Position] = pt.Tile
	}
	var b strings.Builder
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if t, ok := cells[engine.Position{X: x, Y: y}]; ok {
				b.WriteString(fmt.Sprintf("[%2d r%d]", t.ID, t.Rotation))
			} else {
				b.WriteString("[  .  ]")
			}
		}
		b.WriteString("\n")
	}

	var edges []string
	for _, tok := range board.Tokens {
		edges = append(edges, fmt.Sprintf("%s@%s:%d", tok.Color, tok.Pos, tok.Index))
	}
	sort.Strings(edges)
	if len(edges) > 0 {
		b.WriteString("Tokens: " + strings.Join(edges, " ") + "\n")
	}
	return b.String()
}

func formatTile(t tileInfo) string {
	paths := make([]string, 0, len(t.Paths))
	for _, p := range t.Paths {
		paths = append(paths, fmt.Sprintf("%d-%d", p[0], p[1]))
	}
	distinct := engine.Rotations
	if t.Symmetry > 0 {
		distinct = engine.Rotations / t.Symmetry
	}
	return fmt.Sprintf("#%d paths %s (distinct rotations: %d)\n", t.ID, strings.Join(paths, " "), distinct)
}

func formatTurnReport(report *service.TurnReport) string {
	var b strings.Builder
	for _, turn := range report.Turns {
		b.WriteString(formatTurn(turn))
	}
	if len(report.Turns) > 0 {
		b.WriteString("\n")
	}
	if report.Message != "" {
		b.WriteString(report.Message + "\n\n")
	}
	b.WriteString(formatGameState(&report.State))
	return b.String()
}

func formatTurn(turn *engine.TurnResult) string {
	line := fmt.Sprintf("%d. %s (%s) placed tile %d r%d at %s",
		turn.Turn, turn.Player, turn.Color, turn.Tile.ID, turn.Tile.Rotation(), turn.Position)
	if turn.Cheated {
		line += fmt.Sprintf(" ✗ cheated: %s", turn.CheatReason)
	}
	if len(turn.Eliminated) > 0 {
		out := make([]string, 0, len(turn.Eliminated))
		for _, c := range turn.Eliminated {
			out = append(out, c.String())
		}
		line += fmt.Sprintf(" - out: %s", strings.Join(out, ", "))
	}
	return line + "\n"
}

func formatLegalMoves(moves *service.LegalMoves) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Legal plays for %s at %s (%d):\n", moves.Color, moves.Target, len(moves.Tiles)))
	for _, t := range moves.Tiles {
		b.WriteString(fmt.Sprintf("- tile_id %d rotation %d\n", t.ID, t.Rotation))
	}
	return b.String()
}
