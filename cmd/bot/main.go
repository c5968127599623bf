// Command bot plays remote seats of a Tsuro server with an automated
// strategy. It either joins one seat of an existing game or creates a game
// from a preset, takes every remote seat and starts it.
//
//	bot --game 3f2c... --color red --strategy first
//	bot --create remote-duel
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/player"
	"github.com/wricardo/tsuro-game/game/service"
	"github.com/wricardo/tsuro-game/transport/websocket"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "Play remote seats of a Tsuro game",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "server address", Sources: cli.EnvVars("TSURO_URL")},
			&cli.StringFlag{Name: "game", Aliases: []string{"g"}, Usage: "game ID to join"},
			&cli.StringFlag{Name: "color", Usage: "remote seat color to take"},
			&cli.StringFlag{Name: "create", Usage: "create a game from this preset and play all its remote seats"},
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Value: player.StrategyRandom, Usage: "random or first"},
			&cli.Int64Flag{Name: "seed", Usage: "seed for the random strategy and for created games"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every frame"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := zap.NewNop()
	if cmd.Bool("verbose") {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	b := &bot{
		api:      newClient(cmd.String("url")),
		baseURL:  cmd.String("url"),
		strategy: cmd.String("strategy"),
		seed:     cmd.Int64("seed"),
		logger:   logger,
		out:      out,
	}
	if b.seed == 0 {
		b.seed = time.Now().UnixNano()
	}

	if preset := cmd.String("create"); preset != "" {
		return b.hostGame(ctx, preset)
	}

	if cmd.String("game") == "" || cmd.String("color") == "" {
		return fmt.Errorf("either --create or both --game and --color are required")
	}
	color, err := engine.ParseColor(cmd.String("color"))
	if err != nil {
		return err
	}
	winners, err := b.playSeat(ctx, cmd.String("game"), color, "bot-"+color.String(), b.seed)
	if err != nil {
		return err
	}
	b.printResult(color, winners)
	return nil
}

type bot struct {
	api      *client
	baseURL  string
	strategy string
	seed     int64
	logger   *zap.Logger
	out      io.Writer
	mu       sync.Mutex
}

// playSeat connects to one remote seat and plays it to the end
func (b *bot) playSeat(ctx context.Context, gameID string, color engine.Color, name string, seed int64) ([]engine.Color, error) {
	p, err := player.New(name, b.strategy, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	conn, err := websocket.DialRemote(ctx, b.baseURL, gameID, color)
	if err != nil {
		return nil, err
	}
	b.logger.Info("seat attached", zap.String("game_id", gameID), zap.Stringer("color", color))
	return websocket.NewRemoteClient(conn, p, b.logger).Play(ctx)
}

// hostGame creates a game, attaches to each remote seat and starts the game
func (b *bot) hostGame(ctx context.Context, preset string) error {
	info, err := b.api.createGame(ctx, preset, b.seed)
	if err != nil {
		return err
	}
	b.printf("Created game %s (preset %s, seed %d)\n", info.ID, info.Preset, info.Seed)

	var seats []engine.SeatView
	for _, s := range info.State.Seats {
		switch s.Kind {
		case engine.SeatRemote:
			seats = append(seats, s)
		case engine.SeatInteractive:
			return fmt.Errorf("preset %s has interactive seats; join its remote seats with --game and --color", preset)
		}
	}
	if len(seats) == 0 {
		return fmt.Errorf("preset %s has no remote seats", preset)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(seats))
	var wg sync.WaitGroup
	for i, s := range seats {
		wg.Add(1)
		go func(seat engine.SeatView, seed int64) {
			defer wg.Done()
			winners, err := b.playSeat(ctx, info.ID, seat.Color, seat.Name, seed)
			if err != nil {
				errs <- fmt.Errorf("%s (%s): %w", seat.Name, seat.Color, err)
				cancel()
				return
			}
			b.printResult(seat.Color, winners)
		}(s, b.seed+int64(i))
	}

	report, err := b.api.startGame(ctx, info.ID)
	if err != nil {
		cancel()
	}
	wg.Wait()
	close(errs)
	if seatErr := <-errs; seatErr != nil {
		return seatErr
	}
	if err != nil {
		return err
	}

	b.printf("Game over after %d turns\n", report.State.Turn)
	return nil
}

func (b *bot) printResult(color engine.Color, winners []engine.Color) {
	names := make([]string, 0, len(winners))
	won := false
	for _, w := range winners {
		names = append(names, w.String())
		won = won || w == color
	}
	if won {
		b.printf("🏆 %s won (winners: %s)\n", color, strings.Join(names, ", "))
		return
	}
	b.printf("💀 %s lost (winners: %s)\n", color, strings.Join(names, ", "))
}

func (b *bot) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

// client is a minimal REST client for the endpoints the bot needs
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{baseURL: strings.TrimSuffix(baseURL, "/"), http: &http.Client{}}
}

func (c *client) createGame(ctx context.Context, preset string, seed int64) (*service.GameInfo, error) {
	var info service.GameInfo
	req := service.CreateGameRequest{Preset: preset, Seed: seed}
	if err := c.do(ctx, http.MethodPost, "/api/games", req, &info); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &info, nil
}

// startGame blocks until the game ends or waits for an interactive seat
func (c *client) startGame(ctx context.Context, gameID string) (*service.TurnReport, error) {
	var report service.TurnReport
	if err := c.do(ctx, http.MethodPost, "/api/games/"+gameID+"/start", nil, &report); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	return &report, nil
}

func (c *client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
