// Command tsuro runs the Tsuro game server.
//
// It has three commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSockets, metrics and an /mcp endpoint
//  2. "simulate" plays automated games in-process and prints the results
//  3. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from an optional config file and TSURO_* environment
// variables; flags override both. An ngrok tunnel can be enabled for easy
// external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/tsuro-game/api"
	"github.com/wricardo/tsuro-game/game/config"
	"github.com/wricardo/tsuro-game/game/engine"
	"github.com/wricardo/tsuro-game/game/metrics"
	"github.com/wricardo/tsuro-game/game/service"
	"github.com/wricardo/tsuro-game/game/session"
	"github.com/wricardo/tsuro-game/transport/mcp"
	"github.com/wricardo/tsuro-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tsuro Game Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "tsuro",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "settings file (yaml or json)",
				Sources: cli.EnvVars("TSURO_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP server with API, WebSocket, metrics and MCP endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
					&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port"},
					&cli.StringFlag{Name: "preset-dir", Usage: "directory of preset files"},
					&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
				},
				Action: runServe,
			},
			{
				Name:  "simulate",
				Usage: "Play automated games and print the results",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Value: "quartet", Usage: "preset whose roster is used; every seat plays automatically"},
					&cli.IntFlag{Name: "games", Aliases: []string{"n"}, Value: 1, Usage: "number of games"},
					&cli.Int64Flag{Name: "seed", Usage: "seed of the first game; later games use seed+i"},
					&cli.StringFlag{Name: "preset-dir", Usage: "directory of preset files"},
				},
				Action: runSimulate,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server backed by the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "REST API to proxy; an internal server starts if it is unreachable"},
					&cli.StringFlag{Name: "preset-dir", Usage: "directory of preset files"},
				},
				Action: runStdioMCP,
			},
		},
	}
}

// loadSettings reads the settings file and applies flag overrides
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("log-level") {
		settings.Logging.Level = cmd.String("log-level")
	}
	if cmd.IsSet("host") {
		settings.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		settings.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("preset-dir") {
		settings.Game.PresetDir = cmd.String("preset-dir")
	}
	if cmd.IsSet("ngrok") {
		settings.Server.Ngrok = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		settings.Server.NgrokDomain = cmd.String("ngrok-domain")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// initLogger initializes the zap logger
func initLogger(cfg config.LoggingSettings) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// services bundles everything a running server needs
type services struct {
	game     service.GameService
	sessions *session.Manager
	hub      *websocket.Hub
	remotes  *websocket.Remotes
	registry *prometheus.Registry
}

// newServices wires the session and preset managers, the game service and
// its notifier, remote players and metrics.
func newServices(settings *config.Settings, logger *zap.Logger) (*services, error) {
	presets, err := config.NewManager(settings.Game.PresetDir, logger.Named("presets"))
	if err != nil {
		return nil, fmt.Errorf("failed to create preset manager: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &services{
		sessions: session.NewManager(logger.Named("sessions")),
		hub:      websocket.NewHub(logger.Named("hub")),
		remotes:  websocket.NewRemotes(settings.Game.TurnTimeout, logger.Named("remote")),
		registry: registry,
	}
	s.game = service.NewGameService(s.sessions, presets, service.Options{
		Logger:      logger.Named("service"),
		Metrics:     metrics.NewRecorder(registry),
		Notifier:    s.hub,
		Remote:      s.remotes.NewPlayer,
		DefaultSeed: settings.Game.DefaultSeed,
	})
	return s, nil
}

// start launches the hub and the session cleanup loop until ctx is done
func (s *services) start(ctx context.Context, settings *config.Settings) {
	go s.hub.Run(ctx)
	go s.sessions.RunCleanup(ctx, settings.Session.CleanupInterval, settings.Session.MaxAge, s.remotes.Forget)
}

func (s *services) apiServer(logger *zap.Logger) *api.Server {
	return api.NewServer(s.game, s.hub, api.Options{
		Logger:  logger.Named("api"),
		Remotes: s.remotes,
		Metrics: promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}),
	})
}

// mcpHandler serves single JSON-RPC MCP messages over HTTP POST
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}

// runServe starts the HTTP server. If ngrok is enabled it also provisions a
// public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := initLogger(settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting server", zap.String("app", AppName), zap.String("version", Version))

	svc, err := newServices(settings, logger)
	if err != nil {
		return err
	}
	svc.start(ctx, settings)

	addr := settings.Server.Address()
	mcpClient := mcp.NewClient(localURL(addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", svc.apiServer(logger))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mainRouter,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", localURL(addr)+"/api"),
			zap.String("websocket", "/ws?game=<game_id>"),
			zap.String("remote", "/remote?game=<game_id>&color=<color>"),
			zap.String("mcp", "/mcp"),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if settings.Server.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, logger.Named("ngrok"), cmd.String("ngrok-auth"), settings.Server.NgrokDomain, mainRouter)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

func runNgrok(ctx context.Context, logger *zap.Logger, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	logger.Info("ngrok tunnel established",
		zap.String("url", tun.URL()),
		zap.String("api", tun.URL()+"/api"),
		zap.String("mcp", tun.URL()+"/mcp"),
	)

	go func() {
		<-ctx.Done()
		tun.Close()
	}()
	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
}

// runSimulate plays games with every seat automated and prints one line per
// game plus a win tally.
func runSimulate(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if !cmd.IsSet("log-level") {
		settings.Logging.Level = "warn"
	}
	logger, err := initLogger(settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	presets, err := config.NewManager(settings.Game.PresetDir, logger.Named("presets"))
	if err != nil {
		return err
	}
	preset, err := presets.LoadPreset(cmd.String("preset"))
	if err != nil {
		return err
	}
	roster := config.AutomatedRoster(preset.Players)

	svc := service.NewGameService(session.NewManager(logger), presets, service.Options{Logger: logger})
	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	games := cmd.Int("games")
	if games < 1 {
		return fmt.Errorf("games must be at least 1, got %d", games)
	}
	seed := cmd.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	wins := make(map[string]float64)
	totalTurns := 0
	for i := 0; i < games; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := svc.CreateGame(ctx, service.CreateGameRequest{Seed: seed + int64(i), Players: roster})
		if err != nil {
			return err
		}
		report, err := svc.StartGame(ctx, info.ID)
		if err != nil {
			return err
		}
		if err := svc.DeleteGame(ctx, info.ID); err != nil {
			return err
		}

		winners := make([]string, 0, len(report.State.Winners))
		for _, c := range report.State.Winners {
			name := seatName(report.State.Seats, c)
			winners = append(winners, fmt.Sprintf("%s (%s)", name, c))
			wins[name] += 1 / float64(len(report.State.Winners))
		}
		totalTurns += report.State.Turn
		fmt.Fprintf(out, "game %d seed %d: %d turns, %d tiles, winners: %s\n",
			i+1, info.Seed, report.State.Turn, len(report.State.Board.Tiles), strings.Join(winners, ", "))
	}

	fmt.Fprintf(out, "\n%d games, %.1f turns on average\n", games, float64(totalTurns)/float64(games))
	names := make([]string, 0, len(roster))
	for _, p := range roster {
		names = append(names, p.Name)
	}
	sort.SliceStable(names, func(i, j int) bool { return wins[names[i]] > wins[names[j]] })
	for _, name := range names {
		fmt.Fprintf(out, "  %-12s %5.1f wins\n", name, wins[name])
	}
	return nil
}

func seatName(seats []engine.SeatView, color engine.Color) string {
	for _, s := range seats {
		if s.Color == color {
			return s.Name
		}
	}
	return color.String()
}

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when
// it answers; otherwise it starts an internal HTTP API on a random loopback
// port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	// stdout carries the MCP protocol; zap writes to stderr
	logger, err := initLogger(settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	baseURL := strings.TrimRight(cmd.String("api-url"), "/")
	logger.Info("checking for external API server", zap.String("url", baseURL))

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		logger.Info("external API server found, using it for MCP")
	} else {
		if err == nil {
			resp.Body.Close()
		}
		logger.Info("no external API server found, starting internal HTTP server")

		svc, err := newServices(settings, logger)
		if err != nil {
			return err
		}
		svc.start(ctx, settings)

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		httpServer := &http.Server{Handler: svc.apiServer(logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("internal HTTP server ready", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
