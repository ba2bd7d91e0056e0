// Command linkgame runs the Link Match tile puzzle.
//
// Commands:
//  1. "server" (default) – HTTP server exposing the REST API, WebSocket and an /mcp endpoint
//  2. "stdio-mcp" – MCP stdio server; spins up an internal HTTP API if none is available
//  3. "play" – play a level in the terminal
//  4. "autoplay" – let the bot play a level and print the outcome
//  5. "validate" – check every level file in the config directory
//
// Flags control host/port, config directory, score storage, debug logging
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/linkgame/api"
	"github.com/wricardo/mcp-training/linkgame/game/bot"
	"github.com/wricardo/mcp-training/linkgame/game/config"
	"github.com/wricardo/mcp-training/linkgame/game/scores"
	"github.com/wricardo/mcp-training/linkgame/game/service"
	"github.com/wricardo/mcp-training/linkgame/game/session"
	"github.com/wricardo/mcp-training/linkgame/transport/mcp"
	"github.com/wricardo/mcp-training/linkgame/transport/terminal"
	"github.com/wricardo/mcp-training/linkgame/transport/websocket"
	"github.com/wricardo/mcp-training/linkgame/validate"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Link Match Game Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	externalAPIURL  = "http://localhost:8080"
)

// services bundles everything the commands share
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
	scores   scores.Store
	logger   *zap.Logger
}

func (s *services) Close() {
	s.sessions.CloseAll()
	if err := s.scores.Close(); err != nil {
		s.logger.Warn("failed to close score store", zap.Error(err))
	}
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "linkgame",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing level files", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging", Sources: cli.EnvVars("DEBUG")},
			&cli.StringFlag{Name: "scores", Value: "memory", Usage: "Score backend: memory, file, redis or postgres", Sources: cli.EnvVars("SCORES_BACKEND")},
			&cli.StringFlag{Name: "scores-path", Value: "scores.json", Usage: "Score file for the file backend", Sources: cli.EnvVars("SCORES_PATH")},
			&cli.StringFlag{Name: "scores-url", Usage: "Redis URL or Postgres DSN", Sources: cli.EnvVars("SCORES_URL", "DATABASE_URL")},
			&cli.StringFlag{Name: "scores-key", Usage: "Redis sorted set key", Sources: cli.EnvVars("SCORES_KEY")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
			{
				Name:   "play",
				Usage:  "Play a level in the terminal",
				Flags:  levelFlags(),
				Action: runPlay,
			},
			{
				Name:  "autoplay",
				Usage: "Let the bot play a level and print the outcome",
				Flags: append(levelFlags(),
					&cli.DurationFlag{Name: "delay", Usage: "Pause between bot clicks"},
				),
				Action: runAutoplay,
			},
			{
				Name:   "validate",
				Usage:  "Validate every level file in the config directory",
				Action: runValidate,
			},
		},
	}
}

func levelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "level", Usage: "Level ID (defaults to the classic level)"},
		&cli.Int64Flag{Name: "seed", Usage: "Board seed (0 deals a random board)"},
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initializeServices wires the config, session and score layers into the game service
func initializeServices(ctx context.Context, cmd *cli.Command, logger *zap.Logger, notifier service.Notifier) (*services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	configManager, err := config.NewManager(cmd.String("config-dir"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	store, err := scores.Open(ctx, scores.Options{
		Backend: cmd.String("scores"),
		Path:    cmd.String("scores-path"),
		URL:     cmd.String("scores-url"),
		Key:     cmd.String("scores-key"),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open score store: %w", err)
	}

	sessionManager := session.NewManager(logger)

	opts := []service.Option{
		service.WithScoreStore(store),
		service.WithLogger(logger),
	}
	if notifier != nil {
		opts = append(opts, service.WithNotifier(notifier))
	}

	return &services{
		game:     service.NewGameService(sessionManager, configManager, opts...),
		sessions: sessionManager,
		configs:  configManager,
		scores:   store,
		logger:   logger,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("count", removed))
			}
		}
	}
}

// newRouter combines the API server and the /mcp endpoint
func newRouter(apiServer *api.Server, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/mcp", mcpClient.HTTPHandler())
	mainRouter.Handle("/", apiServer)
	return mainRouter
}

// runServer starts the HTTP server with REST API, WebSocket hub and the /mcp
// endpoint. If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	hub := websocket.NewHub(logger)
	svc, err := initializeServices(ctx, cmd, logger, hub)
	if err != nil {
		return err
	}
	defer svc.Close()

	go hub.Run(ctx)
	go sessionCleanupRoutine(ctx, svc.sessions, cleanupInterval, logger)

	apiServer := api.NewServer(svc.game, hub, logger)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	mcpClient := mcp.NewClient("http://"+addr, logger)
	router := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting server",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("addr", addr))

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening",
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), router, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler, logger *zap.Logger) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
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

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("mcp", url+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// externalAPIAvailable reports whether an API server already answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runStdioMCP runs an MCP stdio server. It reuses an API server at
// externalAPIURL when one answers; otherwise it starts an internal API bound
// to a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the protocol, so logs go to stderr
	zapConfig := zap.NewProductionConfig()
	if cmd.Bool("debug") {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	baseURL := externalAPIURL
	if externalAPIAvailable(baseURL) {
		logger.Info("external API server found, using it for MCP", zap.String("url", baseURL))
	} else {
		baseURL, err = startInternalAPI(ctx, cmd, logger)
		if err != nil {
			return err
		}
	}

	mcpClient := mcp.NewClient(baseURL, logger)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// startInternalAPI serves the REST API on a random loopback port until ctx is done
func startInternalAPI(ctx context.Context, cmd *cli.Command, logger *zap.Logger) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub(logger)
	svc, err := initializeServices(ctx, cmd, logger, hub)
	if err != nil {
		listener.Close()
		return "", err
	}
	go hub.Run(ctx)
	go sessionCleanupRoutine(ctx, svc.sessions, cleanupInterval, logger)

	httpServer := &http.Server{Handler: api.NewServer(svc.game, hub, logger)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("internal HTTP server error", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
		svc.Close()
	}()

	addr := listener.Addr().String()
	logger.Info("started internal HTTP server for MCP stdio", zap.String("addr", addr))
	return "http://" + addr, nil
}

// startLevel creates a session for the level and seed flags and returns it
func startLevel(ctx context.Context, cmd *cli.Command, svc *services) (*service.Session, error) {
	info, err := svc.game.CreateSession(ctx, cmd.String("level"), cmd.Int64("seed"))
	if err != nil {
		return nil, err
	}
	return svc.sessions.Get(info.ID)
}

// runPlay opens a tcell screen and plays a level in the terminal
func runPlay(ctx context.Context, cmd *cli.Command) error {
	// The screen owns the terminal; logs are dropped
	logger := zap.NewNop()

	svc, err := initializeServices(ctx, cmd, logger, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	sess, err := startLevel(ctx, cmd, svc)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return terminal.New(screen, sess, logger).Run(ctx)
}

// runAutoplay lets the bot play a level and prints the outcome
func runAutoplay(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	svc, err := initializeServices(ctx, cmd, logger, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	sess, err := startLevel(ctx, cmd, svc)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player := bot.New(sess, bot.WithDelay(cmd.Duration("delay")), bot.WithLogger(logger))
	result, err := player.Play(ctx)
	if err != nil && !errors.Is(err, bot.ErrStuck) {
		return err
	}

	printResult(os.Stdout, sess.Config.Name, result)
	return nil
}

func printResult(w io.Writer, level string, result *bot.Result) {
	fmt.Fprintf(w, "Level: %s\n", level)
	fmt.Fprintf(w, "Status: %s\n", result.Status)
	fmt.Fprintf(w, "Score: %d\n", result.Score)
	fmt.Fprintf(w, "Matches: %d (%d clicks, %d shuffles)\n", result.Matches, result.Clicks, result.Shuffles)
	fmt.Fprintf(w, "Time left: %ds\n", result.TimeLeft)
	fmt.Fprintf(w, "Elapsed: %s\n", result.Elapsed.Round(time.Millisecond))
}

// runValidate validates every level file and fails when one is invalid
func runValidate(ctx context.Context, cmd *cli.Command) error {
	results, err := validate.ValidateDir(cmd.String("config-dir"))
	if err != nil {
		return err
	}
	if !validate.Report(os.Stdout, results) {
		return cli.Exit("", 1)
	}
	return nil
}
