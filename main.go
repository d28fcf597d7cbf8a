// Command minesweeper starts the Minesweeper game server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the settings file, debug logging, and optional
// ngrok tunneling for external access during development. Every flag can
// also be set from the environment or a .env file.
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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/minesweeper/api"
	"github.com/wricardo/mcp-training/minesweeper/game/config"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
	"github.com/wricardo/mcp-training/minesweeper/game/session"
	"github.com/wricardo/mcp-training/minesweeper/transport/mcp"
	"github.com/wricardo/mcp-training/minesweeper/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Minesweeper Server"
)

const shutdownTimeout = 10 * time.Second

var log = logrus.WithField("component", "main")

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("Error loading .env file")
		}
	} else {
		log.Debug("Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

// newApp builds the command tree. Flags declared on the root are visible to every mode.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "minesweeper",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML settings file",
				Sources: cli.EnvVars("MINESWEEPER_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-authtoken",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Before: setupLogging,
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
				Usage:   "Run MCP stdio server, starting an internal HTTP API when needed",
				Action:  runStdio,
			},
		},
		Action: runServer,
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cmd.Bool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	return ctx, nil
}

// loadSettings reads the settings file and applies host/port flags on top of it
func loadSettings(cmd *cli.Command) (*config.Manager, error) {
	manager, err := config.NewManager(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	s := manager.Get()
	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = int(cmd.Int("port"))
	}
	if err := manager.Set(s); err != nil {
		return nil, fmt.Errorf("apply flags: %w", err)
	}
	return manager, nil
}

func newServices(settings *config.Manager) (*session.Manager, service.GameService) {
	sessions := session.NewManager()
	return sessions, service.NewGameService(sessions, settings)
}

// newRouter mounts the REST API at the root and the MCP proxy at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.WithError(err).Warn("Failed to write MCP response")
		}
	})
	return mux
}

// runServer serves HTTP until ctx is cancelled, with the hub, background
// routines, and optional tunnel in one errgroup
func runServer(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	s := settings.Get()

	sessions, gameService := newServices(settings)
	hub := websocket.NewHub()
	apiServer := api.NewServer(gameService, hub)

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	mcpClient := mcp.NewClient("http://" + addr)
	handler := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":      addr,
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("Starting %s v%s", AppName, Version)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		cleanupRoutine(ctx, sessions, s.SessionTTL, s.CleanupInterval)
		return nil
	})

	g.Go(func() error {
		tickRoutine(ctx, gameService, hub, s.TickInterval)
		return nil
	})

	if cmd.Bool("ngrok") {
		token, domain := cmd.String("ngrok-authtoken"), cmd.String("ngrok-domain")
		g.Go(func() error {
			serveNgrok(ctx, token, domain, handler)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

// serveNgrok exposes handler through a tunnel. Tunnel failures are logged and never stop the server.
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-authtoken or NGROK_AUTHTOKEN)")
		return
	}

	endpoint := ngrokConfig.HTTPEndpoint()
	if domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	log.WithFields(logrus.Fields{
		"url": url,
		"mcp": url + "/mcp",
	}).Info("Ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		log.WithError(err).Warn("Ngrok server stopped")
	}
	log.Info("Ngrok tunnel closed")
}

// cleanupRoutine removes sessions idle for longer than ttl
func cleanupRoutine(ctx context.Context, sessions *session.Manager, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.CleanupExpiredSessions(ttl); removed > 0 {
				log.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

// tickSink is the part of the hub the clock needs
type tickSink interface {
	ClientCount(sessionID string) int
	BroadcastEvent(sessionID string, event string, data interface{})
}

func tickRoutine(ctx context.Context, games service.GameService, hub tickSink, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			broadcastTicks(ctx, games, hub)
		}
	}
}

// broadcastTicks sends the elapsed time of every running, watched game and returns how many were sent
func broadcastTicks(ctx context.Context, games service.GameService, hub tickSink) int {
	sessions, err := games.ListSessions(ctx)
	if err != nil {
		log.WithError(err).Warn("List sessions for tick")
		return 0
	}

	sent := 0
	for _, info := range sessions {
		view := info.Game
		if view == nil || view.Status != engine.InProgress || view.ElapsedSeconds == nil {
			continue
		}
		if hub.ClientCount(info.ID) == 0 {
			continue
		}
		hub.BroadcastEvent(info.ID, websocket.EventTick, websocket.TickData{ElapsedSeconds: *view.ElapsedSeconds})
		sent++
	}
	return sent
}

// apiAvailable reports whether a REST API already answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdio serves MCP over stdio. It reuses a running API at the configured
// address, or starts an internal one on a random loopback port.
func runStdio(ctx context.Context, cmd *cli.Command) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	s := settings.Get()

	baseURL := "http://" + net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if apiAvailable(ctx, baseURL) {
		log.WithField("url", baseURL).Info("Using external API server for MCP")
	} else {
		internalURL, shutdown, err := startInternalAPI(ctx, settings)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
		log.WithField("url", baseURL).Info("Using internal API server for MCP")
	}

	mcpClient := mcp.NewClient(baseURL)
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

func startInternalAPI(ctx context.Context, settings *config.Manager) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen for internal API: %w", err)
	}

	s := settings.Get()
	sessions, gameService := newServices(settings)
	hub := websocket.NewHub()
	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}

	ctx, cancel := context.WithCancel(ctx)
	go hub.Run(ctx)
	go cleanupRoutine(ctx, sessions, s.SessionTTL, s.CleanupInterval)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Internal HTTP server failed")
		}
	}()

	shutdown := func() {
		cancel()
		httpServer.Close()
	}
	return "http://" + listener.Addr().String(), shutdown, nil
}
