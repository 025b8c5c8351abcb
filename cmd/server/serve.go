package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"noteapp-server/internal/config"
	"noteapp-server/internal/handler"
	"noteapp-server/internal/middleware"
	"noteapp-server/internal/repository"
	"noteapp-server/internal/service"
	"noteapp-server/internal/websocket"
	"noteapp-server/pkg/response"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	noteRepo, closeRepo, err := openNoteRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	wsManager := websocket.NewManager(websocket.Options{
		MaxConnections: cfg.WebSocket.MaxConnections,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		PingPeriod:     cfg.WebSocket.PingPeriod,
	})
	go wsManager.Run(ctx)

	noteService := service.NewNoteService(noteRepo, service.SystemClock, wsManager)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(noteService, wsManager),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting note server", "addr", srv.Addr, "env", cfg.Server.Env, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func openNoteRepository(ctx context.Context) (repository.NoteRepository, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		slog.Warn("using in-memory note store, data is lost on exit")
		return repository.NewMemoryNoteRepository(), func() {}, nil
	}

	client, err := newCouchClient()
	if err != nil {
		return nil, nil, err
	}

	if cfg.Database.AutoSetup {
		if err := repository.EnsureSchema(ctx, client, cfg.Database.Name); err != nil {
			client.Close()
			return nil, nil, err
		}
	}

	slog.Info("connected to CouchDB", "host", cfg.Database.Host, "port", cfg.Database.Port, "db", cfg.Database.Name)
	return repository.NewNoteRepository(client, cfg.Database.Name), func() { client.Close() }, nil
}

func newRouter(noteService *service.NoteService, wsManager *websocket.Manager) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(slog.Default()))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute).Middleware())
	}

	handler.NewNoteHandler(noteService).Register(r)

	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.CORS.AllowedOrigins, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize)
	r.HandleFunc("/ws", wsHandler.HandleConnection)

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "healthy", "service": "noteapp-server"})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"message": "Note API",
		"endpoints": map[string]string{
			"/api/notes":            "GET, POST",
			"/api/notes/{id}":       "GET, PATCH, PUT, DELETE",
			"/api/notes/{id}/text":  "GET",
			"/api/notes/{id}/stats": "GET",
			"/ws":                   "GET (websocket)",
			"/health":               "GET",
		},
	})
}
