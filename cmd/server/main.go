package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"notes-server/internal/config"
	"notes-server/internal/domain"
	"notes-server/internal/handler"
	"notes-server/internal/logging"
	"notes-server/internal/repository"
	"notes-server/internal/repository/couchdb"
	"notes-server/internal/repository/memory"
	"notes-server/internal/repository/sqlite"
	"notes-server/internal/service"
	"notes-server/internal/stats"
	"notes-server/internal/websocket"
	"notes-server/pkg/response"
)

type storage interface {
	Users() repository.UserRepository
	Notes() repository.NoteRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	wsManager := websocket.NewManager(
		cfg.WebSocket.MaxConnPerUser,
		cfg.WebSocket.WriteWait,
		cfg.WebSocket.PongWait,
		cfg.WebSocket.PingPeriod,
		cfg.WebSocket.MaxMessageSize,
		log,
	)
	go wsManager.Run(ctx)

	opts := []service.Option{service.WithLogger(log)}

	authService := service.NewAuthService(store.Users(), store.Notes(), cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshTokenExpiration, opts...)
	userService := service.NewUserService(store.Users())
	noteService := service.NewNoteService(store.Notes(), wsManager, opts...)
	statsService := service.NewStatsService(store.Notes(), stats.NewFormatter(cfg.Stats.Locale, cfg.Stats.Location))
	statusService := service.NewStatusService(store.Users(), store.Notes(), opts...)

	if cfg.Seed.Enabled {
		seed := domain.SeedUser{Username: cfg.Seed.Username, Email: cfg.Seed.Email, Password: cfg.Seed.Password}
		if err := authService.EnsureSeed(ctx, seed); err != nil {
			log.WithError(err).Fatal("Failed to seed default user")
		}
	}

	r := handler.NewRouter(handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		User:      handler.NewUserHandler(userService, log),
		Note:      handler.NewNoteHandler(noteService, log),
		Stats:     handler.NewStatsHandler(statsService, log),
		Status:    handler.NewStatusHandler(statusService, log),
		WebSocket: handler.NewWebSocketHandler(wsManager, authService, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, log),
	}, authService, cfg.CORS, log)

	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    addr,
			"env":     cfg.Server.Env,
			"storage": cfg.Storage.Driver,
		}).Info("Starting notes server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		return
	}

	log.Info("Server stopped gracefully")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		log.WithField("path", cfg.Storage.SQLitePath).Info("Using SQLite storage")
		return sqlite.New(ctx, cfg.Storage.SQLitePath)

	case config.StorageCouchDB:
		couchURL := fmt.Sprintf("http://%s:%s@%s:%s",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
		)
		log.WithFields(logrus.Fields{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
		}).Info("Using CouchDB storage")
		return couchdb.Open(ctx, couchURL, cfg.Database.Name)

	default:
		log.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	}
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"message": "Notes Server API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"/api/register": "POST",
			"/api/login":    "POST",
			"/api/refresh":  "POST",
			"/api/notes":    "GET, POST (protected)",
			"/api/stats":    "GET (protected)",
			"/ws":           "GET (protected)",
		},
	})
}
