package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/superapp/nutrilife/internal/db"
	"github.com/superapp/nutrilife/internal/handlers"
	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/repository"
	"github.com/superapp/nutrilife/internal/repository/postgres"
	"github.com/superapp/nutrilife/internal/service/auth"
	"github.com/superapp/nutrilife/internal/service/nutrition"
	"github.com/superapp/nutrilife/internal/service/profile"
	"github.com/superapp/nutrilife/internal/service/token/blacklist"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger        logger.Logger
	storage       repository.Storage
	memoryLedger  *blacklist.Memory
	sweepInterval time.Duration
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)

	// Revocation ledger: shared via redis when an address is configured,
	// in-process otherwise. The in-process ledger only covers a single
	// instance deployment
	var ledger blacklist.Ledger
	var memoryLedger *blacklist.Memory
	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
		}
		ledger = blacklist.NewRedis(client)
		log.Info("Using redis revocation ledger", "addr", c.RedisAddr)
	} else {
		memoryLedger = blacklist.NewMemory()
		ledger = memoryLedger
		log.Warn("Using in-process revocation ledger, revocations are not shared between instances")
	}

	authService, err := auth.NewService(auth.Config{
		SecretKey:        c.SecretKey,
		AccessTokenTTL:   c.AccessTokenTTL,
		RefreshTokenTTL:  c.RefreshTokenTTL,
		LogoutAccessOnly: c.LogoutAccessOnly,
	}, storage, ledger, log)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	profileService := profile.NewService(storage)
	nutritionService := nutrition.NewService(storage)

	mux := handlers.NewRouter(authService, profileService, nutritionService, storage.User(), log)

	return &ServerApp{
		ListenAddr:    c.ListenAddr,
		Handler:       mux,
		logger:        log,
		storage:       storage,
		memoryLedger:  memoryLedger,
		sweepInterval: c.SweepInterval,
	}, nil
}

// runSweeper deletes expired refresh tokens and prunes the in-process
// ledger until the context is cancelled
func (s *ServerApp) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.storage.Refresh().DeleteExpired(ctx, time.Now())
			if err != nil {
				s.logger.Error("Failed to delete expired refresh tokens", "error", err)
				continue
			}
			pruned := 0
			if s.memoryLedger != nil {
				pruned = s.memoryLedger.Prune(time.Now())
			}
			s.logger.Info("Token sweep finished", "deleted", deleted, "pruned", pruned)
		}
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go s.runSweeper(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
