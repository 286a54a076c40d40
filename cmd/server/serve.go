package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gotimer/backend/internal/config"
	"gotimer/backend/internal/database"
	"gotimer/backend/internal/handler"
	"gotimer/backend/internal/metrics"
	"gotimer/backend/internal/repository"
	"gotimer/backend/internal/service"
	"gotimer/backend/internal/session"
	"gotimer/backend/pkg/jwt"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	manager := session.NewManager(store, jwt.NewSigner(cfg.SessionSecret, cfg.SessionTTL), session.CookieOptions{
		Name:   cfg.SessionCookie,
		Secure: cfg.CookieSecure,
		TTL:    cfg.SessionTTL,
	})

	h := handler.New(handler.Deps{
		Accounts: service.NewAccountService(repo),
		Games:    service.NewGameService(repo),
		Moves:    service.NewMoveService(repo),
		Stats:    service.NewStatsService(repo),
		Sessions: manager,
		Metrics:  metrics.New(),
	})
	router := handler.NewRouter(h, handler.RouterOptions{
		Origins:   cfg.Origins(),
		StaticDir: cfg.StaticDir,
		Swagger:   true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func openRepository(cfg *config.Config) (repository.Repository, func(), error) {
	if !cfg.UseDatabase() {
		log.Warn().Msg("DATABASE_URL not set, using in-memory repository")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewGormRepository(db), func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}, nil
}

func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if !cfg.UseRedis() {
		log.Warn().Msg("REDIS_URL not set, using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}

	store, err := session.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}, nil
}
