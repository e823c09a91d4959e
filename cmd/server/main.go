package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphrag/tenantgate/internal/api"
	"github.com/graphrag/tenantgate/internal/core/service"
	"github.com/graphrag/tenantgate/internal/infrastructure/config"
	"github.com/graphrag/tenantgate/internal/infrastructure/db/jsonfile"
	"github.com/graphrag/tenantgate/internal/infrastructure/engine"
	"github.com/graphrag/tenantgate/internal/workspace"
	"github.com/graphrag/tenantgate/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Credential store ---
	repo := jsonfile.NewUserRepository(cfg.UsersFile, log)
	users := service.NewUserService(repo, cfg.PersistOnLogin, log)

	// First run: no users file yet, seed from configuration.
	if !repo.Load(ctx) && cfg.AuthAccounts != "" {
		seeded := users.Seed(ctx, cfg.AuthAccounts)
		if seeded > 0 {
			if err := users.Persist(ctx); err != nil {
				log.Fatal().Err(err).Msg("failed to persist seed accounts")
			}
			log.Info().Int("users", seeded).Msg("seeded accounts from configuration")
		}
	}

	// --- Sessions & workspaces ---
	tokens := service.NewTokenService(cfg.TokenSecret, cfg.TokenTTL)
	registry := workspace.NewRegistry(cfg.WorkingDir, engine.NewFactory(), log)

	e := api.NewRouter(cfg, users, tokens, registry, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	// Flush any in-memory credential mutations (last_login updates under
	// the best-effort policy) before exit.
	if repo.Len() > 0 {
		if err := users.Persist(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("final user store persist failed")
		}
	}
}
