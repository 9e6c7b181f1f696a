// Package main Incubator Portal API
//
// @title           Incubator Portal API
// @version         1.0
// @description     API портала инкубатора: метрики, наблюдения и заявки на регистрацию проектов

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name portal_session
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/incubator-portal/internal/app/portal"
	"github.com/magabrotheeeer/incubator-portal/internal/config"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env)

	logger.Info("starting portal", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := portal.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("portal stopped gracefully")
}
