// Команда portalctl обслуживает портал: миграции схемы, роли и пароли.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/incubator-portal/internal/config"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/migrations"
	authservice "github.com/magabrotheeeer/incubator-portal/internal/services/auth"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(defaultBackend{}).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// defaultBackend работает с базой данных из конфига.
type defaultBackend struct{}

func (defaultBackend) Migrate(_ context.Context, cfg *config.Config) (uint, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return 0, err
	}
	version, dirty, err := migrations.Version(db.DB, cfg.MigrationsPath)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

func (defaultBackend) Accounts(_ context.Context, cfg *config.Config) (Accounts, io.Closer, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, nil, err
	}
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	return authservice.NewAuthService(db, jwtMaker, cfg, nil, sl.New(cfg.Env)), db, nil
}
