package portal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/incubator-portal/internal/cache"
	"github.com/magabrotheeeer/incubator-portal/internal/config"
	"github.com/magabrotheeeer/incubator-portal/internal/filestore"
	"github.com/magabrotheeeer/incubator-portal/internal/grpc/server"
	"github.com/magabrotheeeer/incubator-portal/internal/http/handlers/auth/oauth"
	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/sessioncookie"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/migrations"
	authservice "github.com/magabrotheeeer/incubator-portal/internal/services/auth"
	"github.com/magabrotheeeer/incubator-portal/internal/services/janitor"
	metricservice "github.com/magabrotheeeer/incubator-portal/internal/services/metric"
	observationservice "github.com/magabrotheeeer/incubator-portal/internal/services/observation"
	registrationservice "github.com/magabrotheeeer/incubator-portal/internal/services/registration"
	userservice "github.com/magabrotheeeer/incubator-portal/internal/services/user"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthCheckInterval = 10 * time.Second
)

// App HTTP API, gRPC health и очистка загрузок в одном процессе.
type App struct {
	server          *http.Server
	health          *server.HealthServer
	grpcListener    net.Listener
	janitor         *janitor.JanitorService
	janitorSchedule string
	logger          *slog.Logger
	db              *storage.Storage
	cache           *cache.Cache
	rabbit          *amqp.Connection
}

// New поднимает зависимости и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	files, err := filestore.New(cfg.Uploads.Dir, cfg.PublicPrefix)
	if err != nil {
		_ = db.Close()
		_ = cacheRedis.Close()
		return nil, err
	}

	app := &App{
		logger:          logger,
		db:              db,
		cache:           cacheRedis,
		janitorSchedule: cfg.JanitorSchedule,
	}

	var publisher observationservice.Publisher = rabbitmq.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.closeStores()
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			app.closeStores()
			return nil, err
		}
		app.rabbit = conn
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, notifications are disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker, cfg, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Log: logger,
		Cookie: sessioncookie.Options{
			Name:   cfg.CookieName,
			Secure: cfg.CookieSecure,
			TTL:    cfg.TokenTTL,
		},
		Tokens:         jwtMaker,
		Accounts:       authService,
		Limiter:        middlewarectx.NewLimiter(cfg.RPS, cfg.Burst),
		DB:             db,
		OAuthProvider:  oauth.NewGoogle(cfg.OAuth),
		OAuthStates:    cacheRedis,
		AfterLoginURL:  cfg.AfterLoginURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		UploadsDir:     cfg.Uploads.Dir,
		UploadsPrefix:  cfg.PublicPrefix,
		Auth:           authService,
		Metrics:        metricservice.NewMetricService(db, files, cacheRedis, logger),
		Observations:   observationservice.NewObservationService(db, publisher, logger),
		Registrations:  registrationservice.NewRegistrationService(db, publisher, logger),
		Users:          userservice.NewUserService(db, cacheRedis, logger),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	app.janitor = janitor.NewJanitorService(db, files, cfg.PendingGrace, logger)

	if cfg.AddressGRPC != "" {
		lis, err := net.Listen("tcp", cfg.AddressGRPC)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.grpcListener = lis
		app.health = server.NewHealthServer(db, healthCheckInterval, logger)
	}

	return app, nil
}

// Run обслуживает запросы до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	errCh := make(chan error, 3)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	bg, stopBackground := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		stopBackground()
		wg.Wait()
	}()

	if a.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.health.Run(bg, a.grpcListener); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.janitor.Run(bg, a.janitorSchedule); err != nil {
			a.logger.Error("janitor stopped", sl.Err(err))
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// Close освобождает соединения.
func (a *App) Close() {
	if a.rabbit != nil {
		if err := a.rabbit.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
		a.rabbit = nil
	}
	a.closeStores()
}

func (a *App) closeStores() {
	if a.cache != nil {
		_ = a.cache.Close()
		a.cache = nil
	}
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}
