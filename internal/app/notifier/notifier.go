// Package notifier запускает потребителей очередей уведомлений.
package notifier

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/incubator-portal/internal/config"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/incubator-portal/internal/services/notifier"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
)

// App потребитель событий портала, рассылающий письма.
type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	db              *storage.Storage
	notifierService *notifierservice.NotifierService
	logger          *slog.Logger
}

// New подключается к базе данных и брокеру.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, err
	}

	mailer := smtp.NewMailer(smtp.NewTransport(cfg.SMTP, logger))

	return &App{
		conn:            conn,
		ch:              ch,
		db:              db,
		notifierService: notifierservice.NewNotifierService(db, mailer, logger),
		logger:          logger,
	}, nil
}

// Handlers сопоставляет очереди и обработчики.
func (a *App) Handlers() map[string]rabbitmq.Handler {
	return map[string]rabbitmq.Handler{
		rabbitmq.ObservationQueue:  a.notifierService.HandleObservationCreated,
		rabbitmq.RegistrationQueue: a.notifierService.HandleRegistrationReviewed,
	}
}

// Run потребляет очереди до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	for queue, handler := range a.Handlers() {
		if err := rabbitmq.ConsumeMessages(ctx, a.ch, queue, a.logger, handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", queue), sl.Err(err))
			a.close()
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("Notifier shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
