// Package notifier формирует и отправляет письма по событиям портала.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
	"github.com/magabrotheeeer/incubator-portal/internal/telemetry"
)

// Recipients определяет методы хранилища для поиска получателей.
type Recipients interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListActiveUserEmails(ctx context.Context) ([]string, error)
}

// Mailer отправляет письмо.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// NotifierService обрабатывает события из очередей уведомлений.
type NotifierService struct {
	users  Recipients
	mailer Mailer
	log    *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(users Recipients, mailer Mailer, log *slog.Logger) *NotifierService {
	return &NotifierService{
		users:  users,
		mailer: mailer,
		log:    log,
	}
}

// HandleObservationCreated уведомляет адресата наблюдения или, для общего
// наблюдения, всех активных пользователей. Письма отправляются по одному.
// Ошибка возвращается, только если не ушло ни одного письма: повторная
// доставка иначе продублировала бы письма уже уведомлённым адресатам.
func (s *NotifierService) HandleObservationCreated(ctx context.Context, body []byte) error {
	const op = "services.notifier.HandleObservationCreated"

	var event models.ObservationCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		// повторная доставка не поможет
		return nil
	}

	var recipients []string
	if event.TargetUserID != nil {
		u, err := s.users.GetUserByID(ctx, *event.TargetUserID)
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("observation target not found", slog.String("user_id", *event.TargetUserID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if u.IsBlocked() {
			return nil
		}
		recipients = []string{u.Email}
	} else {
		emails, err := s.users.ListActiveUserEmails(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		recipients = emails
	}

	subject := "Nueva observación en el portal"
	text := fmt.Sprintf("Hola,\n\n%s ha publicado una nueva observación:\n\n%s\n\nPuede responderla desde el portal.",
		event.AuthorName, event.Content)

	var errs []error
	for _, to := range recipients {
		if err := s.mailer.Send([]string{to}, subject, text); err != nil {
			s.log.Error("failed to send observation email", slog.String("to", to), sl.Err(err))
			errs = append(errs, err)
		}
	}
	delivered := len(recipients) - len(errs)
	if delivered == 0 && len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	if len(errs) > 0 {
		telemetry.NotificationsFailed.WithLabelValues(models.EventObservationCreated).Add(float64(len(errs)))
		s.log.Warn("some observation emails were not delivered",
			slog.Int("observation_id", event.ObservationID),
			slog.Int("failed", len(errs)))
	}
	s.log.Info("observation notifications sent",
		slog.Int("observation_id", event.ObservationID),
		slog.Int("recipients", delivered))
	return nil
}

// HandleRegistrationReviewed сообщает заявителю решение по заявке.
func (s *NotifierService) HandleRegistrationReviewed(_ context.Context, body []byte) error {
	const op = "services.notifier.HandleRegistrationReviewed"

	var event models.RegistrationReviewedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return nil
	}
	if event.UserEmail == "" {
		s.log.Warn("registration event without email", slog.Int("registration_id", event.RegistrationID))
		return nil
	}

	decision := "aprobada"
	if event.Status == models.RegistrationRejected {
		decision = "rechazada"
	}
	subject := fmt.Sprintf("Su solicitud ha sido %s", decision)
	text := fmt.Sprintf("Hola,\n\nLa solicitud del proyecto \"%s\" ha sido %s.\n\nGracias por participar.",
		event.ProjectName, decision)

	if err := s.mailer.Send([]string{event.UserEmail}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("registration notification sent", slog.Int("registration_id", event.RegistrationID))
	return nil
}
