// Package registration реализует мастер регистрации проектов и рассмотрение заявок.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/youtube"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
	"github.com/magabrotheeeer/incubator-portal/internal/telemetry"
)

// RegistrationRepository определяет методы хранилища для черновиков и заявок.
type RegistrationRepository interface {
	UpsertIncomplete(ctx context.Context, email string, data models.ProjectData, step int) (*models.IncompleteRegistration, error)
	GetIncomplete(ctx context.Context, email string) (*models.IncompleteRegistration, error)
	ListIncomplete(ctx context.Context) ([]*models.IncompleteRegistration, error)
	SubmitRegistration(ctx context.Context, email string, data models.ProjectData) (*models.Registration, error)
	ListRegistrations(ctx context.Context, status string) ([]*models.Registration, error)
	CountRegistrationsByStatus(ctx context.Context) (map[string]int, error)
	ReviewRegistration(ctx context.Context, id int, status, reviewerID string) (*models.Registration, error)
}

// Publisher публикует события для рассылки уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// RegistrationService бизнес‑логика регистрации проектов.
type RegistrationService struct {
	repo      RegistrationRepository
	publisher Publisher
	log       *slog.Logger
}

// NewRegistrationService создает новый экземпляр RegistrationService.
func NewRegistrationService(repo RegistrationRepository, publisher Publisher, log *slog.Logger) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// SaveProgress сохраняет черновик пользователя. Последнее сохранение побеждает.
func (s *RegistrationService) SaveProgress(ctx context.Context, email string, req models.DummyProgress) (*models.IncompleteRegistration, error) {
	const op = "services.registration.SaveProgress"

	if req.CurrentStep < models.FirstStep || req.CurrentStep > models.LastStep {
		return nil, fmt.Errorf("%s: step %d: %w", op, req.CurrentStep, services.ErrInvalidInput)
	}
	draft, err := s.repo.UpsertIncomplete(ctx, email, req.ProjectData, req.CurrentStep)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	draft.YouTubeVideoID, _ = youtube.VideoID(draft.ProjectData.YouTubeURL)
	return draft, nil
}

// GetProgress возвращает черновик пользователя.
func (s *RegistrationService) GetProgress(ctx context.Context, email string) (*models.IncompleteRegistration, error) {
	const op = "services.registration.GetProgress"

	draft, err := s.repo.GetIncomplete(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	draft.YouTubeVideoID, _ = youtube.VideoID(draft.ProjectData.YouTubeURL)
	return draft, nil
}

// Submit создаёт заявку в статусе pending и удаляет черновик.
// Непустая ссылка на YouTube должна содержать идентификатор видео.
func (s *RegistrationService) Submit(ctx context.Context, email string, data models.ProjectData) (*models.Registration, error) {
	const op = "services.registration.Submit"

	var videoID string
	if strings.TrimSpace(data.YouTubeURL) != "" {
		id, ok := youtube.VideoID(data.YouTubeURL)
		if !ok {
			return nil, fmt.Errorf("%s: %w", op, services.ErrInvalidVideoURL)
		}
		videoID = id
	}

	reg, err := s.repo.SubmitRegistration(ctx, email, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reg.YouTubeVideoID = videoID
	s.log.Info("registration submitted", slog.Int("id", reg.ID))
	return reg, nil
}

// ListIncomplete возвращает все черновики.
func (s *RegistrationService) ListIncomplete(ctx context.Context) ([]*models.IncompleteRegistration, error) {
	const op = "services.registration.ListIncomplete"

	list, err := s.repo.ListIncomplete(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, d := range list {
		d.YouTubeVideoID, _ = youtube.VideoID(d.ProjectData.YouTubeURL)
	}
	return list, nil
}

// ListComplete возвращает заявки, при непустом status только с этим статусом,
// и количество заявок по всем статусам.
func (s *RegistrationService) ListComplete(ctx context.Context, status string) (*models.RegistrationList, error) {
	const op = "services.registration.ListComplete"

	switch status {
	case "", models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected:
	default:
		return nil, fmt.Errorf("%s: status %q: %w", op, status, services.ErrInvalidInput)
	}

	list, err := s.repo.ListRegistrations(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	counts, err := s.repo.CountRegistrationsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range list {
		r.YouTubeVideoID, _ = youtube.VideoID(r.ProjectData.YouTubeURL)
	}
	return &models.RegistrationList{Registrations: list, Counts: counts}, nil
}

// Review одобряет или отклоняет заявку. Переход возможен только из pending,
// повторное решение возвращает ErrAlreadyReviewed.
func (s *RegistrationService) Review(ctx context.Context, reviewer *models.User, req models.DummyRegistrationAction) (*models.Registration, error) {
	const op = "services.registration.Review"

	var status string
	switch req.Action {
	case models.ActionApprove:
		status = models.RegistrationApproved
	case models.ActionReject:
		status = models.RegistrationRejected
	default:
		return nil, fmt.Errorf("%s: action %q: %w", op, req.Action, services.ErrInvalidInput)
	}

	reg, err := s.repo.ReviewRegistration(ctx, req.ID, status, reviewer.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, services.ErrNotFound)
	case errors.Is(err, storage.ErrConflict):
		return nil, fmt.Errorf("%s: %w", op, services.ErrAlreadyReviewed)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reg.YouTubeVideoID, _ = youtube.VideoID(reg.ProjectData.YouTubeURL)

	telemetry.RegistrationsReviewed.WithLabelValues(req.Action).Inc()
	s.log.Info("registration reviewed", slog.Int("id", reg.ID), slog.String("status", status))

	event := models.RegistrationReviewedEvent{
		RegistrationID: reg.ID,
		UserEmail:      reg.UserEmail,
		ProjectName:    reg.ProjectData.ProjectName,
		Status:         status,
	}
	if err := s.publisher.Publish(ctx, models.EventRegistrationReviewed, event); err != nil {
		s.log.Error("failed to publish registration event", slog.Int("id", reg.ID), sl.Err(err))
	}
	return reg, nil
}
