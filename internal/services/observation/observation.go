// Package observation реализует наблюдения администраторов и ответы пользователей.
package observation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
)

// ObservationRepository определяет методы хранилища для наблюдений.
type ObservationRepository interface {
	CreateObservation(ctx context.Context, o models.Observation) (int, error)
	GetObservation(ctx context.Context, id int) (*models.Observation, error)
	ListObservations(ctx context.Context, filter models.ObservationFilter) ([]*models.Observation, error)
	ListResponses(ctx context.Context, observationIDs []int) (map[int][]models.ObservationResponse, error)
	CreateResponse(ctx context.Context, r models.ObservationResponse) (*models.ObservationResponse, error)
	UpdateObservationContent(ctx context.Context, id int, content string) error
	DeleteObservation(ctx context.Context, id int) error
}

// Publisher публикует события для рассылки уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// ObservationService бизнес‑логика наблюдений.
type ObservationService struct {
	repo      ObservationRepository
	publisher Publisher
	log       *slog.Logger
}

// NewObservationService создает новый экземпляр ObservationService.
func NewObservationService(repo ObservationRepository, publisher Publisher, log *slog.Logger) *ObservationService {
	return &ObservationService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Create сохраняет наблюдение администратора. TargetUserID == nil означает рассылку всем.
func (s *ObservationService) Create(ctx context.Context, author *models.User, req models.DummyObservation) (*models.Observation, error) {
	const op = "services.observation.Create"

	id, err := s.repo.CreateObservation(ctx, models.Observation{
		Content:      req.Content,
		AuthorID:     author.ID,
		TargetUserID: req.TargetUserID,
	})
	if errors.Is(err, storage.ErrInvalidReference) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrInvalidTarget)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.GetObservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new observation", slog.Int("id", id))

	event := models.ObservationCreatedEvent{
		ObservationID: id,
		AuthorName:    author.Name,
		TargetUserID:  req.TargetUserID,
		Content:       req.Content,
	}
	if err := s.publisher.Publish(ctx, models.EventObservationCreated, event); err != nil {
		s.log.Error("failed to publish observation event", slog.Int("id", id), sl.Err(err))
	}
	return created, nil
}

// List возвращает наблюдения, видимые пользователю, с ответами от старых к новым.
// Администратор видит все наблюдения и может отфильтровать их по адресату.
func (s *ObservationService) List(ctx context.Context, viewer *models.User, targetUserID *string) ([]*models.Observation, error) {
	const op = "services.observation.List"

	filter := models.ObservationFilter{}
	if viewer.IsAdmin() {
		filter.TargetUserID = targetUserID
	} else {
		filter.ViewerID = &viewer.ID
	}

	list, err := s.repo.ListObservations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]int, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ID)
	}
	responses, err := s.repo.ListResponses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, o := range list {
		if rs, ok := responses[o.ID]; ok {
			o.Responses = rs
		}
	}
	return list, nil
}

// Respond добавляет ответ пользователя. Невидимое пользователю наблюдение считается несуществующим.
func (s *ObservationService) Respond(ctx context.Context, user *models.User, req models.DummyResponse) (*models.ObservationResponse, error) {
	const op = "services.observation.Respond"

	o, err := s.visible(ctx, user, req.ObservationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.CreateResponse(ctx, models.ObservationResponse{
		Content:       req.Content,
		AuthorID:      user.ID,
		ObservationID: o.ID,
	})
	if errors.Is(err, storage.ErrInvalidReference) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	created.Author = models.UserRef{ID: user.ID, Name: user.Name, Email: user.Email, Image: user.Image}
	return created, nil
}

// Update меняет текст наблюдения. Разрешено только автору и только пока нет ответов.
func (s *ObservationService) Update(ctx context.Context, user *models.User, id int, content string) (*models.Observation, error) {
	const op = "services.observation.Update"

	o, err := s.repo.GetObservation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if o.AuthorID != user.ID {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}

	err = s.repo.UpdateObservationContent(ctx, id, content)
	switch {
	case errors.Is(err, storage.ErrConflict):
		return nil, fmt.Errorf("%s: %w", op, services.ErrHasResponses)
	case errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, services.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.GetObservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Remove удаляет наблюдение вместе с ответами.
func (s *ObservationService) Remove(ctx context.Context, id int) error {
	const op = "services.observation.Remove"

	err := s.repo.DeleteObservation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("observation removed", slog.Int("id", id))
	return nil
}

func (s *ObservationService) visible(ctx context.Context, user *models.User, id int) (*models.Observation, error) {
	o, err := s.repo.GetObservation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, services.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !o.VisibleTo(user) {
		return nil, services.ErrNotFound
	}
	return o, nil
}
