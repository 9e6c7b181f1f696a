// Package user реализует управление пользователями в панели администратора.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
	"github.com/magabrotheeeer/incubator-portal/internal/services/metric"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
)

// UserRepository определяет методы хранилища для управления пользователями.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUserSummaries(ctx context.Context) ([]*models.UserSummary, error)
	DeleteUser(ctx context.Context, id string) error
	SetUserStatus(ctx context.Context, id, status string) error
}

// Cache сбрасывает закэшированные агрегаты, зависящие от набора пользователей.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// UserService бизнес‑логика управления пользователями.
type UserService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, log *slog.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// List возвращает пользователей без роли admin со счётчиками наблюдений и метрик.
func (s *UserService) List(ctx context.Context) ([]*models.UserSummary, error) {
	const op = "services.user.List"

	list, err := s.repo.ListUserSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Remove удаляет пользователя вместе с его данными. Администраторов удалять нельзя.
func (s *UserService) Remove(ctx context.Context, id string) error {
	const op = "services.user.Remove"

	target, err := s.target(ctx, op, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, target.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, services.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateSummary(ctx)
	s.log.Info("user removed", slog.String("user_id", target.ID))
	return nil
}

// ToggleStatus переключает статус active/blocked и возвращает новый статус.
func (s *UserService) ToggleStatus(ctx context.Context, id string) (string, error) {
	const op = "services.user.ToggleStatus"

	target, err := s.target(ctx, op, id)
	if err != nil {
		return "", err
	}
	status := models.StatusBlocked
	if target.IsBlocked() {
		status = models.StatusActive
	}
	if err := s.repo.SetUserStatus(ctx, target.ID, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, services.ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateSummary(ctx)
	s.log.Info("user status changed", slog.String("user_id", target.ID), slog.String("status", status))
	return status, nil
}

func (s *UserService) target(ctx context.Context, op, id string) (*models.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	return u, nil
}

// invalidateSummary сбрасывает агрегаты панели: удаление или блокировка меняет счётчики пользователей.
func (s *UserService) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, metric.SummaryCacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", metric.SummaryCacheKey), sl.Err(err))
	}
}
