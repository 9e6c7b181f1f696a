// Package auth отвечает за вход пользователей и выпуск сессионных токенов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/password"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
	"github.com/magabrotheeeer/incubator-portal/internal/services/metric"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// UpsertUser создаёт пользователя или обновляет профиль существующего.
	UpsertUser(ctx context.Context, identity models.Identity, role string) (*models.User, error)
	// GetUserByID возвращает пользователя по идентификатору.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// SetUserRole меняет роль пользователя.
	SetUserRole(ctx context.Context, email, role string) error
	// SetPasswordHash сохраняет хэш пароля.
	SetPasswordHash(ctx context.Context, email, hash string) error
}

// AdminPolicy решает, получает ли новый пользователь роль admin при первом входе.
type AdminPolicy interface {
	IsBootstrapAdmin(email string) bool
}

// Cache сбрасывает агрегаты панели, в которых виден профиль пользователя.
type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// AuthService выполняет вход и выпуск JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	admins   AdminPolicy
	cache    Cache
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService. cache может быть nil.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, admins AdminPolicy, cache Cache, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		admins:   admins,
		cache:    cache,
		log:      log,
	}
}

// SignIn создаёт или обновляет пользователя по данным провайдера и выпускает токен.
// Роль назначается в том же запросе, что и создание записи.
func (s *AuthService) SignIn(ctx context.Context, identity models.Identity) (*models.User, string, error) {
	const op = "services.auth.SignIn"

	identity.Email = normalizeEmail(identity.Email)
	if identity.Email == "" {
		return nil, "", fmt.Errorf("%s: empty email: %w", op, services.ErrInvalidInput)
	}

	role := models.RoleUser
	if s.admins.IsBootstrapAdmin(identity.Email) {
		role = models.RoleAdmin
	}

	user, err := s.users.UpsertUser(ctx, identity, role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if user.IsBlocked() {
		s.log.Info("blocked user sign-in refused", slog.String("user_id", user.ID))
		return nil, "", fmt.Errorf("%s: %w", op, services.ErrBlocked)
	}

	// первый вход добавляет строку в сводку, повторный может обновить имя
	if !user.IsAdmin() && s.cache != nil {
		if err := s.cache.Invalidate(ctx, metric.SummaryCacheKey); err != nil {
			s.log.Warn("failed to invalidate cache", slog.String("key", metric.SummaryCacheKey), sl.Err(err))
		}
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user signed in", slog.String("user_id", user.ID), slog.String("role", user.Role))
	return user, token, nil
}

// Login проверяет пароль пользователя и выпускает токен.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", fmt.Errorf("%s: %w", op, services.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, services.ErrInvalidCredentials)
	}
	if user.IsBlocked() {
		return nil, "", fmt.Errorf("%s: %w", op, services.ErrBlocked)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// CurrentUser перечитывает пользователя сессии из базы данных.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (*models.User, error) {
	const op = "services.auth.CurrentUser"

	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GrantRole назначает роль пользователю.
func (s *AuthService) GrantRole(ctx context.Context, email, role string) error {
	const op = "services.auth.GrantRole"

	if role != models.RoleUser && role != models.RoleAdmin {
		return fmt.Errorf("%s: unknown role %q: %w", op, role, services.ErrInvalidInput)
	}
	err := s.users.SetUserRole(ctx, normalizeEmail(email), role)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("role granted", slog.String("email", email), slog.String("role", role))
	return nil
}

// SetPassword сохраняет пароль для локального входа.
func (s *AuthService) SetPassword(ctx context.Context, email, rawPassword string) error {
	const op = "services.auth.SetPassword"

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = s.users.SetPasswordHash(ctx, normalizeEmail(email), hash)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, services.ErrNotFound)
	}
	if err != nil {
		s.log.Error("failed to store password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
