// Package middlewarectx содержит HTTP middleware для проверки сессии и прав доступа.
//
// SessionMiddleware проверяет JWT сессии из cookie или заголовка Authorization,
// AccountMiddleware перечитывает пользователя из базы данных, чтобы смена роли
// или блокировка действовали без повторного входа, AdminOnly пропускает только администраторов.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID: ключ для id пользователя из токена
	UserID Key = "user_id"
	// Account: ключ для перечитанного *models.User
	Account Key = "account"
)

// TokenParser проверяет токен сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.SessionClaims, error)
}

// AccountLoader загружает пользователя сессии.
type AccountLoader interface {
	CurrentUser(ctx context.Context, id string) (*models.User, error)
}

// SessionMiddleware возвращает middleware, который ищет токен в cookie cookieName,
// затем в заголовке Authorization: Bearer. Без валидного токена отвечает 401.
func SessionMiddleware(parser TokenParser, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"
			log := sl.ForRequest(log, op, r)

			tokenStr := TokenFromRequest(r, cookieName)
			if tokenStr == "" {
				log.Debug("missing session token")
				response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
				return
			}

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserID, claims.UserID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest возвращает токен сессии из cookie или заголовка Authorization.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// AccountMiddleware загружает пользователя по id из токена.
// Удалённый пользователь получает 401, заблокированный 403.
func AccountMiddleware(users AccountLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AccountMiddleware"
			log := sl.ForRequest(log, op, r)

			id, ok := r.Context().Value(UserID).(string)
			if !ok || id == "" {
				log.Error("user id missing in context")
				response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
				return
			}

			user, err := users.CurrentUser(r.Context(), id)
			if errors.Is(err, services.ErrNotFound) {
				log.Info("session user no longer exists", slog.String("user_id", id))
				response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
				return
			}
			if err != nil {
				log.Error("failed to load session user", sl.Err(err))
				response.Fail(w, r, http.StatusInternalServerError, response.MsgInternal)
				return
			}
			if user.IsBlocked() {
				log.Info("blocked user request refused", slog.String("user_id", id))
				response.Fail(w, r, http.StatusForbidden, response.MsgBlocked)
				return
			}

			ctx := context.WithValue(r.Context(), Account, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly отвечает 403 пользователям без роли admin.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
				return
			}
			if !user.IsAdmin() {
				sl.ForRequest(log, "middlewarectx.AdminOnly", r).
					Info("admin route refused", slog.String("user_id", user.ID))
				response.Fail(w, r, http.StatusForbidden, response.MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser возвращает пользователя, загруженного AccountMiddleware.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(Account).(*models.User)
	return user, ok && user != nil
}

// WithUser кладёт пользователя в контекст. Используется в тестах обработчиков.
func WithUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, UserID, user.ID)
	return context.WithValue(ctx, Account, user)
}
