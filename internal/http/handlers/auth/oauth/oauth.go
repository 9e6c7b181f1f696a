package oauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/http/sessioncookie"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

// StateTTL время жизни параметра state между перенаправлением и callback.
const StateTTL = 10 * time.Minute

// Provider провайдер OAuth.
type Provider interface {
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (models.Identity, error)
}

// StateStore хранит одноразовые значения state.
type StateStore interface {
	SaveState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeState(ctx context.Context, state string) (bool, error)
}

// Service создает сессию по данным провайдера.
type Service interface {
	SignIn(ctx context.Context, identity models.Identity) (*models.User, string, error)
}

// RedirectHandler перенаправляет пользователя на страницу согласия провайдера.
type RedirectHandler struct {
	log      *slog.Logger
	provider Provider
	states   StateStore
}

// NewRedirect создает RedirectHandler.
func NewRedirect(log *slog.Logger, provider Provider, states StateStore) *RedirectHandler {
	return &RedirectHandler{log: log, provider: provider, states: states}
}

// ServeHTTP godoc
// @Summary Вход через Google
// @Tags Auth
// @Success 302 "Перенаправление к провайдеру"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/google [get]
func (h *RedirectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.oauth.redirect"
	log := sl.ForRequest(h.log, op, r)

	state := uuid.NewString()
	if err := h.states.SaveState(r.Context(), state, StateTTL); err != nil {
		log.Error("failed to save oauth state", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, response.MsgInternal)
		return
	}
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// CallbackHandler завершает вход: проверяет state, получает профиль и выставляет cookie.
type CallbackHandler struct {
	log           *slog.Logger
	provider      Provider
	states        StateStore
	service       Service
	cookie        sessioncookie.Options
	afterLoginURL string
}

// NewCallback создает CallbackHandler.
func NewCallback(log *slog.Logger, provider Provider, states StateStore, service Service,
	cookie sessioncookie.Options, afterLoginURL string) *CallbackHandler {
	return &CallbackHandler{
		log:           log,
		provider:      provider,
		states:        states,
		service:       service,
		cookie:        cookie,
		afterLoginURL: afterLoginURL,
	}
}

// ServeHTTP godoc
// @Summary Callback провайдера OAuth
// @Tags Auth
// @Param state query string true "state"
// @Param code query string true "Код авторизации"
// @Success 302 "Перенаправление в приложение"
// @Failure 400 {object} response.ErrorResponse "Неверный state"
// @Failure 403 {object} response.ErrorResponse "Учетная запись заблокирована"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/google/callback [get]
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.oauth.callback"
	log := sl.ForRequest(h.log, op, r)

	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		log.Info("provider returned error", slog.String("error", providerErr))
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	state, code := q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	ok, err := h.states.ConsumeState(r.Context(), state)
	if err != nil {
		log.Error("failed to check oauth state", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, response.MsgInternal)
		return
	}
	if !ok {
		log.Info("unknown or expired oauth state")
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}

	identity, err := h.provider.Identity(r.Context(), code)
	if err != nil {
		log.Error("failed to fetch identity", sl.Err(err))
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	user, token, err := h.service.SignIn(r.Context(), identity)
	if err != nil {
		if errors.Is(err, services.ErrBlocked) {
			log.Info("blocked user sign-in", slog.String("email", identity.Email))
		} else {
			log.Error("sign-in failed", sl.Err(err))
		}
		response.FailWithError(w, r, err)
		return
	}

	sessioncookie.Set(w, h.cookie, token)
	log.Info("oauth sign-in success", slog.String("user_id", user.ID))
	http.Redirect(w, r, h.afterLoginURL, http.StatusFound)
}
