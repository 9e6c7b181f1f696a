// Package getprogress возвращает черновик регистрации пользователя сессии.
package getprogress

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
)

// Handler обрабатывает запросы черновика.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения черновика.
type Service interface {
	GetProgress(ctx context.Context, email string) (*models.IncompleteRegistration, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Черновик регистрации
// @Description Возвращает черновик или data: null, если мастер ещё не начат.
// @Tags Registration
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Router /save-progress [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.getprogress"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	draft, err := h.service.GetProgress(r.Context(), user.Email)
	if errors.Is(err, services.ErrNotFound) {
		render.JSON(w, r, response.StatusOKWithData(nil))
		return
	}
	if err != nil {
		log.Error("failed to load progress", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(draft))
}
