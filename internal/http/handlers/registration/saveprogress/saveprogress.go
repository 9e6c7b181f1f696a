// Package saveprogress реализует автосохранение черновика мастера регистрации.
//
// Черновик хранится по email пользователя сессии, последнее сохранение побеждает.
package saveprogress

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы автосохранения.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс сохранения черновика.
type Service interface {
	SaveProgress(ctx context.Context, email string, req models.DummyProgress) (*models.IncompleteRegistration, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сохранить черновик регистрации
// @Tags Registration
// @Accept  json
// @Produce  json
// @Param request body models.DummyProgress true "Данные проекта и текущий шаг"
// @Success 200 {object} response.Response "Сохранённый черновик"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /save-progress [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.saveprogress"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	var req models.DummyProgress
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	draft, err := h.service.SaveProgress(r.Context(), user.Email, req)
	if err != nil {
		log.Error("failed to save progress", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Debug("progress saved", slog.Int("step", draft.CurrentStep))
	render.JSON(w, r, response.StatusOKWithData(draft))
}
