// Package action реализует решение администратора по заявке.
package action

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

// Handler обрабатывает запросы approve/reject.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс рассмотрения заявки.
type Service interface {
	Review(ctx context.Context, reviewer *models.User, req models.DummyRegistrationAction) (*models.Registration, error)
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
// @Summary Одобрить или отклонить заявку
// @Description Переход возможен только из pending. Повторное решение возвращает 409.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyRegistrationAction true "ID и действие"
// @Success 200 {object} response.Response "Заявка"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Failure 409 {object} response.ErrorResponse "Заявка уже рассмотрена"
// @Router /admin/registration-action [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.action"
	log := sl.ForRequest(h.log, op, r)

	reviewer, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	var req models.DummyRegistrationAction
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

	reg, err := h.service.Review(r.Context(), reviewer, req)
	if err != nil {
		log.Info("failed to review registration", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Info("registration reviewed", slog.Int("id", reg.ID), slog.String("status", reg.Status))
	render.JSON(w, r, response.StatusOKWithData(reg))
}
