// Package update реализует редактирование наблюдения автором.
//
// Наблюдение, на которое уже ответили, не редактируется.
package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы на редактирование.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики редактирования.
type Service interface {
	Update(ctx context.Context, user *models.User, id int, content string) (*models.Observation, error)
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
// @Summary Редактировать наблюдение
// @Tags Observations
// @Accept  json
// @Produce  json
// @Param id path int true "ID наблюдения"
// @Param request body models.DummyObservationUpdate true "Новый текст"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Есть ответы или ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Редактировать может только автор"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /observations/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.observations.update"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		log.Info("invalid id format", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}

	var req models.DummyObservationUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	obs, err := h.service.Update(r.Context(), user, id, req.Content)
	if err != nil {
		log.Info("failed to update observation", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Info("observation updated", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(obs))
}
