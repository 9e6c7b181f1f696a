// Package respond реализует добавление ответа на наблюдение.
package respond

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

// Handler обрабатывает запросы на ответ.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики ответов.
type Service interface {
	Respond(ctx context.Context, user *models.User, req models.DummyResponse) (*models.ObservationResponse, error)
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
// @Summary Ответить на наблюдение
// @Tags Observations
// @Accept  json
// @Produce  json
// @Param request body models.DummyResponse true "Ответ"
// @Success 201 {object} response.Response "Созданный ответ"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Наблюдение не найдено или недоступно"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /observations/responses [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.observations.respond"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	var req models.DummyResponse
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

	resp, err := h.service.Respond(r.Context(), user, req)
	if err != nil {
		log.Info("failed to respond", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(resp))
}
