// Package create реализует HTTP-обработчик создания наблюдения администратором.
//
// Наблюдение без targetUserId адресовано всем пользователям.
package create

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

// Handler управляет HTTP-запросами на создание наблюдений.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания наблюдения.
type Service interface {
	Create(ctx context.Context, author *models.User, req models.DummyObservation) (*models.Observation, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать наблюдение
// @Tags Observations
// @Accept  json
// @Produce  json
// @Param request body models.DummyObservation true "Текст и адресат"
// @Success 201 {object} response.Response "Созданное наблюдение"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или несуществующий адресат"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /observations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.observations.create"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	var req models.DummyObservation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	if req.TargetUserID != nil && *req.TargetUserID == "" {
		req.TargetUserID = nil
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	obs, err := h.service.Create(r.Context(), user, req)
	if err != nil {
		log.Error("failed to create observation", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Info("observation created", slog.Int("id", obs.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(obs))
}
