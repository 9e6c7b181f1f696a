package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
)

// Handler удаляет наблюдение вместе с ответами.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс удаления наблюдения.
type Service interface {
	Remove(ctx context.Context, id int) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить наблюдение
// @Tags Observations
// @Produce json
// @Param id path int true "ID наблюдения"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /observations/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.observations.remove"
	log := sl.ForRequest(h.log, op, r)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		log.Info("invalid id format", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		log.Error("failed to delete observation", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Info("success to delete observation", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
