package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
)

// Handler удаляет пользователя и все его данные.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс удаления пользователя.
type Service interface {
	Remove(ctx context.Context, id string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить пользователя
// @Tags Admin
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "Администратора удалить нельзя"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /admin/users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.remove"
	log := sl.ForRequest(h.log, op, r)

	id := chi.URLParam(r, "id")
	if id == "" {
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		log.Info("malformed user id", slog.String("user_id", id))
		response.Fail(w, r, http.StatusNotFound, response.MsgNotFound)
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		log.Info("failed to delete user", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Info("success to delete user", slog.String("user_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"deleted_id": id,
	}))
}
