// Package togglestatus переключает статус пользователя active/blocked.
package togglestatus

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

// Handler обрабатывает запросы смены статуса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс смены статуса.
type Service interface {
	ToggleStatus(ctx context.Context, id string) (string, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Заблокировать или разблокировать пользователя
// @Description Статус сохраняется, заблокированный пользователь теряет доступ при следующем запросе.
// @Tags Admin
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response "Новый статус"
// @Failure 403 {object} response.ErrorResponse "Статус администратора не меняется"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /admin/users/{id}/toggle-status [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.togglestatus"
	log := sl.ForRequest(h.log, op, r)

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		log.Info("malformed user id", slog.String("user_id", id))
		response.Fail(w, r, http.StatusNotFound, response.MsgNotFound)
		return
	}

	status, err := h.service.ToggleStatus(r.Context(), id)
	if err != nil {
		log.Info("failed to toggle status", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":     id,
		"status": status,
	}))
}
