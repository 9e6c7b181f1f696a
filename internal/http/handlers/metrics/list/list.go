// Package list возвращает метрики текущего пользователя, новые первыми.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы списка метрик.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка метрик.
type Service interface {
	ListMine(ctx context.Context, authorID string) ([]*models.Metric, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Мои метрики
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Response "Список метрик"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /metrics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.metrics.list"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	metrics, err := h.service.ListMine(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to list metrics", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	if metrics == nil {
		metrics = []*models.Metric{}
	}
	render.JSON(w, r, response.StatusOKWithData(metrics))
}
