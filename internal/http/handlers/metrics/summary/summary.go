// Package summary возвращает агрегаты метрик по пользователям для панели администратора.
package summary

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Handler обрабатывает запросы сводки метрик.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс расчёта сводки.
type Service interface {
	Summary(ctx context.Context) ([]models.UserMetricsSummary, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка метрик по пользователям
// @Description Количество метрик, суммы продаж и расходов и график за последние 7 дней.
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 403 {object} response.ErrorResponse "Нужна роль admin"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/metrics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.metrics.summary"
	log := sl.ForRequest(h.log, op, r)

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		log.Error("failed to build metrics summary", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}
	if summary == nil {
		summary = []models.UserMetricsSummary{}
	}
	render.JSON(w, r, response.StatusOKWithData(summary))
}
