// Package create реализует HTTP-обработчик загрузки метрики.
//
// Handler принимает multipart форму с полями title, description, comment, sales, expenses
// и файлами image и document, проверяет обязательные поля и передаёт данные сервису,
// который сохраняет файлы и метрику одной операцией.
package create

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/incubator-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/incubator-portal/internal/http/response"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// Сообщения об отсутствующих полях формы.
const (
	MsgTitleRequired    = "El título es requerido"
	MsgCommentRequired  = "El comentario es requerido"
	MsgImageRequired    = "La imagen es requerida"
	MsgDocumentRequired = "El documento es requerido"
	MsgInvalidSales     = "Las ventas deben ser un número"
	MsgInvalidExpenses  = "Los gastos deben ser un número"
	MsgTooLarge         = "Los archivos superan el tamaño máximo permitido"
)

// Handler управляет HTTP-запросами на создание метрик.
type Handler struct {
	log      *slog.Logger // Логгер для записи информации и ошибок
	service  Service      // Сервис бизнес-логики метрик
	maxBytes int64        // Максимальный размер тела запроса
}

// Service описывает интерфейс бизнес-логики создания метрики.
type Service interface {
	Create(ctx context.Context, authorID string, req models.NewMetric) (*models.Metric, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, maxBytes int64) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		maxBytes: maxBytes,
	}
}

// ServeHTTP godoc
// @Summary Загрузить метрику
// @Description Создает метрику текущего пользователя с изображением и документом.
// @Tags Metrics
// @Accept  multipart/form-data
// @Produce  json
// @Param title formData string true "Заголовок"
// @Param description formData string false "Описание"
// @Param comment formData string true "Комментарий"
// @Param sales formData number false "Продажи"
// @Param expenses formData number false "Расходы"
// @Param image formData file true "Изображение"
// @Param document formData file true "Документ"
// @Success 201 {object} response.Response "Созданная метрика"
// @Failure 400 {object} response.ErrorResponse "Отсутствует обязательное поле"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /metrics [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.metrics.create"
	log := sl.ForRequest(h.log, op, r)

	user, ok := middlewarectx.CurrentUser(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, response.MsgUnauthorized)
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(w, r, http.StatusRequestEntityTooLarge, MsgTooLarge)
			return
		}
		log.Info("failed to parse multipart form", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req := models.NewMetric{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Comment:     strings.TrimSpace(r.FormValue("comment")),
	}
	if req.Title == "" {
		response.Fail(w, r, http.StatusBadRequest, MsgTitleRequired)
		return
	}
	if req.Comment == "" {
		response.Fail(w, r, http.StatusBadRequest, MsgCommentRequired)
		return
	}

	var err error
	if req.Sales, err = optionalNumber(r.FormValue("sales")); err != nil {
		response.Fail(w, r, http.StatusBadRequest, MsgInvalidSales)
		return
	}
	if req.Expenses, err = optionalNumber(r.FormValue("expenses")); err != nil {
		response.Fail(w, r, http.StatusBadRequest, MsgInvalidExpenses)
		return
	}

	image, closeImage, ok := filePart(r, "image")
	if !ok {
		response.Fail(w, r, http.StatusBadRequest, MsgImageRequired)
		return
	}
	defer closeImage()
	document, closeDocument, ok := filePart(r, "document")
	if !ok {
		response.Fail(w, r, http.StatusBadRequest, MsgDocumentRequired)
		return
	}
	defer closeDocument()
	req.Image, req.Document = image, document

	metric, err := h.service.Create(r.Context(), user.ID, req)
	if err != nil {
		log.Error("failed to create metric", sl.Err(err))
		response.FailWithError(w, r, err)
		return
	}

	log.Info("metric created", slog.Int("id", metric.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(metric))
}

var errNotFinite = errors.New("number is not finite")

func optionalNumber(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errNotFinite
	}
	return &v, nil
}

func filePart(r *http.Request, field string) (models.FilePart, func(), bool) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return models.FilePart{}, nil, false
	}
	if hdr.Size == 0 {
		_ = f.Close()
		return models.FilePart{}, nil, false
	}
	return models.FilePart{Filename: hdr.Filename, Size: hdr.Size, Content: f}, closer(f), true
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}
