// Package metric содержит бизнес‑логику загрузки метрик и агрегатов для панели администратора.
package metric

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/incubator-portal/internal/filestore"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/days"
	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
	"github.com/magabrotheeeer/incubator-portal/internal/telemetry"
)

const (
	// SummaryCacheKey ключ кэша агрегатов панели администратора.
	SummaryCacheKey = "admin:metrics-summary"
	// SummaryCacheTTL время жизни агрегатов в кэше.
	SummaryCacheTTL = time.Minute
	// ChartDays длина графика в днях.
	ChartDays = 7
)

// MetricRepository определяет методы хранилища для метрик и загрузок.
type MetricRepository interface {
	CreatePendingUpload(ctx context.Context, u models.Upload) error
	UpdateUploadFile(ctx context.Context, id, contentType string, size int64) error
	DeleteUpload(ctx context.Context, id string) error
	CreateMetricWithUploads(ctx context.Context, m models.Metric, uploadIDs []string) (*models.Metric, error)
	ListMetricsByAuthor(ctx context.Context, authorID string) ([]*models.Metric, error)
	MetricTotalsByUser(ctx context.Context) ([]models.UserMetricTotals, error)
	MetricAmountsSince(ctx context.Context, since time.Time) ([]models.MetricAmount, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)
}

// FileStore сохраняет файлы загрузок.
type FileStore interface {
	NewName(original string) string
	Path(name string) string
	URL(name string) string
	Save(name string, r io.Reader) (*filestore.Saved, error)
	Remove(path string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// MetricService реализует загрузку метрик и агрегаты.
type MetricService struct {
	repo  MetricRepository
	files FileStore
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// NewMetricService создает новый экземпляр MetricService.
func NewMetricService(repo MetricRepository, files FileStore, cache Cache, log *slog.Logger) *MetricService {
	return &MetricService{
		repo:  repo,
		files: files,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// WithClock подменяет источник времени, используется в тестах.
func (s *MetricService) WithClock(now func() time.Time) *MetricService {
	s.now = now
	return s
}

// Create сохраняет файлы и метрику. Сначала записываются загрузки в статусе pending,
// затем файлы, затем одна транзакция создаёт метрику и привязывает загрузки.
// При ошибке записанные файлы и строки удаляются, остатки после сбоя убирает janitor.
func (s *MetricService) Create(ctx context.Context, authorID string, req models.NewMetric) (*models.Metric, error) {
	const op = "services.metric.Create"

	var written []*models.Upload
	cleanup := func() {
		for _, u := range written {
			if err := s.files.Remove(u.StoredPath); err != nil {
				s.log.Warn("failed to remove upload file", slog.String("path", u.StoredPath), sl.Err(err))
			}
			if err := s.repo.DeleteUpload(context.WithoutCancel(ctx), u.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.log.Warn("failed to delete upload row", slog.String("upload_id", u.ID), sl.Err(err))
			}
		}
	}

	image, err := s.store(ctx, authorID, models.UploadKindImage, req.Image, &written)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	document, err := s.store(ctx, authorID, models.UploadKindDocument, req.Document, &written)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metric, err := s.repo.CreateMetricWithUploads(ctx, models.Metric{
		Title:       req.Title,
		Description: req.Description,
		Comment:     req.Comment,
		ImageURL:    image.URL,
		DocumentURL: document.URL,
		Sales:       req.Sales,
		Expenses:    req.Expenses,
		AuthorID:    authorID,
	}, []string{image.ID, document.ID})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	telemetry.MetricsUploaded.Inc()
	s.log.Info("created new metric", slog.Int("id", metric.ID), slog.String("author_id", authorID))

	if err := s.cache.Invalidate(ctx, SummaryCacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", SummaryCacheKey), sl.Err(err))
	}
	return metric, nil
}

func (s *MetricService) store(ctx context.Context, ownerID, kind string, part models.FilePart, written *[]*models.Upload) (*models.Upload, error) {
	name := s.files.NewName(part.Filename)
	u := &models.Upload{
		ID:           uuid.NewString(),
		Kind:         kind,
		OriginalName: part.Filename,
		StoredPath:   s.files.Path(name),
		URL:          s.files.URL(name),
		Size:         part.Size,
		Status:       models.UploadPending,
		OwnerID:      ownerID,
	}
	if err := s.repo.CreatePendingUpload(ctx, *u); err != nil {
		return nil, err
	}
	*written = append(*written, u)

	saved, err := s.files.Save(name, part.Content)
	if err != nil {
		return nil, err
	}
	u.ContentType = saved.ContentType
	u.Size = saved.Size
	if err := s.repo.UpdateUploadFile(ctx, u.ID, saved.ContentType, saved.Size); err != nil {
		return nil, err
	}
	return u, nil
}

// ListMine возвращает метрики автора, новые первыми.
func (s *MetricService) ListMine(ctx context.Context, authorID string) ([]*models.Metric, error) {
	const op = "services.metric.ListMine"
	list, err := s.repo.ListMetricsByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Summary возвращает агрегаты по каждому не‑администратору с графиком за последние 7 дней.
// Результат кэшируется на минуту и сбрасывается при создании метрики.
func (s *MetricService) Summary(ctx context.Context) ([]models.UserMetricsSummary, error) {
	const op = "services.metric.Summary"

	var cached []models.UserMetricsSummary
	found, err := s.cache.Get(ctx, SummaryCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", SummaryCacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	totals, err := s.repo.MetricTotalsByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	window := days.Window(s.now(), ChartDays)
	amounts, err := s.repo.MetricAmountsSince(ctx, window[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := BuildSummary(totals, amounts, window)
	if err := s.cache.Set(ctx, SummaryCacheKey, result, SummaryCacheTTL); err != nil {
		s.log.Warn("failed to cache summary", slog.String("key", SummaryCacheKey), sl.Err(err))
	}
	return result, nil
}

// BuildSummary раскладывает суммы метрик по дням окна. Метрика попадает в день,
// если её дата создания совпадает с календарной датой дня.
func BuildSummary(totals []models.UserMetricTotals, amounts []models.MetricAmount, window []time.Time) []models.UserMetricsSummary {
	charts := make(map[string][]models.ChartPoint, len(totals))
	for _, t := range totals {
		charts[t.User.ID] = emptyChart(window)
	}
	for _, a := range amounts {
		chart, ok := charts[a.UserID]
		if !ok {
			continue
		}
		for i, day := range window {
			if days.Same(day, a.CreatedAt) {
				chart[i].Sales += a.Sales
				chart[i].Expenses += a.Expenses
				break
			}
		}
	}

	result := make([]models.UserMetricsSummary, 0, len(totals))
	for _, t := range totals {
		result = append(result, models.UserMetricsSummary{
			User:          t.User,
			TotalMetrics:  t.TotalMetrics,
			TotalSales:    t.TotalSales,
			TotalExpenses: t.TotalExpenses,
			ChartData:     charts[t.User.ID],
		})
	}
	return result
}

func emptyChart(window []time.Time) []models.ChartPoint {
	chart := make([]models.ChartPoint, len(window))
	for i, day := range window {
		chart[i] = models.ChartPoint{Date: day.Format(days.Layout)}
	}
	return chart
}

// Documents возвращает файлы всех метрик. Тип файла берётся из сохранённого при загрузке,
// для старых записей без типа угадывается по расширению.
func (s *MetricService) Documents(ctx context.Context) ([]*models.Document, error) {
	const op = "services.metric.Documents"
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, d := range docs {
		if d.Type == "" {
			d.Type = filestore.TypeByName(d.Name)
		}
	}
	return docs, nil
}
