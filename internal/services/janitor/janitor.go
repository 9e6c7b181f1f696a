// Package janitor удаляет незавершённые загрузки, оставшиеся после сбоев
// между записью файла и фиксацией метрики.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/incubator-portal/internal/lib/sl"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/telemetry"
)

// UploadRepository определяет методы хранилища для очистки загрузок.
type UploadRepository interface {
	ListStalePendingUploads(ctx context.Context, before time.Time) ([]*models.Upload, error)
	DeleteUpload(ctx context.Context, id string) error
}

// FileRemover удаляет файл с диска.
type FileRemover interface {
	Remove(path string) error
}

// JanitorService периодически удаляет загрузки в статусе pending старше grace.
type JanitorService struct {
	repo  UploadRepository
	files FileRemover
	grace time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// NewJanitorService создает новый экземпляр JanitorService.
func NewJanitorService(repo UploadRepository, files FileRemover, grace time.Duration, log *slog.Logger) *JanitorService {
	return &JanitorService{
		repo:  repo,
		files: files,
		grace: grace,
		log:   log,
		now:   time.Now,
	}
}

// Sweep выполняет один проход очистки и возвращает количество удалённых загрузок.
// Запись удаляется только после успешного удаления файла.
func (s *JanitorService) Sweep(ctx context.Context) (int, error) {
	const op = "services.janitor.Sweep"

	stale, err := s.repo.ListStalePendingUploads(ctx, s.now().Add(-s.grace))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	removed := 0
	for _, u := range stale {
		if err := s.files.Remove(u.StoredPath); err != nil {
			s.log.Error("failed to remove stale file", slog.String("path", u.StoredPath), sl.Err(err))
			continue
		}
		if err := s.repo.DeleteUpload(ctx, u.ID); err != nil {
			s.log.Error("failed to delete stale upload", slog.String("upload_id", u.ID), sl.Err(err))
			continue
		}
		removed++
	}
	telemetry.UploadsSwept.Add(float64(removed))
	if removed > 0 {
		s.log.Info("stale uploads removed", slog.Int("count", removed))
	}
	return removed, nil
}

// Run запускает Sweep по расписанию schedule (формат cron или @every) до отмены ctx.
func (s *JanitorService) Run(ctx context.Context, schedule string) error {
	const op = "services.janitor.Run"

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("janitor sweep failed", sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("janitor started", slog.String("schedule", schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("janitor stopped")
	return nil
}
