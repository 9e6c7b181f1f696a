package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

// CreatePendingUpload записывает загрузку в статусе pending до сохранения файла на диск.
func (s *Storage) CreatePendingUpload(ctx context.Context, u models.Upload) error {
	const op = "storage.CreatePendingUpload"
	if err := alive(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO uploads (id, kind, original_name, stored_path, url, content_type, size, status, owner_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)`
	if _, err := s.DB.ExecContext(ctx, query,
		u.ID, u.Kind, u.OriginalName, u.StoredPath, u.URL, u.ContentType, u.Size, u.OwnerID); err != nil {
		return mapError(op, err)
	}
	return nil
}

// UpdateUploadFile сохраняет определённый по содержимому тип и размер файла.
func (s *Storage) UpdateUploadFile(ctx context.Context, id, contentType string, size int64) error {
	const op = "storage.UpdateUploadFile"
	if err := alive(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE uploads SET content_type = $1, size = $2 WHERE id = $3`, contentType, size, id)
	return affectedOne(op, res, err)
}

// DeleteUpload удаляет запись о загрузке.
func (s *Storage) DeleteUpload(ctx context.Context, id string) error {
	const op = "storage.DeleteUpload"
	if err := alive(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	return affectedOne(op, res, err)
}

// ListStalePendingUploads возвращает загрузки, оставшиеся в pending дольше указанного момента.
func (s *Storage) ListStalePendingUploads(ctx context.Context, before time.Time) ([]*models.Upload, error) {
	const op = "storage.ListStalePendingUploads"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, kind, original_name, stored_path, url, content_type, size, status, owner_id, created_at
			  FROM uploads
			  WHERE status = 'pending' AND created_at < $1
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Upload
	for rows.Next() {
		u := &models.Upload{}
		if err = rows.Scan(&u.ID, &u.Kind, &u.OriginalName, &u.StoredPath, &u.URL,
			&u.ContentType, &u.Size, &u.Status, &u.OwnerID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListDocuments возвращает все привязанные к метрикам файлы с автором и названием метрики.
func (s *Storage) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	const op = "storage.ListDocuments"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT up.id, up.original_name, up.url, up.content_type, up.kind, up.size,
			      m.id, m.title, u.id, u.name, u.email, u.image, up.created_at
			  FROM uploads up
			  JOIN metrics m ON m.id = up.metric_id
			  JOIN users u ON u.id = m.author_id
			  WHERE up.status = 'attached'
			  ORDER BY up.created_at DESC, up.kind`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Document, 0)
	for rows.Next() {
		d := &models.Document{}
		var contentType sql.NullString
		if err = rows.Scan(&d.ID, &d.Name, &d.URL, &contentType, &d.Kind, &d.Size,
			&d.MetricID, &d.MetricTitle, &d.Author.ID, &d.Author.Name, &d.Author.Email, &d.Author.Image,
			&d.UploadedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		d.Type = contentType.String
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
