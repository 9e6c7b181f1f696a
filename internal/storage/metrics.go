package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

const metricColumns = `id, title, description, comment, image_url, document_url, sales, expenses, author_id, created_at`

func scanMetric(row scanner) (*models.Metric, error) {
	m := &models.Metric{}
	var sales, expenses sql.NullFloat64
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Comment, &m.ImageURL, &m.DocumentURL,
		&sales, &expenses, &m.AuthorID, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Sales = floatPtr(sales)
	m.Expenses = floatPtr(expenses)
	return m, nil
}

// CreateMetricWithUploads в одной транзакции сохраняет метрику и привязывает к ней
// ожидающие загрузки. Если хотя бы одна загрузка уже не в статусе pending, транзакция откатывается.
func (s *Storage) CreateMetricWithUploads(ctx context.Context, m models.Metric, uploadIDs []string) (*models.Metric, error) {
	const op = "storage.CreateMetricWithUploads"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	var created *models.Metric
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO metrics (title, description, comment, image_url, document_url, sales, expenses, author_id)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				  RETURNING ` + metricColumns
		var err error
		created, err = scanMetric(tx.QueryRowContext(ctx, query,
			m.Title, m.Description, m.Comment, m.ImageURL, m.DocumentURL,
			nullFloat(m.Sales), nullFloat(m.Expenses), m.AuthorID))
		if err != nil {
			return err
		}

		for _, id := range uploadIDs {
			res, err := tx.ExecContext(ctx, `UPDATE uploads
				  SET status = 'attached', metric_id = $1
				  WHERE id = $2 AND owner_id = $3 AND status = 'pending'`,
				created.ID, id, m.AuthorID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n != 1 {
				return fmt.Errorf("upload %s: %w", id, ErrConflict)
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	return created, nil
}

// ListMetricsByAuthor возвращает метрики пользователя, новые первыми.
func (s *Storage) ListMetricsByAuthor(ctx context.Context, authorID string) ([]*models.Metric, error) {
	const op = "storage.ListMetricsByAuthor"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + metricColumns + `
			  FROM metrics
			  WHERE author_id = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Metric, 0)
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MetricTotalsByUser считает количество метрик и суммы продаж и расходов
// по каждому не‑администратору, включая пользователей без метрик.
func (s *Storage) MetricTotalsByUser(ctx context.Context) ([]models.UserMetricTotals, error) {
	const op = "storage.MetricTotalsByUser"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT u.id, u.name, u.email, u.image,
			      COUNT(m.id),
			      COALESCE(SUM(m.sales), 0)::float8,
			      COALESCE(SUM(m.expenses), 0)::float8
			  FROM users u
			  LEFT JOIN metrics m ON m.author_id = u.id
			  WHERE u.role <> 'admin'
			  GROUP BY u.id
			  ORDER BY u.name, u.email`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.UserMetricTotals
	for rows.Next() {
		var t models.UserMetricTotals
		if err = rows.Scan(&t.User.ID, &t.User.Name, &t.User.Email, &t.User.Image,
			&t.TotalMetrics, &t.TotalSales, &t.TotalExpenses); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MetricAmountsSince возвращает продажи и расходы метрик, созданных начиная с since.
// Отсутствующие значения возвращаются нулями.
func (s *Storage) MetricAmountsSince(ctx context.Context, since time.Time) ([]models.MetricAmount, error) {
	const op = "storage.MetricAmountsSince"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT author_id, created_at, COALESCE(sales, 0)::float8, COALESCE(expenses, 0)::float8
			  FROM metrics
			  WHERE created_at >= $1`
	rows, err := s.DB.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.MetricAmount
	for rows.Next() {
		var a models.MetricAmount
		if err = rows.Scan(&a.UserID, &a.CreatedAt, &a.Sales, &a.Expenses); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
