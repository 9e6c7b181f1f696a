package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

const (
	incompleteColumns   = `id, user_email, project_data, current_step, status, created_at, updated_at`
	registrationColumns = `id, user_email, project_data, status, reviewed_by, reviewed_at, created_at`
)

func scanIncomplete(row scanner) (*models.IncompleteRegistration, error) {
	r := &models.IncompleteRegistration{}
	var data []byte
	if err := row.Scan(&r.ID, &r.UserEmail, &data, &r.CurrentStep, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &r.ProjectData); err != nil {
		return nil, fmt.Errorf("decode project data: %w", err)
	}
	return r, nil
}

func scanRegistration(row scanner) (*models.Registration, error) {
	r := &models.Registration{}
	var (
		data       []byte
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.UserEmail, &data, &r.Status, &reviewedBy, &reviewedAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &r.ProjectData); err != nil {
		return nil, fmt.Errorf("decode project data: %w", err)
	}
	r.ReviewedBy = stringPtr(reviewedBy)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	return r, nil
}

// UpsertIncomplete сохраняет черновик пользователя. Последняя запись побеждает.
func (s *Storage) UpsertIncomplete(ctx context.Context, email string, data models.ProjectData, step int) (*models.IncompleteRegistration, error) {
	const op = "storage.UpsertIncomplete"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO incomplete_registrations (user_email, project_data, current_step)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_email) DO UPDATE
			  SET project_data = EXCLUDED.project_data,
			      current_step = EXCLUDED.current_step,
			      updated_at = NOW()
			  RETURNING ` + incompleteColumns
	r, err := scanIncomplete(s.DB.QueryRowContext(ctx, query, email, payload, step))
	if err != nil {
		return nil, mapError(op, err)
	}
	return r, nil
}

// GetIncomplete возвращает черновик пользователя.
func (s *Storage) GetIncomplete(ctx context.Context, email string) (*models.IncompleteRegistration, error) {
	const op = "storage.GetIncomplete"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + incompleteColumns + ` FROM incomplete_registrations WHERE user_email = $1`
	r, err := scanIncomplete(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(op, err)
	}
	return r, nil
}

// ListIncomplete возвращает все черновики, недавно обновлённые первыми.
func (s *Storage) ListIncomplete(ctx context.Context) ([]*models.IncompleteRegistration, error) {
	const op = "storage.ListIncomplete"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + incompleteColumns + ` FROM incomplete_registrations ORDER BY updated_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.IncompleteRegistration, 0)
	for rows.Next() {
		r, err := scanIncomplete(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SubmitRegistration создаёт заявку в статусе pending и удаляет черновик
// пользователя в той же транзакции.
func (s *Storage) SubmitRegistration(ctx context.Context, email string, data models.ProjectData) (*models.Registration, error) {
	const op = "storage.SubmitRegistration"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var created *models.Registration
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO registrations (user_email, project_data, status)
				  VALUES ($1, $2, 'pending')
				  RETURNING ` + registrationColumns
		var err error
		created, err = scanRegistration(tx.QueryRowContext(ctx, query, email, payload))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM incomplete_registrations WHERE user_email = $1`, email)
		return err
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	return created, nil
}

// ListRegistrations возвращает заявки, новые первыми. Пустой status означает все статусы.
func (s *Storage) ListRegistrations(ctx context.Context, status string) ([]*models.Registration, error) {
	const op = "storage.ListRegistrations"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Registration, 0)
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountRegistrationsByStatus считает заявки по статусам.
func (s *Storage) CountRegistrationsByStatus(ctx context.Context) (map[string]int, error) {
	const op = "storage.CountRegistrationsByStatus"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM registrations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := map[string]int{
		models.RegistrationPending:  0,
		models.RegistrationApproved: 0,
		models.RegistrationRejected: 0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err = rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[status] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

// ReviewRegistration переводит заявку из pending в status.
// Возвращает ErrNotFound для неизвестной заявки и ErrConflict, если решение уже принято.
func (s *Storage) ReviewRegistration(ctx context.Context, id int, status, reviewerID string) (*models.Registration, error) {
	const op = "storage.ReviewRegistration"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE registrations
			  SET status = $1, reviewed_by = $2, reviewed_at = NOW()
			  WHERE id = $3 AND status = 'pending'
			  RETURNING ` + registrationColumns
	r, err := scanRegistration(s.DB.QueryRowContext(ctx, query, status, reviewerID, id))
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapError(op, err)
	}

	var exists bool
	if err = s.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1)`, id).
		Scan(&exists); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
}
