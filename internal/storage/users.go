package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

const userColumns = `u.id, u.email, u.name, u.image, u.role, u.status, u.password_hash, u.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, extra ...any) (*models.User, error) {
	u := &models.User{}
	var hash sql.NullString
	dest := []any{&u.ID, &u.Email, &u.Name, &u.Image, &u.Role, &u.Status, &hash, &u.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	return u, nil
}

// UpsertUser создаёт пользователя при первом входе или обновляет имя и аватар.
// Роль задаётся только при вставке и может быть повышена до admin, но никогда не понижается.
func (s *Storage) UpsertUser(ctx context.Context, identity models.Identity, role string) (*models.User, error) {
	const op = "storage.UpsertUser"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO users AS u (email, name, image, role)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (email) DO UPDATE
			  SET name = COALESCE(NULLIF(EXCLUDED.name, ''), u.name),
			      image = COALESCE(NULLIF(EXCLUDED.image, ''), u.image),
			      role = CASE WHEN EXCLUDED.role = 'admin' THEN 'admin' ELSE u.role END
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, identity.Email, identity.Name, identity.Image, role))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// ListUserSummaries возвращает всех не‑администраторов с количеством
// адресованных им наблюдений и загруженных метрик.
func (s *Storage) ListUserSummaries(ctx context.Context) ([]*models.UserSummary, error) {
	const op = "storage.ListUserSummaries"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `,
			      (SELECT COUNT(*) FROM observations o WHERE o.target_user_id = u.id),
			      (SELECT COUNT(*) FROM metrics m WHERE m.author_id = u.id)
			  FROM users u
			  WHERE u.role <> 'admin'
			  ORDER BY u.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.UserSummary, 0)
	for rows.Next() {
		var observations, metrics int
		u, err := scanUser(rows, &observations, &metrics)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &models.UserSummary{
			User:              *u,
			ObservationsCount: observations,
			MetricsCount:      metrics,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListActiveUserEmails адреса активных не‑администраторов, используется для рассылок.
func (s *Storage) ListActiveUserEmails(ctx context.Context) ([]string, error) {
	const op = "storage.ListActiveUserEmails"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT email FROM users WHERE role <> 'admin' AND status = 'active' ORDER BY email`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var emails []string
	for rows.Next() {
		var email string
		if err = rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		emails = append(emails, email)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return emails, nil
}

// DeleteUser удаляет пользователя вместе со всеми зависимыми записями.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	if err := alive(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return affectedOne(op, res, err)
}

// SetUserStatus сохраняет статус учётной записи.
func (s *Storage) SetUserStatus(ctx context.Context, id, status string) error {
	const op = "storage.SetUserStatus"
	if err := alive(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET status = $1 WHERE id = $2`, status, id)
	return affectedOne(op, res, err)
}

// SetUserRole меняет роль пользователя по email.
func (s *Storage) SetUserRole(ctx context.Context, email, role string) error {
	const op = "storage.SetUserRole"
	if err := alive(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET role = $1 WHERE email = $2`, role, email)
	return affectedOne(op, res, err)
}

// SetPasswordHash сохраняет хэш пароля для локального входа.
func (s *Storage) SetPasswordHash(ctx context.Context, email, hash string) error {
	const op = "storage.SetPasswordHash"
	if err := alive(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE email = $2`, hash, email)
	return affectedOne(op, res, err)
}

// affectedOne возвращает ErrNotFound, если запрос не затронул ни одной строки.
func affectedOne(op string, res sql.Result, err error) error {
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
