package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
)

const observationSelect = `SELECT o.id, o.content, o.author_id, a.name, a.email, a.image,
		      o.target_user_id, t.name, t.email, t.image, o.created_at, o.updated_at
		  FROM observations o
		  JOIN users a ON a.id = o.author_id
		  LEFT JOIN users t ON t.id = o.target_user_id`

func scanObservation(row scanner) (*models.Observation, error) {
	o := &models.Observation{Responses: []models.ObservationResponse{}}
	var targetID, targetName, targetEmail, targetImage sql.NullString
	if err := row.Scan(&o.ID, &o.Content, &o.AuthorID, &o.Author.Name, &o.Author.Email, &o.Author.Image,
		&targetID, &targetName, &targetEmail, &targetImage, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Author.ID = o.AuthorID
	o.TargetUserID = stringPtr(targetID)
	if targetID.Valid {
		o.TargetUser = &models.UserRef{
			ID:    targetID.String,
			Name:  targetName.String,
			Email: targetEmail.String,
			Image: targetImage.String,
		}
	}
	return o, nil
}

// CreateObservation сохраняет наблюдение. Несуществующий адресат возвращает ErrInvalidReference.
func (s *Storage) CreateObservation(ctx context.Context, o models.Observation) (int, error) {
	const op = "storage.CreateObservation"
	if err := alive(ctx, op); err != nil {
		return 0, err
	}

	var id int
	query := `INSERT INTO observations (content, author_id, target_user_id)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, o.Content, o.AuthorID, nullString(o.TargetUserID)).Scan(&id); err != nil {
		return 0, mapError(op, err)
	}
	return id, nil
}

// GetObservation возвращает наблюдение с автором и адресатом, без ответов.
func (s *Storage) GetObservation(ctx context.Context, id int) (*models.Observation, error) {
	const op = "storage.GetObservation"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	o, err := scanObservation(s.DB.QueryRowContext(ctx, observationSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return o, nil
}

// ListObservations возвращает наблюдения по фильтру, новые первыми.
func (s *Storage) ListObservations(ctx context.Context, filter models.ObservationFilter) ([]*models.Observation, error) {
	const op = "storage.ListObservations"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.ViewerID != nil {
		args = append(args, *filter.ViewerID)
		where = append(where, fmt.Sprintf("(o.target_user_id = $%d OR o.target_user_id IS NULL)", len(args)))
	}
	if filter.TargetUserID != nil {
		args = append(args, *filter.TargetUserID)
		where = append(where, fmt.Sprintf("o.target_user_id = $%d", len(args)))
	}

	query := observationSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Observation, 0)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListResponses возвращает ответы на указанные наблюдения, сгруппированные
// по наблюдению и упорядоченные от старых к новым.
func (s *Storage) ListResponses(ctx context.Context, observationIDs []int) (map[int][]models.ObservationResponse, error) {
	const op = "storage.ListResponses"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	result := make(map[int][]models.ObservationResponse, len(observationIDs))
	if len(observationIDs) == 0 {
		return result, nil
	}

	query := `SELECT r.id, r.content, r.author_id, u.name, u.email, u.image, r.observation_id, r.created_at
			  FROM observation_responses r
			  JOIN users u ON u.id = r.author_id
			  WHERE r.observation_id = ANY($1)
			  ORDER BY r.created_at, r.id`
	rows, err := s.DB.QueryContext(ctx, query, observationIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var r models.ObservationResponse
		if err = rows.Scan(&r.ID, &r.Content, &r.AuthorID, &r.Author.Name, &r.Author.Email, &r.Author.Image,
			&r.ObservationID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.Author.ID = r.AuthorID
		result[r.ObservationID] = append(result[r.ObservationID], r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateResponse добавляет ответ на наблюдение.
func (s *Storage) CreateResponse(ctx context.Context, r models.ObservationResponse) (*models.ObservationResponse, error) {
	const op = "storage.CreateResponse"
	if err := alive(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO observation_responses (content, author_id, observation_id)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at`
	if err := s.DB.QueryRowContext(ctx, query, r.Content, r.AuthorID, r.ObservationID).
		Scan(&r.ID, &r.CreatedAt); err != nil {
		return nil, mapError(op, err)
	}
	return &r, nil
}

// UpdateObservationContent меняет текст наблюдения, только пока на него нет ответов.
// Возвращает ErrConflict, если ответы уже есть, и ErrNotFound, если наблюдения нет.
func (s *Storage) UpdateObservationContent(ctx context.Context, id int, content string) error {
	const op = "storage.UpdateObservationContent"
	if err := alive(ctx, op); err != nil {
		return err
	}

	query := `UPDATE observations
			  SET content = $1, updated_at = NOW()
			  WHERE id = $2
			    AND NOT EXISTS (SELECT 1 FROM observation_responses r WHERE r.observation_id = $2)`
	res, err := s.DB.ExecContext(ctx, query, content, id)
	err = affectedOne(op, res, err)
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	var exists bool
	if err = s.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM observations WHERE id = $1)`, id).
		Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}

// DeleteObservation удаляет наблюдение, ответы удаляются каскадно.
func (s *Storage) DeleteObservation(ctx context.Context, id int) error {
	const op = "storage.DeleteObservation"
	if err := alive(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM observations WHERE id = $1`, id)
	return affectedOne(op, res, err)
}
