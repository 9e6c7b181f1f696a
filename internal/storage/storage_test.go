package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userCols         = []string{"id", "email", "name", "image", "role", "status", "password_hash", "created_at"}
	metricCols       = []string{"id", "title", "description", "comment", "image_url", "document_url", "sales", "expenses", "author_id", "created_at"}
	registrationCols = []string{"id", "user_email", "project_data", "status", "reviewed_by", "reviewed_at", "created_at"}
	now              = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
)

func TestStorage_UpsertUser(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery("INSERT INTO users AS u").
		WithArgs("ana@example.com", "Ana", "http://img", models.RoleUser).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "ana@example.com", "Ana", "http://img", models.RoleUser, models.StatusActive, nil, now))

	u, err := s.UpsertUser(context.Background(),
		models.Identity{Email: "ana@example.com", Name: "Ana", Image: "http://img"}, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, models.StatusActive, u.Status)
	assert.Empty(t, u.PasswordHash)
}

func TestStorage_GetUserByID_NotFound(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery("FROM users u WHERE u.id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_GetUserByID_MalformedID(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery("FROM users u WHERE u.id").
		WithArgs("abc").
		WillReturnError(&pgconn.PgError{Code: pgInvalidTextRepresentation, Message: `invalid input syntax for type uuid: "abc"`})

	_, err := s.GetUserByID(context.Background(), "abc")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_ContextCancelled(t *testing.T) {
	s, _ := newMockStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUserByEmail(ctx, "x@example.com")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.DeleteUser(ctx, "u-1"), context.Canceled)
}

func TestStorage_DeleteUser(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "не найден", affected: 0, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			mock.ExpectExec("DELETE FROM users").
				WithArgs("u-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := s.DeleteUser(context.Background(), "u-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStorage_ListUserSummaries(t *testing.T) {
	s, mock := newMockStorage(t)

	cols := append(append([]string{}, userCols...), "observations", "metrics")
	mock.ExpectQuery("FROM users u\\s+WHERE u.role <> 'admin'").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("u-1", "a@example.com", "A", "", models.RoleUser, models.StatusBlocked, nil, now, 2, 5))

	list, err := s.ListUserSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ObservationsCount)
	assert.Equal(t, 5, list[0].MetricsCount)
	assert.True(t, list[0].IsBlocked())
}

func TestStorage_CreateMetricWithUploads(t *testing.T) {
	sales := 10.5
	metric := models.Metric{
		Title:       "Q1",
		Comment:     "ok",
		ImageURL:    "/uploads/a.png",
		DocumentURL: "/uploads/b.pdf",
		Sales:       &sales,
		AuthorID:    "u-1",
	}

	t.Run("attached", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO metrics").
			WithArgs("Q1", "", "ok", "/uploads/a.png", "/uploads/b.pdf", 10.5, nil, "u-1").
			WillReturnRows(sqlmock.NewRows(metricCols).
				AddRow(7, "Q1", "", "ok", "/uploads/a.png", "/uploads/b.pdf", 10.5, nil, "u-1", now))
		mock.ExpectExec("UPDATE uploads").WithArgs(7, "img", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE uploads").WithArgs(7, "doc", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := s.CreateMetricWithUploads(context.Background(), metric, []string{"img", "doc"})
		require.NoError(t, err)
		assert.Equal(t, 7, got.ID)
		require.NotNil(t, got.Sales)
		assert.InDelta(t, 10.5, *got.Sales, 0.0001)
		assert.Nil(t, got.Expenses)
	})

	t.Run("upload already attached", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO metrics").
			WillReturnRows(sqlmock.NewRows(metricCols).
				AddRow(7, "Q1", "", "ok", "/uploads/a.png", "/uploads/b.pdf", 10.5, nil, "u-1", now))
		mock.ExpectExec("UPDATE uploads").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := s.CreateMetricWithUploads(context.Background(), metric, []string{"img", "doc"})
		require.ErrorIs(t, err, ErrConflict)
	})
}

func TestStorage_CreateObservation_InvalidTarget(t *testing.T) {
	s, mock := newMockStorage(t)
	target := "ghost"

	mock.ExpectQuery("INSERT INTO observations").
		WithArgs("hola", "admin-1", "ghost").
		WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "observations_target_user_id_fkey"})

	_, err := s.CreateObservation(context.Background(),
		models.Observation{Content: "hola", AuthorID: "admin-1", TargetUserID: &target})
	require.ErrorIs(t, err, ErrInvalidReference)
}

func TestStorage_ListObservations_Filters(t *testing.T) {
	cols := []string{"id", "content", "author_id", "a_name", "a_email", "a_image",
		"target_user_id", "t_name", "t_email", "t_image", "created_at", "updated_at"}
	viewer := "u-1"

	tests := []struct {
		name   string
		filter models.ObservationFilter
		query  string
		args   []driver.Value
	}{
		{name: "all", filter: models.ObservationFilter{}, query: "LEFT JOIN users t ON t.id = o.target_user_id ORDER BY"},
		{
			name:   "viewer",
			filter: models.ObservationFilter{ViewerID: &viewer},
			query:  "WHERE (o.target_user_id = $1 OR o.target_user_id IS NULL)",
			args:   []driver.Value{"u-1"},
		},
		{
			name:   "admin target filter",
			filter: models.ObservationFilter{TargetUserID: &viewer},
			query:  "WHERE o.target_user_id = $1 ORDER BY",
			args:   []driver.Value{"u-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			rows := sqlmock.NewRows(cols).
				AddRow(1, "broadcast", "admin-1", "Admin", "admin@example.com", "", nil, nil, nil, nil, now, now).
				AddRow(2, "personal", "admin-1", "Admin", "admin@example.com", "", "u-1", "Ana", "ana@example.com", "", now, now)
			expect := mock.ExpectQuery(regexp.QuoteMeta(tt.query))
			if len(tt.args) > 0 {
				expect = expect.WithArgs(tt.args...)
			}
			expect.WillReturnRows(rows)

			list, err := s.ListObservations(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Nil(t, list[0].TargetUserID)
			assert.Nil(t, list[0].TargetUser)
			require.NotNil(t, list[1].TargetUser)
			assert.Equal(t, "Ana", list[1].TargetUser.Name)
			assert.Equal(t, "admin-1", list[1].Author.ID)
			assert.NotNil(t, list[0].Responses)
		})
	}
}

func TestStorage_ListResponses(t *testing.T) {
	s, mock := newMockStorage(t)
	cols := []string{"id", "content", "author_id", "name", "email", "image", "observation_id", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.observation_id = ANY($1)")).
		WithArgs(intsArg{1, 2}).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(10, "first", "u-1", "Ana", "ana@example.com", "", 1, now).
			AddRow(11, "second", "u-1", "Ana", "ana@example.com", "", 1, now.Add(time.Minute)).
			AddRow(12, "other", "u-2", "Bo", "bo@example.com", "", 2, now))

	got, err := s.ListResponses(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, got[1], 2)
	assert.Equal(t, "first", got[1][0].Content)
	assert.Equal(t, "second", got[1][1].Content)
	require.Len(t, got[2], 1)
}

func TestStorage_ListResponses_Empty(t *testing.T) {
	s, _ := newMockStorage(t)

	got, err := s.ListResponses(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStorage_UpdateObservationContent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		exists   bool
		wantErr  error
	}{
		{name: "updated", affected: 1},
		{name: "есть ответы", affected: 0, exists: true, wantErr: ErrConflict},
		{name: "не найдено", affected: 0, exists: false, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			mock.ExpectExec("UPDATE observations").
				WithArgs("nuevo", 5).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.affected == 0 {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM observations")).
					WithArgs(5).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			}

			err := s.UpdateObservationContent(context.Background(), 5, "nuevo")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStorage_UpsertIncomplete(t *testing.T) {
	s, mock := newMockStorage(t)
	data := models.ProjectData{ProjectName: "Agro", YouTubeURL: "https://youtu.be/dQw4w9WgXcQ"}
	payload, err := json.Marshal(data)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO incomplete_registrations").
		WithArgs("ana@example.com", payload, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_email", "project_data", "current_step", "status", "created_at", "updated_at"}).
			AddRow(3, "ana@example.com", payload, 2, models.RegistrationInProgress, now, now))

	got, err := s.UpsertIncomplete(context.Background(), "ana@example.com", data, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStep)
	assert.Equal(t, "Agro", got.ProjectData.ProjectName)
}

func TestStorage_SubmitRegistration(t *testing.T) {
	s, mock := newMockStorage(t)
	data := models.ProjectData{ProgramID: "p1", ProjectName: "Agro"}
	payload, err := json.Marshal(data)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO registrations").
		WithArgs("ana@example.com", payload).
		WillReturnRows(sqlmock.NewRows(registrationCols).
			AddRow(9, "ana@example.com", payload, models.RegistrationPending, nil, nil, now))
	mock.ExpectExec("DELETE FROM incomplete_registrations").
		WithArgs("ana@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.SubmitRegistration(context.Background(), "ana@example.com", data)
	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)
	assert.Equal(t, models.RegistrationPending, got.Status)
	assert.Nil(t, got.ReviewedAt)
}

func TestStorage_ReviewRegistration(t *testing.T) {
	payload := []byte(`{"projectName":"Agro"}`)

	tests := []struct {
		name    string
		updated bool
		exists  bool
		wantErr error
	}{
		{name: "approved", updated: true},
		{name: "already reviewed", exists: true, wantErr: ErrConflict},
		{name: "unknown id", exists: false, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			rows := sqlmock.NewRows(registrationCols)
			if tt.updated {
				rows.AddRow(9, "ana@example.com", payload, models.RegistrationApproved, "admin-1", now, now)
			}
			mock.ExpectQuery("UPDATE registrations").
				WithArgs(models.RegistrationApproved, "admin-1", 9).
				WillReturnRows(rows)
			if !tt.updated {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM registrations")).
					WithArgs(9).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			}

			got, err := s.ReviewRegistration(context.Background(), 9, models.RegistrationApproved, "admin-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got.ReviewedBy)
			assert.Equal(t, "admin-1", *got.ReviewedBy)
			require.NotNil(t, got.ReviewedAt)
		})
	}
}

func TestStorage_CountRegistrationsByStatus(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow(models.RegistrationPending, 3))

	counts, err := s.CountRegistrationsByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		models.RegistrationPending:  3,
		models.RegistrationApproved: 0,
		models.RegistrationRejected: 0,
	}, counts)
}

func TestStorage_ListDocuments(t *testing.T) {
	s, mock := newMockStorage(t)
	cols := []string{"id", "original_name", "url", "content_type", "kind", "size",
		"metric_id", "title", "user_id", "name", "email", "image", "created_at"}

	mock.ExpectQuery("FROM uploads up").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("up-1", "plan.pdf", "/uploads/x.pdf", "application/pdf", models.UploadKindDocument, 2048,
				7, "Q1", "u-1", "Ana", "ana@example.com", "", now).
			AddRow("up-2", "chart.png", "/uploads/y.png", nil, models.UploadKindImage, 10,
				7, "Q1", "u-1", "Ana", "ana@example.com", "", now))

	docs, err := s.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "application/pdf", docs[0].Type)
	assert.Empty(t, docs[1].Type)
	assert.Equal(t, "Ana", docs[0].Author.Name)
	assert.Equal(t, int64(2048), docs[0].Size)
}
