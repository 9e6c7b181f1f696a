package observation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/incubator-portal/internal/models"
	"github.com/magabrotheeeer/incubator-portal/internal/services"
	"github.com/magabrotheeeer/incubator-portal/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateObservation(ctx context.Context, o models.Observation) (int, error) {
	args := m.Called(ctx, o)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetObservation(ctx context.Context, id int) (*models.Observation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Observation), args.Error(1)
}

func (m *RepoMock) ListObservations(ctx context.Context, filter models.ObservationFilter) ([]*models.Observation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Observation), args.Error(1)
}

func (m *RepoMock) ListResponses(ctx context.Context, ids []int) (map[int][]models.ObservationResponse, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int][]models.ObservationResponse), args.Error(1)
}

func (m *RepoMock) CreateResponse(ctx context.Context, r models.ObservationResponse) (*models.ObservationResponse, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ObservationResponse), args.Error(1)
}

func (m *RepoMock) UpdateObservationContent(ctx context.Context, id int, content string) error {
	return m.Called(ctx, id, content).Error(0)
}

func (m *RepoMock) DeleteObservation(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, key string, message any) error {
	return m.Called(ctx, key, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func strPtr(s string) *string { return &s }

var (
	admin = &models.User{ID: "admin-1", Name: "Admin", Role: models.RoleAdmin}
	ana   = &models.User{ID: "u-ana", Name: "Ana", Role: models.RoleUser}
	bo    = &models.User{ID: "u-bo", Name: "Bo", Role: models.RoleUser}
)

func TestObservationService_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyObservation
		setupMocks func(r *RepoMock, p *PublisherMock)
		wantErr    error
	}{
		{
			name: "broadcast",
			req:  models.DummyObservation{Content: "Hola a todos"},
			setupMocks: func(r *RepoMock, p *PublisherMock) {
				r.On("CreateObservation", mock.Anything, models.Observation{Content: "Hola a todos", AuthorID: "admin-1"}).
					Return(3, nil).Once()
				r.On("GetObservation", mock.Anything, 3).Return(&models.Observation{ID: 3, Content: "Hola a todos"}, nil).Once()
				p.On("Publish", mock.Anything, models.EventObservationCreated, models.ObservationCreatedEvent{
					ObservationID: 3, AuthorName: "Admin", Content: "Hola a todos",
				}).Return(nil).Once()
			},
		},
		{
			name: "publish failure does not fail the request",
			req:  models.DummyObservation{Content: "x", TargetUserID: strPtr("u-ana")},
			setupMocks: func(r *RepoMock, p *PublisherMock) {
				r.On("CreateObservation", mock.Anything, mock.Anything).Return(4, nil).Once()
				r.On("GetObservation", mock.Anything, 4).Return(&models.Observation{ID: 4}, nil).Once()
				p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
			},
		},
		{
			name: "unknown target",
			req:  models.DummyObservation{Content: "x", TargetUserID: strPtr("ghost")},
			setupMocks: func(r *RepoMock, _ *PublisherMock) {
				r.On("CreateObservation", mock.Anything, mock.Anything).Return(0, storage.ErrInvalidReference).Once()
			},
			wantErr: services.ErrInvalidTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, pub := new(RepoMock), new(PublisherMock)
			tt.setupMocks(repo, pub)
			svc := NewObservationService(repo, pub, newNoopLogger())

			got, err := svc.Create(context.Background(), admin, tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, got)
			}
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestObservationService_List_ScopesByRole(t *testing.T) {
	tests := []struct {
		name       string
		viewer     *models.User
		target     *string
		wantFilter models.ObservationFilter
	}{
		{name: "user sees own and broadcast", viewer: ana, target: strPtr("u-bo"), wantFilter: models.ObservationFilter{ViewerID: strPtr("u-ana")}},
		{name: "admin sees all", viewer: admin, wantFilter: models.ObservationFilter{}},
		{name: "admin filters by target", viewer: admin, target: strPtr("u-bo"), wantFilter: models.ObservationFilter{TargetUserID: strPtr("u-bo")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			list := []*models.Observation{
				{ID: 1, Responses: []models.ObservationResponse{}},
				{ID: 2, Responses: []models.ObservationResponse{}},
			}
			repo.On("ListObservations", mock.Anything, tt.wantFilter).Return(list, nil).Once()
			repo.On("ListResponses", mock.Anything, []int{1, 2}).Return(map[int][]models.ObservationResponse{
				2: {{ID: 10, Content: "primero"}, {ID: 11, Content: "segundo"}},
			}, nil).Once()
			svc := NewObservationService(repo, new(PublisherMock), newNoopLogger())

			got, err := svc.List(context.Background(), tt.viewer, tt.target)
			require.NoError(t, err)
			assert.Empty(t, got[0].Responses)
			require.Len(t, got[1].Responses, 2)
			assert.Equal(t, "primero", got[1].Responses[0].Content)
			repo.AssertExpectations(t)
		})
	}
}

func TestObservationService_Respond(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "broadcast is visible",
			user: bo,
			setupMocks: func(r *RepoMock) {
				r.On("GetObservation", mock.Anything, 5).Return(&models.Observation{ID: 5}, nil).Once()
				r.On("CreateResponse", mock.Anything, models.ObservationResponse{Content: "ok", AuthorID: "u-bo", ObservationID: 5}).
					Return(&models.ObservationResponse{ID: 1, Content: "ok", AuthorID: "u-bo", ObservationID: 5}, nil).Once()
			},
		},
		{
			name: "targeted at someone else",
			user: bo,
			setupMocks: func(r *RepoMock) {
				r.On("GetObservation", mock.Anything, 5).Return(&models.Observation{ID: 5, TargetUserID: strPtr("u-ana")}, nil).Once()
			},
			wantErr: services.ErrNotFound,
		},
		{
			name: "missing observation",
			user: bo,
			setupMocks: func(r *RepoMock) {
				r.On("GetObservation", mock.Anything, 5).Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: services.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := NewObservationService(repo, new(PublisherMock), newNoopLogger())

			got, err := svc.Respond(context.Background(), tt.user, models.DummyResponse{ObservationID: 5, Content: "ok"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Bo", got.Author.Name)
			repo.AssertExpectations(t)
		})
	}
}

func TestObservationService_Update(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "author edits without responses",
			user: admin,
			setupMocks: func(r *RepoMock) {
				r.On("GetObservation", mock.Anything, 7).Return(&models.Observation{ID: 7, AuthorID: "admin-1"}, nil).Once()
				r.On("UpdateObservationContent", mock.Anything, 7, "nuevo").Return(nil).Once()
				r.On("GetObservation", mock.Anything, 7).Return(&models.Observation{ID: 7, AuthorID: "admin-1", Content: "nuevo"}, nil).Once()
			},
		},
		{
			name: "not the author",
			user: &models.User{ID: "admin-2", Role: models.RoleAdmin},
			setupMocks: func(r *RepoMock) {
				r.On("GetObservation", mock.Anything, 7).Return(&models.Observation{ID: 7, AuthorID: "admin-1"}, nil).Once()
			},
			wantErr: services.ErrForbidden,
		},
		{
			name: "already answered",
			user: admin,
			setupMocks: func(r *RepoMock) {
				r.On("GetObservation", mock.Anything, 7).Return(&models.Observation{ID: 7, AuthorID: "admin-1"}, nil).Once()
				r.On("UpdateObservationContent", mock.Anything, 7, "nuevo").Return(storage.ErrConflict).Once()
			},
			wantErr: services.ErrHasResponses,
		},
		{
			name: "missing",
			user: admin,
			setupMocks: func(r *RepoMock) {
				r.On("GetObservation", mock.Anything, 7).Return(nil, storage.ErrNotFound).Once()
			},
			wantErr: services.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := NewObservationService(repo, new(PublisherMock), newNoopLogger())

			got, err := svc.Update(context.Background(), tt.user, 7, "nuevo")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "DeleteObservation", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "nuevo", got.Content)
			repo.AssertExpectations(t)
		})
	}
}

func TestObservationService_Remove(t *testing.T) {
	repo := new(RepoMock)
	repo.On("DeleteObservation", mock.Anything, 1).Return(nil).Once()
	repo.On("DeleteObservation", mock.Anything, 2).Return(storage.ErrNotFound).Once()
	svc := NewObservationService(repo, new(PublisherMock), newNoopLogger())

	require.NoError(t, svc.Remove(context.Background(), 1))
	require.ErrorIs(t, svc.Remove(context.Background(), 2), services.ErrNotFound)
}
