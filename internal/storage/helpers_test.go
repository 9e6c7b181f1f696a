package storage

import (
	"context"
	"database/sql/driver"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/docker/go-connections/nat"
	"github.com/magabrotheeeer/incubator-portal/internal/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// anyConverter пропускает значения, которые database/sql не умеет конвертировать (срезы для ANY($1)).
type anyConverter struct{}

func (anyConverter) ConvertValue(v any) (driver.Value, error) {
	if dv, err := driver.DefaultParameterConverter.ConvertValue(v); err == nil {
		return dv, nil
	}
	return v, nil
}

// intsArg сравнивает аргумент‑срез идентификаторов.
type intsArg []int

func (a intsArg) Match(v driver.Value) bool {
	got, ok := v.([]int)
	return ok && reflect.DeepEqual([]int(a), got)
}

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(anyConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewWithDB(db), mock
}

const postgresPort = nat.Port("5432/tcp")

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(postgresPort)},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(postgresPort),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, postgresPort)
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var storage *Storage
	for i := 0; i < 10; i++ {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	cleanup := func() {
		_ = storage.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// testDataFactory создаёт тестовые данные напрямую в базе.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

func (f *testDataFactory) createUser(t *testing.T, email, role string) string {
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO users (email, name, role) VALUES ($1, $2, $3) RETURNING id`,
		email, "User "+email, role).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createPendingUpload(t *testing.T, id, ownerID, kind string, createdAt time.Time) {
	_, err := f.storage.DB.Exec(`INSERT INTO uploads (id, kind, original_name, stored_path, url, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, kind, kind+".bin", "/tmp/"+id, "/uploads/"+id, ownerID, createdAt)
	require.NoError(t, err)
}

func (f *testDataFactory) createMetricAt(t *testing.T, authorID string, sales, expenses float64, createdAt time.Time) int {
	var id int
	err := f.storage.DB.QueryRow(`INSERT INTO metrics (title, comment, image_url, document_url, sales, expenses, author_id, created_at)
		VALUES ('t', 'c', '/i', '/d', $1, $2, $3, $4) RETURNING id`,
		sales, expenses, authorID, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}
