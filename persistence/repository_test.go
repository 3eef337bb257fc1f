package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/getkayan/kayan-notes/domain"
	"github.com/getkayan/kayan-notes/identity"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return NewRepository(db), mock
}

func TestNotFoundIsMapped(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := repo.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrorsPassThrough(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "notes"`).WillReturnError(boom)

	_, err := repo.GetNote(context.Background(), "n1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestPing(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	assert.NoError(t, repo.Ping(context.Background()))
	assert.EqualError(t, repo.Ping(context.Background()), "down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewStorageUnknownProvider(t *testing.T) {
	_, err := NewStorage("oracle", "dsn", Options{})
	assert.ErrorContains(t, err, `unknown storage provider "oracle"`)
}

func TestNewStorageMigrations(t *testing.T) {
	Register("sqlite-test", sqlite.Open)

	migrated, err := NewStorage("sqlite-test", filepath.Join(t.TempDir(), "a.db"), Options{})
	require.NoError(t, err)
	assert.True(t, migrated.DB().Migrator().HasTable(&identity.User{}))
	assert.True(t, migrated.DB().Migrator().HasTable("public_links"))

	bare, err := NewStorage("sqlite-test", filepath.Join(t.TempDir(), "b.db"), Options{SkipAutoMigrate: true, Tracing: true})
	require.NoError(t, err)
	assert.False(t, bare.DB().Migrator().HasTable(&identity.User{}))
	assert.NoError(t, bare.Ping(context.Background()))
}

func TestUserRoundTrip(t *testing.T) {
	repo, err := NewStorage("sqlite", filepath.Join(t.TempDir(), "notes.db"), Options{})
	require.NoError(t, err)
	ctx := context.Background()

	u := &identity.User{Email: "alice@example.com", Password: "hash", Role: identity.RoleUser}
	require.NoError(t, repo.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)

	got, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.FindUserByRole(ctx, identity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	require.NoError(t, repo.UpdateUserPassword(ctx, u.ID, "new-hash"))
	got, err = repo.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)

	assert.ErrorIs(t, repo.UpdateUserPassword(ctx, "missing", "x"), domain.ErrRecordNotFound)
}
