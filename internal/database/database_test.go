package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ledgerRow struct {
	ID   string `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex"`
}

type ledgerStore struct {
	db *gorm.DB
}

func (s *ledgerStore) add(id, code string) error {
	return s.db.Create(&ledgerRow{ID: id, Code: code}).Error
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Connect(fmt.Sprintf("file:db_%s?mode=memory&cache=shared", name), WithLogLevel(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ledgerRow{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u:p@localhost/db"))
	assert.True(t, IsPostgresDSN("postgresql://u:p@localhost/db"))
	assert.False(t, IsPostgresDSN("smartcity.db"))
	assert.False(t, IsPostgresDSN(":memory:"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestIsUniqueViolation_SQLite(t *testing.T) {
	db := setupTestDB(t)
	store := &ledgerStore{db: db}

	require.NoError(t, store.add("a", "X"))
	err := store.add("b", "X")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestUnitOfWork_CommitsAll(t *testing.T) {
	db := setupTestDB(t)
	uow := NewUnitOfWork(db, func(tx *gorm.DB) *ledgerStore { return &ledgerStore{db: tx} })

	err := uow.Commit(context.Background(),
		func(ctx context.Context, s *ledgerStore) error { return s.add("a", "A") },
		func(ctx context.Context, s *ledgerStore) error { return s.add("b", "B") },
	)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&ledgerRow{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestUnitOfWork_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	uow := NewUnitOfWork(db, func(tx *gorm.DB) *ledgerStore { return &ledgerStore{db: tx} })
	boom := errors.New("boom")

	err := uow.Commit(context.Background(),
		func(ctx context.Context, s *ledgerStore) error { return s.add("a", "A") },
		func(ctx context.Context, s *ledgerStore) error { return boom },
		func(ctx context.Context, s *ledgerStore) error { return s.add("c", "C") },
	)
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&ledgerRow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUnitOfWork_NoMutations(t *testing.T) {
	db := setupTestDB(t)
	uow := NewUnitOfWork(db, func(tx *gorm.DB) *ledgerStore { return &ledgerStore{db: tx} })

	assert.NoError(t, uow.Commit(context.Background()))
}
