package catalogmodule

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/watchdeck/watchdeck/internal/errors"
)

func setupMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return NewStore(db), mock
}

// Store failures that are not uniqueness conflicts or missing rows must be
// classified as persistence errors, and their text must never reach the
// client-facing message.
func TestStoreFailureClassification(t *testing.T) {
	ctx := context.Background()

	t.Run("arbitrary query failure is a persistence error", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "shows"`).WillReturnError(assert.AnError)

		_, err := store.GetByExternalID(ctx, "1399")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindPersistence, apperrors.KindOf(err))
		assert.Equal(t, "storage operation failed", apperrors.PublicMessage(err))
		assert.NotContains(t, apperrors.PublicMessage(err), assert.AnError.Error())
	})

	t.Run("empty result is not found, not a persistence error", func(t *testing.T) {
		store, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "shows"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "name"}))

		_, err := store.GetByExternalID(ctx, "1399")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}
