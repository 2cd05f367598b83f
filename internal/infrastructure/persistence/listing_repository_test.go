package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
)

// newMockListingRepository creates a GormListingRepository with a mocked SQL connection
func newMockListingRepository(t *testing.T) (*GormListingRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormListingRepository(gormDB), mock, mockDB
}

func testListing(t *testing.T) *channel.ProductListing {
	t.Helper()
	listing, err := channel.NewProductListing(uuid.New(), uuid.New(), uuid.New(), channel.PlatformCodeMercadoLivre)
	require.NoError(t, err)
	return listing
}

func TestGormListingRepository_Save(t *testing.T) {
	t.Run("first save inserts and sets version 1", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listing := testListing(t)
		require.EqualValues(t, 0, listing.Version)

		mock.ExpectExec(`INSERT INTO "product_listings"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), listing)

		assert.NoError(t, err)
		assert.EqualValues(t, 1, listing.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("update bumps the version", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		listing := testListing(t)
		listing.Version = 3

		mock.ExpectExec(`UPDATE "product_listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(context.Background(), listing)

		assert.NoError(t, err)
		assert.EqualValues(t, 4, listing.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is rejected without writing", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		// Another writer saved between our load and this save, so the
		// version predicate matches no row
		listing := testListing(t)
		listing.Version = 3

		mock.ExpectExec(`UPDATE "product_listings" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(context.Background(), listing)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.EqualValues(t, 3, listing.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormListingRepository_FindByID(t *testing.T) {
	t.Run("missing listing", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "product_listings" WHERE id = \$1 .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), id)

		assert.ErrorIs(t, err, channel.ErrListingRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("round-trips the version", func(t *testing.T) {
		repo, mock, mockDB := newMockListingRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{
			"id", "seller_id", "product_id", "credential_id", "platform_code",
			"platform_product_id", "sync_status", "sync_error", "remote_stock",
			"last_checked_at", "version", "created_at", "updated_at",
		}).AddRow(
			id, uuid.New(), uuid.New(), uuid.New(), "MERCADOLIVRE",
			nil, "not_published", "", nil,
			nil, int64(5), now, now,
		)
		mock.ExpectQuery(`SELECT \* FROM "product_listings" WHERE id = \$1 .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		listing, err := repo.FindByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, listing.ID)
		assert.EqualValues(t, 5, listing.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
