package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stockbridge/backend/internal/domain/channel"
)

// newMockChannelOrderRepository creates a GormChannelOrderRepository with a mocked SQL connection
func newMockChannelOrderRepository(t *testing.T) (*GormChannelOrderRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormChannelOrderRepository(gormDB), mock, mockDB
}

func testOrder() *channel.CanonicalOrder {
	return &channel.CanonicalOrder{
		ID:              uuid.New(),
		SellerID:        uuid.New(),
		CredentialID:    uuid.New(),
		PlatformCode:    channel.PlatformCodeMercadoLivre,
		ExternalOrderID: "ML-2001",
		Status:          channel.OrderStatusPaid,
		RawStatus:       "paid",
		Total:           decimal.NewFromFloat(120.50),
		Currency:        "BRL",
		PlacedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

func TestGormChannelOrderRepository_Upsert(t *testing.T) {
	t.Run("creates new order when identity is unseen", func(t *testing.T) {
		repo, mock, mockDB := newMockChannelOrderRepository(t)
		defer mockDB.Close()

		order := testOrder()

		mock.ExpectQuery(`SELECT \* FROM "channel_orders" WHERE platform_code = \$1 AND external_order_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(order.PlatformCode, order.ExternalOrderID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		mock.ExpectQuery(`INSERT INTO "channel_orders" .* ON CONFLICT \("platform_code","external_order_id"\) DO UPDATE .* RETURNING "id","created_at","seller_note"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "seller_note"}).
				AddRow(order.ID, order.CreatedAt, ""))

		created, err := repo.Upsert(context.Background(), order)

		assert.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports update when a concurrent first import wins the insert race", func(t *testing.T) {
		repo, mock, mockDB := newMockChannelOrderRepository(t)
		defer mockDB.Close()

		order := testOrder()
		survivingID := uuid.New()
		survivingCreatedAt := time.Date(2026, 2, 20, 9, 30, 0, 0, time.UTC)

		// The pre-check saw nothing, but another sweep inserted the row
		// before our INSERT ran: the conflict fires and RETURNING hands
		// back the surviving row instead of the one we generated
		mock.ExpectQuery(`SELECT \* FROM "channel_orders" WHERE platform_code = \$1 AND external_order_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(order.PlatformCode, order.ExternalOrderID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		mock.ExpectQuery(`INSERT INTO "channel_orders" .* ON CONFLICT \("platform_code","external_order_id"\) DO UPDATE .* RETURNING "id","created_at","seller_note"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "seller_note"}).
				AddRow(survivingID, survivingCreatedAt, "gift wrap"))

		created, err := repo.Upsert(context.Background(), order)

		assert.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, survivingID, order.ID)
		assert.True(t, survivingCreatedAt.Equal(order.CreatedAt))
		assert.Equal(t, "gift wrap", order.SellerNote)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("updates existing order and preserves seller note", func(t *testing.T) {
		repo, mock, mockDB := newMockChannelOrderRepository(t)
		defer mockDB.Close()

		order := testOrder()
		existingID := uuid.New()
		existingCreatedAt := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"id", "seller_id", "platform_code", "external_order_id", "status", "seller_note", "created_at"}).
			AddRow(existingID, order.SellerID, order.PlatformCode, order.ExternalOrderID, "pending", "fragile, double-wrap", existingCreatedAt)

		mock.ExpectQuery(`SELECT \* FROM "channel_orders" WHERE platform_code = \$1 AND external_order_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(order.PlatformCode, order.ExternalOrderID, 1).
			WillReturnRows(rows)

		mock.ExpectExec(`UPDATE "channel_orders" SET .* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.Upsert(context.Background(), order)

		assert.NoError(t, err)
		assert.False(t, created)
		// Locally-owned fields come back from the surviving row
		assert.Equal(t, existingID, order.ID)
		assert.Equal(t, "fragile, double-wrap", order.SellerNote)
		assert.True(t, existingCreatedAt.Equal(order.CreatedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects order without identity", func(t *testing.T) {
		repo, _, mockDB := newMockChannelOrderRepository(t)
		defer mockDB.Close()

		order := testOrder()
		order.ExternalOrderID = ""

		created, err := repo.Upsert(context.Background(), order)

		assert.ErrorIs(t, err, channel.ErrInvalidExternalID)
		assert.False(t, created)
	})
}

func TestGormChannelOrderRepository_FindByExternalID(t *testing.T) {
	t.Run("returns domain error when order is missing", func(t *testing.T) {
		repo, mock, mockDB := newMockChannelOrderRepository(t)
		defer mockDB.Close()

		sellerID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "channel_orders" WHERE seller_id = \$1 AND platform_code = \$2 AND external_order_id = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(sellerID, channel.PlatformCodeShopee, "SP-404", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		order, err := repo.FindByExternalID(context.Background(), sellerID, channel.PlatformCodeShopee, "SP-404")

		assert.Nil(t, order)
		assert.Equal(t, channel.ErrOrderNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormChannelOrderRepository_FindAll(t *testing.T) {
	t.Run("applies platform filter and pagination", func(t *testing.T) {
		repo, mock, mockDB := newMockChannelOrderRepository(t)
		defer mockDB.Close()

		sellerID := uuid.New()
		platform := channel.PlatformCodeMercadoLivre

		rows := sqlmock.NewRows([]string{"id", "seller_id", "platform_code", "external_order_id", "status", "total", "placed_at"}).
			AddRow(uuid.New(), sellerID, platform, "ML-1", "paid", decimal.NewFromInt(10), time.Now())

		mock.ExpectQuery(`SELECT \* FROM "channel_orders" WHERE seller_id = \$1 AND platform_code = \$2 ORDER BY placed_at DESC LIMIT .*`).
			WithArgs(sellerID, platform, 20).
			WillReturnRows(rows)

		orders, err := repo.FindAll(context.Background(), sellerID, channel.OrderFilter{
			PlatformCode: &platform,
			Page:         1,
			PageSize:     20,
		})

		assert.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "ML-1", orders[0].ExternalOrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
