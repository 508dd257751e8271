package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newSqliteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

// Both ledger tables embed DocumentRef; migrating them into one schema must
// not produce colliding index names.
func TestAutoMigrate_LedgerTablesCoexist(t *testing.T) {
	db := newSqliteDB(t)

	require.NoError(t, db.AutoMigrate(
		&ledger.StockMovement{},
		&ledger.TreasuryTransaction{},
	))

	assert.True(t, db.Migrator().HasTable(&ledger.StockMovement{}))
	assert.True(t, db.Migrator().HasTable(&ledger.TreasuryTransaction{}))
}

// The time columns carry no dialect-specific type tag, so each driver picks
// its own representation and values scan back into time.Time.
func TestTimeColumns_RoundTrip(t *testing.T) {
	db := newSqliteDB(t)
	ctx := context.Background()

	require.NoError(t, db.AutoMigrate(
		&ledger.TreasuryTransaction{},
		&trade.SalesInvoice{},
		&trade.SalesInvoiceItem{},
	))

	t.Run("treasury transaction occurred_at", func(t *testing.T) {
		repo := NewGormTreasuryTransactionRepository(db)

		ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesInvoice, uuid.New())
		require.NoError(t, err)
		tx, err := ledger.NewCollection(uuid.New(), decimal.NewFromInt(100), ref)
		require.NoError(t, err)
		occurredAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
		tx.WithOccurredAt(occurredAt)

		require.NoError(t, repo.Create(ctx, tx))

		loaded, err := repo.FindByReference(ctx, ref)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.True(t, loaded[0].OccurredAt.Equal(occurredAt))
	})

	t.Run("posted invoice posted_at", func(t *testing.T) {
		repo := NewGormSalesInvoiceRepository(db)

		inv, err := trade.NewSalesInvoice("INV-SCH-0001", uuid.New(), uuid.New(), trade.PaymentMethodCash)
		require.NoError(t, err)
		_, err = inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(2),
			catalog.UnitTypeSmall, decimal.NewFromInt(50), decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, inv.MarkPosted(uuid.New(), time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)))
		require.NoError(t, repo.Save(ctx, inv))

		loaded, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded.PostedAt)
		assert.False(t, loaded.PostedAt.IsZero())
		assert.Equal(t, trade.DocumentStatusPosted, loaded.Status)
	})
}
