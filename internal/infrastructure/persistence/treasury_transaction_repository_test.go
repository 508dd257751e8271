package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockTreasuryTransactionRepository creates a GormTreasuryTransactionRepository
// with a mocked SQL connection
func newMockTreasuryTransactionRepository(t *testing.T) (*GormTreasuryTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormTreasuryTransactionRepository(gormDB), mock, mockDB
}

func TestGormTreasuryTransactionRepository_SumByTreasury(t *testing.T) {
	t.Run("sums all amounts for a treasury", func(t *testing.T) {
		repo, mock, mockDB := newMockTreasuryTransactionRepository(t)
		defer mockDB.Close()

		treasuryID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "treasury_transactions" WHERE treasury_id = \$1`).
			WithArgs(treasuryID).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("1234.5000"))

		total, err := repo.SumByTreasury(context.Background(), treasuryID)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("1234.5")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty ledger sums to zero", func(t *testing.T) {
		repo, mock, mockDB := newMockTreasuryTransactionRepository(t)
		defer mockDB.Close()

		treasuryID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "treasury_transactions" WHERE treasury_id = \$1`).
			WithArgs(treasuryID).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("0"))

		total, err := repo.SumByTreasury(context.Background(), treasuryID)

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTreasuryTransactionRepository_SumSettlementsByPartner(t *testing.T) {
	t.Run("filters on partner, type and reference kind", func(t *testing.T) {
		repo, mock, mockDB := newMockTreasuryTransactionRepository(t)
		defer mockDB.Close()

		partnerID := uuid.New()

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) AS total FROM "treasury_transactions" WHERE partner_id = \$1 AND type = \$2 AND reference_kind = \$3`).
			WithArgs(partnerID, ledger.TransactionTypeCollection, ledger.DocumentKindFinancialTransaction).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("-250.0000"))

		total, err := repo.SumSettlementsByPartner(context.Background(), partnerID, ledger.TransactionTypeCollection)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("-250")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTreasuryTransactionRepository_SumExpensesInWindow(t *testing.T) {
	t.Run("negates stored expense amounts over the window", func(t *testing.T) {
		repo, mock, mockDB := newMockTreasuryTransactionRepository(t)
		defer mockDB.Close()

		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(-amount\), 0\) AS total FROM "treasury_transactions" WHERE type = \$1 AND occurred_at >= \$2 AND occurred_at < \$3`).
			WithArgs(ledger.TransactionTypeExpense, from, to).
			WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("400.0000"))

		total, err := repo.SumExpensesInWindow(context.Background(), from, to)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.RequireFromString("400")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTreasuryTransactionRepository_FindByReference(t *testing.T) {
	t.Run("finds transactions ordered by occurrence", func(t *testing.T) {
		repo, mock, mockDB := newMockTreasuryTransactionRepository(t)
		defer mockDB.Close()

		ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesInvoice, uuid.New())
		require.NoError(t, err)
		treasuryID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "treasury_id", "type", "amount", "reference_kind", "reference_id"}).
			AddRow(uuid.New(), treasuryID, ledger.TransactionTypeCollection, "1000.0000", ref.Kind, ref.ID)

		mock.ExpectQuery(`SELECT \* FROM "treasury_transactions" WHERE reference_kind = \$1 AND reference_id = \$2 ORDER BY occurred_at ASC`).
			WithArgs(ref.Kind, ref.ID).
			WillReturnRows(rows)

		txs, err := repo.FindByReference(context.Background(), ref)

		assert.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, ledger.TransactionTypeCollection, txs[0].Type)
		assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("1000")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTreasuryTransactionRepository_CountByReference(t *testing.T) {
	t.Run("counts transactions for one source document", func(t *testing.T) {
		repo, mock, mockDB := newMockTreasuryTransactionRepository(t)
		defer mockDB.Close()

		ref, err := ledger.NewDocumentRef(ledger.DocumentKindFixedAsset, uuid.New())
		require.NoError(t, err)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "treasury_transactions" WHERE reference_kind = \$1 AND reference_id = \$2`).
			WithArgs(ref.Kind, ref.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		count, err := repo.CountByReference(context.Background(), ref)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTreasuryTransactionRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements TreasuryTransactionRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockTreasuryTransactionRepository(t)
		defer mockDB.Close()

		var _ ledger.TreasuryTransactionRepository = repo
	})
}
