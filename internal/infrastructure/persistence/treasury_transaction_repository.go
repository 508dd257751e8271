package persistence

import (
	"context"
	"time"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTreasuryTransactionRepository implements TreasuryTransactionRepository
// using GORM. The store is append-only.
type GormTreasuryTransactionRepository struct {
	db *gorm.DB
}

// NewGormTreasuryTransactionRepository creates a new GormTreasuryTransactionRepository
func NewGormTreasuryTransactionRepository(db *gorm.DB) *GormTreasuryTransactionRepository {
	return &GormTreasuryTransactionRepository{db: db}
}

// Create appends a single treasury transaction
func (r *GormTreasuryTransactionRepository) Create(ctx context.Context, tx *ledger.TreasuryTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// CreateBatch appends multiple treasury transactions
func (r *GormTreasuryTransactionRepository) CreateBatch(ctx context.Context, txs []*ledger.TreasuryTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(txs).Error
}

// SumByTreasury returns the live balance of a treasury account
func (r *GormTreasuryTransactionRepository) SumByTreasury(ctx context.Context, treasuryID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(amount), 0)", "treasury_id = ?", treasuryID)
}

// SumByPartner returns the sum of all transaction amounts for a partner
func (r *GormTreasuryTransactionRepository) SumByPartner(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(amount), 0)", "partner_id = ?", partnerID)
}

// SumSettlementsByPartner sums manual settlement amounts of one type for a partner
func (r *GormTreasuryTransactionRepository) SumSettlementsByPartner(ctx context.Context, partnerID uuid.UUID, txType ledger.TransactionType) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(amount), 0)",
		"partner_id = ? AND type = ? AND reference_kind = ?",
		partnerID, txType, ledger.DocumentKindFinancialTransaction)
}

// SumExpensesInWindow returns the absolute total of expense amounts in
// [from, to). Expenses are stored negative, so the sum is negated.
func (r *GormTreasuryTransactionRepository) SumExpensesInWindow(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "COALESCE(SUM(-amount), 0)",
		"type = ? AND occurred_at >= ? AND occurred_at < ?",
		ledger.TransactionTypeExpense, from, to)
}

func (r *GormTreasuryTransactionRepository) sum(ctx context.Context, selectExpr, cond string, args ...interface{}) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.TreasuryTransaction{}).
		Select(selectExpr+" AS total").
		Where(cond, args...).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// FindByReference finds all transactions created by one source document
func (r *GormTreasuryTransactionRepository) FindByReference(ctx context.Context, ref ledger.DocumentRef) ([]ledger.TreasuryTransaction, error) {
	var txs []ledger.TreasuryTransaction
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("occurred_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByTreasury finds the transaction history of a treasury
func (r *GormTreasuryTransactionRepository) FindByTreasury(ctx context.Context, treasuryID uuid.UUID, filter shared.Filter) ([]ledger.TreasuryTransaction, error) {
	var txs []ledger.TreasuryTransaction
	query := r.db.WithContext(ctx).
		Model(&ledger.TreasuryTransaction{}).
		Where("treasury_id = ?", treasuryID)
	query = applyFilter(query, filter, "occurred_at DESC")

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByPartner finds the transaction history of a partner
func (r *GormTreasuryTransactionRepository) FindByPartner(ctx context.Context, partnerID uuid.UUID, filter shared.Filter) ([]ledger.TreasuryTransaction, error) {
	var txs []ledger.TreasuryTransaction
	query := r.db.WithContext(ctx).
		Model(&ledger.TreasuryTransaction{}).
		Where("partner_id = ?", partnerID)
	query = applyFilter(query, filter, "occurred_at DESC")

	if err := query.Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// CountByReference counts transactions created by one source document
func (r *GormTreasuryTransactionRepository) CountByReference(ctx context.Context, ref ledger.DocumentRef) (int64, error) {
	return r.count(ctx, "reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID)
}

// CountByPartner counts transactions linked to a partner
func (r *GormTreasuryTransactionRepository) CountByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error) {
	return r.count(ctx, "partner_id = ?", partnerID)
}

// CountByTreasury counts transactions touching a treasury
func (r *GormTreasuryTransactionRepository) CountByTreasury(ctx context.Context, treasuryID uuid.UUID) (int64, error) {
	return r.count(ctx, "treasury_id = ?", treasuryID)
}

func (r *GormTreasuryTransactionRepository) count(ctx context.Context, cond string, args ...interface{}) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.TreasuryTransaction{}).
		Where(cond, args...).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormTreasuryTransactionRepository implements TreasuryTransactionRepository
var _ ledger.TreasuryTransactionRepository = (*GormTreasuryTransactionRepository)(nil)
