package ledger

import (
	"context"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseHistory summarizes the full purchase-movement history of a product,
// used to recompute the weighted average cost.
type PurchaseHistory struct {
	TotalQuantity decimal.Decimal
	TotalValue    decimal.Decimal // Sum of quantity * cost_at_time
}

// AverageCost returns the weighted average cost, or zero for an empty history
func (h PurchaseHistory) AverageCost() decimal.Decimal {
	if h.TotalQuantity.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return h.TotalValue.Div(h.TotalQuantity).Round(4)
}

// StockMovementRepository is the append-only store for stock movements.
// There are deliberately no update or delete operations: the ledger is
// immutable and corrections are modeled as new movements.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	CreateBatch(ctx context.Context, movements []*StockMovement) error
	// SumQuantity returns the live stock for a (warehouse, product) pair.
	SumQuantity(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error)
	// PurchaseHistory aggregates all purchase-type movements for a product
	// across warehouses. Returns a zero history when none exist.
	PurchaseHistory(ctx context.Context, productID uuid.UUID) (PurchaseHistory, error)
	FindByReference(ctx context.Context, ref DocumentRef) ([]StockMovement, error)
	FindByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	CountByReference(ctx context.Context, ref DocumentRef) (int64, error)
	CountByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

// TreasuryTransactionRepository is the append-only store for treasury
// transactions.
type TreasuryTransactionRepository interface {
	Create(ctx context.Context, tx *TreasuryTransaction) error
	CreateBatch(ctx context.Context, txs []*TreasuryTransaction) error
	// SumByTreasury returns the live balance of a treasury account.
	SumByTreasury(ctx context.Context, treasuryID uuid.UUID) (decimal.Decimal, error)
	// SumByPartner returns the sum of all transaction amounts for a partner,
	// regardless of type or reference (the shareholder balance derivation).
	SumByPartner(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error)
	// SumSettlementsByPartner returns the sum of amounts of the given type
	// for a partner, restricted to manual settlement entries
	// (reference kind FINANCIAL_TRANSACTION).
	SumSettlementsByPartner(ctx context.Context, partnerID uuid.UUID, txType TransactionType) (decimal.Decimal, error)
	FindByReference(ctx context.Context, ref DocumentRef) ([]TreasuryTransaction, error)
	FindByTreasury(ctx context.Context, treasuryID uuid.UUID, filter shared.Filter) ([]TreasuryTransaction, error)
	FindByPartner(ctx context.Context, partnerID uuid.UUID, filter shared.Filter) ([]TreasuryTransaction, error)
	// SumExpensesInWindow returns the absolute total of expense-type amounts
	// between from (inclusive) and to (exclusive), for period summaries.
	SumExpensesInWindow(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CountByReference(ctx context.Context, ref DocumentRef) (int64, error)
	CountByPartner(ctx context.Context, partnerID uuid.UUID) (int64, error)
	CountByTreasury(ctx context.Context, treasuryID uuid.UUID) (int64, error)
}
