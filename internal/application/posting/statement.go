package posting

import (
	"context"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockStatementLine is one stock movement with the running stock level
// after it was applied.
type StockStatementLine struct {
	Movement ledger.StockMovement `json:"movement"`
	Balance  decimal.Decimal      `json:"balance"`
}

// TreasuryStatementLine is one treasury transaction with the running
// treasury balance after it was applied.
type TreasuryStatementLine struct {
	Transaction ledger.TreasuryTransaction `json:"transaction"`
	Balance     decimal.Decimal            `json:"balance"`
}

// GetStockStatement returns the movement history of a (warehouse, product)
// pair in chronological order with a running balance. Pagination walks from
// the start of the history so the running balance stays exact.
func (s *Service) GetStockStatement(ctx context.Context, warehouseID, productID uuid.UUID, filter shared.Filter) ([]StockStatementLine, error) {
	filter.OrderBy = "movement_at"
	filter.OrderDir = "asc"
	page, pageSize := filter.Page, filter.PageSize
	filter.Page, filter.PageSize = 0, 0

	movements, err := s.reads.StockMovements().FindByWarehouseAndProduct(ctx, warehouseID, productID, filter)
	if err != nil {
		return nil, err
	}

	lines := make([]StockStatementLine, 0, len(movements))
	balance := decimal.Zero
	for _, m := range movements {
		balance = balance.Add(m.Quantity)
		lines = append(lines, StockStatementLine{Movement: m, Balance: balance})
	}
	return paginate(lines, page, pageSize), nil
}

// GetTreasuryStatement returns the transaction history of a treasury in
// chronological order with a running balance. Every row with this treasury
// ID contributes its stored amount, matching SumByTreasury.
func (s *Service) GetTreasuryStatement(ctx context.Context, treasuryID uuid.UUID, filter shared.Filter) ([]TreasuryStatementLine, error) {
	filter.OrderBy = "occurred_at"
	filter.OrderDir = "asc"
	page, pageSize := filter.Page, filter.PageSize
	filter.Page, filter.PageSize = 0, 0

	txs, err := s.reads.TreasuryTransactions().FindByTreasury(ctx, treasuryID, filter)
	if err != nil {
		return nil, err
	}

	lines := make([]TreasuryStatementLine, 0, len(txs))
	balance := decimal.Zero
	for _, tx := range txs {
		balance = balance.Add(tx.Amount)
		lines = append(lines, TreasuryStatementLine{Transaction: tx, Balance: balance})
	}
	return paginate(lines, page, pageSize), nil
}

// GetPartnerTransactions returns the raw transaction history of a partner.
func (s *Service) GetPartnerTransactions(ctx context.Context, partnerID uuid.UUID, filter shared.Filter) ([]ledger.TreasuryTransaction, error) {
	return s.reads.TreasuryTransactions().FindByPartner(ctx, partnerID, filter)
}

// GetInstallmentSchedule returns the installment schedule of an invoice
// ordered by due date.
func (s *Service) GetInstallmentSchedule(ctx context.Context, invoiceID uuid.UUID) ([]*finance.Installment, error) {
	return s.reads.Installments().FindByInvoice(ctx, invoiceID)
}

func paginate[T any](lines []T, page, pageSize int) []T {
	if page <= 0 || pageSize <= 0 {
		return lines
	}
	start := (page - 1) * pageSize
	if start >= len(lines) {
		return []T{}
	}
	end := start + pageSize
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}
