package posting

import (
	"context"

	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the posting repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Every document post runs inside exactly one scope: the
// stock leg, the treasury leg, side effects and the status flip either all
// land or none do.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Partners() partner.PartnerRepository
	Treasuries() partner.TreasuryRepository
	Warehouses() partner.WarehouseRepository
	StockMovements() ledger.StockMovementRepository
	TreasuryTransactions() ledger.TreasuryTransactionRepository
	SalesInvoices() trade.SalesInvoiceRepository
	PurchaseInvoices() trade.PurchaseInvoiceRepository
	SalesReturns() trade.SalesReturnRepository
	PurchaseReturns() trade.PurchaseReturnRepository
	StockAdjustments() trade.StockAdjustmentRepository
	WarehouseTransfers() trade.WarehouseTransferRepository
	FixedAssets() trade.FixedAssetRepository
	Installments() finance.InstallmentRepository
	EquityPeriods() finance.EquityPeriodRepository
	InvoicePayments() finance.InvoicePaymentRepository
}
