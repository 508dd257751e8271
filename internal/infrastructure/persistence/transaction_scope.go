package persistence

import (
	"context"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements posting.TransactionScope using GORM's
// transaction support. Every repository handed to the callback is bound to
// the same *gorm.DB transaction, so the whole post commits or rolls back as
// one unit.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos posting.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Repositories bundles one GORM-backed instance of every repository over a
// single database handle. Used both inside a transaction scope (bound to the
// transaction) and as the non-transactional read-side view of the store.
type Repositories struct {
	db *gorm.DB
}

// NewRepositories creates a repository bundle over the given database handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{db: db}
}

func (r *Repositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *Repositories) Partners() partner.PartnerRepository {
	return NewGormPartnerRepository(r.db)
}

func (r *Repositories) Treasuries() partner.TreasuryRepository {
	return NewGormTreasuryRepository(r.db)
}

func (r *Repositories) Warehouses() partner.WarehouseRepository {
	return NewGormWarehouseRepository(r.db)
}

func (r *Repositories) StockMovements() ledger.StockMovementRepository {
	return NewGormStockMovementRepository(r.db)
}

func (r *Repositories) TreasuryTransactions() ledger.TreasuryTransactionRepository {
	return NewGormTreasuryTransactionRepository(r.db)
}

func (r *Repositories) SalesInvoices() trade.SalesInvoiceRepository {
	return NewGormSalesInvoiceRepository(r.db)
}

func (r *Repositories) PurchaseInvoices() trade.PurchaseInvoiceRepository {
	return NewGormPurchaseInvoiceRepository(r.db)
}

func (r *Repositories) SalesReturns() trade.SalesReturnRepository {
	return NewGormSalesReturnRepository(r.db)
}

func (r *Repositories) PurchaseReturns() trade.PurchaseReturnRepository {
	return NewGormPurchaseReturnRepository(r.db)
}

func (r *Repositories) StockAdjustments() trade.StockAdjustmentRepository {
	return NewGormStockAdjustmentRepository(r.db)
}

func (r *Repositories) WarehouseTransfers() trade.WarehouseTransferRepository {
	return NewGormWarehouseTransferRepository(r.db)
}

func (r *Repositories) FixedAssets() trade.FixedAssetRepository {
	return NewGormFixedAssetRepository(r.db)
}

func (r *Repositories) Installments() finance.InstallmentRepository {
	return NewGormInstallmentRepository(r.db)
}

func (r *Repositories) EquityPeriods() finance.EquityPeriodRepository {
	return NewGormEquityPeriodRepository(r.db)
}

func (r *Repositories) InvoicePayments() finance.InvoicePaymentRepository {
	return NewGormInvoicePaymentRepository(r.db)
}

var (
	_ posting.TransactionScope          = (*GormTransactionScope)(nil)
	_ posting.TransactionalRepositories = (*Repositories)(nil)
)
