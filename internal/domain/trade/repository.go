package trade

import (
	"context"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesInvoiceRepository defines the persistence contract for sales invoices
type SalesInvoiceRepository interface {
	Save(ctx context.Context, invoice *SalesInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*SalesInvoice, error)
	FindByNumber(ctx context.Context, invoiceNumber string) (*SalesInvoice, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*SalesInvoice, int64, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*SalesInvoice, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SumPostedRemainingByCustomer totals remaining_amount across posted
	// invoices for one customer. Feeds the customer balance formula.
	SumPostedRemainingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	// SumPostedTotalsInWindow totals posted invoice amounts inside a period.
	SumPostedTotalsInWindow(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// PurchaseInvoiceRepository defines the persistence contract for purchase invoices
type PurchaseInvoiceRepository interface {
	Save(ctx context.Context, invoice *PurchaseInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseInvoice, error)
	FindByNumber(ctx context.Context, invoiceNumber string) (*PurchaseInvoice, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*PurchaseInvoice, int64, error)
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]*PurchaseInvoice, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SumPostedRemainingBySupplier totals remaining_amount across posted
	// invoices for one supplier. Feeds the supplier balance formula.
	SumPostedRemainingBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
	// SumPostedTotalsInWindow totals posted invoice amounts inside a period.
	SumPostedTotalsInWindow(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// SalesReturnRepository defines the persistence contract for sales returns
type SalesReturnRepository interface {
	Save(ctx context.Context, ret *SalesReturn) error
	FindByID(ctx context.Context, id uuid.UUID) (*SalesReturn, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*SalesReturn, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SumPostedTotalsByInvoice totals posted return amounts linked to one
	// invoice, used to cap cumulative returns at the invoice total.
	SumPostedTotalsByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	// SumPostedCreditTotalsByCustomer totals posted credit-method returns for
	// one customer. Feeds the customer balance formula.
	SumPostedCreditTotalsByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
}

// PurchaseReturnRepository defines the persistence contract for purchase returns
type PurchaseReturnRepository interface {
	Save(ctx context.Context, ret *PurchaseReturn) error
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseReturn, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*PurchaseReturn, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SumPostedTotalsByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	// SumPostedCreditTotalsBySupplier totals posted credit-method returns for
	// one supplier. Feeds the supplier balance formula.
	SumPostedCreditTotalsBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
}

// StockAdjustmentRepository defines the persistence contract for adjustments
type StockAdjustmentRepository interface {
	Save(ctx context.Context, adjustment *StockAdjustment) error
	FindByID(ctx context.Context, id uuid.UUID) (*StockAdjustment, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*StockAdjustment, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// WarehouseTransferRepository defines the persistence contract for transfers
type WarehouseTransferRepository interface {
	Save(ctx context.Context, transfer *WarehouseTransfer) error
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseTransfer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*WarehouseTransfer, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FixedAssetRepository defines the persistence contract for fixed assets
type FixedAssetRepository interface {
	Save(ctx context.Context, asset *FixedAsset) error
	FindByID(ctx context.Context, id uuid.UUID) (*FixedAsset, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*FixedAsset, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
