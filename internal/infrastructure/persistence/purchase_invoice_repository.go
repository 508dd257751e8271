package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPurchaseInvoiceRepository implements PurchaseInvoiceRepository using GORM
type GormPurchaseInvoiceRepository struct {
	db *gorm.DB
}

// NewGormPurchaseInvoiceRepository creates a new GormPurchaseInvoiceRepository
func NewGormPurchaseInvoiceRepository(db *gorm.DB) *GormPurchaseInvoiceRepository {
	return &GormPurchaseInvoiceRepository{db: db}
}

// Save creates or updates a purchase invoice together with its items
func (r *GormPurchaseInvoiceRepository) Save(ctx context.Context, invoice *trade.PurchaseInvoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(invoice).Error; err != nil {
			return err
		}
		return saveLineItems(tx, "invoice_id", invoice.ID, invoice.Items, func(item *trade.PurchaseInvoiceItem) uuid.UUID {
			item.InvoiceID = invoice.ID
			return item.ID
		})
	})
}

// FindByID finds a purchase invoice by its ID
func (r *GormPurchaseInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseInvoice, error) {
	var invoice trade.PurchaseInvoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds a purchase invoice by its invoice number
func (r *GormPurchaseInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*trade.PurchaseInvoice, error) {
	var invoice trade.PurchaseInvoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAll finds all purchase invoices matching the filter, with the total count
func (r *GormPurchaseInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.PurchaseInvoice, int64, error) {
	return r.findPage(r.applySearch(r.db.WithContext(ctx).Model(&trade.PurchaseInvoice{}), filter), filter)
}

// FindBySupplier finds purchase invoices for one supplier
func (r *GormPurchaseInvoiceRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]*trade.PurchaseInvoice, int64, error) {
	query := r.applySearch(
		r.db.WithContext(ctx).Model(&trade.PurchaseInvoice{}).Where("supplier_id = ?", supplierID),
		filter,
	)
	return r.findPage(query, filter)
}

func (r *GormPurchaseInvoiceRepository) findPage(query *gorm.DB, filter shared.Filter) ([]*trade.PurchaseInvoice, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []*trade.PurchaseInvoice
	query = applyFilter(query.Preload("Items"), filter, "created_at DESC")
	if err := query.Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *GormPurchaseInvoiceRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if ps, ok := filter.Filters["payment_status"]; ok {
		query = query.Where("payment_status = ?", ps)
	}
	return query
}

// Delete deletes a purchase invoice and its items
func (r *GormPurchaseInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&trade.PurchaseInvoiceItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.PurchaseInvoice{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SumPostedRemainingBySupplier totals remaining amounts of posted invoices
// for one supplier
func (r *GormPurchaseInvoiceRepository) SumPostedRemainingBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.PurchaseInvoice{}).
		Select("COALESCE(SUM(remaining_amount), 0) AS total").
		Where("supplier_id = ? AND status = ?", supplierID, trade.DocumentStatusPosted).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumPostedTotalsInWindow totals posted invoice amounts in [from, to)
func (r *GormPurchaseInvoiceRepository) SumPostedTotalsInWindow(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.PurchaseInvoice{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status = ? AND posted_at >= ? AND posted_at < ?", trade.DocumentStatusPosted, from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormPurchaseInvoiceRepository implements PurchaseInvoiceRepository
var _ trade.PurchaseInvoiceRepository = (*GormPurchaseInvoiceRepository)(nil)
