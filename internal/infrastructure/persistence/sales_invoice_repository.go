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

// GormSalesInvoiceRepository implements SalesInvoiceRepository using GORM
type GormSalesInvoiceRepository struct {
	db *gorm.DB
}

// NewGormSalesInvoiceRepository creates a new GormSalesInvoiceRepository
func NewGormSalesInvoiceRepository(db *gorm.DB) *GormSalesInvoiceRepository {
	return &GormSalesInvoiceRepository{db: db}
}

// Save creates or updates a sales invoice together with its items
func (r *GormSalesInvoiceRepository) Save(ctx context.Context, invoice *trade.SalesInvoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(invoice).Error; err != nil {
			return err
		}
		return saveLineItems(tx, "invoice_id", invoice.ID, invoice.Items, func(item *trade.SalesInvoiceItem) uuid.UUID {
			item.InvoiceID = invoice.ID
			return item.ID
		})
	})
}

// FindByID finds a sales invoice by its ID
func (r *GormSalesInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesInvoice, error) {
	var invoice trade.SalesInvoice
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

// FindByNumber finds a sales invoice by its invoice number
func (r *GormSalesInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*trade.SalesInvoice, error) {
	var invoice trade.SalesInvoice
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

// FindAll finds all sales invoices matching the filter, with the total count
func (r *GormSalesInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.SalesInvoice, int64, error) {
	return r.findPage(r.applySearch(r.db.WithContext(ctx).Model(&trade.SalesInvoice{}), filter), filter)
}

// FindByCustomer finds sales invoices for one customer
func (r *GormSalesInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*trade.SalesInvoice, int64, error) {
	query := r.applySearch(
		r.db.WithContext(ctx).Model(&trade.SalesInvoice{}).Where("customer_id = ?", customerID),
		filter,
	)
	return r.findPage(query, filter)
}

func (r *GormSalesInvoiceRepository) findPage(query *gorm.DB, filter shared.Filter) ([]*trade.SalesInvoice, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []*trade.SalesInvoice
	query = applyFilter(query.Preload("Items"), filter, "created_at DESC")
	if err := query.Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *GormSalesInvoiceRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
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

// Delete deletes a sales invoice and its items
func (r *GormSalesInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&trade.SalesInvoiceItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.SalesInvoice{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SumPostedRemainingByCustomer totals remaining amounts of posted invoices
// for one customer
func (r *GormSalesInvoiceRepository) SumPostedRemainingByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.SalesInvoice{}).
		Select("COALESCE(SUM(remaining_amount), 0) AS total").
		Where("customer_id = ? AND status = ?", customerID, trade.DocumentStatusPosted).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumPostedTotalsInWindow totals posted invoice amounts in [from, to)
func (r *GormSalesInvoiceRepository) SumPostedTotalsInWindow(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.SalesInvoice{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status = ? AND posted_at >= ? AND posted_at < ?", trade.DocumentStatusPosted, from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormSalesInvoiceRepository implements SalesInvoiceRepository
var _ trade.SalesInvoiceRepository = (*GormSalesInvoiceRepository)(nil)
