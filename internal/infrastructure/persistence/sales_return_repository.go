package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSalesReturnRepository implements SalesReturnRepository using GORM
type GormSalesReturnRepository struct {
	db *gorm.DB
}

// NewGormSalesReturnRepository creates a new GormSalesReturnRepository
func NewGormSalesReturnRepository(db *gorm.DB) *GormSalesReturnRepository {
	return &GormSalesReturnRepository{db: db}
}

// Save creates or updates a sales return together with its items
func (r *GormSalesReturnRepository) Save(ctx context.Context, ret *trade.SalesReturn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(ret).Error; err != nil {
			return err
		}
		return saveLineItems(tx, "return_id", ret.ID, ret.Items, func(item *trade.SalesReturnItem) uuid.UUID {
			item.ReturnID = ret.ID
			return item.ID
		})
	})
}

// FindByID finds a sales return by its ID
func (r *GormSalesReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesReturn, error) {
	var ret trade.SalesReturn
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindAll finds all sales returns matching the filter, with the total count
func (r *GormSalesReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.SalesReturn, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.SalesReturn{})
	if filter.Search != "" {
		query = query.Where("return_number ILIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var returns []*trade.SalesReturn
	query = applyFilter(query.Preload("Items"), filter, "created_at DESC")
	if err := query.Find(&returns).Error; err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

// Delete deletes a sales return and its items
func (r *GormSalesReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("return_id = ?", id).Delete(&trade.SalesReturnItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.SalesReturn{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// SumPostedTotalsByInvoice totals posted return amounts linked to one invoice
func (r *GormSalesReturnRepository) SumPostedTotalsByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.SalesReturn{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("linked_invoice_id = ? AND status = ?", invoiceID, trade.DocumentStatusPosted).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumPostedCreditTotalsByCustomer totals posted credit-method returns for
// one customer
func (r *GormSalesReturnRepository) SumPostedCreditTotalsByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.SalesReturn{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("customer_id = ? AND status = ? AND payment_method = ?",
			customerID, trade.DocumentStatusPosted, trade.PaymentMethodCredit).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormSalesReturnRepository implements SalesReturnRepository
var _ trade.SalesReturnRepository = (*GormSalesReturnRepository)(nil)
