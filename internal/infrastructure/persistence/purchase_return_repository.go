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

// GormPurchaseReturnRepository implements PurchaseReturnRepository using GORM
type GormPurchaseReturnRepository struct {
	db *gorm.DB
}

// NewGormPurchaseReturnRepository creates a new GormPurchaseReturnRepository
func NewGormPurchaseReturnRepository(db *gorm.DB) *GormPurchaseReturnRepository {
	return &GormPurchaseReturnRepository{db: db}
}

// Save creates or updates a purchase return together with its items
func (r *GormPurchaseReturnRepository) Save(ctx context.Context, ret *trade.PurchaseReturn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(ret).Error; err != nil {
			return err
		}
		return saveLineItems(tx, "return_id", ret.ID, ret.Items, func(item *trade.PurchaseReturnItem) uuid.UUID {
			item.ReturnID = ret.ID
			return item.ID
		})
	})
}

// FindByID finds a purchase return by its ID
func (r *GormPurchaseReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseReturn, error) {
	var ret trade.PurchaseReturn
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

// FindAll finds all purchase returns matching the filter, with the total count
func (r *GormPurchaseReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.PurchaseReturn, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.PurchaseReturn{})
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

	var returns []*trade.PurchaseReturn
	query = applyFilter(query.Preload("Items"), filter, "created_at DESC")
	if err := query.Find(&returns).Error; err != nil {
		return nil, 0, err
	}
	return returns, total, nil
}

// Delete deletes a purchase return and its items
func (r *GormPurchaseReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("return_id = ?", id).Delete(&trade.PurchaseReturnItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.PurchaseReturn{}, "id = ?", id)
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
func (r *GormPurchaseReturnRepository) SumPostedTotalsByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.PurchaseReturn{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("linked_invoice_id = ? AND status = ?", invoiceID, trade.DocumentStatusPosted).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumPostedCreditTotalsBySupplier totals posted credit-method returns for
// one supplier
func (r *GormPurchaseReturnRepository) SumPostedCreditTotalsBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&trade.PurchaseReturn{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("supplier_id = ? AND status = ? AND payment_method = ?",
			supplierID, trade.DocumentStatusPosted, trade.PaymentMethodCredit).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormPurchaseReturnRepository implements PurchaseReturnRepository
var _ trade.PurchaseReturnRepository = (*GormPurchaseReturnRepository)(nil)
