package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockAdjustmentRepository implements StockAdjustmentRepository using GORM
type GormStockAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormStockAdjustmentRepository creates a new GormStockAdjustmentRepository
func NewGormStockAdjustmentRepository(db *gorm.DB) *GormStockAdjustmentRepository {
	return &GormStockAdjustmentRepository{db: db}
}

// Save creates or updates a stock adjustment
func (r *GormStockAdjustmentRepository) Save(ctx context.Context, adjustment *trade.StockAdjustment) error {
	return r.db.WithContext(ctx).Save(adjustment).Error
}

// FindByID finds a stock adjustment by its ID
func (r *GormStockAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.StockAdjustment, error) {
	var adjustment trade.StockAdjustment
	if err := r.db.WithContext(ctx).First(&adjustment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &adjustment, nil
}

// FindAll finds all stock adjustments matching the filter, with the total count
func (r *GormStockAdjustmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.StockAdjustment, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.StockAdjustment{})
	if filter.Search != "" {
		query = query.Where("adjustment_number ILIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if warehouseID, ok := filter.Filters["warehouse_id"]; ok {
		query = query.Where("warehouse_id = ?", warehouseID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var adjustments []*trade.StockAdjustment
	query = applyFilter(query, filter, "created_at DESC")
	if err := query.Find(&adjustments).Error; err != nil {
		return nil, 0, err
	}
	return adjustments, total, nil
}

// Delete deletes a stock adjustment
func (r *GormStockAdjustmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&trade.StockAdjustment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormStockAdjustmentRepository implements StockAdjustmentRepository
var _ trade.StockAdjustmentRepository = (*GormStockAdjustmentRepository)(nil)
