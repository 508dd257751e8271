package persistence

import (
	"context"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// The store is append-only: there are no update or delete methods.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a single stock movement
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *ledger.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// CreateBatch appends multiple stock movements
func (r *GormStockMovementRepository) CreateBatch(ctx context.Context, movements []*ledger.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

// SumQuantity returns the live stock for a (warehouse, product) pair
func (r *GormStockMovementRepository) SumQuantity(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// PurchaseHistory aggregates all purchase-type movements for a product
func (r *GormStockMovementRepository) PurchaseHistory(ctx context.Context, productID uuid.UUID) (ledger.PurchaseHistory, error) {
	var result struct {
		TotalQuantity decimal.Decimal
		TotalValue    decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Select("COALESCE(SUM(quantity), 0) AS total_quantity, COALESCE(SUM(quantity * cost_at_time), 0) AS total_value").
		Where("product_id = ? AND type = ?", productID, ledger.MovementTypePurchase).
		Scan(&result).Error; err != nil {
		return ledger.PurchaseHistory{}, err
	}
	return ledger.PurchaseHistory{
		TotalQuantity: result.TotalQuantity,
		TotalValue:    result.TotalValue,
	}, nil
}

// FindByReference finds all movements created by one source document
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, ref ledger.DocumentRef) ([]ledger.StockMovement, error) {
	var movements []ledger.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Order("movement_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByWarehouseAndProduct finds the movement history of a stock pair
func (r *GormStockMovementRepository) FindByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID, filter shared.Filter) ([]ledger.StockMovement, error) {
	var movements []ledger.StockMovement
	query := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID)
	query = applyFilter(query, filter, "movement_at DESC")

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// CountByReference counts movements created by one source document
func (r *GormStockMovementRepository) CountByReference(ctx context.Context, ref ledger.DocumentRef) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Where("reference_kind = ? AND reference_id = ?", ref.Kind, ref.ID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByWarehouse counts movements touching a warehouse
func (r *GormStockMovementRepository) CountByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Where("warehouse_id = ?", warehouseID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByProduct counts movements touching a product
func (r *GormStockMovementRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ ledger.StockMovementRepository = (*GormStockMovementRepository)(nil)
