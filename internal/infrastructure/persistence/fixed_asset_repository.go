package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFixedAssetRepository implements FixedAssetRepository using GORM
type GormFixedAssetRepository struct {
	db *gorm.DB
}

// NewGormFixedAssetRepository creates a new GormFixedAssetRepository
func NewGormFixedAssetRepository(db *gorm.DB) *GormFixedAssetRepository {
	return &GormFixedAssetRepository{db: db}
}

// Save creates or updates a fixed asset
func (r *GormFixedAssetRepository) Save(ctx context.Context, asset *trade.FixedAsset) error {
	return r.db.WithContext(ctx).Save(asset).Error
}

// FindByID finds a fixed asset by its ID
func (r *GormFixedAssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.FixedAsset, error) {
	var asset trade.FixedAsset
	if err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// FindAll finds all fixed assets matching the filter, with the total count
func (r *GormFixedAssetRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.FixedAsset, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.FixedAsset{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("asset_number ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if source, ok := filter.Filters["funding_source"]; ok {
		query = query.Where("funding_source = ?", source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assets []*trade.FixedAsset
	query = applyFilter(query, filter, "created_at DESC")
	if err := query.Find(&assets).Error; err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// Delete deletes a fixed asset
func (r *GormFixedAssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&trade.FixedAsset{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormFixedAssetRepository implements FixedAssetRepository
var _ trade.FixedAssetRepository = (*GormFixedAssetRepository)(nil)
