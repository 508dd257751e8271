package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormWarehouseTransferRepository implements WarehouseTransferRepository using GORM
type GormWarehouseTransferRepository struct {
	db *gorm.DB
}

// NewGormWarehouseTransferRepository creates a new GormWarehouseTransferRepository
func NewGormWarehouseTransferRepository(db *gorm.DB) *GormWarehouseTransferRepository {
	return &GormWarehouseTransferRepository{db: db}
}

// Save creates or updates a warehouse transfer together with its items
func (r *GormWarehouseTransferRepository) Save(ctx context.Context, transfer *trade.WarehouseTransfer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(transfer).Error; err != nil {
			return err
		}
		return saveLineItems(tx, "transfer_id", transfer.ID, transfer.Items, func(item *trade.WarehouseTransferItem) uuid.UUID {
			item.TransferID = transfer.ID
			return item.ID
		})
	})
}

// FindByID finds a warehouse transfer by its ID
func (r *GormWarehouseTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.WarehouseTransfer, error) {
	var transfer trade.WarehouseTransfer
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&transfer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

// FindAll finds all warehouse transfers matching the filter, with the total count
func (r *GormWarehouseTransferRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.WarehouseTransfer, int64, error) {
	query := r.db.WithContext(ctx).Model(&trade.WarehouseTransfer{})
	if filter.Search != "" {
		query = query.Where("transfer_number ILIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transfers []*trade.WarehouseTransfer
	query = applyFilter(query.Preload("Items"), filter, "created_at DESC")
	if err := query.Find(&transfers).Error; err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}

// Delete deletes a warehouse transfer and its items
func (r *GormWarehouseTransferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transfer_id = ?", id).Delete(&trade.WarehouseTransferItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.WarehouseTransfer{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormWarehouseTransferRepository implements WarehouseTransferRepository
var _ trade.WarehouseTransferRepository = (*GormWarehouseTransferRepository)(nil)
