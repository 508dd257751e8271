package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByID finds a partner by its ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	var p partner.Partner
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByType finds all partners of the given type
func (r *GormPartnerRepository) FindByType(ctx context.Context, partnerType partner.PartnerType) ([]partner.Partner, error) {
	var partners []partner.Partner
	if err := r.db.WithContext(ctx).
		Where("type = ?", partnerType).
		Order("name ASC").
		Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// FindAll finds all partners matching the filter
func (r *GormPartnerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Partner, error) {
	var partners []partner.Partner
	query := r.applySearch(r.db.WithContext(ctx).Model(&partner.Partner{}), filter)
	query = applyFilter(query, filter, "name ASC")

	if err := query.Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// Save creates or updates a partner
func (r *GormPartnerRepository) Save(ctx context.Context, p *partner.Partner) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Count counts partners matching the filter
func (r *GormPartnerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&partner.Partner{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormPartnerRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ?", pattern, pattern)
	}
	if t, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", t)
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	return query
}

// GormTreasuryRepository implements TreasuryRepository using GORM
type GormTreasuryRepository struct {
	db *gorm.DB
}

// NewGormTreasuryRepository creates a new GormTreasuryRepository
func NewGormTreasuryRepository(db *gorm.DB) *GormTreasuryRepository {
	return &GormTreasuryRepository{db: db}
}

// FindByID finds a treasury by its ID
func (r *GormTreasuryRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Treasury, error) {
	var t partner.Treasury
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindDefault finds the default treasury
func (r *GormTreasuryRepository) FindDefault(ctx context.Context) (*partner.Treasury, error) {
	var t partner.Treasury
	if err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAll finds all treasuries matching the filter
func (r *GormTreasuryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Treasury, error) {
	var treasuries []partner.Treasury
	query := r.db.WithContext(ctx).Model(&partner.Treasury{})
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	query = applyFilter(query, filter, "name ASC")

	if err := query.Find(&treasuries).Error; err != nil {
		return nil, err
	}
	return treasuries, nil
}

// Save creates or updates a treasury
func (r *GormTreasuryRepository) Save(ctx context.Context, t *partner.Treasury) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Count counts all treasuries
func (r *GormTreasuryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&partner.Treasury{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Warehouse, error) {
	var w partner.Warehouse
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// FindAll finds all warehouses matching the filter
func (r *GormWarehouseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Warehouse, error) {
	var warehouses []partner.Warehouse
	query := r.db.WithContext(ctx).Model(&partner.Warehouse{})
	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	query = applyFilter(query, filter, "name ASC")

	if err := query.Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, w *partner.Warehouse) error {
	return r.db.WithContext(ctx).Save(w).Error
}

var (
	// Ensure the partner-package repositories are implemented
	_ partner.PartnerRepository   = (*GormPartnerRepository)(nil)
	_ partner.TreasuryRepository  = (*GormTreasuryRepository)(nil)
	_ partner.WarehouseRepository = (*GormWarehouseRepository)(nil)
)
