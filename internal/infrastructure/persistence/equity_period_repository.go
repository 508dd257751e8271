package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEquityPeriodRepository implements EquityPeriodRepository using GORM
type GormEquityPeriodRepository struct {
	db *gorm.DB
}

// NewGormEquityPeriodRepository creates a new GormEquityPeriodRepository
func NewGormEquityPeriodRepository(db *gorm.DB) *GormEquityPeriodRepository {
	return &GormEquityPeriodRepository{db: db}
}

// Save creates or updates an equity period together with its partner snapshots
func (r *GormEquityPeriodRepository) Save(ctx context.Context, period *finance.EquityPeriod) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Partners").Save(period).Error; err != nil {
			return err
		}
		return saveLineItems(tx, "period_id", period.ID, period.Partners, func(row *finance.EquityPeriodPartner) uuid.UUID {
			row.PeriodID = period.ID
			return row.ID
		})
	})
}

// FindByID finds an equity period by its ID
func (r *GormEquityPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.EquityPeriod, error) {
	var period finance.EquityPeriod
	if err := r.db.WithContext(ctx).
		Preload("Partners").
		First(&period, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &period, nil
}

// FindOpen returns the single open period
func (r *GormEquityPeriodRepository) FindOpen(ctx context.Context) (*finance.EquityPeriod, error) {
	var period finance.EquityPeriod
	if err := r.db.WithContext(ctx).
		Preload("Partners").
		Where("status = ?", finance.PeriodStatusOpen).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &period, nil
}

// FindByNumber finds an equity period by its sequence number
func (r *GormEquityPeriodRepository) FindByNumber(ctx context.Context, periodNumber int) (*finance.EquityPeriod, error) {
	var period finance.EquityPeriod
	if err := r.db.WithContext(ctx).
		Preload("Partners").
		Where("period_number = ?", periodNumber).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &period, nil
}

// MaxPeriodNumber returns the highest period number, zero when none exist
func (r *GormEquityPeriodRepository) MaxPeriodNumber(ctx context.Context) (int, error) {
	var result struct {
		Max int
	}
	if err := r.db.WithContext(ctx).
		Model(&finance.EquityPeriod{}).
		Select("COALESCE(MAX(period_number), 0) AS max").
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Max, nil
}

// CountOpen counts open periods
func (r *GormEquityPeriodRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.EquityPeriod{}).
		Where("status = ?", finance.PeriodStatusOpen).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormEquityPeriodRepository implements EquityPeriodRepository
var _ finance.EquityPeriodRepository = (*GormEquityPeriodRepository)(nil)
