package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInstallmentRepository implements InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// Create inserts a single installment
func (r *GormInstallmentRepository) Create(ctx context.Context, installment *finance.Installment) error {
	return r.db.WithContext(ctx).Create(installment).Error
}

// CreateBatch inserts a full schedule
func (r *GormInstallmentRepository) CreateBatch(ctx context.Context, installments []*finance.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(installments).Error
}

// Save updates an installment
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *finance.Installment) error {
	return r.db.WithContext(ctx).Save(installment).Error
}

// FindByID finds an installment by its ID
func (r *GormInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Installment, error) {
	var installment finance.Installment
	if err := r.db.WithContext(ctx).First(&installment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &installment, nil
}

// FindByInvoice returns the schedule ordered by due date ascending
func (r *GormInstallmentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.Installment, error) {
	var installments []*finance.Installment
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("due_date ASC, installment_number ASC").
		Find(&installments).Error; err != nil {
		return nil, err
	}
	return installments, nil
}

// CountByInvoice counts installments attached to an invoice
func (r *GormInstallmentRepository) CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.Installment{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindDuePending returns pending installments due strictly before the cutoff
func (r *GormInstallmentRepository) FindDuePending(ctx context.Context, before time.Time) ([]*finance.Installment, error) {
	var installments []*finance.Installment
	if err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", finance.InstallmentStatusPending, before).
		Order("due_date ASC").
		Find(&installments).Error; err != nil {
		return nil, err
	}
	return installments, nil
}

// Delete deletes an installment
func (r *GormInstallmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&finance.Installment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormInstallmentRepository implements InstallmentRepository
var _ finance.InstallmentRepository = (*GormInstallmentRepository)(nil)
