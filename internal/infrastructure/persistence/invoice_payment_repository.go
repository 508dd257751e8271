package persistence

import (
	"context"
	"errors"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoicePaymentRepository implements InvoicePaymentRepository using GORM
type GormInvoicePaymentRepository struct {
	db *gorm.DB
}

// NewGormInvoicePaymentRepository creates a new GormInvoicePaymentRepository
func NewGormInvoicePaymentRepository(db *gorm.DB) *GormInvoicePaymentRepository {
	return &GormInvoicePaymentRepository{db: db}
}

// Create inserts an invoice payment
func (r *GormInvoicePaymentRepository) Create(ctx context.Context, payment *finance.InvoicePayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindByID finds an invoice payment by its ID
func (r *GormInvoicePaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.InvoicePayment, error) {
	var payment finance.InvoicePayment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindByInvoice returns all payments received against one invoice
func (r *GormInvoicePaymentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*finance.InvoicePayment, error) {
	var payments []*finance.InvoicePayment
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("received_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// CountByInvoice counts payments received against one invoice
func (r *GormInvoicePaymentRepository) CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&finance.InvoicePayment{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormInvoicePaymentRepository implements InvoicePaymentRepository
var _ finance.InvoicePaymentRepository = (*GormInvoicePaymentRepository)(nil)
