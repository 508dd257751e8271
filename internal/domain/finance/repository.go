package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InstallmentRepository defines the persistence contract for installments
type InstallmentRepository interface {
	Create(ctx context.Context, installment *Installment) error
	CreateBatch(ctx context.Context, installments []*Installment) error
	Save(ctx context.Context, installment *Installment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Installment, error)
	// FindByInvoice returns the schedule ordered by due date ascending.
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Installment, error)
	CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
	// FindDuePending returns pending installments due strictly before the
	// cutoff, for the overdue batch job.
	FindDuePending(ctx context.Context, before time.Time) ([]*Installment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EquityPeriodRepository defines the persistence contract for equity periods
type EquityPeriodRepository interface {
	Save(ctx context.Context, period *EquityPeriod) error
	FindByID(ctx context.Context, id uuid.UUID) (*EquityPeriod, error)
	// FindOpen returns the single open period, shared.ErrNotFound when none.
	FindOpen(ctx context.Context) (*EquityPeriod, error)
	FindByNumber(ctx context.Context, periodNumber int) (*EquityPeriod, error)
	MaxPeriodNumber(ctx context.Context) (int, error)
	CountOpen(ctx context.Context) (int64, error)
}

// InvoicePaymentRepository defines the persistence contract for payments
type InvoicePaymentRepository interface {
	Create(ctx context.Context, payment *InvoicePayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*InvoicePayment, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*InvoicePayment, error)
	CountByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
}
