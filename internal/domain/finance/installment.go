package finance

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the lifecycle of an installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
)

// IsValid checks if the status is valid
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentStatusPending, InstallmentStatusPaid, InstallmentStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation
func (s InstallmentStatus) String() string {
	return string(s)
}

// Installment is one slice of an amortized payment schedule on a sales
// invoice. Amount, due date and sequence number are fixed at creation;
// only payment-progress fields ever change.
type Installment struct {
	shared.BaseEntity
	InvoiceID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	InstallmentNumber int               `gorm:"not null"`
	Amount            decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	DueDate           time.Time         `gorm:"not null;index"`
	Status            InstallmentStatus `gorm:"type:varchar(10);not null;default:'PENDING';index"`
	PaidAmount        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAt            *time.Time
	PaidByID          *uuid.UUID        `gorm:"type:uuid"`
	InvoicePaymentID  *uuid.UUID        `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (Installment) TableName() string {
	return "installments"
}

// NewInstallment creates a pending installment
func NewInstallment(invoiceID uuid.UUID, number int, amount decimal.Decimal, dueDate time.Time) (*Installment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if number < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_NUMBER", "Installment number must be at least 1")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment amount must be positive")
	}

	return &Installment{
		BaseEntity:        shared.NewBaseEntity(),
		InvoiceID:         invoiceID,
		InstallmentNumber: number,
		Amount:            amount,
		DueDate:           dueDate,
		Status:            InstallmentStatusPending,
		PaidAmount:        decimal.Zero,
	}, nil
}

// Remaining returns how much of the installment is still unpaid
func (i *Installment) Remaining() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// IsSettled returns true when the installment is fully paid
func (i *Installment) IsSettled() bool {
	return i.PaidAmount.GreaterThanOrEqual(i.Amount)
}

// EffectiveStatus resolves the status at read time: a pending installment
// whose due date has passed reads as OVERDUE without requiring a write.
// MarkOverdue persists the same transition for reporting.
func (i *Installment) EffectiveStatus(now time.Time) InstallmentStatus {
	if i.Status == InstallmentStatusPending && i.DueDate.Before(truncateToDay(now)) {
		return InstallmentStatusOverdue
	}
	return i.Status
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ApplyPayment applies up to the installment's remaining balance and returns
// the portion actually consumed. Stamps the payment audit fields when the
// installment becomes fully paid.
func (i *Installment) ApplyPayment(amount decimal.Decimal, paidBy uuid.UUID, paymentID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if i.IsSettled() {
		return decimal.Zero, nil
	}

	applied := decimal.Min(i.Remaining(), amount)
	i.PaidAmount = i.PaidAmount.Add(applied)
	i.UpdatedAt = at

	if i.PaidAmount.Equal(i.Amount) {
		i.Status = InstallmentStatusPaid
		i.PaidAt = &at
		i.PaidByID = &paidBy
		i.InvoicePaymentID = &paymentID
	}

	return applied, nil
}

// MarkOverdue persists the overdue transition. No-op unless pending and past
// due.
func (i *Installment) MarkOverdue(now time.Time) bool {
	if i.EffectiveStatus(now) == InstallmentStatusOverdue && i.Status == InstallmentStatusPending {
		i.Status = InstallmentStatusOverdue
		i.UpdatedAt = now
		return true
	}
	return false
}

// CanDelete reports whether the installment may be removed. Blocked once any
// payment has been applied.
func (i *Installment) CanDelete() error {
	if i.PaidAmount.GreaterThan(decimal.Zero) {
		return shared.NewDomainError("HAS_PAYMENTS", "Cannot delete an installment with applied payments")
	}
	return nil
}
