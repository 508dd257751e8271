package finance

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoicePayment records one payment received against a posted sales
// invoice. It is the anchor installments point back to via
// invoice_payment_id.
type InvoicePayment struct {
	shared.BaseEntity
	InvoiceID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	TreasuryID   uuid.UUID       `gorm:"type:uuid;not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedByID uuid.UUID       `gorm:"type:uuid;not null"`
	ReceivedAt   time.Time       `gorm:"not null"`
	Notes        string          `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (InvoicePayment) TableName() string {
	return "invoice_payments"
}

// NewInvoicePayment creates a payment record
func NewInvoicePayment(invoiceID, treasuryID uuid.UUID, amount decimal.Decimal, receivedBy uuid.UUID, receivedAt time.Time) (*InvoicePayment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if treasuryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TREASURY", "Treasury ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	return &InvoicePayment{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  invoiceID,
		TreasuryID: treasuryID,
		Amount:     amount.Round(4),
		ReceivedByID: receivedBy,
		ReceivedAt:   receivedAt,
	}, nil
}
