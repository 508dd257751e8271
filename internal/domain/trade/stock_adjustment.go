package trade

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockAdjustment is the aggregate root for a manual stock correction.
// A single signed quantity on one product: positive adds stock, negative
// removes it. Adjustments carry no money leg.
type StockAdjustment struct {
	shared.BaseAggregateRoot
	AdjustmentNumber string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason           string          `gorm:"type:varchar(255);not null"`
	Status           DocumentStatus  `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	PostedAt         *time.Time
	PostedByID       *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}

// NewStockAdjustment creates a new draft adjustment. Quantity is signed and
// must be non-zero.
func NewStockAdjustment(adjustmentNumber string, warehouseID, productID uuid.UUID, quantity decimal.Decimal, reason string) (*StockAdjustment, error) {
	if adjustmentNumber == "" {
		return nil, shared.NewDomainError("INVALID_ADJUSTMENT_NUMBER", "Adjustment number cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason cannot be empty")
	}

	return &StockAdjustment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AdjustmentNumber:  adjustmentNumber,
		WarehouseID:       warehouseID,
		ProductID:         productID,
		Quantity:          quantity,
		Reason:            reason,
		Status:            DocumentStatusDraft,
	}, nil
}

// UpdateQuantity changes the signed quantity. Only allowed in DRAFT status.
func (a *StockAdjustment) UpdateQuantity(quantity decimal.Decimal) error {
	if a.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	if quantity.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	a.Quantity = quantity
	a.UpdatedAt = time.Now()
	return nil
}

// IsIncrease returns true when the adjustment adds stock
func (a *StockAdjustment) IsIncrease() bool {
	return a.Quantity.IsPositive()
}

// MarkPosted flips the adjustment to POSTED. One-way; there is no un-posting.
func (a *StockAdjustment) MarkPosted(postedBy uuid.UUID, at time.Time) error {
	if !a.Status.CanTransitionTo(DocumentStatusPosted) {
		return shared.ErrAlreadyPosted
	}

	a.Status = DocumentStatusPosted
	a.PostedAt = &at
	a.PostedByID = &postedBy
	a.UpdatedAt = at
	a.IncrementVersion()

	return nil
}

// IsPosted returns true if the adjustment has been posted
func (a *StockAdjustment) IsPosted() bool {
	return a.Status == DocumentStatusPosted
}
