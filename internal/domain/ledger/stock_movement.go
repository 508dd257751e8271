package ledger

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementTypePurchase       MovementType = "PURCHASE"
	MovementTypeSale           MovementType = "SALE"
	MovementTypePurchaseReturn MovementType = "PURCHASE_RETURN"
	MovementTypeSaleReturn     MovementType = "SALE_RETURN"
	MovementTypeAdjustmentIn   MovementType = "ADJUSTMENT_IN"
	MovementTypeAdjustmentOut  MovementType = "ADJUSTMENT_OUT"
	MovementTypeTransfer       MovementType = "TRANSFER"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase,
		MovementTypeSale,
		MovementTypePurchaseReturn,
		MovementTypeSaleReturn,
		MovementTypeAdjustmentIn,
		MovementTypeAdjustmentOut,
		MovementTypeTransfer:
		return true
	}
	return false
}

// ExpectedSign returns +1, -1 or 0 for the sign the quantity must carry.
// Transfer movements come in signed pairs, so their sign is unconstrained.
func (t MovementType) ExpectedSign() int {
	switch t {
	case MovementTypePurchase, MovementTypeSaleReturn, MovementTypeAdjustmentIn:
		return 1
	case MovementTypeSale, MovementTypePurchaseReturn, MovementTypeAdjustmentOut:
		return -1
	}
	return 0
}

// StockMovement is an immutable, append-only record of a stock change for one
// (warehouse, product) pair. Quantity is signed and always in base units.
// Current stock is the sum of quantities for the pair; corrections are made
// with new movements, never by mutating or deleting existing ones.
type StockMovement struct {
	shared.BaseEntity
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_wh_prod,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_wh_prod,priority:2"`
	Type        MovementType    `gorm:"type:varchar(20);not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Signed, base units
	CostAtTime  decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Unit cost when the movement was created
	Reference   DocumentRef     `gorm:"embedded"`
	CreatedByID *uuid.UUID      `gorm:"type:uuid"`
	MovementAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new stock movement.
// The quantity sign must match the movement type: inbound types positive,
// outbound types negative. Transfers are created in signed pairs.
func NewStockMovement(
	warehouseID uuid.UUID,
	productID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	costAtTime decimal.Decimal,
	reference DocumentRef,
) (*StockMovement, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid stock movement type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if costAtTime.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	if !reference.Kind.IsValid() || reference.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Movement must reference a source document")
	}

	switch sign := movementType.ExpectedSign(); {
	case sign > 0 && !quantity.IsPositive():
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive for inbound movements")
	case sign < 0 && !quantity.IsNegative():
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be negative for outbound movements")
	}

	return &StockMovement{
		BaseEntity:  shared.NewBaseEntity(),
		WarehouseID: warehouseID,
		ProductID:   productID,
		Type:        movementType,
		Quantity:    quantity,
		CostAtTime:  costAtTime,
		Reference:   reference,
		MovementAt:  time.Now(),
	}, nil
}

// WithCreatedBy sets the user who caused the movement
func (m *StockMovement) WithCreatedBy(userID uuid.UUID) *StockMovement {
	m.CreatedByID = &userID
	return m
}

// WithMovementAt sets the movement timestamp
func (m *StockMovement) WithMovementAt(at time.Time) *StockMovement {
	m.MovementAt = at
	return m
}

// IsInbound returns true if the movement increases stock
func (m *StockMovement) IsInbound() bool {
	return m.Quantity.IsPositive()
}

// TotalCost returns the absolute value of the movement (|quantity| * cost)
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Abs().Mul(m.CostAtTime)
}
