package trade

import (
	"time"

	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesReturnItem represents a line item in a sales return
type SalesReturnItem struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ReturnID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID        `gorm:"type:uuid;not null"`
	ProductName string           `gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitType    catalog.UnitType `gorm:"type:varchar(10);not null"`
	UnitPrice   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (SalesReturnItem) TableName() string {
	return "sales_return_items"
}

// SalesReturn is the aggregate root for goods a customer gives back.
//
// The settlement method decides the money leg: a cash return refunds the
// treasury, a credit return reduces the customer's outstanding balance.
// Cash returns deliberately do not reduce the balance - a cash refund is not
// debt forgiveness on account.
type SalesReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber    string            `gorm:"type:varchar(50);uniqueIndex;not null"`
	CustomerID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID         `gorm:"type:uuid;not null"`
	TreasuryID      *uuid.UUID        `gorm:"type:uuid"`
	LinkedInvoiceID *uuid.UUID        `gorm:"type:uuid;index"` // Original sales invoice, when known
	PaymentMethod   PaymentMethod     `gorm:"type:varchar(10);not null"`
	Items           []SalesReturnItem `gorm:"foreignKey:ReturnID;references:ID"`
	TotalAmount     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Status          DocumentStatus    `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	Reason          string            `gorm:"type:varchar(255)"`
	PostedAt        *time.Time
	PostedByID      *uuid.UUID        `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SalesReturn) TableName() string {
	return "sales_returns"
}

// NewSalesReturn creates a new draft sales return
func NewSalesReturn(returnNumber string, customerID, warehouseID uuid.UUID, paymentMethod PaymentMethod) (*SalesReturn, error) {
	if returnNumber == "" {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Invalid payment method")
	}

	return &SalesReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		CustomerID:        customerID,
		WarehouseID:       warehouseID,
		PaymentMethod:     paymentMethod,
		Items:             make([]SalesReturnItem, 0),
		TotalAmount:       decimal.Zero,
		Status:            DocumentStatusDraft,
	}, nil
}

// LinkInvoice ties the return to its original sales invoice
func (r *SalesReturn) LinkInvoice(invoiceID uuid.UUID) error {
	if r.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	r.LinkedInvoiceID = &invoiceID
	r.UpdatedAt = time.Now()
	return nil
}

// SetTreasury selects the treasury for the refund leg of a cash return
func (r *SalesReturn) SetTreasury(treasuryID uuid.UUID) error {
	if r.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	r.TreasuryID = &treasuryID
	r.UpdatedAt = time.Now()
	return nil
}

// AddItem adds a line item. Only allowed in DRAFT status.
func (r *SalesReturn) AddItem(productID uuid.UUID, productName string, quantity decimal.Decimal, unitType catalog.UnitType, unitPrice decimal.Decimal) (*SalesReturnItem, error) {
	if r.Status != DocumentStatusDraft {
		return nil, shared.ErrAlreadyPosted
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !unitType.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT_TYPE", "Invalid unit type")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	item := SalesReturnItem{
		ID:          uuid.New(),
		ReturnID:    r.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitType:    unitType,
		UnitPrice:   unitPrice,
		LineTotal:   quantity.Mul(unitPrice).Round(4),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.Items = append(r.Items, item)
	r.recalculateTotals()
	r.UpdatedAt = now

	return &item, nil
}

func (r *SalesReturn) recalculateTotals() {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.LineTotal)
	}
	r.TotalAmount = total
}

// MarkPosted flips the return to POSTED. One-way; there is no un-posting.
func (r *SalesReturn) MarkPosted(postedBy uuid.UUID, at time.Time) error {
	if !r.Status.CanTransitionTo(DocumentStatusPosted) {
		return shared.ErrAlreadyPosted
	}
	if len(r.Items) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Cannot post a return with no items")
	}

	r.Status = DocumentStatusPosted
	r.PostedAt = &at
	r.PostedByID = &postedBy
	r.UpdatedAt = at
	r.IncrementVersion()

	return nil
}

// IsPosted returns true if the return has been posted
func (r *SalesReturn) IsPosted() bool {
	return r.Status == DocumentStatusPosted
}

// IsCash returns true for cash returns
func (r *SalesReturn) IsCash() bool {
	return r.PaymentMethod == PaymentMethodCash
}
