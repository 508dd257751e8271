package trade

import (
	"time"

	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseReturnItem represents a line item in a purchase return
type PurchaseReturnItem struct {
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
func (PurchaseReturnItem) TableName() string {
	return "purchase_return_items"
}

// PurchaseReturn is the aggregate root for goods sent back to a supplier.
// Posting removes the goods from stock and, for cash returns, records the
// supplier's refund into the treasury. Credit returns reduce what is owed
// to the supplier instead.
type PurchaseReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber    string               `gorm:"type:varchar(50);uniqueIndex;not null"`
	SupplierID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID            `gorm:"type:uuid;not null"`
	TreasuryID      *uuid.UUID           `gorm:"type:uuid"`
	LinkedInvoiceID *uuid.UUID           `gorm:"type:uuid;index"` // Original purchase invoice, when known
	PaymentMethod   PaymentMethod        `gorm:"type:varchar(10);not null"`
	Items           []PurchaseReturnItem `gorm:"foreignKey:ReturnID;references:ID"`
	TotalAmount     decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Status          DocumentStatus       `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	Reason          string               `gorm:"type:varchar(255)"`
	PostedAt        *time.Time
	PostedByID      *uuid.UUID           `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PurchaseReturn) TableName() string {
	return "purchase_returns"
}

// NewPurchaseReturn creates a new draft purchase return
func NewPurchaseReturn(returnNumber string, supplierID, warehouseID uuid.UUID, paymentMethod PaymentMethod) (*PurchaseReturn, error) {
	if returnNumber == "" {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Invalid payment method")
	}

	return &PurchaseReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		SupplierID:        supplierID,
		WarehouseID:       warehouseID,
		PaymentMethod:     paymentMethod,
		Items:             make([]PurchaseReturnItem, 0),
		TotalAmount:       decimal.Zero,
		Status:            DocumentStatusDraft,
	}, nil
}

// LinkInvoice ties the return to its original purchase invoice
func (r *PurchaseReturn) LinkInvoice(invoiceID uuid.UUID) error {
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

// SetTreasury selects the treasury that receives the supplier's refund
func (r *PurchaseReturn) SetTreasury(treasuryID uuid.UUID) error {
	if r.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	r.TreasuryID = &treasuryID
	r.UpdatedAt = time.Now()
	return nil
}

// AddItem adds a line item. Only allowed in DRAFT status.
func (r *PurchaseReturn) AddItem(productID uuid.UUID, productName string, quantity decimal.Decimal, unitType catalog.UnitType, unitPrice decimal.Decimal) (*PurchaseReturnItem, error) {
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
	item := PurchaseReturnItem{
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

func (r *PurchaseReturn) recalculateTotals() {
	total := decimal.Zero
	for _, item := range r.Items {
		total = total.Add(item.LineTotal)
	}
	r.TotalAmount = total
}

// MarkPosted flips the return to POSTED. One-way; there is no un-posting.
func (r *PurchaseReturn) MarkPosted(postedBy uuid.UUID, at time.Time) error {
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
func (r *PurchaseReturn) IsPosted() bool {
	return r.Status == DocumentStatusPosted
}

// IsCash returns true for cash returns
func (r *PurchaseReturn) IsCash() bool {
	return r.PaymentMethod == PaymentMethodCash
}
