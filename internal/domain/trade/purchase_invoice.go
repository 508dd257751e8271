package trade

import (
	"time"

	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseInvoiceItem represents a line item in a purchase invoice.
// A line may carry explicit new selling prices; when present they overwrite
// the product's price fields at post time.
type PurchaseInvoiceItem struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	InvoiceID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID            uuid.UUID        `gorm:"type:uuid;not null"`
	ProductName          string           `gorm:"type:varchar(255);not null"`
	Quantity             decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // In the selected unit
	UnitType             catalog.UnitType `gorm:"type:varchar(10);not null"`
	UnitCost             decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // Per selected unit
	Discount             decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal            decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	NewSellingPrice      *decimal.Decimal `gorm:"type:decimal(18,4)"` // Overwrites retail price when set
	NewLargeSellingPrice *decimal.Decimal `gorm:"type:decimal(18,4)"` // Overwrites large retail price when set
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName returns the table name for GORM
func (PurchaseInvoiceItem) TableName() string {
	return "purchase_invoice_items"
}

// NewPurchaseInvoiceItem creates a new purchase invoice line item
func NewPurchaseInvoiceItem(invoiceID, productID uuid.UUID, productName string, quantity decimal.Decimal, unitType catalog.UnitType, unitCost, discount decimal.Decimal) (*PurchaseInvoiceItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !unitType.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT_TYPE", "Invalid unit type")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}

	lineTotal := quantity.Mul(unitCost).Sub(discount).Round(4)
	if lineTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the line amount")
	}

	now := time.Now()
	return &PurchaseInvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitType:    unitType,
		UnitCost:    unitCost,
		Discount:    discount,
		LineTotal:   lineTotal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetNewSellingPrices attaches explicit selling prices to be written to the
// product when the invoice posts
func (i *PurchaseInvoiceItem) SetNewSellingPrices(small, large *decimal.Decimal) error {
	if small != nil && small.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	if large != nil && large.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	i.NewSellingPrice = small
	i.NewLargeSellingPrice = large
	i.UpdatedAt = time.Now()
	return nil
}

// PurchaseInvoice is the aggregate root for supplier invoices
type PurchaseInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string                `gorm:"type:varchar(50);uniqueIndex;not null"`
	SupplierID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID             `gorm:"type:uuid;not null"`
	TreasuryID      *uuid.UUID            `gorm:"type:uuid"`
	PaymentMethod   PaymentMethod         `gorm:"type:varchar(10);not null"`
	Items           []PurchaseInvoiceItem `gorm:"foreignKey:InvoiceID;references:ID"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentStatus   PaymentStatus         `gorm:"type:varchar(10);not null;default:'UNPAID'"`
	Status          DocumentStatus        `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	Notes           string                `gorm:"type:varchar(255)"`
	PostedAt        *time.Time
	PostedByID      *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (PurchaseInvoice) TableName() string {
	return "purchase_invoices"
}

// NewPurchaseInvoice creates a new draft purchase invoice
func NewPurchaseInvoice(invoiceNumber string, supplierID, warehouseID uuid.UUID, paymentMethod PaymentMethod) (*PurchaseInvoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
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

	return &PurchaseInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		SupplierID:        supplierID,
		WarehouseID:       warehouseID,
		PaymentMethod:     paymentMethod,
		Items:             make([]PurchaseInvoiceItem, 0),
		TotalAmount:       decimal.Zero,
		PaidAmount:        decimal.Zero,
		RemainingAmount:   decimal.Zero,
		PaymentStatus:     PaymentStatusUnpaid,
		Status:            DocumentStatusDraft,
	}, nil
}

// SetTreasury selects the treasury for the cash leg of the invoice
func (inv *PurchaseInvoice) SetTreasury(treasuryID uuid.UUID) error {
	if inv.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	inv.TreasuryID = &treasuryID
	inv.UpdatedAt = time.Now()
	return nil
}

// AddItem adds a line item. Only allowed in DRAFT status.
func (inv *PurchaseInvoice) AddItem(productID uuid.UUID, productName string, quantity decimal.Decimal, unitType catalog.UnitType, unitCost, discount decimal.Decimal) (*PurchaseInvoiceItem, error) {
	if inv.Status != DocumentStatusDraft {
		return nil, shared.ErrAlreadyPosted
	}

	item, err := NewPurchaseInvoiceItem(inv.ID, productID, productName, quantity, unitType, unitCost, discount)
	if err != nil {
		return nil, err
	}

	inv.Items = append(inv.Items, *item)
	inv.recalculateTotals()
	inv.UpdatedAt = time.Now()

	return item, nil
}

// RemoveItem removes a line item. Only allowed in DRAFT status.
func (inv *PurchaseInvoice) RemoveItem(itemID uuid.UUID) error {
	if inv.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}

	for i, item := range inv.Items {
		if item.ID == itemID {
			inv.Items = append(inv.Items[:i], inv.Items[i+1:]...)
			inv.recalculateTotals()
			inv.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

func (inv *PurchaseInvoice) recalculateTotals() {
	total := decimal.Zero
	for _, item := range inv.Items {
		total = total.Add(item.LineTotal)
	}
	inv.TotalAmount = total
	if inv.Status == DocumentStatusDraft {
		inv.RemainingAmount = total
	}
}

// MarkPosted flips the invoice to POSTED. One-way; there is no un-posting.
func (inv *PurchaseInvoice) MarkPosted(postedBy uuid.UUID, at time.Time) error {
	if !inv.Status.CanTransitionTo(DocumentStatusPosted) {
		return shared.ErrAlreadyPosted
	}
	if len(inv.Items) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Cannot post an invoice with no items")
	}

	inv.Status = DocumentStatusPosted
	inv.PostedAt = &at
	inv.PostedByID = &postedBy

	if inv.PaymentMethod == PaymentMethodCash {
		inv.PaidAmount = inv.TotalAmount
		inv.RemainingAmount = decimal.Zero
		inv.PaymentStatus = PaymentStatusPaid
	} else {
		inv.PaidAmount = decimal.Zero
		inv.RemainingAmount = inv.TotalAmount
		inv.PaymentStatus = PaymentStatusUnpaid
	}

	inv.UpdatedAt = at
	inv.IncrementVersion()

	return nil
}

// ApplyPayment records settlement progress on a posted invoice
func (inv *PurchaseInvoice) ApplyPayment(amount decimal.Decimal) error {
	if inv.Status != DocumentStatusPosted {
		return shared.NewDomainError("NOT_POSTED", "Payments can only be applied to posted invoices")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(inv.RemainingAmount) {
		return shared.NewDomainError("OVERPAYMENT", "Payment exceeds the remaining amount")
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.RemainingAmount = inv.RemainingAmount.Sub(amount)
	if inv.RemainingAmount.IsZero() {
		inv.PaymentStatus = PaymentStatusPaid
	} else {
		inv.PaymentStatus = PaymentStatusPartial
	}
	inv.UpdatedAt = time.Now()

	return nil
}

// IsPosted returns true if the invoice has been posted
func (inv *PurchaseInvoice) IsPosted() bool {
	return inv.Status == DocumentStatusPosted
}

// IsCash returns true for cash invoices
func (inv *PurchaseInvoice) IsCash() bool {
	return inv.PaymentMethod == PaymentMethodCash
}
