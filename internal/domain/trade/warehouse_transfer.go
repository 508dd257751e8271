package trade

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarehouseTransferItem represents one product moved by a transfer
type WarehouseTransferItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransferID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (WarehouseTransferItem) TableName() string {
	return "warehouse_transfer_items"
}

// WarehouseTransfer moves stock between two warehouses. Posting emits a
// paired outbound/inbound movement per item; total stock is unchanged.
type WarehouseTransfer struct {
	shared.BaseAggregateRoot
	TransferNumber  string                  `gorm:"type:varchar(50);uniqueIndex;not null"`
	FromWarehouseID uuid.UUID               `gorm:"type:uuid;not null;index"`
	ToWarehouseID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	Items           []WarehouseTransferItem `gorm:"foreignKey:TransferID;references:ID"`
	Status          DocumentStatus          `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	Notes           string                  `gorm:"type:varchar(255)"`
	PostedAt        *time.Time
	PostedByID      *uuid.UUID              `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (WarehouseTransfer) TableName() string {
	return "warehouse_transfers"
}

// NewWarehouseTransfer creates a new draft transfer between distinct warehouses
func NewWarehouseTransfer(transferNumber string, fromWarehouseID, toWarehouseID uuid.UUID) (*WarehouseTransfer, error) {
	if transferNumber == "" {
		return nil, shared.NewDomainError("INVALID_TRANSFER_NUMBER", "Transfer number cannot be empty")
	}
	if fromWarehouseID == uuid.Nil || toWarehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if fromWarehouseID == toWarehouseID {
		return nil, shared.NewDomainError("SAME_WAREHOUSE", "Source and destination warehouses must differ")
	}

	return &WarehouseTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TransferNumber:    transferNumber,
		FromWarehouseID:   fromWarehouseID,
		ToWarehouseID:     toWarehouseID,
		Items:             make([]WarehouseTransferItem, 0),
		Status:            DocumentStatusDraft,
	}, nil
}

// AddItem adds a product to the transfer. Only allowed in DRAFT status.
func (t *WarehouseTransfer) AddItem(productID uuid.UUID, productName string, quantity decimal.Decimal) (*WarehouseTransferItem, error) {
	if t.Status != DocumentStatusDraft {
		return nil, shared.ErrAlreadyPosted
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	now := time.Now()
	item := WarehouseTransferItem{
		ID:          uuid.New(),
		TransferID:  t.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.Items = append(t.Items, item)
	t.UpdatedAt = now

	return &item, nil
}

// RemoveItem removes a line item. Only allowed in DRAFT status.
func (t *WarehouseTransfer) RemoveItem(itemID uuid.UUID) error {
	if t.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	for i, item := range t.Items {
		if item.ID == itemID {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			t.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.ErrNotFound
}

// MarkPosted flips the transfer to POSTED. One-way; there is no un-posting.
func (t *WarehouseTransfer) MarkPosted(postedBy uuid.UUID, at time.Time) error {
	if !t.Status.CanTransitionTo(DocumentStatusPosted) {
		return shared.ErrAlreadyPosted
	}
	if len(t.Items) == 0 {
		return shared.NewDomainError("EMPTY_DOCUMENT", "Cannot post a transfer with no items")
	}

	t.Status = DocumentStatusPosted
	t.PostedAt = &at
	t.PostedByID = &postedBy
	t.UpdatedAt = at
	t.IncrementVersion()

	return nil
}

// IsPosted returns true if the transfer has been posted
func (t *WarehouseTransfer) IsPosted() bool {
	return t.Status == DocumentStatusPosted
}
