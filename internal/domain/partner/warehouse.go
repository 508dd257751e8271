package partner

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
)

// Warehouse is an aggregate root representing a physical stock location.
// Stock per warehouse is never stored on the warehouse itself; it is the
// live sum of stock movement quantities for each (warehouse, product) pair.
type Warehouse struct {
	shared.BaseAggregateRoot
	Name     string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Location string `gorm:"type:varchar(255)"`
	Active   bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse
func NewWarehouse(name, location string) (*Warehouse, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Location:          location,
		Active:            true,
	}, nil
}

// Deactivate marks the warehouse as inactive
func (w *Warehouse) Deactivate() {
	w.Active = false
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}
