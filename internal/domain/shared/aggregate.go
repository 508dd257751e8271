package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version   int        `gorm:"not null;default:1"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"` // User who created this record (audit trail)
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// SetCreatedBy sets the creator user ID
func (a *BaseAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	a.CreatedBy = &userID
}

// GetCreatedBy returns the creator user ID
func (a *BaseAggregateRoot) GetCreatedBy() *uuid.UUID {
	return a.CreatedBy
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// NewBaseAggregateRootWithCreator creates a new aggregate root with creator info
func NewBaseAggregateRootWithCreator(createdBy uuid.UUID) BaseAggregateRoot {
	root := NewBaseAggregateRoot()
	root.CreatedBy = &createdBy
	return root
}
