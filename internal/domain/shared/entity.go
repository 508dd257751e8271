package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the common read surface of persisted domain objects: identity
// plus the bookkeeping timestamps every table carries.
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity holds the identity and timestamp columns shared by every
// model. GORM keeps CreatedAt and UpdatedAt current on insert and update.
type BaseEntity struct {
	ID        uuid.UUID `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity mints a fresh identity with both timestamps set to now.
// Timestamps are kept in UTC so postings sort consistently across zones.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

func (e *BaseEntity) GetCreatedAt() time.Time { return e.CreatedAt }

func (e *BaseEntity) GetUpdatedAt() time.Time { return e.UpdatedAt }
