package partner

import (
	"context"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PartnerRepository defines persistence operations for partners
type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	FindByType(ctx context.Context, partnerType PartnerType) ([]Partner, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Partner, error)
	Save(ctx context.Context, p *Partner) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// TreasuryRepository defines persistence operations for treasuries
type TreasuryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Treasury, error)
	// FindDefault returns the default treasury, or shared.ErrNotFound when
	// no treasury exists yet.
	FindDefault(ctx context.Context) (*Treasury, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Treasury, error)
	Save(ctx context.Context, t *Treasury) error
	Count(ctx context.Context) (int64, error)
}

// WarehouseRepository defines persistence operations for warehouses
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Warehouse, error)
	Save(ctx context.Context, w *Warehouse) error
}
