package catalog

import (
	"context"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
