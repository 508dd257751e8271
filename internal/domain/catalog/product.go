package catalog

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitType identifies which of a product's two units a quantity is expressed in
type UnitType string

const (
	UnitTypeSmall UnitType = "SMALL" // The base unit; all stock is stored in this unit
	UnitTypeLarge UnitType = "LARGE" // Optional pack unit, converted via the product factor
)

// IsValid returns true if the unit type is valid
func (u UnitType) IsValid() bool {
	return u == UnitTypeSmall || u == UnitTypeLarge
}

// String returns the string representation of UnitType
func (u UnitType) String() string {
	return string(u)
}

// Product is the aggregate root for catalog items.
//
// Products use a dual-unit model: the small unit is the base unit in which
// all stock movements are recorded, and the optional large unit converts to
// the small unit via an integer factor (e.g. 1 box = 12 pieces).
//
// AvgCost is a cached weighted moving average recomputed from the full
// history of posted purchase movements. It is intentionally not decremented
// by returns or adjustments; the purchase history is the source of truth and
// the stock engine is the only writer.
type Product struct {
	shared.BaseAggregateRoot
	Name                string          `gorm:"type:varchar(255);not null"`
	Code                string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	SmallUnit           string          `gorm:"type:varchar(30);not null"` // Base unit name (e.g. "piece")
	LargeUnit           *string         `gorm:"type:varchar(30)"`          // Optional pack unit name (e.g. "box")
	Factor              int64           `gorm:"not null;default:1"`        // Large -> small multiplier
	AvgCost             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RetailPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Per small unit
	WholesalePrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Per small unit
	LargeRetailPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Per large unit
	LargeWholesalePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Per large unit
	Active              bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with a small (base) unit
func NewProduct(name, code, smallUnit string) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if smallUnit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Product base unit cannot be empty")
	}

	return &Product{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		Name:                name,
		Code:                code,
		SmallUnit:           smallUnit,
		Factor:              1,
		AvgCost:             decimal.Zero,
		RetailPrice:         decimal.Zero,
		WholesalePrice:      decimal.Zero,
		LargeRetailPrice:    decimal.Zero,
		LargeWholesalePrice: decimal.Zero,
		Active:              true,
	}, nil
}

// SetLargeUnit configures the optional large unit and its conversion factor
func (p *Product) SetLargeUnit(name string, factor int64) error {
	if name == "" {
		return shared.NewDomainError("INVALID_UNIT", "Large unit name cannot be empty")
	}
	if factor <= 1 {
		return shared.NewDomainError("INVALID_FACTOR", "Unit factor must be greater than 1")
	}

	p.LargeUnit = &name
	p.Factor = factor
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// HasLargeUnit returns true if the product has a large unit configured
func (p *Product) HasLargeUnit() bool {
	return p.LargeUnit != nil
}

// ConvertToBaseUnit converts a quantity in the given unit type to base units.
// Quantities in the large unit are multiplied by the product factor; if the
// product has no large unit configured, the quantity is returned unchanged.
func (p *Product) ConvertToBaseUnit(quantity decimal.Decimal, unitType UnitType) decimal.Decimal {
	if unitType == UnitTypeLarge && p.HasLargeUnit() {
		return quantity.Mul(decimal.NewFromInt(p.Factor))
	}
	return quantity
}

// UpdateAverageCost sets the cached weighted average cost.
// Only the stock engine calls this, after recomputing from purchase history.
func (p *Product) UpdateAverageCost(avgCost decimal.Decimal) error {
	if avgCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Average cost cannot be negative")
	}

	p.AvgCost = avgCost.Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// UpdateSellingPrices overwrites the per-small-unit selling prices
func (p *Product) UpdateSellingPrices(retail, wholesale decimal.Decimal) error {
	if retail.IsNegative() || wholesale.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	p.RetailPrice = retail
	p.WholesalePrice = wholesale
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// UpdateLargeSellingPrices overwrites the per-large-unit selling prices
func (p *Product) UpdateLargeSellingPrices(retail, wholesale decimal.Decimal) error {
	if !p.HasLargeUnit() {
		return shared.NewDomainError("NO_LARGE_UNIT", "Product has no large unit configured")
	}
	if retail.IsNegative() || wholesale.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	p.LargeRetailPrice = retail
	p.LargeWholesalePrice = wholesale
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Deactivate marks the product as inactive
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
