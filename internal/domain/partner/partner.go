package partner

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PartnerType represents the kind of business partner
type PartnerType string

const (
	PartnerTypeCustomer    PartnerType = "CUSTOMER"
	PartnerTypeSupplier    PartnerType = "SUPPLIER"
	PartnerTypeShareholder PartnerType = "SHAREHOLDER"
)

// IsValid returns true if the partner type is valid
func (t PartnerType) IsValid() bool {
	switch t {
	case PartnerTypeCustomer, PartnerTypeSupplier, PartnerTypeShareholder:
		return true
	}
	return false
}

// String returns the string representation of PartnerType
func (t PartnerType) String() string {
	return string(t)
}

// Partner is the aggregate root for customers, suppliers and shareholders.
//
// CurrentBalance is a cached, recomputable field. The source of truth is
// always the invoice and treasury transaction history; the treasury engine's
// RecalculatePartnerBalance is the only writer. The cache must never be
// hand-edited.
type Partner struct {
	shared.BaseAggregateRoot
	Name             string          `gorm:"type:varchar(255);not null"`
	Type             PartnerType     `gorm:"type:varchar(20);not null;index"`
	Phone            string          `gorm:"type:varchar(30)"`
	Address          string          `gorm:"type:varchar(255)"`
	CurrentBalance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Cached; derived from history
	Capital          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Shareholders only
	EquityPercentage decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Shareholders only, 0-100
	Active           bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Partner) TableName() string {
	return "partners"
}

// NewPartner creates a new partner
func NewPartner(name string, partnerType PartnerType) (*Partner, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Partner name cannot be empty")
	}
	if !partnerType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTNER_TYPE", "Invalid partner type")
	}

	return &Partner{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              partnerType,
		CurrentBalance:    decimal.Zero,
		Capital:           decimal.Zero,
		EquityPercentage:  decimal.Zero,
		Active:            true,
	}, nil
}

// IsShareholder returns true if the partner is a shareholder
func (p *Partner) IsShareholder() bool {
	return p.Type == PartnerTypeShareholder
}

// SetCachedBalance updates the cached balance after a recalculation.
// Only the treasury engine calls this.
func (p *Partner) SetCachedBalance(balance decimal.Decimal) {
	p.CurrentBalance = balance
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IncreaseCapital increases a shareholder's capital
func (p *Partner) IncreaseCapital(amount decimal.Decimal) error {
	if !p.IsShareholder() {
		return shared.NewDomainError("NOT_SHAREHOLDER", "Only shareholders hold capital")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Capital amount must be positive")
	}

	p.Capital = p.Capital.Add(amount)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// DecreaseCapital decreases a shareholder's capital (drawings)
func (p *Partner) DecreaseCapital(amount decimal.Decimal) error {
	if !p.IsShareholder() {
		return shared.NewDomainError("NOT_SHAREHOLDER", "Only shareholders hold capital")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Drawing amount must be positive")
	}

	p.Capital = p.Capital.Sub(amount)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetEquityPercentage sets the shareholder's equity percentage (0-100)
func (p *Partner) SetEquityPercentage(percentage decimal.Decimal) error {
	if !p.IsShareholder() {
		return shared.NewDomainError("NOT_SHAREHOLDER", "Only shareholders hold equity")
	}
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_PERCENTAGE", "Equity percentage must be between 0 and 100")
	}

	p.EquityPercentage = percentage.Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}
