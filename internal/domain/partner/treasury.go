package partner

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
)

// TreasuryType represents the kind of treasury account
type TreasuryType string

const (
	TreasuryTypeCash TreasuryType = "CASH"
	TreasuryTypeBank TreasuryType = "BANK"
)

// IsValid returns true if the treasury type is valid
func (t TreasuryType) IsValid() bool {
	return t == TreasuryTypeCash || t == TreasuryTypeBank
}

// String returns the string representation of TreasuryType
func (t TreasuryType) String() string {
	return string(t)
}

// Treasury is an aggregate root representing a cash drawer or bank account.
// Its balance is never stored: it is always the live sum of treasury
// transaction amounts for the account.
type Treasury struct {
	shared.BaseAggregateRoot
	Name      string       `gorm:"type:varchar(100);uniqueIndex;not null"`
	Type      TreasuryType `gorm:"type:varchar(10);not null"`
	IsDefault bool         `gorm:"not null;default:false"` // Target for posts that name no treasury
	Active    bool         `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Treasury) TableName() string {
	return "treasuries"
}

// NewTreasury creates a new treasury account
func NewTreasury(name string, treasuryType TreasuryType) (*Treasury, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Treasury name cannot be empty")
	}
	if !treasuryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TREASURY_TYPE", "Invalid treasury type")
	}

	return &Treasury{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              treasuryType,
		Active:            true,
	}, nil
}

// MarkDefault marks this treasury as the default posting target
func (t *Treasury) MarkDefault() {
	t.IsDefault = true
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}
