package trade

import (
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundingSource says where the money for a fixed asset comes from
type FundingSource string

const (
	// FundingSourceTreasury pays from a treasury; posting records an expense
	FundingSourceTreasury FundingSource = "TREASURY"
	// FundingSourceEquity is a shareholder contribution in kind; no cash moves
	FundingSourceEquity FundingSource = "EQUITY"
	// FundingSourcePayable defers payment to a supplier account
	FundingSourcePayable FundingSource = "PAYABLE"
)

// IsValid checks if the funding source is valid
func (f FundingSource) IsValid() bool {
	switch f {
	case FundingSourceTreasury, FundingSourceEquity, FundingSourcePayable:
		return true
	}
	return false
}

// String returns the string representation
func (f FundingSource) String() string {
	return string(f)
}

// FixedAsset is the aggregate root for a fixed-asset purchase. Assets are
// not stock: posting never touches stock movements, only the money side
// dictated by the funding source.
type FixedAsset struct {
	shared.BaseAggregateRoot
	AssetNumber   string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name          string          `gorm:"type:varchar(255);not null"`
	PurchaseCost  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	FundingSource FundingSource   `gorm:"type:varchar(10);not null"`
	TreasuryID    *uuid.UUID      `gorm:"type:uuid"` // Required for TREASURY funding
	PartnerID     *uuid.UUID      `gorm:"type:uuid"` // Shareholder for EQUITY, supplier for PAYABLE
	PurchasedAt   time.Time       `gorm:"not null"`
	Status        DocumentStatus  `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	Notes         string          `gorm:"type:varchar(255)"`
	PostedAt      *time.Time
	PostedByID    *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (FixedAsset) TableName() string {
	return "fixed_assets"
}

// NewFixedAsset creates a new draft fixed-asset purchase
func NewFixedAsset(assetNumber, name string, purchaseCost decimal.Decimal, fundingSource FundingSource, purchasedAt time.Time) (*FixedAsset, error) {
	if assetNumber == "" {
		return nil, shared.NewDomainError("INVALID_ASSET_NUMBER", "Asset number cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ASSET_NAME", "Asset name cannot be empty")
	}
	if purchaseCost.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_COST", "Purchase cost must be positive")
	}
	if !fundingSource.IsValid() {
		return nil, shared.NewDomainError("INVALID_FUNDING_SOURCE", "Invalid funding source")
	}

	return &FixedAsset{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AssetNumber:       assetNumber,
		Name:              name,
		PurchaseCost:      purchaseCost.Round(4),
		FundingSource:     fundingSource,
		PurchasedAt:       purchasedAt,
		Status:            DocumentStatusDraft,
	}, nil
}

// SetTreasury selects the paying treasury for TREASURY-funded assets
func (a *FixedAsset) SetTreasury(treasuryID uuid.UUID) error {
	if a.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	if a.FundingSource != FundingSourceTreasury {
		return shared.NewDomainError("INVALID_FUNDING_SOURCE", "Only treasury-funded assets carry a treasury")
	}
	a.TreasuryID = &treasuryID
	a.UpdatedAt = time.Now()
	return nil
}

// SetPartner records the shareholder (EQUITY) or supplier (PAYABLE) behind
// the funding
func (a *FixedAsset) SetPartner(partnerID uuid.UUID) error {
	if a.Status != DocumentStatusDraft {
		return shared.ErrAlreadyPosted
	}
	if a.FundingSource == FundingSourceTreasury {
		return shared.NewDomainError("INVALID_FUNDING_SOURCE", "Treasury-funded assets carry no partner")
	}
	a.PartnerID = &partnerID
	a.UpdatedAt = time.Now()
	return nil
}

// Validate checks the funding configuration is complete before posting
func (a *FixedAsset) Validate() error {
	switch a.FundingSource {
	case FundingSourceTreasury:
		if a.TreasuryID == nil {
			return shared.NewDomainError("MISSING_TREASURY", "Treasury-funded asset requires a treasury")
		}
	case FundingSourceEquity, FundingSourcePayable:
		if a.PartnerID == nil {
			return shared.NewDomainError("MISSING_PARTNER", "Equity and payable funding require a partner")
		}
	}
	return nil
}

// MarkPosted flips the asset to POSTED. One-way; there is no un-posting.
func (a *FixedAsset) MarkPosted(postedBy uuid.UUID, at time.Time) error {
	if !a.Status.CanTransitionTo(DocumentStatusPosted) {
		return shared.ErrAlreadyPosted
	}
	if err := a.Validate(); err != nil {
		return err
	}

	a.Status = DocumentStatusPosted
	a.PostedAt = &at
	a.PostedByID = &postedBy
	a.UpdatedAt = at
	a.IncrementVersion()

	return nil
}

// IsPosted returns true if the asset has been posted
func (a *FixedAsset) IsPosted() bool {
	return a.Status == DocumentStatusPosted
}
