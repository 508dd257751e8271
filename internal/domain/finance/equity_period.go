package finance

import (
	"errors"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodStatus represents the lifecycle of an equity period
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// IsValid checks if the status is valid
func (s PeriodStatus) IsValid() bool {
	return s == PeriodStatusOpen || s == PeriodStatusClosed
}

// String returns the string representation
func (s PeriodStatus) String() string {
	return string(s)
}

// EquityPeriodPartner is the per-shareholder snapshot row of a period:
// percentage and capital at period start, plus the movements accumulated
// while the period is open.
type EquityPeriodPartner struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PeriodID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartnerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	EquityPercentage decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CapitalAtStart   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CapitalInjected  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DrawingsTaken    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProfitAllocated  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (EquityPeriodPartner) TableName() string {
	return "equity_period_partners"
}

// EquityPeriod is the aggregate root for one profit-allocation period.
// Exactly one period is open at a time; closing a period snapshots its
// financial summary and seeds the next one.
type EquityPeriod struct {
	shared.BaseAggregateRoot
	PeriodNumber int                   `gorm:"not null;uniqueIndex"`
	StartDate    time.Time             `gorm:"not null"`
	EndDate      *time.Time
	Status       PeriodStatus          `gorm:"type:varchar(10);not null;default:'OPEN';index"`
	Partners     []EquityPeriodPartner `gorm:"foreignKey:PeriodID;references:ID"`
	TotalRevenue decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	TotalExpense decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	NetProfit    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Notes        string                `gorm:"type:varchar(255)"`
	ClosedAt     *time.Time
	ClosedByID   *uuid.UUID            `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (EquityPeriod) TableName() string {
	return "equity_periods"
}

// NewEquityPeriod opens a period with the given number and start date
func NewEquityPeriod(periodNumber int, startDate time.Time) (*EquityPeriod, error) {
	if periodNumber < 1 {
		return nil, shared.NewDomainError("INVALID_PERIOD_NUMBER", "Period number must be at least 1")
	}

	return &EquityPeriod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PeriodNumber:      periodNumber,
		StartDate:         startDate,
		Status:            PeriodStatusOpen,
		Partners:          make([]EquityPeriodPartner, 0),
		TotalRevenue:      decimal.Zero,
		TotalExpense:      decimal.Zero,
		NetProfit:         decimal.Zero,
	}, nil
}

// IsOpen returns true while the period accepts capital movements
func (p *EquityPeriod) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// AddPartnerSnapshot seeds a shareholder's starting position in this period
func (p *EquityPeriod) AddPartnerSnapshot(partnerID uuid.UUID, equityPercentage, capitalAtStart decimal.Decimal) (*EquityPeriodPartner, error) {
	if !p.IsOpen() {
		return nil, shared.NewDomainError("PERIOD_CLOSED", "Cannot modify a closed period")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	for _, row := range p.Partners {
		if row.PartnerID == partnerID {
			return nil, shared.NewDomainError("DUPLICATE_PARTNER", "Partner already snapshotted in this period")
		}
	}

	now := time.Now()
	row := EquityPeriodPartner{
		ID:               uuid.New(),
		PeriodID:         p.ID,
		PartnerID:        partnerID,
		EquityPercentage: equityPercentage.Round(4),
		CapitalAtStart:   capitalAtStart.Round(4),
		CapitalInjected:  decimal.Zero,
		DrawingsTaken:    decimal.Zero,
		ProfitAllocated:  decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	p.Partners = append(p.Partners, row)
	p.UpdatedAt = now

	return &row, nil
}

func (p *EquityPeriod) partnerRow(partnerID uuid.UUID) (*EquityPeriodPartner, error) {
	for i := range p.Partners {
		if p.Partners[i].PartnerID == partnerID {
			return &p.Partners[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// RecordInjection accumulates injected capital on the partner's pivot row and
// refreshes the snapshotted percentage. A shareholder created after the
// period opened has no snapshot row yet; their position starts at zero and is
// seeded here on first injection.
func (p *EquityPeriod) RecordInjection(partnerID uuid.UUID, amount, newPercentage decimal.Decimal) error {
	if !p.IsOpen() {
		return shared.NewDomainError("PERIOD_CLOSED", "Cannot modify a closed period")
	}
	row, err := p.partnerRow(partnerID)
	if errors.Is(err, shared.ErrNotFound) {
		row, err = p.AddPartnerSnapshot(partnerID, newPercentage, decimal.Zero)
	}
	if err != nil {
		return err
	}
	row.CapitalInjected = row.CapitalInjected.Add(amount)
	row.EquityPercentage = newPercentage.Round(4)
	row.UpdatedAt = time.Now()
	p.UpdatedAt = row.UpdatedAt
	return nil
}

// UpdatePercentage refreshes one partner's snapshotted equity percentage
func (p *EquityPeriod) UpdatePercentage(partnerID uuid.UUID, newPercentage decimal.Decimal) error {
	if !p.IsOpen() {
		return shared.NewDomainError("PERIOD_CLOSED", "Cannot modify a closed period")
	}
	row, err := p.partnerRow(partnerID)
	if err != nil {
		return err
	}
	row.EquityPercentage = newPercentage.Round(4)
	row.UpdatedAt = time.Now()
	return nil
}

// RecordDrawing accumulates drawings on the partner's pivot row
func (p *EquityPeriod) RecordDrawing(partnerID uuid.UUID, amount decimal.Decimal) error {
	if !p.IsOpen() {
		return shared.NewDomainError("PERIOD_CLOSED", "Cannot modify a closed period")
	}
	row, err := p.partnerRow(partnerID)
	if err != nil {
		return err
	}
	row.DrawingsTaken = row.DrawingsTaken.Add(amount)
	row.UpdatedAt = time.Now()
	p.UpdatedAt = row.UpdatedAt
	return nil
}

// RecordAllocation stamps the profit allocated to one partner at close time
func (p *EquityPeriod) RecordAllocation(partnerID uuid.UUID, amount decimal.Decimal) error {
	row, err := p.partnerRow(partnerID)
	if err != nil {
		return err
	}
	row.ProfitAllocated = amount
	row.UpdatedAt = time.Now()
	return nil
}

// Close snapshots the financial summary and marks the period terminal
func (p *EquityPeriod) Close(revenue, expense, netProfit decimal.Decimal, closedBy uuid.UUID, at time.Time, notes string) error {
	if !p.IsOpen() {
		return shared.NewDomainError("PERIOD_CLOSED", "Period is already closed")
	}

	p.TotalRevenue = revenue.Round(4)
	p.TotalExpense = expense.Round(4)
	p.NetProfit = netProfit.Round(4)
	p.Status = PeriodStatusClosed
	p.EndDate = &at
	p.ClosedAt = &at
	p.ClosedByID = &closedBy
	p.Notes = notes
	p.UpdatedAt = at
	p.IncrementVersion()

	return nil
}
