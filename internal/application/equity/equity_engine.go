package equity

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FinancialSummary is the revenue/expense/profit picture of one period.
// For an open period it is computed live from the ledger; for a closed
// period it is read back from the persisted snapshot.
type FinancialSummary struct {
	Revenue   decimal.Decimal
	Expenses  decimal.Decimal
	NetProfit decimal.Decimal
}

// Engine tracks partner capital, equity percentages and period-based profit
// allocation.
type Engine struct {
	partners         partner.PartnerRepository
	transactions     ledger.TreasuryTransactionRepository
	periods          finance.EquityPeriodRepository
	treasuries       partner.TreasuryRepository
	salesInvoices    trade.SalesInvoiceRepository
	purchaseInvoices trade.PurchaseInvoiceRepository
	logger           *zap.Logger
}

// NewEngine creates an equity engine bound to the given repositories
func NewEngine(
	partners partner.PartnerRepository,
	transactions ledger.TreasuryTransactionRepository,
	periods finance.EquityPeriodRepository,
	treasuries partner.TreasuryRepository,
	salesInvoices trade.SalesInvoiceRepository,
	purchaseInvoices trade.PurchaseInvoiceRepository,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		partners:         partners,
		transactions:     transactions,
		periods:          periods,
		treasuries:       treasuries,
		salesInvoices:    salesInvoices,
		purchaseInvoices: purchaseInvoices,
		logger:           logger,
	}
}

// CreateInitialPeriod opens period #1 and snapshots every shareholder's
// starting percentage and capital. Fails if any period already exists.
func (e *Engine) CreateInitialPeriod(ctx context.Context, startDate time.Time) (*finance.EquityPeriod, error) {
	max, err := e.periods.MaxPeriodNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	if max > 0 {
		return nil, shared.NewDomainError("PERIOD_EXISTS", "An equity period already exists")
	}

	period, err := finance.NewEquityPeriod(1, startDate)
	if err != nil {
		return nil, err
	}

	shareholders, err := e.partners.FindByType(ctx, partner.PartnerTypeShareholder)
	if err != nil {
		return nil, fmt.Errorf("load shareholders: %w", err)
	}
	for i := range shareholders {
		sh := &shareholders[i]
		if _, err := period.AddPartnerSnapshot(sh.ID, sh.EquityPercentage, sh.Capital); err != nil {
			return nil, err
		}
	}

	if err := e.periods.Save(ctx, period); err != nil {
		return nil, fmt.Errorf("save period: %w", err)
	}

	e.logger.Info("created initial equity period",
		zap.Int("period_number", period.PeriodNumber),
		zap.Int("shareholders", len(shareholders)))

	return period, nil
}

// InjectCapital increases one shareholder's capital, books a capital_deposit
// transaction into the treasury, then recalculates every shareholder's
// equity percentage as capital / total capital * 100. Fails when the total
// capital would not be positive.
func (e *Engine) InjectCapital(ctx context.Context, partnerID uuid.UUID, treasuryID *uuid.UUID, amount decimal.Decimal, actorID uuid.UUID, at time.Time) error {
	sh, err := e.partners.FindByID(ctx, partnerID)
	if err != nil {
		return err
	}
	if !sh.IsShareholder() {
		return shared.NewDomainError("NOT_SHAREHOLDER", "Capital can only be injected for shareholders")
	}

	period, err := e.periods.FindOpen(ctx)
	if err != nil {
		return err
	}

	if err := sh.IncreaseCapital(amount); err != nil {
		return err
	}
	if err := e.partners.Save(ctx, sh); err != nil {
		return fmt.Errorf("save shareholder: %w", err)
	}

	ref, err := ledger.NewDocumentRef(ledger.DocumentKindCapital, period.ID)
	if err != nil {
		return err
	}
	var tx *ledger.TreasuryTransaction
	if treasuryID != nil {
		treasury, err := e.treasuries.FindByID(ctx, *treasuryID)
		if err != nil {
			return err
		}
		tx, err = ledger.NewCapitalDeposit(treasury.ID, sh.ID, amount, ref)
		if err != nil {
			return err
		}
	} else {
		tx, err = ledger.NewEquityContribution(sh.ID, amount, ref)
		if err != nil {
			return err
		}
	}
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Capital injection by %s", sh.Name))
	if err := e.transactions.Create(ctx, tx); err != nil {
		return fmt.Errorf("create capital deposit: %w", err)
	}

	newPercentages, err := e.recalculatePercentages(ctx)
	if err != nil {
		return err
	}
	if err := period.RecordInjection(sh.ID, amount, newPercentages[sh.ID]); err != nil {
		return err
	}
	for id, pct := range newPercentages {
		if id == sh.ID {
			continue
		}
		if err := period.UpdatePercentage(id, pct); err != nil && err != shared.ErrNotFound {
			return err
		}
	}
	if err := e.periods.Save(ctx, period); err != nil {
		return fmt.Errorf("save period: %w", err)
	}

	e.logger.Info("injected capital",
		zap.String("partner_id", sh.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("new_percentage", newPercentages[sh.ID].String()))

	return nil
}

// recalculatePercentages recomputes and persists every shareholder's equity
// percentage from current capital. Returns the new percentages by partner.
func (e *Engine) recalculatePercentages(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	shareholders, err := e.partners.FindByType(ctx, partner.PartnerTypeShareholder)
	if err != nil {
		return nil, fmt.Errorf("load shareholders: %w", err)
	}

	total := decimal.Zero
	for i := range shareholders {
		total = total.Add(shareholders[i].Capital)
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_TOTAL_CAPITAL", "Total capital must be positive")
	}

	hundred := decimal.NewFromInt(100)
	result := make(map[uuid.UUID]decimal.Decimal, len(shareholders))
	for i := range shareholders {
		sh := &shareholders[i]
		pct := sh.Capital.Div(total).Mul(hundred).Round(4)
		if err := sh.SetEquityPercentage(pct); err != nil {
			return nil, err
		}
		if err := e.partners.Save(ctx, sh); err != nil {
			return nil, fmt.Errorf("save shareholder: %w", err)
		}
		result[sh.ID] = pct
	}

	return result, nil
}

// RecordDrawing decreases one shareholder's capital and books a negative
// partner_drawing transaction out of the treasury.
func (e *Engine) RecordDrawing(ctx context.Context, partnerID uuid.UUID, treasuryID uuid.UUID, amount decimal.Decimal, reason string, actorID uuid.UUID, at time.Time) error {
	sh, err := e.partners.FindByID(ctx, partnerID)
	if err != nil {
		return err
	}
	if !sh.IsShareholder() {
		return shared.NewDomainError("NOT_SHAREHOLDER", "Drawings can only be recorded for shareholders")
	}

	period, err := e.periods.FindOpen(ctx)
	if err != nil {
		return err
	}

	if err := sh.DecreaseCapital(amount); err != nil {
		return err
	}
	if err := e.partners.Save(ctx, sh); err != nil {
		return fmt.Errorf("save shareholder: %w", err)
	}

	ref, err := ledger.NewDocumentRef(ledger.DocumentKindCapital, period.ID)
	if err != nil {
		return err
	}
	tx, err := ledger.NewPartnerDrawing(treasuryID, sh.ID, amount, ref)
	if err != nil {
		return err
	}
	description := fmt.Sprintf("Drawing by %s", sh.Name)
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(description)
	if err := e.transactions.Create(ctx, tx); err != nil {
		return fmt.Errorf("create drawing: %w", err)
	}

	if err := period.RecordDrawing(sh.ID, amount); err != nil {
		return err
	}
	if err := e.periods.Save(ctx, period); err != nil {
		return fmt.Errorf("save period: %w", err)
	}

	e.logger.Info("recorded drawing",
		zap.String("partner_id", sh.ID.String()),
		zap.String("amount", amount.String()))

	return nil
}

// summarizeWindow computes the live financial summary for a time window:
// revenue from posted sales invoice totals, expenses from posted purchase
// invoice totals plus standalone expense transactions.
func (e *Engine) summarizeWindow(ctx context.Context, from, to time.Time) (FinancialSummary, error) {
	revenue, err := e.salesInvoices.SumPostedTotalsInWindow(ctx, from, to)
	if err != nil {
		return FinancialSummary{}, fmt.Errorf("sum sales: %w", err)
	}
	purchases, err := e.purchaseInvoices.SumPostedTotalsInWindow(ctx, from, to)
	if err != nil {
		return FinancialSummary{}, fmt.Errorf("sum purchases: %w", err)
	}
	expenses, err := e.transactions.SumExpensesInWindow(ctx, from, to)
	if err != nil {
		return FinancialSummary{}, fmt.Errorf("sum expenses: %w", err)
	}

	totalExpenses := purchases.Add(expenses)
	return FinancialSummary{
		Revenue:   revenue,
		Expenses:  totalExpenses,
		NetProfit: revenue.Sub(totalExpenses),
	}, nil
}

// GetFinancialSummary returns the summary of a period: live for an open
// period, snapshot for a closed one.
func (e *Engine) GetFinancialSummary(ctx context.Context, periodID uuid.UUID, now time.Time) (FinancialSummary, error) {
	period, err := e.periods.FindByID(ctx, periodID)
	if err != nil {
		return FinancialSummary{}, err
	}

	if !period.IsOpen() {
		return FinancialSummary{
			Revenue:   period.TotalRevenue,
			Expenses:  period.TotalExpense,
			NetProfit: period.NetProfit,
		}, nil
	}

	return e.summarizeWindow(ctx, period.StartDate, now)
}

// ClosePeriodAndAllocate closes the open period at endTime: computes its
// financial summary, allocates net profit to shareholders by their
// snapshotted percentages (the last weighted share absorbs the rounding
// remainder), books one profit_allocation transaction and
// a capital increase per shareholder, then opens period N+1 seeded with the
// post-allocation capitals. The caller runs this inside one transaction.
func (e *Engine) ClosePeriodAndAllocate(ctx context.Context, endTime time.Time, notes string, closedBy uuid.UUID) (*finance.EquityPeriod, error) {
	period, err := e.periods.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := e.summarizeWindow(ctx, period.StartDate, endTime)
	if err != nil {
		return nil, err
	}

	ref, err := ledger.NewDocumentRef(ledger.DocumentKindCapital, period.ID)
	if err != nil {
		return nil, err
	}

	if summary.NetProfit.GreaterThan(decimal.Zero) && len(period.Partners) > 0 {
		profit, err := valueobject.NewMoney(summary.NetProfit, valueobject.EGP)
		if err != nil {
			return nil, err
		}
		weights := make([]decimal.Decimal, len(period.Partners))
		for i := range period.Partners {
			weights[i] = period.Partners[i].EquityPercentage
		}
		shares, err := profit.SplitByWeights(weights)
		if err != nil {
			return nil, err
		}

		for i := range period.Partners {
			row := &period.Partners[i]
			share := shares[i].Amount()
			if share.IsZero() {
				if err := period.RecordAllocation(row.PartnerID, decimal.Zero); err != nil {
					return nil, err
				}
				continue
			}

			sh, err := e.partners.FindByID(ctx, row.PartnerID)
			if err != nil {
				return nil, err
			}
			if err := sh.IncreaseCapital(share); err != nil {
				return nil, err
			}
			if err := e.partners.Save(ctx, sh); err != nil {
				return nil, fmt.Errorf("save shareholder: %w", err)
			}

			tx, err := ledger.NewProfitAllocation(sh.ID, share, ref)
			if err != nil {
				return nil, err
			}
			tx.WithCreatedBy(closedBy).WithOccurredAt(endTime).WithDescription(fmt.Sprintf("Profit allocation, period %d", period.PeriodNumber))
			if err := e.transactions.Create(ctx, tx); err != nil {
				return nil, fmt.Errorf("create allocation: %w", err)
			}

			if err := period.RecordAllocation(sh.ID, share); err != nil {
				return nil, err
			}
		}
	}

	if err := period.Close(summary.Revenue, summary.Expenses, summary.NetProfit, closedBy, endTime, notes); err != nil {
		return nil, err
	}
	if err := e.periods.Save(ctx, period); err != nil {
		return nil, fmt.Errorf("save closed period: %w", err)
	}

	next, err := finance.NewEquityPeriod(period.PeriodNumber+1, endTime)
	if err != nil {
		return nil, err
	}
	shareholders, err := e.partners.FindByType(ctx, partner.PartnerTypeShareholder)
	if err != nil {
		return nil, fmt.Errorf("load shareholders: %w", err)
	}
	for i := range shareholders {
		sh := &shareholders[i]
		if _, err := next.AddPartnerSnapshot(sh.ID, sh.EquityPercentage, sh.Capital); err != nil {
			return nil, err
		}
	}
	if err := e.periods.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save next period: %w", err)
	}

	e.logger.Info("closed equity period",
		zap.Int("period_number", period.PeriodNumber),
		zap.String("net_profit", summary.NetProfit.String()),
		zap.Int("next_period", next.PeriodNumber))

	return next, nil
}
