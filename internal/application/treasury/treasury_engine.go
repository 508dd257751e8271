package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTreasuryConfig makes the default-treasury fallback explicit
// configuration instead of hidden global state. When AutoCreate is on and no
// treasury exists, posting bootstraps one cash treasury with this name.
type DefaultTreasuryConfig struct {
	Name       string
	AutoCreate bool
}

// Engine validates and posts the money side of documents and answers the
// balance queries. All writes are immutable treasury transactions; balances
// are live sums over them.
type Engine struct {
	treasuries       partner.TreasuryRepository
	partners         partner.PartnerRepository
	transactions     ledger.TreasuryTransactionRepository
	salesInvoices    trade.SalesInvoiceRepository
	purchaseInvoices trade.PurchaseInvoiceRepository
	salesReturns     trade.SalesReturnRepository
	purchaseReturns  trade.PurchaseReturnRepository
	defaults         DefaultTreasuryConfig
	logger           *zap.Logger
}

// NewEngine creates a treasury engine bound to the given repositories
func NewEngine(
	treasuries partner.TreasuryRepository,
	partners partner.PartnerRepository,
	transactions ledger.TreasuryTransactionRepository,
	salesInvoices trade.SalesInvoiceRepository,
	purchaseInvoices trade.PurchaseInvoiceRepository,
	salesReturns trade.SalesReturnRepository,
	purchaseReturns trade.PurchaseReturnRepository,
	defaults DefaultTreasuryConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		treasuries:       treasuries,
		partners:         partners,
		transactions:     transactions,
		salesInvoices:    salesInvoices,
		purchaseInvoices: purchaseInvoices,
		salesReturns:     salesReturns,
		purchaseReturns:  purchaseReturns,
		defaults:         defaults,
		logger:           logger,
	}
}

// ResolveTreasury returns the explicit treasury when given, otherwise the
// default one, bootstrapping it when configured to.
func (e *Engine) ResolveTreasury(ctx context.Context, treasuryID *uuid.UUID) (*partner.Treasury, error) {
	if treasuryID != nil {
		return e.treasuries.FindByID(ctx, *treasuryID)
	}

	t, err := e.treasuries.FindDefault(ctx)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if !e.defaults.AutoCreate {
		return nil, shared.NewDomainError("NO_TREASURY", "No treasury available and auto-creation is disabled")
	}

	t, err = partner.NewTreasury(e.defaults.Name, partner.TreasuryTypeCash)
	if err != nil {
		return nil, err
	}
	t.MarkDefault()
	if err := e.treasuries.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("bootstrap default treasury: %w", err)
	}
	e.logger.Info("bootstrapped default treasury", zap.String("name", t.Name))
	return t, nil
}

// PostSalesInvoice records the money leg of a posted sales invoice. A cash
// invoice collects the full total into the treasury; a credit invoice moves
// no cash - the customer's balance derives from the invoice's remaining
// amount, never from a balance write here.
func (e *Engine) PostSalesInvoice(ctx context.Context, invoice *trade.SalesInvoice, actorID uuid.UUID, at time.Time) error {
	if !invoice.IsCash() {
		return nil
	}

	t, err := e.ResolveTreasury(ctx, invoice.TreasuryID)
	if err != nil {
		return err
	}
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesInvoice, invoice.ID)
	if err != nil {
		return err
	}

	tx, err := ledger.NewCollection(t.ID, invoice.TotalAmount, ref)
	if err != nil {
		return err
	}
	tx.PartnerID = &invoice.CustomerID
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Sales invoice %s", invoice.InvoiceNumber))

	if err := e.transactions.Create(ctx, tx); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	e.logger.Info("posted sales invoice treasury leg",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("treasury_id", t.ID.String()),
		zap.String("amount", invoice.TotalAmount.String()))

	return nil
}

// PostPurchaseInvoice records the money leg of a posted purchase invoice.
// Cash pays the supplier out of the treasury (stored negative); credit moves
// no cash.
func (e *Engine) PostPurchaseInvoice(ctx context.Context, invoice *trade.PurchaseInvoice, actorID uuid.UUID, at time.Time) error {
	if !invoice.IsCash() {
		return nil
	}

	t, err := e.ResolveTreasury(ctx, invoice.TreasuryID)
	if err != nil {
		return err
	}
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindPurchaseInvoice, invoice.ID)
	if err != nil {
		return err
	}

	tx, err := ledger.NewPayment(t.ID, invoice.TotalAmount, ref)
	if err != nil {
		return err
	}
	tx.PartnerID = &invoice.SupplierID
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Purchase invoice %s", invoice.InvoiceNumber))

	if err := e.transactions.Create(ctx, tx); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	e.logger.Info("posted purchase invoice treasury leg",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("treasury_id", t.ID.String()),
		zap.String("amount", invoice.TotalAmount.String()))

	return nil
}

// PostSalesReturn records the refund leg of a cash sales return: money leaves
// the treasury (stored negative). Credit returns move no cash; they reduce
// the customer's balance through the balance formula instead.
func (e *Engine) PostSalesReturn(ctx context.Context, ret *trade.SalesReturn, actorID uuid.UUID, at time.Time) error {
	if !ret.IsCash() {
		return nil
	}

	t, err := e.ResolveTreasury(ctx, ret.TreasuryID)
	if err != nil {
		return err
	}
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesReturn, ret.ID)
	if err != nil {
		return err
	}

	tx, err := ledger.NewSaleReturnRefund(t.ID, ret.TotalAmount, ref)
	if err != nil {
		return err
	}
	tx.PartnerID = &ret.CustomerID
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Sales return %s", ret.ReturnNumber))

	if err := e.transactions.Create(ctx, tx); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}

	return nil
}

// PostPurchaseReturn records the refund leg of a cash purchase return: the
// supplier's refund comes back into the treasury (stored positive).
func (e *Engine) PostPurchaseReturn(ctx context.Context, ret *trade.PurchaseReturn, actorID uuid.UUID, at time.Time) error {
	if !ret.IsCash() {
		return nil
	}

	t, err := e.ResolveTreasury(ctx, ret.TreasuryID)
	if err != nil {
		return err
	}
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindPurchaseReturn, ret.ID)
	if err != nil {
		return err
	}

	tx, err := ledger.NewPurchaseReturnRefund(t.ID, ret.TotalAmount, ref)
	if err != nil {
		return err
	}
	tx.PartnerID = &ret.SupplierID
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Purchase return %s", ret.ReturnNumber))

	if err := e.transactions.Create(ctx, tx); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}

	return nil
}

// PostFixedAsset records the funding leg of a fixed-asset purchase.
// Treasury funding is a plain expense; equity funding books a capital
// contribution against the shareholder without moving cash; payable funding
// creates no ledger entry - the open liability lives on the asset record.
func (e *Engine) PostFixedAsset(ctx context.Context, asset *trade.FixedAsset, actorID uuid.UUID, at time.Time) error {
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindFixedAsset, asset.ID)
	if err != nil {
		return err
	}

	switch asset.FundingSource {
	case trade.FundingSourceTreasury:
		t, err := e.ResolveTreasury(ctx, asset.TreasuryID)
		if err != nil {
			return err
		}
		tx, err := ledger.NewExpense(t.ID, asset.PurchaseCost, ref)
		if err != nil {
			return err
		}
		tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Fixed asset %s", asset.Name))
		if err := e.transactions.Create(ctx, tx); err != nil {
			return fmt.Errorf("create asset expense: %w", err)
		}

	case trade.FundingSourceEquity:
		shareholder, err := e.partners.FindByID(ctx, *asset.PartnerID)
		if err != nil {
			return err
		}
		tx, err := ledger.NewEquityContribution(shareholder.ID, asset.PurchaseCost, ref)
		if err != nil {
			return err
		}
		tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Fixed asset %s (equity funded)", asset.Name))
		if err := e.transactions.Create(ctx, tx); err != nil {
			return fmt.Errorf("create equity contribution: %w", err)
		}
		if err := shareholder.IncreaseCapital(asset.PurchaseCost); err != nil {
			return err
		}
		if err := e.partners.Save(ctx, shareholder); err != nil {
			return fmt.Errorf("save shareholder: %w", err)
		}

	case trade.FundingSourcePayable:
		// No treasury or capital entry. The unpaid cost is visible on the
		// asset itself and settled later with a manual payment.
	}

	e.logger.Info("posted fixed asset",
		zap.String("asset_id", asset.ID.String()),
		zap.String("funding", asset.FundingSource.String()))

	return nil
}

// RecordExpense appends a standalone expense against one treasury
func (e *Engine) RecordExpense(ctx context.Context, treasuryID *uuid.UUID, amount decimal.Decimal, description string, actorID uuid.UUID, at time.Time) (*ledger.TreasuryTransaction, error) {
	t, err := e.ResolveTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindExpense, uuid.New())
	if err != nil {
		return nil, err
	}
	tx, err := ledger.NewExpense(t.ID, amount, ref)
	if err != nil {
		return nil, err
	}
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(description)
	if err := e.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	return tx, nil
}

// RecordRevenue appends a standalone income entry against one treasury
func (e *Engine) RecordRevenue(ctx context.Context, treasuryID *uuid.UUID, amount decimal.Decimal, description string, actorID uuid.UUID, at time.Time) (*ledger.TreasuryTransaction, error) {
	t, err := e.ResolveTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindRevenue, uuid.New())
	if err != nil {
		return nil, err
	}
	tx, err := ledger.NewIncome(t.ID, amount, ref)
	if err != nil {
		return nil, err
	}
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(description)
	if err := e.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create income: %w", err)
	}
	return tx, nil
}

// SettlementKind selects the direction of a manual financial transaction
type SettlementKind string

const (
	SettlementCollection SettlementKind = "COLLECTION" // Customer pays down debt
	SettlementPayment    SettlementKind = "PAYMENT"    // We pay down supplier debt
)

// RecordFinancialTransaction books a manual settlement of partner debt.
// The stored sign encodes the effect on the partner balance, not the cash
// direction; that convention lives entirely in the ledger constructors.
func (e *Engine) RecordFinancialTransaction(ctx context.Context, kind SettlementKind, treasuryID *uuid.UUID, partnerID uuid.UUID, amount, discount decimal.Decimal, description string, actorID uuid.UUID, at time.Time) (*ledger.TreasuryTransaction, error) {
	if _, err := e.partners.FindByID(ctx, partnerID); err != nil {
		return nil, err
	}
	t, err := e.ResolveTreasury(ctx, treasuryID)
	if err != nil {
		return nil, err
	}
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindFinancialTransaction, uuid.New())
	if err != nil {
		return nil, err
	}

	var tx *ledger.TreasuryTransaction
	switch kind {
	case SettlementCollection:
		tx, err = ledger.NewSettlementCollection(t.ID, partnerID, amount, discount, ref)
	case SettlementPayment:
		tx, err = ledger.NewSettlementPayment(t.ID, partnerID, amount, discount, ref)
	default:
		return nil, shared.NewDomainError("INVALID_SETTLEMENT_KIND", "Settlement must be a collection or a payment")
	}
	if err != nil {
		return nil, err
	}
	tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(description)

	if err := e.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create settlement: %w", err)
	}

	if err := e.RecalculatePartnerBalance(ctx, partnerID); err != nil {
		return nil, err
	}

	e.logger.Info("recorded financial transaction",
		zap.String("kind", string(kind)),
		zap.String("partner_id", partnerID.String()),
		zap.String("amount", tx.Amount.String()))

	return tx, nil
}

// GetTreasuryBalance returns the live balance of one treasury
func (e *Engine) GetTreasuryBalance(ctx context.Context, treasuryID uuid.UUID) (decimal.Decimal, error) {
	if _, err := e.treasuries.FindByID(ctx, treasuryID); err != nil {
		return decimal.Zero, err
	}
	return e.transactions.SumByTreasury(ctx, treasuryID)
}

// GetPartnerBalance derives a partner's balance from the ledger. The formula
// depends on the partner type:
//
//	customer:    sum(remaining of posted sales invoices)
//	           - sum(totals of posted credit sales returns)
//	           + sum(settlement collection amounts)   [stored negative]
//	supplier:  -(sum(remaining of posted purchase invoices)
//	           - sum(totals of posted credit purchase returns)
//	           - sum(settlement payment amounts))     [stored positive]
//	shareholder: sum(all transaction amounts for the partner)
//
// Cash returns never enter the formula: a cash refund is not debt
// forgiveness. The cached Partner.current_balance is only ever written from
// this derivation.
func (e *Engine) GetPartnerBalance(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	p, err := e.partners.FindByID(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}

	switch p.Type {
	case partner.PartnerTypeCustomer:
		remaining, err := e.salesInvoices.SumPostedRemainingByCustomer(ctx, p.ID)
		if err != nil {
			return decimal.Zero, err
		}
		creditReturns, err := e.salesReturns.SumPostedCreditTotalsByCustomer(ctx, p.ID)
		if err != nil {
			return decimal.Zero, err
		}
		settlements, err := e.transactions.SumSettlementsByPartner(ctx, p.ID, ledger.TransactionTypeCollection)
		if err != nil {
			return decimal.Zero, err
		}
		return remaining.Sub(creditReturns).Add(settlements), nil

	case partner.PartnerTypeSupplier:
		remaining, err := e.purchaseInvoices.SumPostedRemainingBySupplier(ctx, p.ID)
		if err != nil {
			return decimal.Zero, err
		}
		creditReturns, err := e.purchaseReturns.SumPostedCreditTotalsBySupplier(ctx, p.ID)
		if err != nil {
			return decimal.Zero, err
		}
		settlements, err := e.transactions.SumSettlementsByPartner(ctx, p.ID, ledger.TransactionTypePayment)
		if err != nil {
			return decimal.Zero, err
		}
		return remaining.Sub(creditReturns).Sub(settlements).Neg(), nil

	case partner.PartnerTypeShareholder:
		return e.transactions.SumByPartner(ctx, p.ID)
	}

	return decimal.Zero, shared.NewDomainError("INVALID_PARTNER_TYPE", "Unknown partner type")
}

// RecalculatePartnerBalance refreshes the cached current_balance column from
// the derivation. Idempotent; callable any time.
func (e *Engine) RecalculatePartnerBalance(ctx context.Context, partnerID uuid.UUID) error {
	p, err := e.partners.FindByID(ctx, partnerID)
	if err != nil {
		return err
	}
	balance, err := e.GetPartnerBalance(ctx, partnerID)
	if err != nil {
		return err
	}
	p.SetCachedBalance(balance)
	if err := e.partners.Save(ctx, p); err != nil {
		return fmt.Errorf("save partner balance: %w", err)
	}
	return nil
}
