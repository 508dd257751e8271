package posting

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/application/equity"
	"github.com/bizledger/backend/internal/application/installment"
	"github.com/bizledger/backend/internal/application/stock"
	"github.com/bizledger/backend/internal/application/treasury"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the posting orchestrator and the engine's public surface.
// Every post opens one transaction scope, reloads the document, verifies it
// is still a draft, runs the stock leg then the treasury leg then side
// effects, flips the status and commits. Any error anywhere rolls back the
// whole post.
type Service struct {
	scope    TransactionScope
	reads    TransactionalRepositories
	defaults treasury.DefaultTreasuryConfig
	logger   *zap.Logger
}

// NewService creates the posting service. reads is a non-transactional
// repository view used for balance and stock queries.
func NewService(scope TransactionScope, reads TransactionalRepositories, defaults treasury.DefaultTreasuryConfig, logger *zap.Logger) *Service {
	return &Service{
		scope:    scope,
		reads:    reads,
		defaults: defaults,
		logger:   logger,
	}
}

func (s *Service) stockEngine(repos TransactionalRepositories) *stock.Engine {
	return stock.NewEngine(repos.Products(), repos.StockMovements(), s.logger)
}

func (s *Service) treasuryEngine(repos TransactionalRepositories) *treasury.Engine {
	return treasury.NewEngine(
		repos.Treasuries(),
		repos.Partners(),
		repos.TreasuryTransactions(),
		repos.SalesInvoices(),
		repos.PurchaseInvoices(),
		repos.SalesReturns(),
		repos.PurchaseReturns(),
		s.defaults,
		s.logger,
	)
}

func (s *Service) installmentEngine(repos TransactionalRepositories) *installment.Engine {
	return installment.NewEngine(repos.Installments(), repos.SalesInvoices(), s.logger)
}

func (s *Service) equityEngine(repos TransactionalRepositories) *equity.Engine {
	return equity.NewEngine(
		repos.Partners(),
		repos.TreasuryTransactions(),
		repos.EquityPeriods(),
		repos.Treasuries(),
		repos.SalesInvoices(),
		repos.PurchaseInvoices(),
		s.logger,
	)
}

// PostSalesInvoice posts a draft sales invoice: stock validation and
// outbound movements, the cash collection when applicable, then the status
// flip, all in one transaction.
func (s *Service) PostSalesInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) error {
	at := time.Now()
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.SalesInvoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IsPosted() {
			return shared.ErrAlreadyPosted
		}

		if err := s.stockEngine(repos).PostSalesInvoice(ctx, invoice, actorID, at); err != nil {
			return err
		}
		if err := s.treasuryEngine(repos).PostSalesInvoice(ctx, invoice, actorID, at); err != nil {
			return err
		}

		if err := invoice.MarkPosted(actorID, at); err != nil {
			return err
		}
		if err := repos.SalesInvoices().Save(ctx, invoice); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		if err := s.treasuryEngine(repos).RecalculatePartnerBalance(ctx, invoice.CustomerID); err != nil {
			return err
		}

		s.logger.Info("posted sales invoice",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("actor_id", actorID.String()))
		return nil
	})
}

// PostPurchaseInvoice posts a draft purchase invoice: inbound movements,
// average-cost and price updates, the cash payment when applicable.
func (s *Service) PostPurchaseInvoice(ctx context.Context, invoiceID, actorID uuid.UUID) error {
	at := time.Now()
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.PurchaseInvoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IsPosted() {
			return shared.ErrAlreadyPosted
		}

		if err := s.stockEngine(repos).PostPurchaseInvoice(ctx, invoice, actorID, at); err != nil {
			return err
		}
		if err := s.treasuryEngine(repos).PostPurchaseInvoice(ctx, invoice, actorID, at); err != nil {
			return err
		}

		if err := invoice.MarkPosted(actorID, at); err != nil {
			return err
		}
		if err := repos.PurchaseInvoices().Save(ctx, invoice); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		if err := s.treasuryEngine(repos).RecalculatePartnerBalance(ctx, invoice.SupplierID); err != nil {
			return err
		}

		s.logger.Info("posted purchase invoice",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("actor_id", actorID.String()))
		return nil
	})
}

// ensureReturnWithinInvoice asserts that the cumulative posted returns
// against an invoice, plus the new return, never exceed the invoice total.
func ensureReturnWithinInvoice(newTotal, priorReturns, invoiceTotal decimal.Decimal) error {
	if priorReturns.Add(newTotal).GreaterThan(invoiceTotal) {
		return shared.NewDomainError("RETURN_EXCEEDS_INVOICE",
			fmt.Sprintf("Return total %s plus prior returns %s exceeds invoice total %s",
				newTotal.String(), priorReturns.String(), invoiceTotal.String()))
	}
	return nil
}

// PostSalesReturn posts a draft sales return: inbound movements (never stock
// validated), the cash refund when applicable, and the return cap against
// the linked invoice.
func (s *Service) PostSalesReturn(ctx context.Context, returnID, actorID uuid.UUID) error {
	at := time.Now()
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ret, err := repos.SalesReturns().FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.IsPosted() {
			return shared.ErrAlreadyPosted
		}

		if ret.LinkedInvoiceID != nil {
			invoice, err := repos.SalesInvoices().FindByID(ctx, *ret.LinkedInvoiceID)
			if err != nil {
				return err
			}
			prior, err := repos.SalesReturns().SumPostedTotalsByInvoice(ctx, invoice.ID)
			if err != nil {
				return fmt.Errorf("sum prior returns: %w", err)
			}
			if err := ensureReturnWithinInvoice(ret.TotalAmount, prior, invoice.TotalAmount); err != nil {
				return err
			}
		}

		if err := s.stockEngine(repos).PostSalesReturn(ctx, ret, actorID, at); err != nil {
			return err
		}
		if err := s.treasuryEngine(repos).PostSalesReturn(ctx, ret, actorID, at); err != nil {
			return err
		}

		if err := ret.MarkPosted(actorID, at); err != nil {
			return err
		}
		if err := repos.SalesReturns().Save(ctx, ret); err != nil {
			return fmt.Errorf("save return: %w", err)
		}

		if err := s.treasuryEngine(repos).RecalculatePartnerBalance(ctx, ret.CustomerID); err != nil {
			return err
		}

		s.logger.Info("posted sales return",
			zap.String("return_id", returnID.String()),
			zap.String("actor_id", actorID.String()))
		return nil
	})
}

// PostPurchaseReturn posts a draft purchase return: stock-validated outbound
// movements, the supplier's cash refund when applicable, and the return cap
// against the linked invoice.
func (s *Service) PostPurchaseReturn(ctx context.Context, returnID, actorID uuid.UUID) error {
	at := time.Now()
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ret, err := repos.PurchaseReturns().FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.IsPosted() {
			return shared.ErrAlreadyPosted
		}

		if ret.LinkedInvoiceID != nil {
			invoice, err := repos.PurchaseInvoices().FindByID(ctx, *ret.LinkedInvoiceID)
			if err != nil {
				return err
			}
			prior, err := repos.PurchaseReturns().SumPostedTotalsByInvoice(ctx, invoice.ID)
			if err != nil {
				return fmt.Errorf("sum prior returns: %w", err)
			}
			if err := ensureReturnWithinInvoice(ret.TotalAmount, prior, invoice.TotalAmount); err != nil {
				return err
			}
		}

		if err := s.stockEngine(repos).PostPurchaseReturn(ctx, ret, actorID, at); err != nil {
			return err
		}
		if err := s.treasuryEngine(repos).PostPurchaseReturn(ctx, ret, actorID, at); err != nil {
			return err
		}

		if err := ret.MarkPosted(actorID, at); err != nil {
			return err
		}
		if err := repos.PurchaseReturns().Save(ctx, ret); err != nil {
			return fmt.Errorf("save return: %w", err)
		}

		if err := s.treasuryEngine(repos).RecalculatePartnerBalance(ctx, ret.SupplierID); err != nil {
			return err
		}

		s.logger.Info("posted purchase return",
			zap.String("return_id", returnID.String()),
			zap.String("actor_id", actorID.String()))
		return nil
	})
}

// PostStockAdjustment posts a draft adjustment. Stock only; no money leg.
func (s *Service) PostStockAdjustment(ctx context.Context, adjustmentID, actorID uuid.UUID) error {
	at := time.Now()
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		adjustment, err := repos.StockAdjustments().FindByID(ctx, adjustmentID)
		if err != nil {
			return err
		}
		if adjustment.IsPosted() {
			return shared.ErrAlreadyPosted
		}

		if err := s.stockEngine(repos).PostStockAdjustment(ctx, adjustment, actorID, at); err != nil {
			return err
		}

		if err := adjustment.MarkPosted(actorID, at); err != nil {
			return err
		}
		if err := repos.StockAdjustments().Save(ctx, adjustment); err != nil {
			return fmt.Errorf("save adjustment: %w", err)
		}
		return nil
	})
}

// PostWarehouseTransfer posts a draft transfer: a validated paired movement
// per item, both sides in the same transaction.
func (s *Service) PostWarehouseTransfer(ctx context.Context, transferID, actorID uuid.UUID) error {
	at := time.Now()
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		transfer, err := repos.WarehouseTransfers().FindByID(ctx, transferID)
		if err != nil {
			return err
		}
		if transfer.IsPosted() {
			return shared.ErrAlreadyPosted
		}

		if err := s.stockEngine(repos).PostWarehouseTransfer(ctx, transfer, actorID, at); err != nil {
			return err
		}

		if err := transfer.MarkPosted(actorID, at); err != nil {
			return err
		}
		if err := repos.WarehouseTransfers().Save(ctx, transfer); err != nil {
			return fmt.Errorf("save transfer: %w", err)
		}
		return nil
	})
}

// PostFixedAssetPurchase posts a draft fixed asset: the funding leg per its
// funding source, then the status flip.
func (s *Service) PostFixedAssetPurchase(ctx context.Context, assetID, actorID uuid.UUID) error {
	at := time.Now()
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		asset, err := repos.FixedAssets().FindByID(ctx, assetID)
		if err != nil {
			return err
		}
		if asset.IsPosted() {
			return shared.ErrAlreadyPosted
		}
		if err := asset.Validate(); err != nil {
			return err
		}

		if err := s.treasuryEngine(repos).PostFixedAsset(ctx, asset, actorID, at); err != nil {
			return err
		}

		if err := asset.MarkPosted(actorID, at); err != nil {
			return err
		}
		if err := repos.FixedAssets().Save(ctx, asset); err != nil {
			return fmt.Errorf("save asset: %w", err)
		}
		return nil
	})
}

// RecordInvoicePayment applies a payment to a posted sales invoice: caps it
// at the remaining amount (overpayment is a warning, never an error),
// updates the whitelisted payment fields, books the collection, forwards to
// the installment schedule when one exists, and refreshes the customer's
// cached balance.
func (s *Service) RecordInvoicePayment(ctx context.Context, invoiceID uuid.UUID, treasuryID *uuid.UUID, amount decimal.Decimal, actorID uuid.UUID) (*finance.InvoicePayment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	at := time.Now()
	var payment *finance.InvoicePayment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.SalesInvoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if !invoice.IsPosted() {
			return shared.NewDomainError("NOT_POSTED", "Payments can only be recorded on posted invoices")
		}

		applied := amount
		if applied.GreaterThan(invoice.RemainingAmount) {
			s.logger.Warn("payment exceeds invoice remaining, excess capped",
				zap.String("invoice_id", invoiceID.String()),
				zap.String("payment", amount.String()),
				zap.String("remaining", invoice.RemainingAmount.String()))
			applied = invoice.RemainingAmount
		}
		if applied.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("ALREADY_PAID", "Invoice has no remaining balance")
		}

		tEngine := s.treasuryEngine(repos)
		treasuryAccount, err := tEngine.ResolveTreasury(ctx, treasuryID)
		if err != nil {
			return err
		}

		payment, err = finance.NewInvoicePayment(invoice.ID, treasuryAccount.ID, applied, actorID, at)
		if err != nil {
			return err
		}
		if err := repos.InvoicePayments().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		ref, err := ledger.NewDocumentRef(ledger.DocumentKindInvoicePayment, payment.ID)
		if err != nil {
			return err
		}
		tx, err := ledger.NewCollection(treasuryAccount.ID, applied, ref)
		if err != nil {
			return err
		}
		tx.PartnerID = &invoice.CustomerID
		tx.WithCreatedBy(actorID).WithOccurredAt(at).WithDescription(fmt.Sprintf("Payment on invoice %s", invoice.InvoiceNumber))
		if err := repos.TreasuryTransactions().Create(ctx, tx); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}

		if err := invoice.ApplyPayment(applied); err != nil {
			return err
		}
		if err := repos.SalesInvoices().Save(ctx, invoice); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		scheduled, err := repos.Installments().CountByInvoice(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("count installments: %w", err)
		}
		if scheduled > 0 {
			if _, err := s.installmentEngine(repos).ApplyPayment(ctx, invoice.ID, applied, actorID, payment.ID, at); err != nil {
				return err
			}
		}

		return tEngine.RecalculatePartnerBalance(ctx, invoice.CustomerID)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// GenerateInstallmentSchedule creates an installment schedule on a posted
// invoice inside one transaction.
func (s *Service) GenerateInstallmentSchedule(ctx context.Context, invoiceID uuid.UUID, count int, startDate time.Time) ([]*finance.Installment, error) {
	var schedule []*finance.Installment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		schedule, err = s.installmentEngine(repos).GenerateSchedule(ctx, invoiceID, count, startDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// UpdateOverdueInstallments persists the overdue transition on every pending
// installment past its due date. Intended for a cron trigger.
func (s *Service) UpdateOverdueInstallments(ctx context.Context, now time.Time) (int, error) {
	var flipped int
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		flipped, err = s.installmentEngine(repos).MarkOverdue(ctx, now)
		return err
	})
	return flipped, err
}

// RecordFinancialTransaction books a manual settlement of partner debt.
func (s *Service) RecordFinancialTransaction(ctx context.Context, kind treasury.SettlementKind, treasuryID *uuid.UUID, partnerID uuid.UUID, amount, discount decimal.Decimal, description string, actorID uuid.UUID) (*ledger.TreasuryTransaction, error) {
	var tx *ledger.TreasuryTransaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = s.treasuryEngine(repos).RecordFinancialTransaction(ctx, kind, treasuryID, partnerID, amount, discount, description, actorID, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// RecordExpense books a standalone expense against one treasury.
func (s *Service) RecordExpense(ctx context.Context, treasuryID *uuid.UUID, amount decimal.Decimal, description string, actorID uuid.UUID) (*ledger.TreasuryTransaction, error) {
	var tx *ledger.TreasuryTransaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = s.treasuryEngine(repos).RecordExpense(ctx, treasuryID, amount, description, actorID, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// RecordRevenue books a standalone income entry against one treasury.
func (s *Service) RecordRevenue(ctx context.Context, treasuryID *uuid.UUID, amount decimal.Decimal, description string, actorID uuid.UUID) (*ledger.TreasuryTransaction, error) {
	var tx *ledger.TreasuryTransaction
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = s.treasuryEngine(repos).RecordRevenue(ctx, treasuryID, amount, description, actorID, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateInitialPeriod opens equity period #1.
func (s *Service) CreateInitialPeriod(ctx context.Context, startDate time.Time) (*finance.EquityPeriod, error) {
	var period *finance.EquityPeriod
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		period, err = s.equityEngine(repos).CreateInitialPeriod(ctx, startDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// InjectCapital increases a shareholder's capital and recalculates all
// equity percentages.
func (s *Service) InjectCapital(ctx context.Context, partnerID uuid.UUID, treasuryID *uuid.UUID, amount decimal.Decimal, actorID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return s.equityEngine(repos).InjectCapital(ctx, partnerID, treasuryID, amount, actorID, time.Now())
	})
}

// RecordDrawing decreases a shareholder's capital through a treasury payout.
func (s *Service) RecordDrawing(ctx context.Context, partnerID, treasuryID uuid.UUID, amount decimal.Decimal, reason string, actorID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return s.equityEngine(repos).RecordDrawing(ctx, partnerID, treasuryID, amount, reason, actorID, time.Now())
	})
}

// ClosePeriodAndAllocate closes the open period, allocates profit and opens
// the next period, all atomically.
func (s *Service) ClosePeriodAndAllocate(ctx context.Context, endTime time.Time, notes string, closedBy uuid.UUID) (*finance.EquityPeriod, error) {
	var next *finance.EquityPeriod
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		next, err = s.equityEngine(repos).ClosePeriodAndAllocate(ctx, endTime, notes, closedBy)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// GetFinancialSummary returns the live or snapshotted summary of a period.
func (s *Service) GetFinancialSummary(ctx context.Context, periodID uuid.UUID) (equity.FinancialSummary, error) {
	engine := equity.NewEngine(
		s.reads.Partners(),
		s.reads.TreasuryTransactions(),
		s.reads.EquityPeriods(),
		s.reads.Treasuries(),
		s.reads.SalesInvoices(),
		s.reads.PurchaseInvoices(),
		s.logger,
	)
	return engine.GetFinancialSummary(ctx, periodID, time.Now())
}

// GetCurrentStock returns the live stock for a (warehouse, product) pair.
func (s *Service) GetCurrentStock(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	return s.reads.StockMovements().SumQuantity(ctx, warehouseID, productID)
}

// GetTreasuryBalance returns the live balance of one treasury.
func (s *Service) GetTreasuryBalance(ctx context.Context, treasuryID uuid.UUID) (decimal.Decimal, error) {
	return s.readTreasuryEngine().GetTreasuryBalance(ctx, treasuryID)
}

// GetPartnerBalance derives a partner's balance from the ledger.
func (s *Service) GetPartnerBalance(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	return s.readTreasuryEngine().GetPartnerBalance(ctx, partnerID)
}

// RecalculatePartnerBalance refreshes the cached partner balance.
func (s *Service) RecalculatePartnerBalance(ctx context.Context, partnerID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		return s.treasuryEngine(repos).RecalculatePartnerBalance(ctx, partnerID)
	})
}

func (s *Service) readTreasuryEngine() *treasury.Engine {
	return treasury.NewEngine(
		s.reads.Treasuries(),
		s.reads.Partners(),
		s.reads.TreasuryTransactions(),
		s.reads.SalesInvoices(),
		s.reads.PurchaseInvoices(),
		s.reads.SalesReturns(),
		s.reads.PurchaseReturns(),
		s.defaults,
		s.logger,
	)
}
