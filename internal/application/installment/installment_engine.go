package installment

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/shared/valueobject"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine generates amortized payment schedules on sales invoices and applies
// payments FIFO across them.
type Engine struct {
	installments  finance.InstallmentRepository
	salesInvoices trade.SalesInvoiceRepository
	logger        *zap.Logger
}

// NewEngine creates an installment engine bound to the given repositories
func NewEngine(installments finance.InstallmentRepository, salesInvoices trade.SalesInvoiceRepository, logger *zap.Logger) *Engine {
	return &Engine{
		installments:  installments,
		salesInvoices: salesInvoices,
		logger:        logger,
	}
}

// GenerateSchedule splits the invoice's remaining amount into count equal
// monthly installments starting at startDate. The split truncates each part
// to 4 decimals and the last installment absorbs the rounding remainder, so
// the parts always sum to the original amount exactly. Due dates advance by
// calendar months, not fixed 30-day steps.
//
// Requires a posted invoice with no existing schedule.
func (e *Engine) GenerateSchedule(ctx context.Context, invoiceID uuid.UUID, count int, startDate time.Time) ([]*finance.Installment, error) {
	if count < 1 {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment count must be at least 1")
	}

	invoice, err := e.salesInvoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsPosted() {
		return nil, shared.NewDomainError("NOT_POSTED", "Installments require a posted invoice")
	}

	existing, err := e.installments.CountByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("count installments: %w", err)
	}
	if existing > 0 {
		return nil, shared.NewDomainError("SCHEDULE_EXISTS", "Invoice already has an installment schedule")
	}

	total, err := valueobject.NewMoney(invoice.RemainingAmount, valueobject.EGP)
	if err != nil {
		return nil, err
	}
	parts, err := total.Split(count)
	if err != nil {
		return nil, err
	}

	installments := make([]*finance.Installment, 0, count)
	for k, part := range parts {
		inst, err := finance.NewInstallment(invoiceID, k+1, part.Amount(), startDate.AddDate(0, k, 0))
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}

	if err := e.installments.CreateBatch(ctx, installments); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	e.logger.Info("generated installment schedule",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("count", count),
		zap.String("total", invoice.RemainingAmount.String()))

	return installments, nil
}

// ApplyPayment distributes a payment FIFO by ascending due date: each
// unpaid installment takes min(its remaining, what is left of the payment).
// An installment is marked paid only when its paid amount reaches its amount
// exactly. When the payment exceeds the sum of all remaining balances the
// excess is capped and logged as a warning - overpayment is not an error,
// and the excess is never forced into an installment beyond its cap.
// Returns the amount actually applied.
func (e *Engine) ApplyPayment(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paidBy uuid.UUID, paymentID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	schedule, err := e.installments.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load schedule: %w", err)
	}

	remaining := amount
	applied := decimal.Zero
	for _, inst := range schedule {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if inst.IsSettled() {
			continue
		}

		portion, err := inst.ApplyPayment(remaining, paidBy, paymentID, at)
		if err != nil {
			return decimal.Zero, err
		}
		if portion.IsZero() {
			continue
		}
		if err := e.installments.Save(ctx, inst); err != nil {
			return decimal.Zero, fmt.Errorf("save installment: %w", err)
		}
		remaining = remaining.Sub(portion)
		applied = applied.Add(portion)
	}

	if remaining.GreaterThan(decimal.Zero) {
		e.logger.Warn("payment exceeds outstanding installments, excess capped",
			zap.String("invoice_id", invoiceID.String()),
			zap.String("payment", amount.String()),
			zap.String("applied", applied.String()),
			zap.String("excess", remaining.String()))
	}

	return applied, nil
}

// MarkOverdue persists the overdue transition on every pending installment
// whose due date has passed. Intended for a batch/cron trigger; the
// read-time EffectiveStatus accessor agrees with it by construction.
// Returns the number of installments flipped.
func (e *Engine) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	due, err := e.installments.FindDuePending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find due installments: %w", err)
	}

	flipped := 0
	for _, inst := range due {
		if !inst.MarkOverdue(now) {
			continue
		}
		if err := e.installments.Save(ctx, inst); err != nil {
			return flipped, fmt.Errorf("save installment: %w", err)
		}
		flipped++
	}

	if flipped > 0 {
		e.logger.Info("marked installments overdue", zap.Int("count", flipped))
	}

	return flipped, nil
}

// DeleteInstallment removes an installment, refused once any payment has
// been applied to it.
func (e *Engine) DeleteInstallment(ctx context.Context, id uuid.UUID) error {
	inst, err := e.installments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := inst.CanDelete(); err != nil {
		return err
	}
	return e.installments.Delete(ctx, id)
}
