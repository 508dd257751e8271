package posting

import (
	"context"
	"fmt"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Deletion never touches posted documents or anything with dependent ledger
// rows. Those states are corrected with compensating returns or adjustments,
// not deletes.

func ensureNoLedgerRows(ctx context.Context, repos TransactionalRepositories, ref ledger.DocumentRef) error {
	movements, err := repos.StockMovements().CountByReference(ctx, ref)
	if err != nil {
		return fmt.Errorf("count movements: %w", err)
	}
	transactions, err := repos.TreasuryTransactions().CountByReference(ctx, ref)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if movements > 0 || transactions > 0 {
		return shared.ErrHasLedgerEntries
	}
	return nil
}

// DeleteSalesInvoice removes a draft sales invoice with no ledger rows,
// payments or installment schedule.
func (s *Service) DeleteSalesInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.SalesInvoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IsPosted() {
			return shared.NewDomainError("POSTED_DOCUMENT", "Posted invoices cannot be deleted; use a return instead")
		}
		ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesInvoice, invoice.ID)
		if err != nil {
			return err
		}
		if err := ensureNoLedgerRows(ctx, repos, ref); err != nil {
			return err
		}
		payments, err := repos.InvoicePayments().CountByInvoice(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("count payments: %w", err)
		}
		installments, err := repos.Installments().CountByInvoice(ctx, invoice.ID)
		if err != nil {
			return fmt.Errorf("count installments: %w", err)
		}
		if payments > 0 || installments > 0 {
			return shared.ErrHasLedgerEntries
		}
		return repos.SalesInvoices().Delete(ctx, invoiceID)
	})
}

// DeletePurchaseInvoice removes a draft purchase invoice with no ledger rows.
func (s *Service) DeletePurchaseInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.PurchaseInvoices().FindByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.IsPosted() {
			return shared.NewDomainError("POSTED_DOCUMENT", "Posted invoices cannot be deleted; use a return instead")
		}
		ref, err := ledger.NewDocumentRef(ledger.DocumentKindPurchaseInvoice, invoice.ID)
		if err != nil {
			return err
		}
		if err := ensureNoLedgerRows(ctx, repos, ref); err != nil {
			return err
		}
		return repos.PurchaseInvoices().Delete(ctx, invoiceID)
	})
}

// DeleteSalesReturn removes a draft sales return with no ledger rows.
func (s *Service) DeleteSalesReturn(ctx context.Context, returnID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ret, err := repos.SalesReturns().FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.IsPosted() {
			return shared.NewDomainError("POSTED_DOCUMENT", "Posted returns cannot be deleted")
		}
		ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesReturn, ret.ID)
		if err != nil {
			return err
		}
		if err := ensureNoLedgerRows(ctx, repos, ref); err != nil {
			return err
		}
		return repos.SalesReturns().Delete(ctx, returnID)
	})
}

// DeletePurchaseReturn removes a draft purchase return with no ledger rows.
func (s *Service) DeletePurchaseReturn(ctx context.Context, returnID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ret, err := repos.PurchaseReturns().FindByID(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.IsPosted() {
			return shared.NewDomainError("POSTED_DOCUMENT", "Posted returns cannot be deleted")
		}
		ref, err := ledger.NewDocumentRef(ledger.DocumentKindPurchaseReturn, ret.ID)
		if err != nil {
			return err
		}
		if err := ensureNoLedgerRows(ctx, repos, ref); err != nil {
			return err
		}
		return repos.PurchaseReturns().Delete(ctx, returnID)
	})
}

// DeleteStockAdjustment removes a draft adjustment with no ledger rows.
func (s *Service) DeleteStockAdjustment(ctx context.Context, adjustmentID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		adjustment, err := repos.StockAdjustments().FindByID(ctx, adjustmentID)
		if err != nil {
			return err
		}
		if adjustment.IsPosted() {
			return shared.NewDomainError("POSTED_DOCUMENT", "Posted adjustments cannot be deleted")
		}
		ref, err := ledger.NewDocumentRef(ledger.DocumentKindStockAdjustment, adjustment.ID)
		if err != nil {
			return err
		}
		if err := ensureNoLedgerRows(ctx, repos, ref); err != nil {
			return err
		}
		return repos.StockAdjustments().Delete(ctx, adjustmentID)
	})
}

// DeleteWarehouseTransfer removes a draft transfer with no ledger rows.
func (s *Service) DeleteWarehouseTransfer(ctx context.Context, transferID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		transfer, err := repos.WarehouseTransfers().FindByID(ctx, transferID)
		if err != nil {
			return err
		}
		if transfer.IsPosted() {
			return shared.NewDomainError("POSTED_DOCUMENT", "Posted transfers cannot be deleted")
		}
		ref, err := ledger.NewDocumentRef(ledger.DocumentKindWarehouseTransfer, transfer.ID)
		if err != nil {
			return err
		}
		if err := ensureNoLedgerRows(ctx, repos, ref); err != nil {
			return err
		}
		return repos.WarehouseTransfers().Delete(ctx, transferID)
	})
}

// DeleteFixedAsset removes a draft fixed asset with no ledger rows.
func (s *Service) DeleteFixedAsset(ctx context.Context, assetID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		asset, err := repos.FixedAssets().FindByID(ctx, assetID)
		if err != nil {
			return err
		}
		if asset.IsPosted() {
			return shared.NewDomainError("POSTED_DOCUMENT", "Posted assets cannot be deleted")
		}
		ref, err := ledger.NewDocumentRef(ledger.DocumentKindFixedAsset, asset.ID)
		if err != nil {
			return err
		}
		if err := ensureNoLedgerRows(ctx, repos, ref); err != nil {
			return err
		}
		return repos.FixedAssets().Delete(ctx, assetID)
	})
}
