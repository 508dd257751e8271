package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine validates and posts the stock side of documents. Every operation
// appends immutable stock movements; current stock is always a live sum and
// the engine never caches it.
//
// The engine does not open transactions itself. The posting service runs
// each Post* call inside one transaction scope together with the treasury
// leg, so a failure anywhere rolls back both.
type Engine struct {
	products  catalog.ProductRepository
	movements ledger.StockMovementRepository
	logger    *zap.Logger
}

// NewEngine creates a stock engine bound to the given repositories
func NewEngine(products catalog.ProductRepository, movements ledger.StockMovementRepository, logger *zap.Logger) *Engine {
	return &Engine{
		products:  products,
		movements: movements,
		logger:    logger,
	}
}

// CurrentStock returns the live stock for a (warehouse, product) pair
func (e *Engine) CurrentStock(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	return e.movements.SumQuantity(ctx, warehouseID, productID)
}

// costPerBaseUnit normalizes a per-selected-unit cost to the base unit
func costPerBaseUnit(product *catalog.Product, unitCost decimal.Decimal, unitType catalog.UnitType) decimal.Decimal {
	if unitType == catalog.UnitTypeLarge && product.HasLargeUnit() {
		return unitCost.Div(decimal.NewFromInt(product.Factor)).Round(4)
	}
	return unitCost
}

// ensureAvailable fails with a named-product error when requested exceeds
// current stock
func (e *Engine) ensureAvailable(ctx context.Context, warehouseID uuid.UUID, product *catalog.Product, requested decimal.Decimal) error {
	current, err := e.movements.SumQuantity(ctx, warehouseID, product.ID)
	if err != nil {
		return fmt.Errorf("query current stock: %w", err)
	}
	if current.LessThan(requested) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for product %s: available %s, requested %s",
				product.Name, current.String(), requested.String()))
	}
	return nil
}

// PostPurchaseInvoice appends one inbound movement per line, recomputes each
// product's weighted average cost from the full purchase history, and applies
// any explicit selling-price overwrites carried by the lines.
func (e *Engine) PostPurchaseInvoice(ctx context.Context, invoice *trade.PurchaseInvoice, actorID uuid.UUID, at time.Time) error {
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindPurchaseInvoice, invoice.ID)
	if err != nil {
		return err
	}

	for i := range invoice.Items {
		item := &invoice.Items[i]
		product, err := e.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", item.ProductID, err)
		}

		baseQty := product.ConvertToBaseUnit(item.Quantity, item.UnitType)
		baseCost := costPerBaseUnit(product, item.UnitCost, item.UnitType)

		movement, err := ledger.NewStockMovement(invoice.WarehouseID, product.ID, ledger.MovementTypePurchase, baseQty, baseCost, ref)
		if err != nil {
			return err
		}
		movement.WithCreatedBy(actorID).WithMovementAt(at)
		if err := e.movements.Create(ctx, movement); err != nil {
			return fmt.Errorf("create purchase movement: %w", err)
		}

		history, err := e.movements.PurchaseHistory(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("load purchase history: %w", err)
		}
		if err := product.UpdateAverageCost(history.AverageCost()); err != nil {
			return err
		}

		if item.NewSellingPrice != nil {
			if err := product.UpdateSellingPrices(*item.NewSellingPrice, product.WholesalePrice); err != nil {
				return err
			}
		}
		if item.NewLargeSellingPrice != nil && product.HasLargeUnit() {
			if err := product.UpdateLargeSellingPrices(*item.NewLargeSellingPrice, product.LargeWholesalePrice); err != nil {
				return err
			}
		}

		if err := e.products.Save(ctx, product); err != nil {
			return fmt.Errorf("save product: %w", err)
		}
	}

	e.logger.Info("posted purchase invoice stock leg",
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int("lines", len(invoice.Items)))

	return nil
}

// PostSalesInvoice validates available stock per line, then appends one
// outbound movement per line at the product's current average cost. Any
// shortfall fails the whole post.
func (e *Engine) PostSalesInvoice(ctx context.Context, invoice *trade.SalesInvoice, actorID uuid.UUID, at time.Time) error {
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesInvoice, invoice.ID)
	if err != nil {
		return err
	}

	for i := range invoice.Items {
		item := &invoice.Items[i]
		product, err := e.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", item.ProductID, err)
		}

		baseQty := product.ConvertToBaseUnit(item.Quantity, item.UnitType)
		if err := e.ensureAvailable(ctx, invoice.WarehouseID, product, baseQty); err != nil {
			return err
		}

		movement, err := ledger.NewStockMovement(invoice.WarehouseID, product.ID, ledger.MovementTypeSale, baseQty.Neg(), product.AvgCost, ref)
		if err != nil {
			return err
		}
		movement.WithCreatedBy(actorID).WithMovementAt(at)
		if err := e.movements.Create(ctx, movement); err != nil {
			return fmt.Errorf("create sale movement: %w", err)
		}
	}

	e.logger.Info("posted sales invoice stock leg",
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int("lines", len(invoice.Items)))

	return nil
}

// PostSalesReturn appends inbound movements for goods a customer gives back.
// Sale returns are never validated against stock: a customer can always
// return goods. Cost is the product's current average cost.
func (e *Engine) PostSalesReturn(ctx context.Context, ret *trade.SalesReturn, actorID uuid.UUID, at time.Time) error {
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesReturn, ret.ID)
	if err != nil {
		return err
	}

	for i := range ret.Items {
		item := &ret.Items[i]
		product, err := e.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", item.ProductID, err)
		}

		baseQty := product.ConvertToBaseUnit(item.Quantity, item.UnitType)
		movement, err := ledger.NewStockMovement(ret.WarehouseID, product.ID, ledger.MovementTypeSaleReturn, baseQty, product.AvgCost, ref)
		if err != nil {
			return err
		}
		movement.WithCreatedBy(actorID).WithMovementAt(at)
		if err := e.movements.Create(ctx, movement); err != nil {
			return fmt.Errorf("create sale return movement: %w", err)
		}
	}

	e.logger.Info("posted sales return stock leg",
		zap.String("return_id", ret.ID.String()),
		zap.Int("lines", len(ret.Items)))

	return nil
}

// PostPurchaseReturn appends outbound movements for goods sent back to a
// supplier. Outbound, so each line is validated against current stock. The
// average cost is deliberately left untouched: it reflects historical
// purchase cost, not remaining-stock cost.
func (e *Engine) PostPurchaseReturn(ctx context.Context, ret *trade.PurchaseReturn, actorID uuid.UUID, at time.Time) error {
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindPurchaseReturn, ret.ID)
	if err != nil {
		return err
	}

	for i := range ret.Items {
		item := &ret.Items[i]
		product, err := e.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", item.ProductID, err)
		}

		baseQty := product.ConvertToBaseUnit(item.Quantity, item.UnitType)
		if err := e.ensureAvailable(ctx, ret.WarehouseID, product, baseQty); err != nil {
			return err
		}

		baseCost := costPerBaseUnit(product, item.UnitPrice, item.UnitType)
		movement, err := ledger.NewStockMovement(ret.WarehouseID, product.ID, ledger.MovementTypePurchaseReturn, baseQty.Neg(), baseCost, ref)
		if err != nil {
			return err
		}
		movement.WithCreatedBy(actorID).WithMovementAt(at)
		if err := e.movements.Create(ctx, movement); err != nil {
			return fmt.Errorf("create purchase return movement: %w", err)
		}
	}

	e.logger.Info("posted purchase return stock leg",
		zap.String("return_id", ret.ID.String()),
		zap.Int("lines", len(ret.Items)))

	return nil
}

// PostStockAdjustment appends a single signed movement. Negative adjustments
// are validated against current stock.
func (e *Engine) PostStockAdjustment(ctx context.Context, adjustment *trade.StockAdjustment, actorID uuid.UUID, at time.Time) error {
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindStockAdjustment, adjustment.ID)
	if err != nil {
		return err
	}

	product, err := e.products.FindByID(ctx, adjustment.ProductID)
	if err != nil {
		return fmt.Errorf("load product %s: %w", adjustment.ProductID, err)
	}

	movementType := ledger.MovementTypeAdjustmentIn
	if adjustment.Quantity.IsNegative() {
		movementType = ledger.MovementTypeAdjustmentOut
		if err := e.ensureAvailable(ctx, adjustment.WarehouseID, product, adjustment.Quantity.Abs()); err != nil {
			return err
		}
	}

	movement, err := ledger.NewStockMovement(adjustment.WarehouseID, product.ID, movementType, adjustment.Quantity, product.AvgCost, ref)
	if err != nil {
		return err
	}
	movement.WithCreatedBy(actorID).WithMovementAt(at)
	if err := e.movements.Create(ctx, movement); err != nil {
		return fmt.Errorf("create adjustment movement: %w", err)
	}

	e.logger.Info("posted stock adjustment",
		zap.String("adjustment_id", adjustment.ID.String()),
		zap.String("quantity", adjustment.Quantity.String()))

	return nil
}

// PostWarehouseTransfer appends a paired outbound/inbound movement per item.
// Stock is validated in the source warehouse; the pair posts atomically with
// the enclosing transaction.
func (e *Engine) PostWarehouseTransfer(ctx context.Context, transfer *trade.WarehouseTransfer, actorID uuid.UUID, at time.Time) error {
	ref, err := ledger.NewDocumentRef(ledger.DocumentKindWarehouseTransfer, transfer.ID)
	if err != nil {
		return err
	}

	for i := range transfer.Items {
		item := &transfer.Items[i]
		product, err := e.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", item.ProductID, err)
		}

		if err := e.ensureAvailable(ctx, transfer.FromWarehouseID, product, item.Quantity); err != nil {
			return err
		}

		out, err := ledger.NewStockMovement(transfer.FromWarehouseID, product.ID, ledger.MovementTypeTransfer, item.Quantity.Neg(), product.AvgCost, ref)
		if err != nil {
			return err
		}
		in, err := ledger.NewStockMovement(transfer.ToWarehouseID, product.ID, ledger.MovementTypeTransfer, item.Quantity, product.AvgCost, ref)
		if err != nil {
			return err
		}
		out.WithCreatedBy(actorID).WithMovementAt(at)
		in.WithCreatedBy(actorID).WithMovementAt(at)

		if err := e.movements.CreateBatch(ctx, []*ledger.StockMovement{out, in}); err != nil {
			return fmt.Errorf("create transfer movements: %w", err)
		}
	}

	e.logger.Info("posted warehouse transfer",
		zap.String("transfer_id", transfer.ID.String()),
		zap.Int("lines", len(transfer.Items)))

	return nil
}
