package posting_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/bizledger/backend/internal/application/treasury"
	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/partner"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/domain/trade"
	"github.com/bizledger/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv wires the posting service to an in-memory sqlite database with the
// real GORM repositories and transaction scope.
type testEnv struct {
	db       *gorm.DB
	service  *posting.Service
	reads    *persistence.Repositories
	treasury *partner.Treasury
	actorID  uuid.UUID
	seq      int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&catalog.Product{},
		&partner.Partner{},
		&partner.Treasury{},
		&partner.Warehouse{},
		&ledger.StockMovement{},
		&ledger.TreasuryTransaction{},
		&trade.SalesInvoice{},
		&trade.SalesInvoiceItem{},
		&trade.PurchaseInvoice{},
		&trade.PurchaseInvoiceItem{},
		&trade.SalesReturn{},
		&trade.SalesReturnItem{},
		&trade.PurchaseReturn{},
		&trade.PurchaseReturnItem{},
		&trade.StockAdjustment{},
		&trade.WarehouseTransfer{},
		&trade.WarehouseTransferItem{},
		&trade.FixedAsset{},
		&finance.Installment{},
		&finance.InvoicePayment{},
		&finance.EquityPeriod{},
		&finance.EquityPeriodPartner{},
	))

	reads := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)
	service := posting.NewService(scope, reads,
		treasury.DefaultTreasuryConfig{Name: "Main Cash Treasury", AutoCreate: true},
		zap.NewNop())

	treasuryAccount, err := partner.NewTreasury("Main Cash Treasury", partner.TreasuryTypeCash)
	require.NoError(t, err)
	treasuryAccount.MarkDefault()
	require.NoError(t, reads.Treasuries().Save(context.Background(), treasuryAccount))

	return &testEnv{
		db:       db,
		service:  service,
		reads:    reads,
		treasury: treasuryAccount,
		actorID:  uuid.New(),
	}
}

func (env *testEnv) nextNumber(prefix string) string {
	env.seq++
	return fmt.Sprintf("%s-%04d", prefix, env.seq)
}

func (env *testEnv) createPartner(t *testing.T, name string, partnerType partner.PartnerType) *partner.Partner {
	t.Helper()
	p, err := partner.NewPartner(name, partnerType)
	require.NoError(t, err)
	require.NoError(t, env.reads.Partners().Save(context.Background(), p))
	return p
}

func (env *testEnv) createWarehouse(t *testing.T, name string) *partner.Warehouse {
	t.Helper()
	w, err := partner.NewWarehouse(name, "")
	require.NoError(t, err)
	require.NoError(t, env.reads.Warehouses().Save(context.Background(), w))
	return w
}

func (env *testEnv) createProduct(t *testing.T, name string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, env.nextNumber("PRD"), "piece")
	require.NoError(t, err)
	require.NoError(t, env.reads.Products().Save(context.Background(), p))
	return p
}

// seedStock posts a purchase invoice for one product line and returns the
// posted invoice.
func (env *testEnv) seedStock(t *testing.T, supplierID, warehouseID uuid.UUID, product *catalog.Product, qty, unitCost int64, method trade.PaymentMethod) *trade.PurchaseInvoice {
	t.Helper()
	ctx := context.Background()

	inv, err := trade.NewPurchaseInvoice(env.nextNumber("PUR"), supplierID, warehouseID, method)
	require.NoError(t, err)
	_, err = inv.AddItem(product.ID, product.Name, decimal.NewFromInt(qty),
		catalog.UnitTypeSmall, decimal.NewFromInt(unitCost), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, env.reads.PurchaseInvoices().Save(ctx, inv))
	require.NoError(t, env.service.PostPurchaseInvoice(ctx, inv.ID, env.actorID))

	return inv
}

func (env *testEnv) createSalesInvoice(t *testing.T, customerID, warehouseID uuid.UUID, method trade.PaymentMethod, product *catalog.Product, qty, unitPrice int64) *trade.SalesInvoice {
	t.Helper()
	inv, err := trade.NewSalesInvoice(env.nextNumber("INV"), customerID, warehouseID, method)
	require.NoError(t, err)
	_, err = inv.AddItem(product.ID, product.Name, decimal.NewFromInt(qty),
		catalog.UnitTypeSmall, decimal.NewFromInt(unitPrice), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, env.reads.SalesInvoices().Save(context.Background(), inv))
	return inv
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	return domainErr.Code
}

func TestPostPurchaseInvoice_AverageCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")

	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 40, trade.PaymentMethodCredit)

	stock, err := env.service.GetCurrentStock(ctx, warehouse.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, stock.Equal(decimal.NewFromInt(100)))

	reloaded, err := env.reads.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvgCost.Equal(decimal.NewFromInt(40)))

	// Second purchase at a higher cost moves the weighted average to 50.
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 60, trade.PaymentMethodCredit)

	reloaded, err = env.reads.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvgCost.Equal(decimal.NewFromInt(50)),
		"expected weighted average 50, got %s", reloaded.AvgCost)

	stock, err = env.service.GetCurrentStock(ctx, warehouse.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, stock.Equal(decimal.NewFromInt(200)))
}

func TestPostSalesInvoice_CashCollectsIntoTreasury(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 40, trade.PaymentMethodCredit)

	inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCash, product, 10, 100)
	require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

	posted, err := env.reads.SalesInvoices().FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.DocumentStatusPosted, posted.Status)
	assert.Equal(t, trade.PaymentStatusPaid, posted.PaymentStatus)
	assert.True(t, posted.RemainingAmount.IsZero())

	balance, err := env.service.GetTreasuryBalance(ctx, env.treasury.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)))

	// Cash invoices leave no customer debt.
	customerBalance, err := env.service.GetPartnerBalance(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, customerBalance.IsZero())

	stock, err := env.service.GetCurrentStock(ctx, warehouse.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, stock.Equal(decimal.NewFromInt(90)))

	err = env.service.PostSalesInvoice(ctx, inv.ID, env.actorID)
	assert.True(t, errors.Is(err, shared.ErrAlreadyPosted))
}

func TestPostSalesInvoice_InsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	inStock := env.createProduct(t, "Flour 1kg")
	scarce := env.createProduct(t, "Olive Oil 5l")
	env.seedStock(t, supplier.ID, warehouse.ID, inStock, 100, 40, trade.PaymentMethodCredit)
	env.seedStock(t, supplier.ID, warehouse.ID, scarce, 10, 200, trade.PaymentMethodCredit)

	inv, err := trade.NewSalesInvoice(env.nextNumber("INV"), customer.ID, warehouse.ID, trade.PaymentMethodCash)
	require.NoError(t, err)
	_, err = inv.AddItem(inStock.ID, inStock.Name, decimal.NewFromInt(5),
		catalog.UnitTypeSmall, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	_, err = inv.AddItem(scarce.ID, scarce.Name, decimal.NewFromInt(20),
		catalog.UnitTypeSmall, decimal.NewFromInt(300), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, env.reads.SalesInvoices().Save(ctx, inv))

	err = env.service.PostSalesInvoice(ctx, inv.ID, env.actorID)
	require.Error(t, err)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainCode(t, err))
	assert.True(t, strings.Contains(err.Error(), scarce.Name),
		"error should name the short product: %v", err)

	// The whole post rolled back: the first line's movement is gone too.
	reloaded, err := env.reads.SalesInvoices().FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.DocumentStatusDraft, reloaded.Status)

	ref, err := ledger.NewDocumentRef(ledger.DocumentKindSalesInvoice, inv.ID)
	require.NoError(t, err)
	count, err := env.reads.StockMovements().CountByReference(ctx, ref)
	require.NoError(t, err)
	assert.Zero(t, count)

	stock, err := env.service.GetCurrentStock(ctx, warehouse.ID, inStock.ID)
	require.NoError(t, err)
	assert.True(t, stock.Equal(decimal.NewFromInt(100)))

	balance, err := env.service.GetTreasuryBalance(ctx, env.treasury.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestCreditSales_CustomerBalanceAndReturns(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 40, trade.PaymentMethodCredit)

	t.Run("credit return reduces customer debt", func(t *testing.T) {
		customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
		inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCredit, product, 10, 100)
		require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

		balance, err := env.service.GetPartnerBalance(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(1000)))

		ret, err := trade.NewSalesReturn(env.nextNumber("SRT"), customer.ID, warehouse.ID, trade.PaymentMethodCredit)
		require.NoError(t, err)
		require.NoError(t, ret.LinkInvoice(inv.ID))
		_, err = ret.AddItem(product.ID, product.Name, decimal.NewFromInt(3),
			catalog.UnitTypeSmall, decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, env.reads.SalesReturns().Save(ctx, ret))
		require.NoError(t, env.service.PostSalesReturn(ctx, ret.ID, env.actorID))

		balance, err = env.service.GetPartnerBalance(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(700)))

		// Returned goods go back to stock without validation.
		stock, err := env.service.GetCurrentStock(ctx, warehouse.ID, product.ID)
		require.NoError(t, err)
		assert.True(t, stock.Equal(decimal.NewFromInt(93)))
	})

	t.Run("cash return refunds the treasury, not the debt", func(t *testing.T) {
		customer := env.createPartner(t, "Side Street Market", partner.PartnerTypeCustomer)
		inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCredit, product, 10, 100)
		require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

		before, err := env.service.GetTreasuryBalance(ctx, env.treasury.ID)
		require.NoError(t, err)

		ret, err := trade.NewSalesReturn(env.nextNumber("SRT"), customer.ID, warehouse.ID, trade.PaymentMethodCash)
		require.NoError(t, err)
		require.NoError(t, ret.LinkInvoice(inv.ID))
		_, err = ret.AddItem(product.ID, product.Name, decimal.NewFromInt(3),
			catalog.UnitTypeSmall, decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, env.reads.SalesReturns().Save(ctx, ret))
		require.NoError(t, env.service.PostSalesReturn(ctx, ret.ID, env.actorID))

		balance, err := env.service.GetPartnerBalance(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(1000)),
			"cash refund must not touch the customer's debt")

		after, err := env.service.GetTreasuryBalance(ctx, env.treasury.ID)
		require.NoError(t, err)
		assert.True(t, after.Equal(before.Sub(decimal.NewFromInt(300))))
	})

	t.Run("returns capped at the linked invoice total", func(t *testing.T) {
		customer := env.createPartner(t, "Harbor Grocery", partner.PartnerTypeCustomer)
		inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCredit, product, 5, 100)
		require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

		ret, err := trade.NewSalesReturn(env.nextNumber("SRT"), customer.ID, warehouse.ID, trade.PaymentMethodCredit)
		require.NoError(t, err)
		require.NoError(t, ret.LinkInvoice(inv.ID))
		_, err = ret.AddItem(product.ID, product.Name, decimal.NewFromInt(6),
			catalog.UnitTypeSmall, decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, env.reads.SalesReturns().Save(ctx, ret))

		err = env.service.PostSalesReturn(ctx, ret.ID, env.actorID)
		require.Error(t, err)
		assert.Equal(t, "RETURN_EXCEEDS_INVOICE", domainCode(t, err))
	})
}

func TestSupplierBalanceAndSettlements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")

	// Credit purchase of 800: we owe the supplier.
	env.seedStock(t, supplier.ID, warehouse.ID, product, 80, 10, trade.PaymentMethodCredit)

	balance, err := env.service.GetPartnerBalance(ctx, supplier.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(-800)))

	// Paying 350 of it down, with a 50 discount: net 300 settled.
	_, err = env.service.RecordFinancialTransaction(ctx, treasury.SettlementPayment,
		nil, supplier.ID, decimal.NewFromInt(350), decimal.NewFromInt(50),
		"partial settlement", env.actorID)
	require.NoError(t, err)

	balance, err = env.service.GetPartnerBalance(ctx, supplier.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(-500)),
		"expected -500 after settling net 300, got %s", balance)

	// The cached balance follows the derivation.
	reloaded, err := env.reads.Partners().FindByID(ctx, supplier.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.CurrentBalance.Equal(decimal.NewFromInt(-500)))
}

func TestSettlementCollection_ReducesCustomerDebt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 40, trade.PaymentMethodCredit)

	inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCredit, product, 10, 100)
	require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

	tx, err := env.service.RecordFinancialTransaction(ctx, treasury.SettlementCollection,
		nil, customer.ID, decimal.NewFromInt(300), decimal.NewFromInt(50),
		"cash collection with discount", env.actorID)
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(-250)), "settlement collections store the net negated")

	balance, err := env.service.GetPartnerBalance(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(750)))

	t.Run("unknown settlement kind rejected", func(t *testing.T) {
		_, err := env.service.RecordFinancialTransaction(ctx, treasury.SettlementKind("TRANSFER"),
			nil, customer.ID, decimal.NewFromInt(10), decimal.Zero, "", env.actorID)
		require.Error(t, err)
		assert.Equal(t, "INVALID_SETTLEMENT_KIND", domainCode(t, err))
	})
}

func TestRecordInvoicePayment_InstallmentsFIFO(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 40, trade.PaymentMethodCredit)

	inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCredit, product, 10, 100)
	require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

	startDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	schedule, err := env.service.GenerateInstallmentSchedule(ctx, inv.ID, 3, startDate)
	require.NoError(t, err)
	require.Len(t, schedule, 3)
	assert.Equal(t, "333.3333", schedule[0].Amount.StringFixed(4))
	assert.Equal(t, "333.3333", schedule[1].Amount.StringFixed(4))
	assert.Equal(t, "333.3334", schedule[2].Amount.StringFixed(4))
	assert.Equal(t, startDate.AddDate(0, 2, 0), schedule[2].DueDate)

	t.Run("second schedule rejected", func(t *testing.T) {
		_, err := env.service.GenerateInstallmentSchedule(ctx, inv.ID, 2, startDate)
		require.Error(t, err)
		assert.Equal(t, "SCHEDULE_EXISTS", domainCode(t, err))
	})

	// 400 settles installment #1 in full and part of #2.
	payment, err := env.service.RecordInvoicePayment(ctx, inv.ID, nil, decimal.NewFromInt(400), env.actorID)
	require.NoError(t, err)
	require.NotNil(t, payment)

	installments, err := env.reads.Installments().FindByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, installments, 3)
	assert.Equal(t, finance.InstallmentStatusPaid, installments[0].Status)
	assert.Equal(t, "66.6667", installments[1].PaidAmount.StringFixed(4))
	assert.Equal(t, finance.InstallmentStatusPending, installments[1].Status)
	assert.True(t, installments[2].PaidAmount.IsZero())

	updated, err := env.reads.SalesInvoices().FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.PaymentStatusPartial, updated.PaymentStatus)
	assert.True(t, updated.RemainingAmount.Equal(decimal.NewFromInt(600)))

	balance, err := env.service.GetPartnerBalance(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(600)))

	treasuryBalance, err := env.service.GetTreasuryBalance(ctx, env.treasury.ID)
	require.NoError(t, err)
	assert.True(t, treasuryBalance.Equal(decimal.NewFromInt(400)))

	t.Run("overpayment capped at remaining", func(t *testing.T) {
		capped, err := env.service.RecordInvoicePayment(ctx, inv.ID, nil, decimal.NewFromInt(2000), env.actorID)
		require.NoError(t, err)
		assert.True(t, capped.Amount.Equal(decimal.NewFromInt(600)))

		settled, err := env.reads.SalesInvoices().FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PaymentStatusPaid, settled.PaymentStatus)

		installments, err := env.reads.Installments().FindByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		for _, inst := range installments {
			assert.True(t, inst.IsSettled(), "installment %d should be settled", inst.InstallmentNumber)
		}
	})

	t.Run("settled invoice rejects further payments", func(t *testing.T) {
		_, err := env.service.RecordInvoicePayment(ctx, inv.ID, nil, decimal.NewFromInt(1), env.actorID)
		require.Error(t, err)
		assert.Equal(t, "ALREADY_PAID", domainCode(t, err))
	})
}

func TestGenerateInstallmentSchedule_RequiresPostedInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")

	draft := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCredit, product, 1, 100)

	_, err := env.service.GenerateInstallmentSchedule(ctx, draft.ID, 3, time.Now())
	require.Error(t, err)
	assert.Equal(t, "NOT_POSTED", domainCode(t, err))
}

func TestUpdateOverdueInstallments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 40, trade.PaymentMethodCredit)

	inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCredit, product, 9, 100)
	require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

	// Two of the three due dates are already in the past.
	startDate := time.Now().AddDate(0, -1, -3)
	_, err := env.service.GenerateInstallmentSchedule(ctx, inv.ID, 3, startDate)
	require.NoError(t, err)

	flipped, err := env.service.UpdateOverdueInstallments(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, flipped)

	// Idempotent: a second sweep finds nothing pending past due.
	flipped, err = env.service.UpdateOverdueInstallments(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, flipped)

	installments, err := env.reads.Installments().FindByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.InstallmentStatusOverdue, installments[0].Status)
	assert.Equal(t, finance.InstallmentStatusOverdue, installments[1].Status)
	assert.Equal(t, finance.InstallmentStatusPending, installments[2].Status)
}

func TestStockAdjustmentsAndTransfers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	source := env.createWarehouse(t, "Main Warehouse")
	target := env.createWarehouse(t, "Branch Warehouse")
	product := env.createProduct(t, "Flour 1kg")
	env.seedStock(t, supplier.ID, source.ID, product, 50, 40, trade.PaymentMethodCredit)

	t.Run("negative adjustment validated against stock", func(t *testing.T) {
		adj, err := trade.NewStockAdjustment(env.nextNumber("ADJ"), source.ID, product.ID,
			decimal.NewFromInt(-10), "damaged bags")
		require.NoError(t, err)
		require.NoError(t, env.reads.StockAdjustments().Save(ctx, adj))
		require.NoError(t, env.service.PostStockAdjustment(ctx, adj.ID, env.actorID))

		stock, err := env.service.GetCurrentStock(ctx, source.ID, product.ID)
		require.NoError(t, err)
		assert.True(t, stock.Equal(decimal.NewFromInt(40)))

		over, err := trade.NewStockAdjustment(env.nextNumber("ADJ"), source.ID, product.ID,
			decimal.NewFromInt(-100), "stocktake")
		require.NoError(t, err)
		require.NoError(t, env.reads.StockAdjustments().Save(ctx, over))

		err = env.service.PostStockAdjustment(ctx, over.ID, env.actorID)
		require.Error(t, err)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainCode(t, err))
	})

	t.Run("transfer moves stock between warehouses", func(t *testing.T) {
		transfer, err := trade.NewWarehouseTransfer(env.nextNumber("TRF"), source.ID, target.ID)
		require.NoError(t, err)
		_, err = transfer.AddItem(product.ID, product.Name, decimal.NewFromInt(15))
		require.NoError(t, err)
		require.NoError(t, env.reads.WarehouseTransfers().Save(ctx, transfer))
		require.NoError(t, env.service.PostWarehouseTransfer(ctx, transfer.ID, env.actorID))

		sourceStock, err := env.service.GetCurrentStock(ctx, source.ID, product.ID)
		require.NoError(t, err)
		targetStock, err := env.service.GetCurrentStock(ctx, target.ID, product.ID)
		require.NoError(t, err)
		assert.True(t, sourceStock.Equal(decimal.NewFromInt(25)))
		assert.True(t, targetStock.Equal(decimal.NewFromInt(15)))
	})

	t.Run("transfer beyond source stock fails atomically", func(t *testing.T) {
		transfer, err := trade.NewWarehouseTransfer(env.nextNumber("TRF"), source.ID, target.ID)
		require.NoError(t, err)
		_, err = transfer.AddItem(product.ID, product.Name, decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, env.reads.WarehouseTransfers().Save(ctx, transfer))

		err = env.service.PostWarehouseTransfer(ctx, transfer.ID, env.actorID)
		require.Error(t, err)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainCode(t, err))

		sourceStock, err := env.service.GetCurrentStock(ctx, source.ID, product.ID)
		require.NoError(t, err)
		targetStock, err := env.service.GetCurrentStock(ctx, target.ID, product.ID)
		require.NoError(t, err)
		assert.True(t, sourceStock.Equal(decimal.NewFromInt(25)))
		assert.True(t, targetStock.Equal(decimal.NewFromInt(15)))
	})
}

func TestPurchaseReturn_KeepsAverageCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 40, trade.PaymentMethodCredit)
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 60, trade.PaymentMethodCredit)

	ret, err := trade.NewPurchaseReturn(env.nextNumber("PRT"), supplier.ID, warehouse.ID, trade.PaymentMethodCredit)
	require.NoError(t, err)
	_, err = ret.AddItem(product.ID, product.Name, decimal.NewFromInt(50),
		catalog.UnitTypeSmall, decimal.NewFromInt(60))
	require.NoError(t, err)
	require.NoError(t, env.reads.PurchaseReturns().Save(ctx, ret))
	require.NoError(t, env.service.PostPurchaseReturn(ctx, ret.ID, env.actorID))

	stock, err := env.service.GetCurrentStock(ctx, warehouse.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, stock.Equal(decimal.NewFromInt(150)))

	// The average cost reflects purchase history only; the return leaves it.
	reloaded, err := env.reads.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AvgCost.Equal(decimal.NewFromInt(50)))
}

func TestEquityLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shareholderA := env.createPartner(t, "Partner A", partner.PartnerTypeShareholder)
	shareholderB := env.createPartner(t, "Partner B", partner.PartnerTypeShareholder)
	supplier := env.createPartner(t, "Delta Supplies", partner.PartnerTypeSupplier)
	customer := env.createPartner(t, "Corner Shop", partner.PartnerTypeCustomer)
	warehouse := env.createWarehouse(t, "Main Warehouse")
	product := env.createProduct(t, "Flour 1kg")

	periodStart := time.Now().Add(-time.Hour)
	period, err := env.service.CreateInitialPeriod(ctx, periodStart)
	require.NoError(t, err)
	assert.Equal(t, 1, period.PeriodNumber)

	t.Run("second initial period rejected", func(t *testing.T) {
		_, err := env.service.CreateInitialPeriod(ctx, periodStart)
		require.Error(t, err)
		assert.Equal(t, "PERIOD_EXISTS", domainCode(t, err))
	})

	// Capital injections set the 60/40 ownership.
	treasuryID := env.treasury.ID
	require.NoError(t, env.service.InjectCapital(ctx, shareholderA.ID, &treasuryID, decimal.NewFromInt(6000), env.actorID))
	require.NoError(t, env.service.InjectCapital(ctx, shareholderB.ID, &treasuryID, decimal.NewFromInt(4000), env.actorID))

	a, err := env.reads.Partners().FindByID(ctx, shareholderA.ID)
	require.NoError(t, err)
	b, err := env.reads.Partners().FindByID(ctx, shareholderB.ID)
	require.NoError(t, err)
	assert.True(t, a.EquityPercentage.Equal(decimal.NewFromInt(60)))
	assert.True(t, b.EquityPercentage.Equal(decimal.NewFromInt(40)))

	treasuryBalance, err := env.service.GetTreasuryBalance(ctx, treasuryID)
	require.NoError(t, err)
	assert.True(t, treasuryBalance.Equal(decimal.NewFromInt(10000)))

	t.Run("capital restricted to shareholders", func(t *testing.T) {
		err := env.service.InjectCapital(ctx, customer.ID, &treasuryID, decimal.NewFromInt(100), env.actorID)
		require.Error(t, err)
		assert.Equal(t, "NOT_SHAREHOLDER", domainCode(t, err))
	})

	// Trade inside the window: 1000 of purchases, 2000 of sales.
	env.seedStock(t, supplier.ID, warehouse.ID, product, 100, 10, trade.PaymentMethodCredit)
	inv := env.createSalesInvoice(t, customer.ID, warehouse.ID, trade.PaymentMethodCash, product, 100, 20)
	require.NoError(t, env.service.PostSalesInvoice(ctx, inv.ID, env.actorID))

	summary, err := env.service.GetFinancialSummary(ctx, period.ID)
	require.NoError(t, err)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(2000)))
	assert.True(t, summary.Expenses.Equal(decimal.NewFromInt(1000)))
	assert.True(t, summary.NetProfit.Equal(decimal.NewFromInt(1000)))

	// A drawing reduces capital without recalculating percentages.
	require.NoError(t, env.service.RecordDrawing(ctx, shareholderA.ID, treasuryID, decimal.NewFromInt(500), "personal", env.actorID))
	a, err = env.reads.Partners().FindByID(ctx, shareholderA.ID)
	require.NoError(t, err)
	assert.True(t, a.Capital.Equal(decimal.NewFromInt(5500)))
	assert.True(t, a.EquityPercentage.Equal(decimal.NewFromInt(60)))

	// Closing allocates the 1000 profit 60/40 and opens period 2.
	next, err := env.service.ClosePeriodAndAllocate(ctx, time.Now().Add(time.Hour), "first close", env.actorID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.PeriodNumber)
	assert.True(t, next.IsOpen())
	require.Len(t, next.Partners, 2)

	a, err = env.reads.Partners().FindByID(ctx, shareholderA.ID)
	require.NoError(t, err)
	b, err = env.reads.Partners().FindByID(ctx, shareholderB.ID)
	require.NoError(t, err)
	assert.True(t, a.Capital.Equal(decimal.NewFromInt(6100)), "5500 + 600 profit share")
	assert.True(t, b.Capital.Equal(decimal.NewFromInt(4400)), "4000 + 400 profit share")

	closed, err := env.reads.EquityPeriods().FindByID(ctx, period.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.True(t, closed.NetProfit.Equal(decimal.NewFromInt(1000)))

	// Closed periods answer from the snapshot.
	snapshot, err := env.service.GetFinancialSummary(ctx, period.ID)
	require.NoError(t, err)
	assert.True(t, snapshot.NetProfit.Equal(decimal.NewFromInt(1000)))

	// Shareholder balance is the sum of every transaction for the partner.
	balance, err := env.service.GetPartnerBalance(ctx, shareholderA.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(6100)), "6000 - 500 + 600")
}

func TestInjectCapital_ShareholderJoinsMidPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	founder := env.createPartner(t, "Partner A", partner.PartnerTypeShareholder)

	_, err := env.service.CreateInitialPeriod(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	treasuryID := env.treasury.ID
	require.NoError(t, env.service.InjectCapital(ctx, founder.ID, &treasuryID, decimal.NewFromInt(6000), env.actorID))

	// The joiner did not exist when the period opened, so it has no snapshot
	// row yet; the first injection must seed one instead of failing.
	joiner := env.createPartner(t, "Partner B", partner.PartnerTypeShareholder)
	require.NoError(t, env.service.InjectCapital(ctx, joiner.ID, &treasuryID, decimal.NewFromInt(4000), env.actorID))

	a, err := env.reads.Partners().FindByID(ctx, founder.ID)
	require.NoError(t, err)
	b, err := env.reads.Partners().FindByID(ctx, joiner.ID)
	require.NoError(t, err)
	assert.True(t, a.EquityPercentage.Equal(decimal.NewFromInt(60)))
	assert.True(t, b.EquityPercentage.Equal(decimal.NewFromInt(40)))

	open, err := env.reads.EquityPeriods().FindOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open.Partners, 2)
	for _, row := range open.Partners {
		if row.PartnerID == joiner.ID {
			assert.True(t, row.CapitalAtStart.IsZero())
			assert.True(t, row.CapitalInjected.Equal(decimal.NewFromInt(4000)))
		}
	}
}

func TestInjectCapital_NonPositiveTotalCapital(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shareholder := env.createPartner(t, "Partner A", partner.PartnerTypeShareholder)

	_, err := env.service.CreateInitialPeriod(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	treasuryID := env.treasury.ID
	require.NoError(t, env.service.InjectCapital(ctx, shareholder.ID, &treasuryID, decimal.NewFromInt(100), env.actorID))

	// Drawings carry no capital floor, so this drives total capital negative.
	require.NoError(t, env.service.RecordDrawing(ctx, shareholder.ID, treasuryID, decimal.NewFromInt(300), "personal", env.actorID))

	err = env.service.InjectCapital(ctx, shareholder.ID, &treasuryID, decimal.NewFromInt(100), env.actorID)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TOTAL_CAPITAL", domainCode(t, err))
	assert.Contains(t, err.Error(), "Total capital must be positive")

	// The failed injection rolled back in full.
	reloaded, err := env.reads.Partners().FindByID(ctx, shareholder.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Capital.Equal(decimal.NewFromInt(-200)))
}

func TestPostFixedAssetPurchase_FundingSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shareholder := env.createPartner(t, "Partner A", partner.PartnerTypeShareholder)
	supplier := env.createPartner(t, "Machinery Co", partner.PartnerTypeSupplier)

	t.Run("treasury funded asset books an expense", func(t *testing.T) {
		asset, err := trade.NewFixedAsset(env.nextNumber("AST"), "Delivery van",
			decimal.NewFromInt(5000), trade.FundingSourceTreasury, time.Now())
		require.NoError(t, err)
		require.NoError(t, asset.SetTreasury(env.treasury.ID))
		require.NoError(t, env.reads.FixedAssets().Save(ctx, asset))
		require.NoError(t, env.service.PostFixedAssetPurchase(ctx, asset.ID, env.actorID))

		balance, err := env.service.GetTreasuryBalance(ctx, env.treasury.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(-5000)))
	})

	t.Run("equity funded asset increases capital without cash", func(t *testing.T) {
		asset, err := trade.NewFixedAsset(env.nextNumber("AST"), "Packing machine",
			decimal.NewFromInt(3000), trade.FundingSourceEquity, time.Now())
		require.NoError(t, err)
		require.NoError(t, asset.SetPartner(shareholder.ID))
		require.NoError(t, env.reads.FixedAssets().Save(ctx, asset))
		require.NoError(t, env.service.PostFixedAssetPurchase(ctx, asset.ID, env.actorID))

		sh, err := env.reads.Partners().FindByID(ctx, shareholder.ID)
		require.NoError(t, err)
		assert.True(t, sh.Capital.Equal(decimal.NewFromInt(3000)))

		ref, err := ledger.NewDocumentRef(ledger.DocumentKindFixedAsset, asset.ID)
		require.NoError(t, err)
		txs, err := env.reads.TreasuryTransactions().FindByReference(ctx, ref)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Nil(t, txs[0].TreasuryID)
	})

	t.Run("payable funded asset creates no ledger entry", func(t *testing.T) {
		asset, err := trade.NewFixedAsset(env.nextNumber("AST"), "Shelving",
			decimal.NewFromInt(1200), trade.FundingSourcePayable, time.Now())
		require.NoError(t, err)
		require.NoError(t, asset.SetPartner(supplier.ID))
		require.NoError(t, env.reads.FixedAssets().Save(ctx, asset))
		require.NoError(t, env.service.PostFixedAssetPurchase(ctx, asset.ID, env.actorID))

		ref, err := ledger.NewDocumentRef(ledger.DocumentKindFixedAsset, asset.ID)
		require.NoError(t, err)
		count, err := env.reads.TreasuryTransactions().CountByReference(ctx, ref)
		require.NoError(t, err)
		assert.Zero(t, count)

		posted, err := env.reads.FixedAssets().FindByID(ctx, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.DocumentStatusPosted, posted.Status)
	})

	t.Run("incomplete funding configuration rejected", func(t *testing.T) {
		asset, err := trade.NewFixedAsset(env.nextNumber("AST"), "Forklift",
			decimal.NewFromInt(9000), trade.FundingSourceEquity, time.Now())
		require.NoError(t, err)
		require.NoError(t, env.reads.FixedAssets().Save(ctx, asset))

		err = env.service.PostFixedAssetPurchase(ctx, asset.ID, env.actorID)
		require.Error(t, err)
		assert.Equal(t, "MISSING_PARTNER", domainCode(t, err))
	})
}

func TestRecordExpenseAndRevenue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.RecordRevenue(ctx, nil, decimal.NewFromInt(900), "scrap sale", env.actorID)
	require.NoError(t, err)
	_, err = env.service.RecordExpense(ctx, nil, decimal.NewFromInt(400), "rent", env.actorID)
	require.NoError(t, err)

	balance, err := env.service.GetTreasuryBalance(ctx, env.treasury.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(500)))

	_, err = env.service.RecordExpense(ctx, nil, decimal.Zero, "noop", env.actorID)
	require.Error(t, err)
	assert.Equal(t, "INVALID_AMOUNT", domainCode(t, err))
}
