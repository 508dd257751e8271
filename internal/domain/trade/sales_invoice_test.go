package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/catalog"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftSalesInvoice(t *testing.T, method PaymentMethod) *SalesInvoice {
	t.Helper()
	inv, err := NewSalesInvoice("INV-001", uuid.New(), uuid.New(), method)
	require.NoError(t, err)
	return inv
}

func TestSalesInvoice_DraftEditing(t *testing.T) {
	t.Run("add item recalculates totals", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCredit)

		_, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(10),
			catalog.UnitTypeSmall, decimal.NewFromInt(25), decimal.Zero)
		require.NoError(t, err)
		_, err = inv.AddItem(uuid.New(), "Sugar 1kg", decimal.NewFromInt(5),
			catalog.UnitTypeSmall, decimal.NewFromInt(30), decimal.NewFromInt(10))
		require.NoError(t, err)

		// 10*25 + (5*30 - 10)
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(390)))
		assert.True(t, inv.RemainingAmount.Equal(decimal.NewFromInt(390)))
	})

	t.Run("remove item recalculates totals", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCredit)
		item, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(10),
			catalog.UnitTypeSmall, decimal.NewFromInt(25), decimal.Zero)
		require.NoError(t, err)
		_, err = inv.AddItem(uuid.New(), "Sugar 1kg", decimal.NewFromInt(2),
			catalog.UnitTypeSmall, decimal.NewFromInt(30), decimal.Zero)
		require.NoError(t, err)

		require.NoError(t, inv.RemoveItem(item.ID))
		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(60)))
		assert.Len(t, inv.Items, 1)
	})

	t.Run("remove unknown item", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCash)
		err := inv.RemoveItem(uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("discount above line amount rejected", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCash)
		_, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(1),
			catalog.UnitTypeSmall, decimal.NewFromInt(10), decimal.NewFromInt(20))
		assert.Error(t, err)
	})
}

func TestSalesInvoice_MarkPosted(t *testing.T) {
	actorID := uuid.New()
	now := time.Now()

	t.Run("empty invoice cannot post", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCash)
		err := inv.MarkPosted(actorID, now)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "EMPTY_DOCUMENT", domainErr.Code)
	})

	t.Run("cash invoice settles in full at post time", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCash)
		_, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(10),
			catalog.UnitTypeSmall, decimal.NewFromInt(100), decimal.Zero)
		require.NoError(t, err)

		require.NoError(t, inv.MarkPosted(actorID, now))

		assert.Equal(t, DocumentStatusPosted, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, inv.RemainingAmount.IsZero())
		assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
		require.NotNil(t, inv.PostedAt)
		require.NotNil(t, inv.PostedByID)
		assert.Equal(t, actorID, *inv.PostedByID)
	})

	t.Run("credit invoice starts fully outstanding", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCredit)
		_, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(10),
			catalog.UnitTypeSmall, decimal.NewFromInt(100), decimal.Zero)
		require.NoError(t, err)

		require.NoError(t, inv.MarkPosted(actorID, now))

		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.RemainingAmount.Equal(decimal.NewFromInt(1000)))
		assert.Equal(t, PaymentStatusUnpaid, inv.PaymentStatus)
	})

	t.Run("posting is one-way", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCash)
		_, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(1),
			catalog.UnitTypeSmall, decimal.NewFromInt(100), decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, inv.MarkPosted(actorID, now))

		err = inv.MarkPosted(actorID, now)
		assert.True(t, errors.Is(err, shared.ErrAlreadyPosted))
	})

	t.Run("posted invoice rejects item edits", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCash)
		item, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(1),
			catalog.UnitTypeSmall, decimal.NewFromInt(100), decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, inv.MarkPosted(actorID, now))

		_, err = inv.AddItem(uuid.New(), "Sugar 1kg", decimal.NewFromInt(1),
			catalog.UnitTypeSmall, decimal.NewFromInt(30), decimal.Zero)
		assert.True(t, errors.Is(err, shared.ErrAlreadyPosted))
		assert.True(t, errors.Is(inv.RemoveItem(item.ID), shared.ErrAlreadyPosted))
		assert.True(t, errors.Is(inv.SetTreasury(uuid.New()), shared.ErrAlreadyPosted))
	})
}

func TestSalesInvoice_ApplyPayment(t *testing.T) {
	actorID := uuid.New()

	postedCreditInvoice := func(t *testing.T, total int64) *SalesInvoice {
		t.Helper()
		inv := draftSalesInvoice(t, PaymentMethodCredit)
		_, err := inv.AddItem(uuid.New(), "Flour 1kg", decimal.NewFromInt(1),
			catalog.UnitTypeSmall, decimal.NewFromInt(total), decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, inv.MarkPosted(actorID, time.Now()))
		return inv
	}

	t.Run("draft invoice rejects payments", func(t *testing.T) {
		inv := draftSalesInvoice(t, PaymentMethodCredit)
		err := inv.ApplyPayment(decimal.NewFromInt(100))
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOT_POSTED", domainErr.Code)
	})

	t.Run("partial then full payment", func(t *testing.T) {
		inv := postedCreditInvoice(t, 1000)

		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(400)))
		assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)
		assert.True(t, inv.RemainingAmount.Equal(decimal.NewFromInt(600)))

		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(600)))
		assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
		assert.True(t, inv.RemainingAmount.IsZero())
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("overpayment rejected", func(t *testing.T) {
		inv := postedCreditInvoice(t, 1000)
		err := inv.ApplyPayment(decimal.NewFromInt(1001))
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "OVERPAYMENT", domainErr.Code)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		inv := postedCreditInvoice(t, 1000)
		assert.Error(t, inv.ApplyPayment(decimal.Zero))
		assert.Error(t, inv.ApplyPayment(decimal.NewFromInt(-10)))
	})
}
