package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingInstallment(t *testing.T, amount int64, dueDate time.Time) *Installment {
	t.Helper()
	inst, err := NewInstallment(uuid.New(), 1, decimal.NewFromInt(amount), dueDate)
	require.NoError(t, err)
	return inst
}

func TestNewInstallment_Validation(t *testing.T) {
	due := time.Now().AddDate(0, 1, 0)

	_, err := NewInstallment(uuid.Nil, 1, decimal.NewFromInt(100), due)
	assert.Error(t, err)

	_, err = NewInstallment(uuid.New(), 0, decimal.NewFromInt(100), due)
	assert.Error(t, err)

	_, err = NewInstallment(uuid.New(), 1, decimal.Zero, due)
	assert.Error(t, err)
}

func TestInstallment_EffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("pending before due date", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 0, 1))
		assert.Equal(t, InstallmentStatusPending, inst.EffectiveStatus(now))
	})

	t.Run("due today is not overdue", func(t *testing.T) {
		inst := pendingInstallment(t, 100, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, InstallmentStatusPending, inst.EffectiveStatus(now))
	})

	t.Run("past due reads as overdue without a write", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 0, -1))
		assert.Equal(t, InstallmentStatusOverdue, inst.EffectiveStatus(now))
		assert.Equal(t, InstallmentStatusPending, inst.Status)
	})

	t.Run("paid never reads as overdue", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 0, -5))
		_, err := inst.ApplyPayment(decimal.NewFromInt(100), uuid.New(), uuid.New(), now)
		require.NoError(t, err)
		assert.Equal(t, InstallmentStatusPaid, inst.EffectiveStatus(now))
	})
}

func TestInstallment_ApplyPayment(t *testing.T) {
	now := time.Now()
	paidBy := uuid.New()
	paymentID := uuid.New()

	t.Run("partial payment", func(t *testing.T) {
		inst := pendingInstallment(t, 300, now.AddDate(0, 1, 0))

		applied, err := inst.ApplyPayment(decimal.NewFromInt(100), paidBy, paymentID, now)
		require.NoError(t, err)
		assert.True(t, applied.Equal(decimal.NewFromInt(100)))
		assert.True(t, inst.Remaining().Equal(decimal.NewFromInt(200)))
		assert.Equal(t, InstallmentStatusPending, inst.Status)
		assert.Nil(t, inst.PaidAt)
	})

	t.Run("payment capped at remaining", func(t *testing.T) {
		inst := pendingInstallment(t, 300, now.AddDate(0, 1, 0))

		applied, err := inst.ApplyPayment(decimal.NewFromInt(500), paidBy, paymentID, now)
		require.NoError(t, err)
		assert.True(t, applied.Equal(decimal.NewFromInt(300)))
		assert.True(t, inst.IsSettled())
	})

	t.Run("full payment stamps audit fields", func(t *testing.T) {
		inst := pendingInstallment(t, 300, now.AddDate(0, 1, 0))

		_, err := inst.ApplyPayment(decimal.NewFromInt(300), paidBy, paymentID, now)
		require.NoError(t, err)
		assert.Equal(t, InstallmentStatusPaid, inst.Status)
		require.NotNil(t, inst.PaidAt)
		require.NotNil(t, inst.PaidByID)
		require.NotNil(t, inst.InvoicePaymentID)
		assert.Equal(t, paidBy, *inst.PaidByID)
		assert.Equal(t, paymentID, *inst.InvoicePaymentID)
	})

	t.Run("settled installment consumes nothing", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 1, 0))
		_, err := inst.ApplyPayment(decimal.NewFromInt(100), paidBy, paymentID, now)
		require.NoError(t, err)

		applied, err := inst.ApplyPayment(decimal.NewFromInt(50), paidBy, paymentID, now)
		require.NoError(t, err)
		assert.True(t, applied.IsZero())
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 1, 0))
		_, err := inst.ApplyPayment(decimal.Zero, paidBy, paymentID, now)
		assert.Error(t, err)
	})
}

func TestInstallment_MarkOverdue(t *testing.T) {
	now := time.Now()

	t.Run("pending past due flips", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 0, -2))
		assert.True(t, inst.MarkOverdue(now))
		assert.Equal(t, InstallmentStatusOverdue, inst.Status)
	})

	t.Run("flip is idempotent", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 0, -2))
		require.True(t, inst.MarkOverdue(now))
		assert.False(t, inst.MarkOverdue(now))
	})

	t.Run("not yet due is a no-op", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now.AddDate(0, 0, 2))
		assert.False(t, inst.MarkOverdue(now))
		assert.Equal(t, InstallmentStatusPending, inst.Status)
	})
}

func TestInstallment_CanDelete(t *testing.T) {
	now := time.Now()

	t.Run("unpaid installment deletable", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now)
		assert.NoError(t, inst.CanDelete())
	})

	t.Run("blocked once any payment applied", func(t *testing.T) {
		inst := pendingInstallment(t, 100, now)
		_, err := inst.ApplyPayment(decimal.NewFromInt(1), uuid.New(), uuid.New(), now)
		require.NoError(t, err)

		err = inst.CanDelete()
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "HAS_PAYMENTS", domainErr.Code)
	})
}
