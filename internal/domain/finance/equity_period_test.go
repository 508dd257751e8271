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

func openPeriodWithPartner(t *testing.T) (*EquityPeriod, uuid.UUID) {
	t.Helper()
	period, err := NewEquityPeriod(1, time.Now())
	require.NoError(t, err)

	partnerID := uuid.New()
	_, err = period.AddPartnerSnapshot(partnerID, decimal.NewFromInt(100), decimal.NewFromInt(50000))
	require.NoError(t, err)

	return period, partnerID
}

func TestNewEquityPeriod(t *testing.T) {
	t.Run("opens with zeroed summary", func(t *testing.T) {
		period, err := NewEquityPeriod(1, time.Now())
		require.NoError(t, err)
		assert.True(t, period.IsOpen())
		assert.True(t, period.NetProfit.IsZero())
		assert.Nil(t, period.EndDate)
	})

	t.Run("period number below one rejected", func(t *testing.T) {
		_, err := NewEquityPeriod(0, time.Now())
		assert.Error(t, err)
	})
}

func TestEquityPeriod_AddPartnerSnapshot(t *testing.T) {
	t.Run("duplicate partner rejected", func(t *testing.T) {
		period, partnerID := openPeriodWithPartner(t)

		_, err := period.AddPartnerSnapshot(partnerID, decimal.NewFromInt(50), decimal.NewFromInt(1000))
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "DUPLICATE_PARTNER", domainErr.Code)
	})

	t.Run("snapshot values rounded to four decimals", func(t *testing.T) {
		period, err := NewEquityPeriod(1, time.Now())
		require.NoError(t, err)

		row, err := period.AddPartnerSnapshot(uuid.New(),
			decimal.RequireFromString("33.33335"), decimal.RequireFromString("10000.00009"))
		require.NoError(t, err)
		assert.Equal(t, "33.3334", row.EquityPercentage.String())
		assert.Equal(t, "10000.0001", row.CapitalAtStart.String())
	})
}

func TestEquityPeriod_CapitalMovements(t *testing.T) {
	t.Run("injection accumulates and refreshes percentage", func(t *testing.T) {
		period, partnerID := openPeriodWithPartner(t)

		require.NoError(t, period.RecordInjection(partnerID, decimal.NewFromInt(5000), decimal.NewFromInt(60)))
		require.NoError(t, period.RecordInjection(partnerID, decimal.NewFromInt(3000), decimal.NewFromInt(65)))

		row := period.Partners[0]
		assert.True(t, row.CapitalInjected.Equal(decimal.NewFromInt(8000)))
		assert.True(t, row.EquityPercentage.Equal(decimal.NewFromInt(65)))
	})

	t.Run("drawing accumulates without touching percentage", func(t *testing.T) {
		period, partnerID := openPeriodWithPartner(t)

		require.NoError(t, period.RecordDrawing(partnerID, decimal.NewFromInt(2000)))

		row := period.Partners[0]
		assert.True(t, row.DrawingsTaken.Equal(decimal.NewFromInt(2000)))
		assert.True(t, row.EquityPercentage.Equal(decimal.NewFromInt(100)))
	})

	t.Run("injection seeds a row for a partner joining mid-period", func(t *testing.T) {
		period, _ := openPeriodWithPartner(t)
		joiner := uuid.New()

		require.NoError(t, period.RecordInjection(joiner, decimal.NewFromInt(4000), decimal.NewFromInt(40)))

		require.Len(t, period.Partners, 2)
		row := period.Partners[1]
		assert.Equal(t, joiner, row.PartnerID)
		assert.True(t, row.CapitalAtStart.IsZero())
		assert.True(t, row.CapitalInjected.Equal(decimal.NewFromInt(4000)))
		assert.True(t, row.EquityPercentage.Equal(decimal.NewFromInt(40)))
	})

	t.Run("drawing for an unknown partner rejected", func(t *testing.T) {
		period, _ := openPeriodWithPartner(t)
		err := period.RecordDrawing(uuid.New(), decimal.NewFromInt(100))
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestEquityPeriod_Close(t *testing.T) {
	closedBy := uuid.New()
	at := time.Now()

	t.Run("close snapshots the summary", func(t *testing.T) {
		period, _ := openPeriodWithPartner(t)

		err := period.Close(decimal.NewFromInt(9000), decimal.NewFromInt(6000),
			decimal.NewFromInt(3000), closedBy, at, "Q1 close")
		require.NoError(t, err)

		assert.False(t, period.IsOpen())
		assert.True(t, period.TotalRevenue.Equal(decimal.NewFromInt(9000)))
		assert.True(t, period.TotalExpense.Equal(decimal.NewFromInt(6000)))
		assert.True(t, period.NetProfit.Equal(decimal.NewFromInt(3000)))
		require.NotNil(t, period.ClosedAt)
		require.NotNil(t, period.ClosedByID)
		assert.Equal(t, closedBy, *period.ClosedByID)
		assert.Equal(t, "Q1 close", period.Notes)
	})

	t.Run("double close rejected", func(t *testing.T) {
		period, _ := openPeriodWithPartner(t)
		require.NoError(t, period.Close(decimal.Zero, decimal.Zero, decimal.Zero, closedBy, at, ""))

		err := period.Close(decimal.Zero, decimal.Zero, decimal.Zero, closedBy, at, "")
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "PERIOD_CLOSED", domainErr.Code)
	})

	t.Run("closed period rejects movements", func(t *testing.T) {
		period, partnerID := openPeriodWithPartner(t)
		require.NoError(t, period.Close(decimal.Zero, decimal.Zero, decimal.Zero, closedBy, at, ""))

		assert.Error(t, period.RecordInjection(partnerID, decimal.NewFromInt(100), decimal.NewFromInt(100)))
		assert.Error(t, period.RecordDrawing(partnerID, decimal.NewFromInt(100)))
		_, err := period.AddPartnerSnapshot(uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(1000))
		assert.Error(t, err)
	})

	t.Run("allocation stamps stay writable after close", func(t *testing.T) {
		// ClosePeriodAndAllocate records allocations before flipping status,
		// but RecordAllocation itself carries no open-period guard.
		period, partnerID := openPeriodWithPartner(t)
		require.NoError(t, period.RecordAllocation(partnerID, decimal.NewFromInt(3000)))
		assert.True(t, period.Partners[0].ProfitAllocated.Equal(decimal.NewFromInt(3000)))
	})
}
