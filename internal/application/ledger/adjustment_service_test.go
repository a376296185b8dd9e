package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/shared"
	"go.uber.org/zap"
)

func TestAdjustmentService_AdjustBalance(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*ledgerFixture, *AdjustmentService, *SaleCompletedHandler) {
		f := newLedgerFixture()
		logger := zap.NewNop()
		return f, NewAdjustmentService(f.scope, logger), NewSaleCompletedHandler(f.scope, logger)
	}

	t.Run("sets the balance to an absolute value", func(t *testing.T) {
		f, service, handler := setup(t)
		customer := f.addCustomer("Pedro", time.Time{})
		completeCreditSale(t, f, handler, customer.ID, "200.00", "0")

		result, err := service.AdjustBalance(ctx, f.tenantID, customer.ID,
			decimal.RequireFromString("75.50"), "counted the notebook by hand")
		require.NoError(t, err)
		assert.Equal(t, "75.50", result.NewBalance)

		latest, err := f.entries.Latest(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.EntryKindBalanceUpdate, latest.Kind)
		assert.Equal(t, "200.00", latest.PreviousBalance.StringFixed(2))
		assert.Equal(t, "75.50", latest.Amount.StringFixed(2))
		assert.Equal(t, "counted the notebook by hand", latest.Description)
	})

	t.Run("adjusting to zero clears the utang flag", func(t *testing.T) {
		f, service, handler := setup(t)
		customer := f.addCustomer("Pedro", time.Time{})
		completeCreditSale(t, f, handler, customer.ID, "200.00", "0")

		_, err := service.AdjustBalance(ctx, f.tenantID, customer.ID, decimal.Zero, "settled offline")
		require.NoError(t, err)

		stored, err := f.customers.FindByIDForTenant(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.False(t, stored.HasUtang)
	})

	t.Run("rejects a no-op adjustment", func(t *testing.T) {
		f, service, handler := setup(t)
		customer := f.addCustomer("Pedro", time.Time{})
		completeCreditSale(t, f, handler, customer.ID, "200.00", "0")

		_, err := service.AdjustBalance(ctx, f.tenantID, customer.ID,
			decimal.RequireFromString("200"), "no change")
		assert.ErrorIs(t, err, shared.ErrNoChange)
	})

	t.Run("rejects a negative target balance", func(t *testing.T) {
		f, service, _ := setup(t)
		customer := f.addCustomer("Pedro", time.Time{})

		_, err := service.AdjustBalance(ctx, f.tenantID, customer.ID,
			decimal.RequireFromString("-1"), "")
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("works on an empty ledger", func(t *testing.T) {
		f, service, _ := setup(t)
		customer := f.addCustomer("Pedro", time.Time{})

		result, err := service.AdjustBalance(ctx, f.tenantID, customer.ID,
			decimal.RequireFromString("40"), "migrated paper notebook")
		require.NoError(t, err)
		assert.Equal(t, "40.00", result.NewBalance)

		stored, err := f.customers.FindByIDForTenant(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.True(t, stored.HasUtang)
	})
}
