package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/trade"
	"go.uber.org/zap"
)

func TestSaleCompletedHandler_Handle(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*ledgerFixture, *SaleCompletedHandler) {
		f := newLedgerFixture()
		return f, NewSaleCompletedHandler(f.scope, zap.NewNop())
	}

	t.Run("credit sale appends a sale entry and flags utang", func(t *testing.T) {
		f, handler := setup(t)
		customer := f.addCustomer("Liza", time.Time{})

		sale := completeCreditSale(t, f, handler, customer.ID, "120.00", "20.00")

		latest, err := f.entries.Latest(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.EntryKindSale, latest.Kind)
		assert.Equal(t, "100.00", latest.Amount.StringFixed(2))
		assert.Equal(t, "0.00", latest.PreviousBalance.StringFixed(2))
		assert.Equal(t, "100.00", latest.NewBalance.StringFixed(2))
		require.NotNil(t, latest.ReferenceID)
		assert.Equal(t, sale.ID, *latest.ReferenceID)

		stored, err := f.customers.FindByIDForTenant(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.True(t, stored.HasUtang)
	})

	t.Run("consecutive sales chain balances", func(t *testing.T) {
		f, handler := setup(t)
		customer := f.addCustomer("Liza", time.Time{})

		completeCreditSale(t, f, handler, customer.ID, "50.00", "0")
		completeCreditSale(t, f, handler, customer.ID, "30.00", "0")

		latest, err := f.entries.Latest(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "50.00", latest.PreviousBalance.StringFixed(2))
		assert.Equal(t, "80.00", latest.NewBalance.StringFixed(2))
	})

	t.Run("cash sale without a customer is ignored", func(t *testing.T) {
		f, handler := setup(t)

		sale, err := trade.NewCreditSale(f.tenantID, nil,
			decimal.RequireFromString("99"), decimal.Zero, time.Now(), "")
		require.NoError(t, err)
		require.NoError(t, handler.Handle(ctx, trade.NewSaleCompletedEvent(sale)))

		ids, err := f.entries.CustomerIDs(ctx, f.tenantID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("fully paid sale produces no entry", func(t *testing.T) {
		f, handler := setup(t)
		customer := f.addCustomer("Liza", time.Time{})

		completeCreditSale(t, f, handler, customer.ID, "45.00", "45.00")

		_, err := f.entries.Latest(ctx, f.tenantID, customer.ID)
		assert.Error(t, err)
	})

	t.Run("overpaid sale reduces the balance", func(t *testing.T) {
		f, handler := setup(t)
		customer := f.addCustomer("Liza", time.Time{})

		completeCreditSale(t, f, handler, customer.ID, "100.00", "0")
		// Change handed back as credit: paid more than the total.
		completeCreditSale(t, f, handler, customer.ID, "20.00", "50.00")

		latest, err := f.entries.Latest(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "70.00", latest.NewBalance.StringFixed(2))
		assert.True(t, latest.LeavesUtang())
	})

	t.Run("subscribes to sale completed events", func(t *testing.T) {
		_, handler := setup(t)
		assert.Equal(t, []string{trade.EventTypeSaleCompleted}, handler.EventTypes())
	})
}
