package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/trade"
	"go.uber.org/zap"
)

func newRebuildService(f *ledgerFixture) *RebuildService {
	return NewRebuildService(f.scope, f.tenants, f.sales, f.payments, f.entries, zap.NewNop())
}

func addSale(t *testing.T, f *ledgerFixture, customerID uuid.UUID, total string, occurredAt time.Time) *trade.CreditSale {
	t.Helper()
	sale, err := trade.NewCreditSale(f.tenantID, &customerID,
		decimal.RequireFromString(total), decimal.Zero, occurredAt, "")
	require.NoError(t, err)
	require.NoError(t, f.sales.Create(context.Background(), sale))
	return sale
}

func addPayment(t *testing.T, f *ledgerFixture, customerID uuid.UUID, amount string, occurredAt time.Time) *trade.PaymentRecord {
	t.Helper()
	payment, err := trade.NewPaymentRecord(f.tenantID, customerID,
		decimal.RequireFromString(amount), occurredAt, "")
	require.NoError(t, err)
	require.NoError(t, f.payments.Create(context.Background(), payment))
	return payment
}

func TestRebuildService_RebuildForTenant(t *testing.T) {
	ctx := context.Background()

	may := time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC)
	june10 := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	july5 := time.Date(2025, 7, 5, 14, 0, 0, 0, time.UTC)
	asOf := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("replays sales, payments and monthly interest", func(t *testing.T) {
		f := newLedgerFixture()
		customer := f.addCustomer("Ben", may)
		addSale(t, f, customer.ID, "100.00", june10)
		addPayment(t, f, customer.ID, "50.00", july5)

		result, err := newRebuildService(f).RebuildForTenant(ctx, f.tenantID, asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, result.CustomersRebuilt)
		assert.Equal(t, 4, result.EntriesCreated)
		assert.Empty(t, result.Failures)

		entries, _, err := f.entries.FindByCustomer(ctx, f.tenantID, customer.ID, ledger.EntryFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 4)

		// newest first: interest(Aug), payment, interest(Jul), sale
		assert.Equal(t, ledger.EntryKindMonthlyInterest, entries[0].Kind)
		assert.Equal(t, "2.75", entries[0].Amount.StringFixed(2))
		assert.Equal(t, "57.75", entries[0].NewBalance.StringFixed(2))

		assert.Equal(t, ledger.EntryKindPayment, entries[1].Kind)
		assert.Equal(t, "55.00", entries[1].NewBalance.StringFixed(2))

		assert.Equal(t, ledger.EntryKindMonthlyInterest, entries[2].Kind)
		assert.Equal(t, "5.00", entries[2].Amount.StringFixed(2))

		assert.Equal(t, ledger.EntryKindSale, entries[3].Kind)
		assert.Equal(t, "100.00", entries[3].NewBalance.StringFixed(2))

		stored, err := f.customers.FindByIDForTenant(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		assert.True(t, stored.HasUtang)
	})

	t.Run("rebuild is deterministic", func(t *testing.T) {
		f := newLedgerFixture()
		customer := f.addCustomer("Ben", may)
		addSale(t, f, customer.ID, "100.00", june10)
		addPayment(t, f, customer.ID, "50.00", july5)

		service := newRebuildService(f)
		_, err := service.RebuildForTenant(ctx, f.tenantID, asOf)
		require.NoError(t, err)
		first, _, err := f.entries.FindByCustomer(ctx, f.tenantID, customer.ID, ledger.EntryFilter{})
		require.NoError(t, err)

		_, err = service.RebuildForTenant(ctx, f.tenantID, asOf)
		require.NoError(t, err)
		second, _, err := f.entries.FindByCustomer(ctx, f.tenantID, customer.ID, ledger.EntryFilter{})
		require.NoError(t, err)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].Kind, second[i].Kind)
			assert.True(t, first[i].Amount.Equal(second[i].Amount))
			assert.True(t, first[i].NewBalance.Equal(second[i].NewBalance))
			assert.True(t, first[i].OccurredAt.Equal(second[i].OccurredAt))
		}
	})

	t.Run("preserves a migrated starting balance", func(t *testing.T) {
		f := newLedgerFixture()
		customer := f.addCustomer("Ben", may)

		opening, err := ledger.NewStartingBalanceEntry(f.tenantID, customer.ID,
			decimal.RequireFromString("40"), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), "paper notebook carryover")
		require.NoError(t, err)
		require.NoError(t, f.entries.Create(ctx, opening))

		result, err := newRebuildService(f).RebuildForTenant(ctx, f.tenantID, asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, result.CustomersRebuilt)
		// starting balance + interest for July and August
		assert.Equal(t, 3, result.EntriesCreated)

		latest, err := f.entries.Latest(ctx, f.tenantID, customer.ID)
		require.NoError(t, err)
		// 40 -> 42.00 -> 44.10 at 5% per month
		assert.Equal(t, "44.10", latest.NewBalance.StringFixed(2))
	})

	t.Run("reports inconsistent customers and keeps going", func(t *testing.T) {
		f := newLedgerFixture()
		good := f.addCustomer("Ben", may)
		bad := f.addCustomer("Oscar", may)

		addSale(t, f, good.ID, "100.00", june10)
		// A payment with no sale behind it cannot replay.
		addPayment(t, f, bad.ID, "100.00", june10)

		result, err := newRebuildService(f).RebuildForTenant(ctx, f.tenantID, asOf)
		require.NoError(t, err)
		assert.Equal(t, 1, result.CustomersRebuilt)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, bad.ID, result.Failures[0].CustomerID)
		assert.Contains(t, result.Failures[0].Reason, "exceeds")
	})

	t.Run("customer with no history is skipped cleanly", func(t *testing.T) {
		f := newLedgerFixture()
		f.addCustomer("Ben", may)

		result, err := newRebuildService(f).RebuildForTenant(ctx, f.tenantID, asOf)
		require.NoError(t, err)
		assert.Equal(t, 0, result.CustomersRebuilt)
		assert.Equal(t, 0, result.EntriesCreated)
	})
}
