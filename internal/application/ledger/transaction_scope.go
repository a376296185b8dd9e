package ledger

import (
	"context"

	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the repositories a
// ledger append needs. All mutating ledger operations run inside one scope
// so the entry write, the source record write and the customer flag update
// commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TxRepositories) error) error
}

// TxRepositories provides access to the ledger-adjacent repositories within
// a transaction. All repositories returned share the same underlying
// database transaction.
type TxRepositories interface {
	// Entries returns the ledger entry repository scoped to the transaction
	Entries() ledger.EntryRepository
	// Customers returns the customer repository scoped to the transaction
	Customers() partner.CustomerRepository
	// Sales returns the credit sale repository scoped to the transaction
	Sales() trade.CreditSaleRepository
	// Payments returns the payment record repository scoped to the transaction
	Payments() trade.PaymentRecordRepository
}

// NoOpTransactionScope runs the function against fixed repositories without
// a real transaction. Useful in tests.
type NoOpTransactionScope struct {
	entries   ledger.EntryRepository
	customers partner.CustomerRepository
	sales     trade.CreditSaleRepository
	payments  trade.PaymentRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	entries ledger.EntryRepository,
	customers partner.CustomerRepository,
	sales trade.CreditSaleRepository,
	payments trade.PaymentRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		entries:   entries,
		customers: customers,
		sales:     sales,
		payments:  payments,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TxRepositories) error) error {
	return fn(s)
}

// Entries returns the ledger entry repository
func (s *NoOpTransactionScope) Entries() ledger.EntryRepository { return s.entries }

// Customers returns the customer repository
func (s *NoOpTransactionScope) Customers() partner.CustomerRepository { return s.customers }

// Sales returns the credit sale repository
func (s *NoOpTransactionScope) Sales() trade.CreditSaleRepository { return s.sales }

// Payments returns the payment record repository
func (s *NoOpTransactionScope) Payments() trade.PaymentRecordRepository { return s.payments }

var (
	_ TransactionScope = (*NoOpTransactionScope)(nil)
	_ TxRepositories   = (*NoOpTransactionScope)(nil)
)
