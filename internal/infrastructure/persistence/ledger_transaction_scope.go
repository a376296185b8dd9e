package persistence

import (
	"context"
	"fmt"
	"time"

	appledger "github.com/tindahan/backend/internal/application/ledger"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements the ledger TransactionScope using GORM
// transactions. Every transaction sets a local lock_timeout so row-lock
// waits are bounded; an expired wait surfaces as shared.ErrLockTimeout via
// the customer repository.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TxRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 {
			timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(timeout).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		return fn(&gormTxRepositories{tx: tx})
	})
}

// gormTxRepositories provides repositories bound to one transaction
type gormTxRepositories struct {
	tx *gorm.DB
}

// Entries returns the ledger entry repository scoped to the transaction
func (r *gormTxRepositories) Entries() ledger.EntryRepository {
	return NewGormEntryRepository(r.tx)
}

// Customers returns the customer repository scoped to the transaction
func (r *gormTxRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Sales returns the credit sale repository scoped to the transaction
func (r *gormTxRepositories) Sales() trade.CreditSaleRepository {
	return NewGormCreditSaleRepository(r.tx)
}

// Payments returns the payment record repository scoped to the transaction
func (r *gormTxRepositories) Payments() trade.PaymentRecordRepository {
	return NewGormPaymentRecordRepository(r.tx)
}

var (
	_ appledger.TransactionScope = (*GormTransactionScope)(nil)
	_ appledger.TxRepositories   = (*gormTxRepositories)(nil)
)
