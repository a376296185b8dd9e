package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/infrastructure/persistence/models"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCustomerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CustomerModel{}))
	return db
}

func TestGormCustomerRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormCustomerRepository(setupCustomerTestDB(t))

	customer, err := partner.NewCustomer(tenantID, "Aling Maria", "0917-555-0001")
	require.NoError(t, err)
	customer.WithInterestRate(decimal.RequireFromString("3.5"))
	require.NoError(t, repo.Save(ctx, customer))

	t.Run("find by id within tenant", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, customer.ID)
		require.NoError(t, err)
		assert.Equal(t, "Aling Maria", found.Name)
		require.NotNil(t, found.InterestRate)
		assert.True(t, found.InterestRate.Equal(decimal.RequireFromString("3.5")))
	})

	t.Run("wrong tenant", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), customer.ID)
		assert.ErrorIs(t, err, shared.ErrTenantMismatch)
	})

	t.Run("missing customer", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list by tenant", func(t *testing.T) {
		customers, total, err := repo.FindByTenant(ctx, tenantID, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, customers, 1)
	})
}

func TestGormCustomerRepository_SetHasUtang(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormCustomerRepository(setupCustomerTestDB(t))

	customer, err := partner.NewCustomer(tenantID, "Mang Tomas", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, customer))

	t.Run("sets and clears the flag", func(t *testing.T) {
		require.NoError(t, repo.SetHasUtang(ctx, tenantID, customer.ID, true))

		withUtang, err := repo.FindWithUtang(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, withUtang, 1)
		assert.Equal(t, customer.ID, withUtang[0].ID)

		require.NoError(t, repo.SetHasUtang(ctx, tenantID, customer.ID, false))
		withUtang, err = repo.FindWithUtang(ctx, tenantID)
		require.NoError(t, err)
		assert.Empty(t, withUtang)
	})

	t.Run("unknown customer", func(t *testing.T) {
		err := repo.SetHasUtang(ctx, tenantID, uuid.New(), true)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// newMockCustomerRepository backs the repository with a mocked Postgres
// connection for behaviors sqlite cannot express (row locks).
func newMockCustomerRepository(t *testing.T) (*GormCustomerRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormCustomerRepository(gormDB), mock, mockDB
}

func TestGormCustomerRepository_FindByIDForTenantLocked(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a FOR UPDATE select", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		tenantID, customerID := uuid.New(), uuid.New()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "name", "phone", "has_utang"}).
			AddRow(customerID, tenantID, "Aling Maria", "", true)

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, customerID, 1).
			WillReturnRows(rows)

		customer, err := repo.FindByIDForTenantLocked(ctx, tenantID, customerID)
		require.NoError(t, err)
		assert.Equal(t, customerID, customer.ID)
		assert.True(t, customer.HasUtang)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock timeout maps to ErrLockTimeout", func(t *testing.T) {
		repo, mock, mockDB := newMockCustomerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "customers"`).
			WillReturnError(&pq.Error{Code: "55P03"})

		_, err := repo.FindByIDForTenantLocked(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrLockTimeout)
	})
}

func TestIsLockTimeout(t *testing.T) {
	assert.True(t, isLockTimeout(&pq.Error{Code: "55P03"}))
	assert.False(t, isLockTimeout(&pq.Error{Code: "40001"}))
	assert.False(t, isLockTimeout(assert.AnError))
}
