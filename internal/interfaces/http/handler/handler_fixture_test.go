package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appledger "github.com/tindahan/backend/internal/application/ledger"
	apptrade "github.com/tindahan/backend/internal/application/trade"
	"github.com/tindahan/backend/internal/domain/identity"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/domain/trade"
	"github.com/tindahan/backend/internal/infrastructure/event"
	"github.com/tindahan/backend/internal/interfaces/http/middleware"
	"github.com/tindahan/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubEntryRepo is an in-memory EntryRepository ordering entries the way
// the SQL implementation does: occurred_at, kind priority, created_at.
type stubEntryRepo struct {
	mu      sync.Mutex
	entries []ledger.Entry
	seq     int64
}

func (r *stubEntryRepo) Create(_ context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *entry
	stored.CreatedAt = time.Unix(0, r.seq)
	r.entries = append(r.entries, stored)
	return nil
}

func (r *stubEntryRepo) forCustomer(tenantID, customerID uuid.UUID) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		if out[i].Kind.Priority() != out[j].Kind.Priority() {
			return out[i].Kind.Priority() < out[j].Kind.Priority()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *stubEntryRepo) Latest(_ context.Context, tenantID, customerID uuid.UUID) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := r.forCustomer(tenantID, customerID)
	if len(sorted) == 0 {
		return nil, shared.ErrNotFound
	}
	latest := sorted[len(sorted)-1]
	return &latest, nil
}

func (r *stubEntryRepo) FindByCustomer(_ context.Context, tenantID, customerID uuid.UUID, filter ledger.EntryFilter) ([]ledger.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := r.forCustomer(tenantID, customerID)

	var filtered []ledger.Entry
	for _, e := range sorted {
		if filter.Kind != nil && e.Kind != *filter.Kind {
			continue
		}
		if filter.DateFrom != nil && e.OccurredAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.OccurredAt.After(*filter.DateTo) {
			continue
		}
		filtered = append(filtered, e)
	}
	// newest first
	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}
	total := int64(len(filtered))

	offset := (filter.Page - 1) * filter.PageSize
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + filter.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (r *stubEntryRepo) FindStartingBalance(_ context.Context, tenantID, customerID uuid.UUID) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.forCustomer(tenantID, customerID) {
		if e.Kind == ledger.EntryKindStartingBalance {
			found := e
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubEntryRepo) ExistsMonthlyInterest(_ context.Context, tenantID, customerID uuid.UUID, asOfMonth time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	month := ledger.MonthStart(asOfMonth)
	next := ledger.NextMonth(month)
	for _, e := range r.forCustomer(tenantID, customerID) {
		if e.Kind == ledger.EntryKindMonthlyInterest && !e.OccurredAt.Before(month) && e.OccurredAt.Before(next) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubEntryRepo) DeleteByCustomer(_ context.Context, tenantID, customerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.TenantID != tenantID || e.CustomerID != customerID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

func (r *stubEntryRepo) CustomerIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, e := range r.entries {
		if e.TenantID != tenantID {
			continue
		}
		if _, ok := seen[e.CustomerID]; !ok {
			seen[e.CustomerID] = struct{}{}
			ids = append(ids, e.CustomerID)
		}
	}
	return ids, nil
}

type stubCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*partner.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *stubCustomerRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *stubCustomerRepo) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *stubCustomerRepo) FindByTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]partner.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []partner.Customer
	for _, c := range r.customers {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCustomerRepo) FindWithUtang(_ context.Context, tenantID uuid.UUID) ([]partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []partner.Customer
	for _, c := range r.customers {
		if c.TenantID == tenantID && c.HasUtang {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *stubCustomerRepo) SetHasUtang(_ context.Context, tenantID, id uuid.UUID, hasUtang bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || c.TenantID != tenantID {
		return shared.ErrNotFound
	}
	c.HasUtang = hasUtang
	return nil
}

type stubSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*trade.CreditSale
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*trade.CreditSale)}
}

func (r *stubSaleRepo) Create(_ context.Context, sale *trade.CreditSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *sale
	r.sales[sale.ID] = &copied
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*trade.CreditSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *stubSaleRepo) FindCreditSalesByCustomer(_ context.Context, tenantID, customerID uuid.UUID) ([]trade.CreditSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.CreditSale
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.CustomerID != nil && *s.CustomerID == customerID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (r *stubSaleRepo) FindCreditCustomerIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, s := range r.sales {
		if s.TenantID != tenantID || s.CustomerID == nil || !s.IsCredit() {
			continue
		}
		if _, ok := seen[*s.CustomerID]; !ok {
			seen[*s.CustomerID] = struct{}{}
			ids = append(ids, *s.CustomerID)
		}
	}
	return ids, nil
}

type stubPaymentRepo struct {
	mu       sync.Mutex
	payments []trade.PaymentRecord
}

func (r *stubPaymentRepo) Create(_ context.Context, payment *trade.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *stubPaymentRepo) FindByCustomer(_ context.Context, tenantID, customerID uuid.UUID) ([]trade.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []trade.PaymentRecord
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (r *stubPaymentRepo) FindCustomerIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, p := range r.payments {
		if p.TenantID != tenantID {
			continue
		}
		if _, ok := seen[p.CustomerID]; !ok {
			seen[p.CustomerID] = struct{}{}
			ids = append(ids, p.CustomerID)
		}
	}
	return ids, nil
}

type stubTenantRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*identity.Tenant
}

func newStubTenantRepo() *stubTenantRepo {
	return &stubTenantRepo{tenants: make(map[uuid.UUID]*identity.Tenant)}
}

func (r *stubTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *stubTenantRepo) FindActive(_ context.Context, _ shared.Filter) ([]identity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []identity.Tenant
	for _, t := range r.tenants {
		if t.IsActive() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTenantRepo) Save(_ context.Context, tenant *identity.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *tenant
	r.tenants[tenant.ID] = &copied
	return nil
}

type stubRunRepo struct {
	mu   sync.Mutex
	runs []ledger.InterestRun
}

func (r *stubRunRepo) Create(_ context.Context, run *ledger.InterestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

func (r *stubRunRepo) FindByTenantAndMonth(_ context.Context, tenantID uuid.UUID, asOfMonth time.Time) ([]ledger.InterestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	month := ledger.MonthStart(asOfMonth)
	var out []ledger.InterestRun
	for _, run := range r.runs {
		if run.TenantID == tenantID && run.Month.Equal(month) {
			out = append(out, run)
		}
	}
	return out, nil
}

type stubRunLock struct{}

func (stubRunLock) TryAcquire(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (stubRunLock) Release(context.Context, string) error                           { return nil }

// handlerFixture wires the application services over in-memory stubs and
// exposes a router with the full middleware chain minus JWT.
type handlerFixture struct {
	tenant    *identity.Tenant
	entries   *stubEntryRepo
	customers *stubCustomerRepo
	sales     *stubSaleRepo
	payments  *stubPaymentRepo
	tenants   *stubTenantRepo
	runs      *stubRunRepo
	engine    *gin.Engine
}

func newHandlerFixture() *handlerFixture {
	tenant, err := identity.NewTenant("Aling Nena's Store", decimal.RequireFromString("5"))
	if err != nil {
		panic(err)
	}

	f := &handlerFixture{
		tenant:    tenant,
		entries:   &stubEntryRepo{},
		customers: newStubCustomerRepo(),
		sales:     newStubSaleRepo(),
		payments:  &stubPaymentRepo{},
		tenants:   newStubTenantRepo(),
		runs:      &stubRunRepo{},
	}
	_ = f.tenants.Save(context.Background(), tenant)

	logger := zap.NewNop()
	scope := appledger.NewNoOpTransactionScope(f.entries, f.customers, f.sales, f.payments)
	calculator := appledger.NewBalanceCalculator(f.entries, f.customers)

	bus := event.NewInMemoryEventBus(logger)
	bus.Subscribe(appledger.NewSaleCompletedHandler(scope, logger))

	paymentService := appledger.NewPaymentService(scope, logger)
	adjustmentService := appledger.NewAdjustmentService(scope, logger)
	queryService := appledger.NewQueryService(f.entries, f.customers)
	interestService := appledger.NewInterestService(scope, f.tenants, f.customers, f.entries, f.runs, calculator, stubRunLock{}, logger)
	rebuildService := appledger.NewRebuildService(scope, f.tenants, f.sales, f.payments, f.entries, logger)
	saleService := apptrade.NewSaleService(f.sales, bus, logger)

	ledgerHandler := NewLedgerHandler(paymentService, adjustmentService, queryService)
	saleHandler := NewSaleHandler(saleService)
	adminHandler := NewAdminHandler(interestService, rebuildService)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TenantMiddleware())

	ledgerGroup := router.NewGroup("/ledger")
	ledgerGroup.POST("/customers/:id/payments", ledgerHandler.RecordPayment)
	ledgerGroup.POST("/customers/:id/adjustments", ledgerHandler.AdjustBalance)
	ledgerGroup.GET("/customers/:id/entries", ledgerHandler.ListEntries)
	ledgerGroup.GET("/customers/:id/balance", ledgerHandler.GetBalance)
	ledgerGroup.POST("/sales", saleHandler.CompleteSale)
	ledgerGroup.GET("/sales/:id", saleHandler.GetSale)

	adminGroup := router.NewGroup("/admin")
	adminGroup.POST("/interest-runs", adminHandler.RunInterest)
	adminGroup.POST("/ledger-rebuilds", adminHandler.RunRebuild)

	router.NewRouter(engine).Register(ledgerGroup).Register(adminGroup).Setup()
	f.engine = engine
	return f
}

func (f *handlerFixture) addCustomer(name string) *partner.Customer {
	customer, err := partner.NewCustomer(f.tenant.ID, name, "")
	if err != nil {
		panic(err)
	}
	// created well before any accrual month used in tests
	customer.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := f.customers.Save(context.Background(), customer); err != nil {
		panic(err)
	}
	return customer
}
