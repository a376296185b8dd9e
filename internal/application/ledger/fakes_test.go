package ledger

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tindahan/backend/internal/domain/identity"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/shared"
	"github.com/tindahan/backend/internal/domain/trade"
)

// In-memory repositories backing the service tests. They apply the same
// ordering rules as the SQL implementations so replay and latest-balance
// behavior can be exercised without a database.

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries []ledger.Entry
	seq     int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{}
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	// Monotonic created_at so insertion order breaks ties deterministically.
	r.seq++
	e.CreatedAt = time.Unix(0, int64(r.seq))
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeEntryRepo) sorted(tenantID, customerID uuid.UUID) []ledger.Entry {
	out := make([]ledger.Entry, 0)
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

func (r *fakeEntryRepo) Latest(_ context.Context, tenantID, customerID uuid.UUID) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ordered := r.sorted(tenantID, customerID)
	if len(ordered) == 0 {
		return nil, shared.ErrNotFound
	}
	latest := ordered[len(ordered)-1]
	return &latest, nil
}

func (r *fakeEntryRepo) FindByCustomer(_ context.Context, tenantID, customerID uuid.UUID, filter ledger.EntryFilter) ([]ledger.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ordered := r.sorted(tenantID, customerID)
	filtered := make([]ledger.Entry, 0, len(ordered))
	for _, e := range ordered {
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

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = len(filtered)
	}
	start := (page - 1) * size
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (r *fakeEntryRepo) FindStartingBalance(_ context.Context, tenantID, customerID uuid.UUID) (*ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID && e.Kind == ledger.EntryKindStartingBalance {
			found := e
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeEntryRepo) ExistsMonthlyInterest(_ context.Context, tenantID, customerID uuid.UUID, asOfMonth time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID &&
			e.Kind == ledger.EntryKindMonthlyInterest && ledger.SameMonth(e.OccurredAt, asOfMonth) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEntryRepo) DeleteByCustomer(_ context.Context, tenantID, customerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID {
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return nil
}

func (r *fakeEntryRepo) CustomerIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
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

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]*partner.Customer
	lockErr   error
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*partner.Customer)}
}

func (r *fakeCustomerRepo) add(c *partner.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = c
}

func (r *fakeCustomerRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if c.TenantID != tenantID {
		return nil, shared.ErrTenantMismatch
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCustomerRepo) FindByIDForTenantLocked(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	if r.lockErr != nil {
		return nil, r.lockErr
	}
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *fakeCustomerRepo) FindByTenant(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]partner.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]partner.Customer, 0)
	for _, c := range r.customers {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCustomerRepo) FindWithUtang(_ context.Context, tenantID uuid.UUID) ([]partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]partner.Customer, 0)
	for _, c := range r.customers {
		if c.TenantID == tenantID && c.HasUtang {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCustomerRepo) Save(_ context.Context, customer *partner.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *fakeCustomerRepo) SetHasUtang(_ context.Context, tenantID, id uuid.UUID, hasUtang bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || c.TenantID != tenantID {
		return shared.ErrNotFound
	}
	c.HasUtang = hasUtang
	return nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales []trade.CreditSale
}

func newFakeSaleRepo() *fakeSaleRepo { return &fakeSaleRepo{} }

func (r *fakeSaleRepo) Create(_ context.Context, sale *trade.CreditSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = append(r.sales, *sale)
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*trade.CreditSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.ID == id {
			found := s
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSaleRepo) FindCreditSalesByCustomer(_ context.Context, tenantID, customerID uuid.UUID) ([]trade.CreditSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trade.CreditSale, 0)
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.CustomerID != nil && *s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeSaleRepo) FindCreditCustomerIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, s := range r.sales {
		if s.TenantID != tenantID || s.CustomerID == nil || s.UnpaidAmount().IsZero() {
			continue
		}
		if _, ok := seen[*s.CustomerID]; !ok {
			seen[*s.CustomerID] = struct{}{}
			ids = append(ids, *s.CustomerID)
		}
	}
	return ids, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []trade.PaymentRecord
}

func newFakePaymentRepo() *fakePaymentRepo { return &fakePaymentRepo{} }

func (r *fakePaymentRepo) Create(_ context.Context, payment *trade.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *fakePaymentRepo) FindByCustomer(_ context.Context, tenantID, customerID uuid.UUID) ([]trade.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trade.PaymentRecord, 0)
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakePaymentRepo) FindCustomerIDs(_ context.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
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

type fakeTenantRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*identity.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[uuid.UUID]*identity.Tenant)}
}

func (r *fakeTenantRepo) add(t *identity.Tenant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
}

func (r *fakeTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*identity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTenantRepo) FindActive(_ context.Context, _ shared.Filter) ([]identity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]identity.Tenant, 0)
	for _, t := range r.tenants {
		if t.IsActive() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTenantRepo) Save(_ context.Context, tenant *identity.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *tenant
	r.tenants[tenant.ID] = &copied
	return nil
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs []ledger.InterestRun
}

func newFakeRunRepo() *fakeRunRepo { return &fakeRunRepo{} }

func (r *fakeRunRepo) Create(_ context.Context, run *ledger.InterestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

func (r *fakeRunRepo) FindByTenantAndMonth(_ context.Context, tenantID uuid.UUID, asOfMonth time.Time) ([]ledger.InterestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.InterestRun, 0)
	for _, run := range r.runs {
		if run.TenantID == tenantID && ledger.SameMonth(run.Month, asOfMonth) {
			out = append(out, run)
		}
	}
	return out, nil
}

type fakeRunLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeRunLock() *fakeRunLock { return &fakeRunLock{held: make(map[string]bool)} }

func (l *fakeRunLock) TryAcquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeRunLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// ledgerFixture wires the fakes into the services under test
type ledgerFixture struct {
	tenantID  uuid.UUID
	entries   *fakeEntryRepo
	customers *fakeCustomerRepo
	sales     *fakeSaleRepo
	payments  *fakePaymentRepo
	tenants   *fakeTenantRepo
	runs      *fakeRunRepo
	runLock   *fakeRunLock
	scope     *NoOpTransactionScope
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		entries:   newFakeEntryRepo(),
		customers: newFakeCustomerRepo(),
		sales:     newFakeSaleRepo(),
		payments:  newFakePaymentRepo(),
		tenants:   newFakeTenantRepo(),
		runs:      newFakeRunRepo(),
		runLock:   newFakeRunLock(),
	}
	f.scope = NewNoOpTransactionScope(f.entries, f.customers, f.sales, f.payments)

	tenant, _ := identity.NewTenant("Aling Nena's Store", decimal.RequireFromString("5"))
	f.tenants.add(tenant)
	f.tenantID = tenant.ID
	return f
}

func (f *ledgerFixture) addCustomer(name string, createdAt time.Time) *partner.Customer {
	customer, _ := partner.NewCustomer(f.tenantID, name, "")
	if !createdAt.IsZero() {
		customer.CreatedAt = createdAt
	}
	f.customers.add(customer)
	return customer
}

// completeCreditSale persists a sale source record and runs it through the
// sale-completed handler, the same path the event bus takes in production.
func completeCreditSale(t *testing.T, f *ledgerFixture, handler *SaleCompletedHandler, customerID uuid.UUID, total, paid string) *trade.CreditSale {
	t.Helper()
	sale, err := trade.NewCreditSale(
		f.tenantID, &customerID,
		decimal.RequireFromString(total), decimal.RequireFromString(paid),
		time.Now(), "",
	)
	if err != nil {
		t.Fatalf("failed to build sale: %v", err)
	}
	if err := f.sales.Create(context.Background(), sale); err != nil {
		t.Fatalf("failed to save sale: %v", err)
	}
	if err := handler.Handle(context.Background(), trade.NewSaleCompletedEvent(sale)); err != nil {
		t.Fatalf("failed to handle sale event: %v", err)
	}
	return sale
}
