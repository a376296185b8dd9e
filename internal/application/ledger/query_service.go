package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/ledger"
	"github.com/tindahan/backend/internal/domain/partner"
	"github.com/tindahan/backend/internal/domain/shared"
)

// QueryService serves read-only ledger views for the reporting UI
type QueryService struct {
	entries   ledger.EntryRepository
	customers partner.CustomerRepository
}

// NewQueryService creates a QueryService
func NewQueryService(entries ledger.EntryRepository, customers partner.CustomerRepository) *QueryService {
	return &QueryService{
		entries:   entries,
		customers: customers,
	}
}

// GetTransactionHistory returns one page of a customer's entries, newest
// first
func (s *QueryService) GetTransactionHistory(
	ctx context.Context,
	tenantID, customerID uuid.UUID,
	filter ledger.EntryFilter,
) (*shared.Paginated[EntryResponse], error) {
	if _, err := s.customers.FindByIDForTenant(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	defaults := shared.DefaultFilter()
	if filter.Page <= 0 {
		filter.Page = defaults.Page
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaults.PageSize
	}

	entries, total, err := s.entries.FindByCustomer(ctx, tenantID, customerID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToEntryResponses(entries), total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetBalance returns the customer's current balance and utang flag
func (s *QueryService) GetBalance(ctx context.Context, tenantID, customerID uuid.UUID) (*BalanceResponse, error) {
	customer, err := s.customers.FindByIDForTenant(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	balance, err := currentBalance(ctx, s.entries, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	return &BalanceResponse{
		CustomerID: customerID.String(),
		Balance:    balance.StringFixed(2),
		HasUtang:   customer.HasUtang,
	}, nil
}
