package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/tindahan/backend/internal/domain/ledger"
)

// EntryResponse represents a ledger entry in API responses
type EntryResponse struct {
	ID              string  `json:"id"`
	TenantID        string  `json:"tenant_id"`
	CustomerID      string  `json:"customer_id"`
	Kind            string  `json:"kind"`
	ReferenceID     *string `json:"reference_id,omitempty"`
	PreviousBalance string  `json:"previous_balance"`
	NewBalance      string  `json:"new_balance"`
	Amount          string  `json:"amount"`
	Description     string  `json:"description"`
	OccurredAt      string  `json:"occurred_at"`
	CreatedAt       string  `json:"created_at"`
}

// ToEntryResponse converts a domain entry to its API representation
func ToEntryResponse(e *ledger.Entry) EntryResponse {
	resp := EntryResponse{
		ID:              e.ID.String(),
		TenantID:        e.TenantID.String(),
		CustomerID:      e.CustomerID.String(),
		Kind:            e.Kind.String(),
		PreviousBalance: e.PreviousBalance.StringFixed(2),
		NewBalance:      e.NewBalance.StringFixed(2),
		Amount:          e.Amount.StringFixed(2),
		Description:     e.Description,
		OccurredAt:      e.OccurredAt.Format(time.RFC3339),
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
	if e.ReferenceID != nil {
		ref := e.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}

// ToEntryResponses converts a slice of domain entries
func ToEntryResponses(entries []ledger.Entry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}

// PaymentResult is returned by RecordPayment
type PaymentResult struct {
	EntryID    uuid.UUID `json:"entry_id"`
	NewBalance string    `json:"new_balance"`
	HasUtang   bool      `json:"has_utang"`
}

// AdjustmentResult is returned by AdjustBalance
type AdjustmentResult struct {
	EntryID    uuid.UUID `json:"entry_id"`
	NewBalance string    `json:"new_balance"`
}

// BalanceResponse is returned by balance queries
type BalanceResponse struct {
	CustomerID string `json:"customer_id"`
	Balance    string `json:"balance"`
	HasUtang   bool   `json:"has_utang"`
}

// RebuildFailure identifies a customer whose replay was aborted and why
type RebuildFailure struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason"`
}

// RebuildResult summarizes a ledger rebuild
type RebuildResult struct {
	CustomersRebuilt int              `json:"customers_rebuilt"`
	EntriesCreated   int              `json:"entries_created"`
	Failures         []RebuildFailure `json:"failures,omitempty"`
}
