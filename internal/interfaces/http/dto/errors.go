package dto

import "net/http"

// Error codes surfaced by the API. Domain error codes pass through
// unchanged so clients can switch on them.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when authentication is missing or invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeInvalidAmount is used when an amount fails validation
	ErrCodeInvalidAmount = "INVALID_AMOUNT"
	// ErrCodeExceedsBalance is used when a payment exceeds the outstanding balance
	ErrCodeExceedsBalance = "EXCEEDS_BALANCE"
	// ErrCodeNoChange is used when an adjustment would not change the balance
	ErrCodeNoChange = "NO_CHANGE"
	// ErrCodeLockTimeout is used when a row lock could not be acquired in time
	ErrCodeLockTimeout = "LOCK_TIMEOUT"
	// ErrCodeConcurrencyConflict is used when another process holds the resource
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	// ErrCodeIntegrity is used when the ledger chain fails its invariant
	ErrCodeIntegrity = "INTEGRITY_ERROR"
	// ErrCodeTenantMismatch is used when a resource belongs to another tenant
	ErrCodeTenantMismatch = "TENANT_MISMATCH"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes.
// Validation and business rule rejections are 422 so clients can
// distinguish them from malformed requests.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,
	// A resource owned by another tenant must be indistinguishable from a
	// missing one.
	ErrCodeTenantMismatch: http.StatusNotFound,

	ErrCodeInvalidAmount:  http.StatusUnprocessableEntity,
	ErrCodeExceedsBalance: http.StatusUnprocessableEntity,
	ErrCodeNoChange:       http.StatusUnprocessableEntity,

	ErrCodeLockTimeout:         http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeIntegrity: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
