package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appledger "github.com/tindahan/backend/internal/application/ledger"
	"github.com/tindahan/backend/internal/domain/ledger"
)

// LedgerHandler serves customer ledger operations
type LedgerHandler struct {
	BaseHandler
	payments    *appledger.PaymentService
	adjustments *appledger.AdjustmentService
	queries     *appledger.QueryService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(
	payments *appledger.PaymentService,
	adjustments *appledger.AdjustmentService,
	queries *appledger.QueryService,
) *LedgerHandler {
	return &LedgerHandler{
		payments:    payments,
		adjustments: adjustments,
		queries:     queries,
	}
}

// RecordPaymentRequest is the request body for recording a payment
type RecordPaymentRequest struct {
	Amount     string     `json:"amount" binding:"required"`
	OccurredAt *time.Time `json:"occurred_at"`
	Note       string     `json:"note"`
}

// AdjustBalanceRequest is the request body for a balance adjustment
type AdjustBalanceRequest struct {
	NewBalance string `json:"new_balance" binding:"required"`
	Note       string `json:"note"`
}

// EntryListRequest holds query parameters for the entry list endpoint
type EntryListRequest struct {
	Kind     string     `form:"kind"`
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02T15:04:05Z07:00"`
	DateTo   *time.Time `form:"date_to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// RecordPayment handles POST /ledger/customers/:id/payments
func (h *LedgerHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid amount")
		return
	}
	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	result, err := h.payments.RecordPayment(c.Request.Context(), tenantID, customerID, amount, occurredAt, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// AdjustBalance handles POST /ledger/customers/:id/adjustments
func (h *LedgerHandler) AdjustBalance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	newBalance, err := decimal.NewFromString(req.NewBalance)
	if err != nil {
		h.BadRequest(c, "Invalid balance value")
		return
	}

	result, err := h.adjustments.AdjustBalance(c.Request.Context(), tenantID, customerID, newBalance, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListEntries handles GET /ledger/customers/:id/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	var req EntryListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := ledger.EntryFilter{
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Kind != "" {
		kind := ledger.EntryKind(req.Kind)
		if !kind.IsValid() {
			h.BadRequest(c, "Invalid entry kind")
			return
		}
		filter.Kind = &kind
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	page, err := h.queries.GetTransactionHistory(c.Request.Context(), tenantID, customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetBalance handles GET /ledger/customers/:id/balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID")
		return
	}

	balance, err := h.queries.GetBalance(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}
