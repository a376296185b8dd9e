package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appledger "github.com/tindahan/backend/internal/application/ledger"
)

// AdminHandler serves administrative ledger operations: manually triggered
// interest runs and ledger rebuilds.
type AdminHandler struct {
	BaseHandler
	interest *appledger.InterestService
	rebuilds *appledger.RebuildService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(interest *appledger.InterestService, rebuilds *appledger.RebuildService) *AdminHandler {
	return &AdminHandler{interest: interest, rebuilds: rebuilds}
}

// InterestRunRequest is the request body for triggering an interest run.
// AsOf defaults to now; the accrued month is the calendar month containing it.
type InterestRunRequest struct {
	AsOf *time.Time `json:"as_of"`
}

// RebuildRequest is the request body for triggering a ledger rebuild.
// With a customer ID only that customer is rebuilt.
type RebuildRequest struct {
	CustomerID *string    `json:"customer_id"`
	AsOf       *time.Time `json:"as_of"`
}

// RunInterest handles POST /admin/interest-runs
func (h *AdminHandler) RunInterest(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req InterestRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}

	summary, err := h.interest.RunForTenant(c.Request.Context(), tenantID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RunRebuild handles POST /admin/ledger-rebuilds
func (h *AdminHandler) RunRebuild(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	asOf := time.Now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}

	var result *appledger.RebuildResult
	if req.CustomerID != nil && *req.CustomerID != "" {
		customerID, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID")
			return
		}
		result, err = h.rebuilds.RebuildCustomer(c.Request.Context(), tenantID, customerID, asOf)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	} else {
		result, err = h.rebuilds.RebuildForTenant(c.Request.Context(), tenantID, asOf)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	h.Success(c, result)
}
