package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apptrade "github.com/tindahan/backend/internal/application/trade"
)

// SaleHandler serves sale recording endpoints
type SaleHandler struct {
	BaseHandler
	sales *apptrade.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(sales *apptrade.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// CompleteSaleRequest is the request body for completing a sale.
// CustomerID is optional: cash sales carry no customer.
type CompleteSaleRequest struct {
	CustomerID  *string    `json:"customer_id"`
	TotalAmount string     `json:"total_amount" binding:"required"`
	PaidAmount  string     `json:"paid_amount"`
	OccurredAt  *time.Time `json:"occurred_at"`
	Reference   string     `json:"reference"`
}

// CompleteSale handles POST /ledger/sales
func (h *SaleHandler) CompleteSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req CompleteSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil && *req.CustomerID != "" {
		parsed, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID")
			return
		}
		customerID = &parsed
	}

	totalAmount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		h.BadRequest(c, "Invalid total amount")
		return
	}
	paidAmount := decimal.Zero
	if req.PaidAmount != "" {
		paidAmount, err = decimal.NewFromString(req.PaidAmount)
		if err != nil {
			h.BadRequest(c, "Invalid paid amount")
			return
		}
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	sale, err := h.sales.CompleteSale(c.Request.Context(), tenantID, customerID, totalAmount, paidAmount, occurredAt, req.Reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetSale handles GET /ledger/sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	sale, err := h.sales.GetSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
