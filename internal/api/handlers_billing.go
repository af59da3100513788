package api

import (
	"net/http"
	"time"

	"ca-backoffice/internal/database"
	"ca-backoffice/internal/events"

	"github.com/gin-gonic/gin"
)

type createInvoiceRequest struct {
	InvoiceNumber string     `json:"invoice_number" binding:"required"`
	ClientID      string     `json:"client_id" binding:"required"`
	Description   string     `json:"description"`
	Amount        float64    `json:"amount" binding:"required"`
	TaxAmount     float64    `json:"tax_amount"`
	IssuedOn      *time.Time `json:"issued_on"`
	DueOn         *time.Time `json:"due_on"`
}

func (s *Server) handleCreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invoice_number, client_id and amount are required")
		return
	}
	if req.Amount <= 0 || req.TaxAmount < 0 {
		errorResponse(c, http.StatusBadRequest, "amount must be positive")
		return
	}

	issuedOn := time.Now()
	if req.IssuedOn != nil {
		issuedOn = *req.IssuedOn
	}

	inv := &database.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		ClientID:      req.ClientID,
		Description:   req.Description,
		Amount:        req.Amount,
		TaxAmount:     req.TaxAmount,
		Status:        database.InvoiceUnpaid,
		IssuedOn:      issuedOn,
		DueOn:         req.DueOn,
	}

	if err := s.repo.CreateInvoice(c.Request.Context(), inv); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	s.audit(c, "invoice.create", "invoice", inv.ID, "")
	s.eventBus.PublishData(events.EventInvoiceIssued, map[string]interface{}{
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"client_id":      inv.ClientID,
		"total":          inv.Total,
	})
	successResponse(c, inv)
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	inv, err := s.repo.GetInvoiceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch invoice")
		return
	}
	if inv == nil {
		errorResponse(c, http.StatusNotFound, "Invoice not found")
		return
	}
	successResponse(c, inv)
}

func (s *Server) handleListInvoices(c *gin.Context) {
	limit, offset := pagination(c)

	invoices, total, err := s.repo.ListInvoices(c.Request.Context(),
		c.Query("client_id"), c.Query("status"), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list invoices")
		return
	}
	listResponse(c, invoices, total, limit, offset)
}

type setInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// handleSetInvoiceStatus allows manual status transitions, mainly
// cancellation. Payment-driven transitions happen through receipts.
func (s *Server) handleSetInvoiceStatus(c *gin.Context) {
	id := c.Param("id")

	var req setInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "status is required")
		return
	}
	switch req.Status {
	case database.InvoiceUnpaid, database.InvoicePartiallyPaid, database.InvoicePaid, database.InvoiceCancelled:
	default:
		errorResponse(c, http.StatusBadRequest, "invalid invoice status")
		return
	}

	if err := s.repo.SetInvoiceStatus(c.Request.Context(), id, req.Status); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to update invoice status")
		return
	}

	s.audit(c, "invoice.status", "invoice", id, auditDetail(map[string]string{"status": req.Status}))
	successResponse(c, gin.H{"id": id, "status": req.Status})
}

type createReceiptRequest struct {
	ReceiptNumber string     `json:"receipt_number" binding:"required"`
	Amount        float64    `json:"amount" binding:"required"`
	Mode          string     `json:"mode"`
	ReceivedOn    *time.Time `json:"received_on"`
	Notes         string     `json:"notes"`
}

func (s *Server) handleCreateReceipt(c *gin.Context) {
	invoiceID := c.Param("id")

	var req createReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "receipt_number and amount are required")
		return
	}
	if req.Amount <= 0 {
		errorResponse(c, http.StatusBadRequest, "amount must be positive")
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = "bank_transfer"
	}
	receivedOn := time.Now()
	if req.ReceivedOn != nil {
		receivedOn = *req.ReceivedOn
	}

	rec := &database.Receipt{
		ReceiptNumber: req.ReceiptNumber,
		InvoiceID:     invoiceID,
		Amount:        req.Amount,
		Mode:          mode,
		ReceivedOn:    receivedOn,
		Notes:         req.Notes,
	}

	if err := s.repo.CreateReceipt(c.Request.Context(), rec); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to record receipt")
		return
	}

	s.audit(c, "receipt.create", "receipt", rec.ID, "")
	s.eventBus.PublishData(events.EventPaymentReceived, map[string]interface{}{
		"receipt_id": rec.ID,
		"invoice_id": invoiceID,
		"amount":     rec.Amount,
	})
	successResponse(c, rec)
}

func (s *Server) handleListReceipts(c *gin.Context) {
	receipts, err := s.repo.ListReceipts(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list receipts")
		return
	}
	successResponse(c, receipts)
}
