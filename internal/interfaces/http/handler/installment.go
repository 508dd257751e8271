package handler

import (
	"time"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InstallmentHandler handles invoice payments and installment schedules
type InstallmentHandler struct {
	BaseHandler
	service *posting.Service
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(service *posting.Service) *InstallmentHandler {
	return &InstallmentHandler{service: service}
}

// ===================== Request/Response DTOs =====================

// RecordPaymentRequest records a payment against a posted sales invoice
type RecordPaymentRequest struct {
	TreasuryID *string `json:"treasury_id" binding:"omitempty,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
}

// GenerateScheduleRequest splits an invoice's remaining amount into installments
type GenerateScheduleRequest struct {
	Count     int       `json:"count" binding:"required,min=1,max=60"`
	StartDate time.Time `json:"start_date" binding:"required"`
}

// InvoicePaymentResponse represents a recorded invoice payment
type InvoicePaymentResponse struct {
	ID         string    `json:"id"`
	InvoiceID  string    `json:"invoice_id"`
	TreasuryID string    `json:"treasury_id"`
	Amount     float64   `json:"amount"`
	ReceivedAt time.Time `json:"received_at"`
	Notes      string    `json:"notes,omitempty"`
}

// InstallmentResponse represents one installment of a schedule
type InstallmentResponse struct {
	ID                string     `json:"id"`
	InvoiceID         string     `json:"invoice_id"`
	InstallmentNumber int        `json:"installment_number"`
	Amount            float64    `json:"amount"`
	DueDate           time.Time  `json:"due_date"`
	Status            string     `json:"status"`
	PaidAmount        float64    `json:"paid_amount"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
}

func toInvoicePaymentResponse(p *finance.InvoicePayment) InvoicePaymentResponse {
	return InvoicePaymentResponse{
		ID:         p.ID.String(),
		InvoiceID:  p.InvoiceID.String(),
		TreasuryID: p.TreasuryID.String(),
		Amount:     p.Amount.InexactFloat64(),
		ReceivedAt: p.ReceivedAt,
		Notes:      p.Notes,
	}
}

func toInstallmentResponse(inst *finance.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:                inst.ID.String(),
		InvoiceID:         inst.InvoiceID.String(),
		InstallmentNumber: inst.InstallmentNumber,
		Amount:            inst.Amount.InexactFloat64(),
		DueDate:           inst.DueDate,
		Status:            string(inst.EffectiveStatus(time.Now())),
		PaidAmount:        inst.PaidAmount.InexactFloat64(),
		PaidAt:            inst.PaidAt,
	}
}

func toInstallmentResponses(installments []*finance.Installment) []InstallmentResponse {
	resp := make([]InstallmentResponse, 0, len(installments))
	for _, inst := range installments {
		resp = append(resp, toInstallmentResponse(inst))
	}
	return resp
}

// ===================== Endpoints =====================

// RecordPayment records a payment against a posted invoice and applies
// it to pending installments in due-date order
func (h *InstallmentHandler) RecordPayment(c *gin.Context) {
	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	treasuryID, err := parseOptionalUUID(req.TreasuryID)
	if err != nil {
		h.BadRequest(c, "Invalid treasury ID")
		return
	}

	payment, err := h.service.RecordInvoicePayment(c.Request.Context(), invoiceID, treasuryID, decimal.NewFromFloat(req.Amount), actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInvoicePaymentResponse(payment))
}

// GenerateSchedule creates an equal-split installment schedule for a
// posted credit invoice
func (h *InstallmentHandler) GenerateSchedule(c *gin.Context) {
	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	installments, err := h.service.GenerateInstallmentSchedule(c.Request.Context(), invoiceID, req.Count, req.StartDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toInstallmentResponses(installments))
}

// GetSchedule returns an invoice's installment schedule
func (h *InstallmentHandler) GetSchedule(c *gin.Context) {
	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	installments, err := h.service.GetInstallmentSchedule(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toInstallmentResponses(installments))
}

// UpdateOverdue marks pending installments past their due date as overdue
func (h *InstallmentHandler) UpdateOverdue(c *gin.Context) {
	updated, err := h.service.UpdateOverdueInstallments(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"updated": updated})
}

// RegisterRoutes registers payment and installment routes
func (h *InstallmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/sales-invoices/:id")
	{
		invoices.POST("/payments", h.RecordPayment)
		invoices.POST("/installments", h.GenerateSchedule)
		invoices.GET("/installments", h.GetSchedule)
	}

	rg.POST("/installments/update-overdue", h.UpdateOverdue)
}
