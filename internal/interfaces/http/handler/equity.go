package handler

import (
	"time"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EquityHandler handles partner capital and equity period endpoints
type EquityHandler struct {
	BaseHandler
	service *posting.Service
}

// NewEquityHandler creates a new EquityHandler
func NewEquityHandler(service *posting.Service) *EquityHandler {
	return &EquityHandler{service: service}
}

// ===================== Request/Response DTOs =====================

// CreatePeriodRequest opens the first equity period
type CreatePeriodRequest struct {
	StartDate time.Time `json:"start_date" binding:"required"`
}

// CapitalInjectionRequest records a capital contribution by a partner
type CapitalInjectionRequest struct {
	PartnerID  string  `json:"partner_id" binding:"required,uuid"`
	TreasuryID *string `json:"treasury_id" binding:"omitempty,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
}

// DrawingRequest records a cash drawing taken by a partner
type DrawingRequest struct {
	PartnerID  string  `json:"partner_id" binding:"required,uuid"`
	TreasuryID string  `json:"treasury_id" binding:"required,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Reason     string  `json:"reason"`
}

// ClosePeriodRequest closes the open period and allocates its profit
type ClosePeriodRequest struct {
	EndDate time.Time `json:"end_date" binding:"required"`
	Notes   string    `json:"notes"`
}

// EquityPeriodPartnerResponse is one partner's line in a period
type EquityPeriodPartnerResponse struct {
	PartnerID        string  `json:"partner_id"`
	EquityPercentage float64 `json:"equity_percentage"`
	CapitalAtStart   float64 `json:"capital_at_start"`
	CapitalInjected  float64 `json:"capital_injected"`
	DrawingsTaken    float64 `json:"drawings_taken"`
	ProfitAllocated  float64 `json:"profit_allocated"`
}

// EquityPeriodResponse represents an equity period
type EquityPeriodResponse struct {
	ID           string                        `json:"id"`
	PeriodNumber int                           `json:"period_number"`
	StartDate    time.Time                     `json:"start_date"`
	EndDate      *time.Time                    `json:"end_date,omitempty"`
	Status       string                        `json:"status"`
	TotalRevenue float64                       `json:"total_revenue"`
	TotalExpense float64                       `json:"total_expense"`
	NetProfit    float64                       `json:"net_profit"`
	Notes        string                        `json:"notes,omitempty"`
	ClosedAt     *time.Time                    `json:"closed_at,omitempty"`
	Partners     []EquityPeriodPartnerResponse `json:"partners"`
}

// FinancialSummaryResponse reports a period's revenue, expenses and profit
type FinancialSummaryResponse struct {
	PeriodID  string  `json:"period_id"`
	Revenue   float64 `json:"revenue"`
	Expenses  float64 `json:"expenses"`
	NetProfit float64 `json:"net_profit"`
}

func toEquityPeriodResponse(period *finance.EquityPeriod) EquityPeriodResponse {
	resp := EquityPeriodResponse{
		ID:           period.ID.String(),
		PeriodNumber: period.PeriodNumber,
		StartDate:    period.StartDate,
		EndDate:      period.EndDate,
		Status:       string(period.Status),
		TotalRevenue: period.TotalRevenue.InexactFloat64(),
		TotalExpense: period.TotalExpense.InexactFloat64(),
		NetProfit:    period.NetProfit.InexactFloat64(),
		Notes:        period.Notes,
		ClosedAt:     period.ClosedAt,
		Partners:     make([]EquityPeriodPartnerResponse, 0, len(period.Partners)),
	}
	for i := range period.Partners {
		p := &period.Partners[i]
		resp.Partners = append(resp.Partners, EquityPeriodPartnerResponse{
			PartnerID:        p.PartnerID.String(),
			EquityPercentage: p.EquityPercentage.InexactFloat64(),
			CapitalAtStart:   p.CapitalAtStart.InexactFloat64(),
			CapitalInjected:  p.CapitalInjected.InexactFloat64(),
			DrawingsTaken:    p.DrawingsTaken.InexactFloat64(),
			ProfitAllocated:  p.ProfitAllocated.InexactFloat64(),
		})
	}
	return resp
}

// ===================== Endpoints =====================

// CreateInitialPeriod opens the first equity period
func (h *EquityHandler) CreateInitialPeriod(c *gin.Context) {
	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	period, err := h.service.CreateInitialPeriod(c.Request.Context(), req.StartDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toEquityPeriodResponse(period))
}

// InjectCapital records a capital contribution and recalculates equity
func (h *EquityHandler) InjectCapital(c *gin.Context) {
	var req CapitalInjectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		h.BadRequest(c, "Invalid partner ID")
		return
	}
	treasuryID, err := parseOptionalUUID(req.TreasuryID)
	if err != nil {
		h.BadRequest(c, "Invalid treasury ID")
		return
	}

	if err := h.service.InjectCapital(c.Request.Context(), partnerID, treasuryID, decimal.NewFromFloat(req.Amount), actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"partner_id": partnerID, "status": "RECORDED"})
}

// RecordDrawing records a partner cash drawing
func (h *EquityHandler) RecordDrawing(c *gin.Context) {
	var req DrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		h.BadRequest(c, "Invalid partner ID")
		return
	}
	treasuryID, err := uuid.Parse(req.TreasuryID)
	if err != nil {
		h.BadRequest(c, "Invalid treasury ID")
		return
	}

	if err := h.service.RecordDrawing(c.Request.Context(), partnerID, treasuryID, decimal.NewFromFloat(req.Amount), req.Reason, actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"partner_id": partnerID, "status": "RECORDED"})
}

// ClosePeriod closes the open equity period, allocates profit and opens
// the successor period
func (h *EquityHandler) ClosePeriod(c *gin.Context) {
	var req ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	period, err := h.service.ClosePeriodAndAllocate(c.Request.Context(), req.EndDate, req.Notes, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toEquityPeriodResponse(period))
}

// GetFinancialSummary returns the running revenue/expense/profit of a period
func (h *EquityHandler) GetFinancialSummary(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid period ID")
		return
	}
	summary, err := h.service.GetFinancialSummary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, FinancialSummaryResponse{
		PeriodID:  id.String(),
		Revenue:   summary.Revenue.InexactFloat64(),
		Expenses:  summary.Expenses.InexactFloat64(),
		NetProfit: summary.NetProfit.InexactFloat64(),
	})
}

// RegisterRoutes registers equity and capital routes
func (h *EquityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	equity := rg.Group("/equity")
	{
		equity.POST("/periods", h.CreateInitialPeriod)
		equity.POST("/periods/close", h.ClosePeriod)
		equity.GET("/periods/:id/summary", h.GetFinancialSummary)
		equity.POST("/capital-injections", h.InjectCapital)
		equity.POST("/drawings", h.RecordDrawing)
	}
}
