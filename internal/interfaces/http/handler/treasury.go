package handler

import (
	"context"
	"time"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/bizledger/backend/internal/application/treasury"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TreasuryHandler handles treasury, partner balance and manual
// financial transaction endpoints
type TreasuryHandler struct {
	BaseHandler
	service *posting.Service
}

// NewTreasuryHandler creates a new TreasuryHandler
func NewTreasuryHandler(service *posting.Service) *TreasuryHandler {
	return &TreasuryHandler{service: service}
}

// ===================== Request/Response DTOs =====================

// FinancialTransactionRequest records a manual settlement against a partner
type FinancialTransactionRequest struct {
	Kind        string  `json:"kind" binding:"required,oneof=COLLECTION PAYMENT"`
	TreasuryID  *string `json:"treasury_id" binding:"omitempty,uuid"`
	PartnerID   string  `json:"partner_id" binding:"required,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Discount    float64 `json:"discount" binding:"omitempty,gte=0"`
	Description string  `json:"description"`
}

// CashFlowRequest records a standalone expense or revenue entry
type CashFlowRequest struct {
	TreasuryID  *string `json:"treasury_id" binding:"omitempty,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required"`
}

// TreasuryTransactionResponse represents a treasury ledger row
type TreasuryTransactionResponse struct {
	ID            string    `json:"id"`
	TreasuryID    *string   `json:"treasury_id,omitempty"`
	Type          string    `json:"type"`
	Amount        float64   `json:"amount"`
	Discount      float64   `json:"discount"`
	PartnerID     *string   `json:"partner_id,omitempty"`
	ReferenceKind string    `json:"reference_kind"`
	ReferenceID   string    `json:"reference_id"`
	Description   string    `json:"description,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// TreasuryStatementLineResponse is a ledger row with its running balance
type TreasuryStatementLineResponse struct {
	TreasuryTransactionResponse
	Balance float64 `json:"balance"`
}

// BalanceResponse reports a computed balance
type BalanceResponse struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}

func toTreasuryTransactionResponse(tx *ledger.TreasuryTransaction) TreasuryTransactionResponse {
	resp := TreasuryTransactionResponse{
		ID:            tx.ID.String(),
		Type:          string(tx.Type),
		Amount:        tx.Amount.InexactFloat64(),
		Discount:      tx.Discount.InexactFloat64(),
		ReferenceKind: string(tx.Reference.Kind),
		ReferenceID:   tx.Reference.ID.String(),
		Description:   tx.Description,
		OccurredAt:    tx.OccurredAt,
	}
	if tx.TreasuryID != nil {
		s := tx.TreasuryID.String()
		resp.TreasuryID = &s
	}
	if tx.PartnerID != nil {
		s := tx.PartnerID.String()
		resp.PartnerID = &s
	}
	return resp
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ===================== Endpoints =====================

// RecordFinancialTransaction records a manual collection or payment
// settling a partner balance
func (h *TreasuryHandler) RecordFinancialTransaction(c *gin.Context) {
	var req FinancialTransactionRequest
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

	tx, err := h.service.RecordFinancialTransaction(
		c.Request.Context(),
		treasury.SettlementKind(req.Kind),
		treasuryID,
		partnerID,
		decimal.NewFromFloat(req.Amount),
		decimal.NewFromFloat(req.Discount),
		req.Description,
		actorID,
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTreasuryTransactionResponse(tx))
}

// RecordExpense records a standalone expense against a treasury
func (h *TreasuryHandler) RecordExpense(c *gin.Context) {
	h.recordCashFlow(c, h.service.RecordExpense)
}

// RecordRevenue records a standalone revenue entry against a treasury
func (h *TreasuryHandler) RecordRevenue(c *gin.Context) {
	h.recordCashFlow(c, h.service.RecordRevenue)
}

type cashFlowFn func(ctx context.Context, treasuryID *uuid.UUID, amount decimal.Decimal, description string, actorID uuid.UUID) (*ledger.TreasuryTransaction, error)

func (h *TreasuryHandler) recordCashFlow(c *gin.Context, fn cashFlowFn) {
	var req CashFlowRequest
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

	tx, err := fn(c.Request.Context(), treasuryID, decimal.NewFromFloat(req.Amount), req.Description, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTreasuryTransactionResponse(tx))
}

// GetTreasuryBalance returns the current balance of a treasury
func (h *TreasuryHandler) GetTreasuryBalance(c *gin.Context) {
	h.balance(c, h.service.GetTreasuryBalance)
}

// GetPartnerBalance returns the current net balance of a partner
func (h *TreasuryHandler) GetPartnerBalance(c *gin.Context) {
	h.balance(c, h.service.GetPartnerBalance)
}

func (h *TreasuryHandler) balance(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid ID")
		return
	}
	balance, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BalanceResponse{ID: id.String(), Balance: balance.InexactFloat64()})
}

// GetTreasuryStatement returns the treasury's ledger with running balances
func (h *TreasuryHandler) GetTreasuryStatement(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid treasury ID")
		return
	}
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines, err := h.service.GetTreasuryStatement(c.Request.Context(), id, listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := make([]TreasuryStatementLineResponse, 0, len(lines))
	for i := range lines {
		resp = append(resp, TreasuryStatementLineResponse{
			TreasuryTransactionResponse: toTreasuryTransactionResponse(&lines[i].Transaction),
			Balance:                     lines[i].Balance.InexactFloat64(),
		})
	}
	h.Success(c, resp)
}

// GetPartnerTransactions returns the partner's treasury ledger rows
func (h *TreasuryHandler) GetPartnerTransactions(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid partner ID")
		return
	}
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	txs, err := h.service.GetPartnerTransactions(c.Request.Context(), id, listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := make([]TreasuryTransactionResponse, 0, len(txs))
	for i := range txs {
		resp = append(resp, toTreasuryTransactionResponse(&txs[i]))
	}
	h.Success(c, resp)
}

// RecalculatePartnerBalance recomputes and stores a partner's cached balance
func (h *TreasuryHandler) RecalculatePartnerBalance(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid partner ID")
		return
	}
	if err := h.service.RecalculatePartnerBalance(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	balance, err := h.service.GetPartnerBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BalanceResponse{ID: id.String(), Balance: balance.InexactFloat64()})
}

// RegisterRoutes registers treasury and partner balance routes
func (h *TreasuryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/financial-transactions", h.RecordFinancialTransaction)
	rg.POST("/expenses", h.RecordExpense)
	rg.POST("/revenues", h.RecordRevenue)

	treasuries := rg.Group("/treasuries")
	{
		treasuries.GET("/:id/balance", h.GetTreasuryBalance)
		treasuries.GET("/:id/statement", h.GetTreasuryStatement)
	}

	partners := rg.Group("/partners")
	{
		partners.GET("/:id/balance", h.GetPartnerBalance)
		partners.GET("/:id/transactions", h.GetPartnerTransactions)
		partners.POST("/:id/recalculate-balance", h.RecalculatePartnerBalance)
	}
}
