package handler

import (
	"time"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler handles stock balance and movement statement endpoints
type StockHandler struct {
	BaseHandler
	service *posting.Service
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service *posting.Service) *StockHandler {
	return &StockHandler{service: service}
}

// ===================== Request/Response DTOs =====================

// StockQuery identifies a warehouse/product pair
type StockQuery struct {
	WarehouseID string `form:"warehouse_id" binding:"required,uuid"`
	ProductID   string `form:"product_id" binding:"required,uuid"`
}

// StockMovementResponse represents a stock ledger row
type StockMovementResponse struct {
	ID            string    `json:"id"`
	WarehouseID   string    `json:"warehouse_id"`
	ProductID     string    `json:"product_id"`
	Type          string    `json:"type"`
	Quantity      float64   `json:"quantity"`
	CostAtTime    float64   `json:"cost_at_time"`
	ReferenceKind string    `json:"reference_kind"`
	ReferenceID   string    `json:"reference_id"`
	MovementAt    time.Time `json:"movement_at"`
}

// StockStatementLineResponse is a stock ledger row with its running balance
type StockStatementLineResponse struct {
	StockMovementResponse
	Balance float64 `json:"balance"`
}

// StockBalanceResponse reports the current on-hand quantity
type StockBalanceResponse struct {
	WarehouseID string  `json:"warehouse_id"`
	ProductID   string  `json:"product_id"`
	Quantity    float64 `json:"quantity"`
}

func toStockMovementResponse(m *ledger.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:            m.ID.String(),
		WarehouseID:   m.WarehouseID.String(),
		ProductID:     m.ProductID.String(),
		Type:          string(m.Type),
		Quantity:      m.Quantity.InexactFloat64(),
		CostAtTime:    m.CostAtTime.InexactFloat64(),
		ReferenceKind: string(m.Reference.Kind),
		ReferenceID:   m.Reference.ID.String(),
		MovementAt:    m.MovementAt,
	}
}

func (q StockQuery) ids() (warehouseID, productID uuid.UUID, err error) {
	warehouseID, err = uuid.Parse(q.WarehouseID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	productID, err = uuid.Parse(q.ProductID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return warehouseID, productID, nil
}

// ===================== Endpoints =====================

// GetCurrentStock returns the on-hand quantity for a warehouse/product pair
func (h *StockHandler) GetCurrentStock(c *gin.Context) {
	var q StockQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	warehouseID, productID, err := q.ids()
	if err != nil {
		h.BadRequest(c, "Invalid warehouse or product ID")
		return
	}

	qty, err := h.service.GetCurrentStock(c.Request.Context(), warehouseID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, StockBalanceResponse{
		WarehouseID: warehouseID.String(),
		ProductID:   productID.String(),
		Quantity:    qty.InexactFloat64(),
	})
}

// GetStockStatement returns the movement history for a warehouse/product
// pair with running balances
func (h *StockHandler) GetStockStatement(c *gin.Context) {
	var q StockQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	warehouseID, productID, err := q.ids()
	if err != nil {
		h.BadRequest(c, "Invalid warehouse or product ID")
		return
	}
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines, err := h.service.GetStockStatement(c.Request.Context(), warehouseID, productID, listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := make([]StockStatementLineResponse, 0, len(lines))
	for i := range lines {
		resp = append(resp, StockStatementLineResponse{
			StockMovementResponse: toStockMovementResponse(&lines[i].Movement),
			Balance:               lines[i].Balance.InexactFloat64(),
		})
	}
	h.Success(c, resp)
}

// RegisterRoutes registers stock read routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.GET("/balance", h.GetCurrentStock)
		stock.GET("/statement", h.GetStockStatement)
	}
}
