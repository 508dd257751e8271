package handler

import (
	"context"

	"github.com/bizledger/backend/internal/application/posting"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PostingHandler exposes the document posting and deletion operations
type PostingHandler struct {
	BaseHandler
	service *posting.Service
}

// NewPostingHandler creates a new PostingHandler
func NewPostingHandler(service *posting.Service) *PostingHandler {
	return &PostingHandler{service: service}
}

func (h *PostingHandler) post(c *gin.Context, fn func(ctx context.Context, id, actorID uuid.UUID) error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if err := fn(c.Request.Context(), id, actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"id": id, "status": "POSTED"})
}

func (h *PostingHandler) delete(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return
	}
	if err := fn(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// PostSalesInvoice posts a draft sales invoice
func (h *PostingHandler) PostSalesInvoice(c *gin.Context) {
	h.post(c, h.service.PostSalesInvoice)
}

// PostPurchaseInvoice posts a draft purchase invoice
func (h *PostingHandler) PostPurchaseInvoice(c *gin.Context) {
	h.post(c, h.service.PostPurchaseInvoice)
}

// PostSalesReturn posts a draft sales return
func (h *PostingHandler) PostSalesReturn(c *gin.Context) {
	h.post(c, h.service.PostSalesReturn)
}

// PostPurchaseReturn posts a draft purchase return
func (h *PostingHandler) PostPurchaseReturn(c *gin.Context) {
	h.post(c, h.service.PostPurchaseReturn)
}

// PostStockAdjustment posts a draft stock adjustment
func (h *PostingHandler) PostStockAdjustment(c *gin.Context) {
	h.post(c, h.service.PostStockAdjustment)
}

// PostWarehouseTransfer posts a draft warehouse transfer
func (h *PostingHandler) PostWarehouseTransfer(c *gin.Context) {
	h.post(c, h.service.PostWarehouseTransfer)
}

// PostFixedAsset posts a draft fixed asset purchase
func (h *PostingHandler) PostFixedAsset(c *gin.Context) {
	h.post(c, h.service.PostFixedAssetPurchase)
}

// DeleteSalesInvoice deletes a draft sales invoice
func (h *PostingHandler) DeleteSalesInvoice(c *gin.Context) {
	h.delete(c, h.service.DeleteSalesInvoice)
}

// DeletePurchaseInvoice deletes a draft purchase invoice
func (h *PostingHandler) DeletePurchaseInvoice(c *gin.Context) {
	h.delete(c, h.service.DeletePurchaseInvoice)
}

// DeleteSalesReturn deletes a draft sales return
func (h *PostingHandler) DeleteSalesReturn(c *gin.Context) {
	h.delete(c, h.service.DeleteSalesReturn)
}

// DeletePurchaseReturn deletes a draft purchase return
func (h *PostingHandler) DeletePurchaseReturn(c *gin.Context) {
	h.delete(c, h.service.DeletePurchaseReturn)
}

// DeleteStockAdjustment deletes a draft stock adjustment
func (h *PostingHandler) DeleteStockAdjustment(c *gin.Context) {
	h.delete(c, h.service.DeleteStockAdjustment)
}

// DeleteWarehouseTransfer deletes a draft warehouse transfer
func (h *PostingHandler) DeleteWarehouseTransfer(c *gin.Context) {
	h.delete(c, h.service.DeleteWarehouseTransfer)
}

// DeleteFixedAsset deletes a draft fixed asset
func (h *PostingHandler) DeleteFixedAsset(c *gin.Context) {
	h.delete(c, h.service.DeleteFixedAsset)
}

// RegisterRoutes registers document posting and deletion routes
func (h *PostingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	salesInvoices := rg.Group("/sales-invoices")
	{
		salesInvoices.POST("/:id/post", h.PostSalesInvoice)
		salesInvoices.DELETE("/:id", h.DeleteSalesInvoice)
	}

	purchaseInvoices := rg.Group("/purchase-invoices")
	{
		purchaseInvoices.POST("/:id/post", h.PostPurchaseInvoice)
		purchaseInvoices.DELETE("/:id", h.DeletePurchaseInvoice)
	}

	salesReturns := rg.Group("/sales-returns")
	{
		salesReturns.POST("/:id/post", h.PostSalesReturn)
		salesReturns.DELETE("/:id", h.DeleteSalesReturn)
	}

	purchaseReturns := rg.Group("/purchase-returns")
	{
		purchaseReturns.POST("/:id/post", h.PostPurchaseReturn)
		purchaseReturns.DELETE("/:id", h.DeletePurchaseReturn)
	}

	adjustments := rg.Group("/stock-adjustments")
	{
		adjustments.POST("/:id/post", h.PostStockAdjustment)
		adjustments.DELETE("/:id", h.DeleteStockAdjustment)
	}

	transfers := rg.Group("/warehouse-transfers")
	{
		transfers.POST("/:id/post", h.PostWarehouseTransfer)
		transfers.DELETE("/:id", h.DeleteWarehouseTransfer)
	}

	assets := rg.Group("/fixed-assets")
	{
		assets.POST("/:id/post", h.PostFixedAsset)
		assets.DELETE("/:id", h.DeleteFixedAsset)
	}
}
