package handler

import (
	"errors"
	"net/http"

	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/bizledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getActorID extracts the acting user's ID resolved by the Actor middleware
func getActorID(c *gin.Context) (uuid.UUID, error) {
	if actorID, ok := middleware.GetActorID(c); ok {
		return actorID, nil
	}
	return uuid.Nil, errors.New("actor ID not found; set the " + middleware.ActorIDHeader + " header")
}

// parseIDParam parses a UUID path parameter
func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message))
}

// HandleError maps a service error to the right HTTP response. Domain
// errors carry their own code; everything else is an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.GetHTTPStatus(domainErr.Code), dto.NewErrorResponse(domainErr.Code, domainErr.Message))
		return
	}
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "Internal server error"))
	_ = c.Error(err)
}

// listFilter converts a bound ListRequest into a shared.Filter
func listFilter(req dto.ListRequest) shared.Filter {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter
}
