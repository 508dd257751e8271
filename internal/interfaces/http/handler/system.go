package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/bizledger/backend/internal/infrastructure/persistence"
	"github.com/bizledger/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	appName   string
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database, appName string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		appName:   appName,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.appName,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports liveness and database connectivity
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("UNHEALTHY", "Database unreachable"))
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.GetSystemInfo)
	}
}
