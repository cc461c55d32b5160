package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hospfin/backend/internal/infrastructure/persistence"
	"github.com/hospfin/backend/internal/interfaces/http/dto"
)

// SystemHandler handles health and system API endpoints
type SystemHandler struct {
	BaseHandler
	db        *persistence.Database
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db *persistence.Database) *SystemHandler {
	return &SystemHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string         `json:"status"`
	GoVersion string         `json:"go_version"`
	Uptime    string         `json:"uptime"`
	Database  DatabaseHealth `json:"database"`
}

// DatabaseHealth represents database connectivity in the health response
type DatabaseHealth struct {
	Status          string `json:"status"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
}

// Health reports process and database health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  DatabaseHealth{Status: "ok"},
	}

	status := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "degraded"
			resp.Database.Status = "unreachable"
			status = http.StatusServiceUnavailable
		} else if stats, err := h.db.Stats(); err == nil {
			resp.Database.OpenConnections = stats.OpenConnections
			resp.Database.InUse = stats.InUse
			resp.Database.Idle = stats.Idle
		}
	}

	c.JSON(status, dto.NewSuccessResponse(resp))
}
