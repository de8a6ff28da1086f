package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/erp/stockreservation/internal/infrastructure/persistence"
	"github.com/erp/stockreservation/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DatabaseProbe reports database liveness. *persistence.Database implements it.
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	Stats() (persistence.ConnectionStats, error)
}

// SystemHandler serves liveness and build information
type SystemHandler struct {
	BaseHandler
	db        DatabaseProbe
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db DatabaseProbe, version string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string        `json:"status"` // ok or degraded
	Version   string        `json:"version"`
	GoVersion string        `json:"go_version"`
	Uptime    string        `json:"uptime"`
	Database  DatabaseState `json:"database"`
}

// DatabaseState describes the database as seen by the health check
type DatabaseState struct {
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
}

// Health pings the database. It answers 503 with the same body when the ping fails.
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  DatabaseState{Status: "up"},
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = DatabaseState{Status: "down", Error: err.Error()}
		c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(resp))
		return
	}
	if stats, err := h.db.Stats(); err == nil {
		resp.Database.OpenConnections = stats.OpenConnections
		resp.Database.InUse = stats.InUse
	}
	h.Success(c, resp)
}

// RegisterHealth mounts the health endpoint at the engine root
func (h *SystemHandler) RegisterHealth(engine *gin.Engine) {
	engine.GET("/health", h.Health)
}
