package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ticketbook/backend/internal/interfaces/http/dto"
)

// Pinger checks a dependency's connectivity
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service liveness and database reachability
type HealthHandler struct {
	BaseHandler
	db          Pinger
	name        string
	version     string
	pingTimeout time.Duration
	startTime   time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, name, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		name:        name,
		version:     version,
		pingTimeout: 2 * time.Second,
		startTime:   time.Now(),
	}
}

// HealthResponse is the body of a healthy /health response
type HealthResponse struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Database  string `json:"database"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health godoc
// @Summary      Health check
// @Description  Ping the database; answers 503 when it is unreachable
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Database unavailable")
		return
	}

	h.Success(c, HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		Database:  "up",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
