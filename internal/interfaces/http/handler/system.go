package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resys/backend/internal/infrastructure/logger"
	"github.com/resys/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping implements Pinger
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// SystemHandler serves liveness, readiness and build information
type SystemHandler struct {
	BaseHandler
	name         string
	version      string
	startTime    time.Time
	dependencies map[string]Pinger
}

// NewSystemHandler creates a SystemHandler. dependencies are pinged by Health
// under their map key.
func NewSystemHandler(name, version string, dependencies map[string]Pinger) *SystemHandler {
	return &SystemHandler{
		name:         name,
		version:      version,
		startTime:    time.Now(),
		dependencies: dependencies,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse reports the state of every checked dependency
type HealthResponse struct {
	Status       string            `json:"status"`
	Time         string            `json:"time"`
	Dependencies map[string]string `json:"dependencies"`
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Returns version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=SystemInfoResponse}
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ping godoc
// @ID           ping
// @Summary      Answers as long as the process serves requests
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=object}
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"message":   "pong",
		"timestamp": time.Now().Format(time.RFC3339),
	}))
}

// Health pings every dependency and answers 503 if any of them fails
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:       "healthy",
		Time:         time.Now().Format(time.RFC3339),
		Dependencies: make(map[string]string, len(h.dependencies)),
	}
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Dependencies[name] = "error"
			resp.Status = "unhealthy"
			continue
		}
		resp.Dependencies[name] = "ok"
	}

	if resp.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
