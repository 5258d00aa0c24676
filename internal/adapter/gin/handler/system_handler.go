package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-crud-service/pkg/logger"
)

// readyTimeout bounds each dependency check of the readiness endpoint.
const readyTimeout = 2 * time.Second

// HealthChecker is a dependency the readiness endpoint pings.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}

// SystemHandler serves the service metadata endpoints.
type SystemHandler struct {
	service   string
	version   string
	apiPrefix string
	started   time.Time
	checkers  []HealthChecker
	log       *zap.Logger
}

// NewSystemHandler creates a SystemHandler. Uptime is measured from this call.
func NewSystemHandler(service, version, apiPrefix string, log *zap.Logger, checkers ...HealthChecker) *SystemHandler {
	return &SystemHandler{
		service:   service,
		version:   version,
		apiPrefix: apiPrefix,
		started:   time.Now(),
		checkers:  checkers,
		log:       log,
	}
}

// HealthResponse is the body of the liveness endpoint.
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Service   string  `json:"service"`
	Version   string  `json:"version"`
}

// ReadyResponse is the body of the readiness endpoint.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// RootResponse advertises the API entry points.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// Root handles GET /
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, RootResponse{
		Message: "User CRUD API",
		Version: h.version,
		Endpoints: map[string]string{
			"users":   h.apiPrefix + "/users",
			"health":  h.apiPrefix + "/health",
			"ready":   h.apiPrefix + "/ready",
			"openapi": "/openapi.json",
			"docs":    "/swagger/index.html",
		},
	})
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Uptime:    time.Since(h.started).Seconds(),
		Service:   h.service,
		Version:   h.version,
	})
}

// Ready handles GET /ready. It answers 503 when any dependency fails its ping.
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(h.checkers))}
	status := http.StatusOK

	for _, checker := range h.checkers {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		err := checker.Ping(ctx)
		cancel()

		if err != nil {
			logger.WithContext(c.Request.Context(), h.log).Warn("readiness check failed",
				zap.String("check", checker.Name()), zap.Error(err))
			resp.Checks[checker.Name()] = "down"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[checker.Name()] = "up"
	}

	c.JSON(status, resp)
}

// NotFound answers unmatched routes.
func (h *SystemHandler) NotFound(c *gin.Context) {
	Fail(c, http.StatusNotFound, MsgRouteNotFound)
}
