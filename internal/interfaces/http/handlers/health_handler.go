package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/CiteGuard/internal/config"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

// DependencyCheck probes one backing service.
type DependencyCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.  Liveness never
// inspects dependencies; readiness runs every registered check and reports
// per-dependency status.
type HealthHandler struct {
	checks  map[string]DependencyCheck
	timeout time.Duration
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		checks:  make(map[string]DependencyCheck),
		timeout: 3 * time.Second,
	}
}

// RegisterCheck adds a named dependency probe.  Not safe for concurrent
// use with request handling; register everything before the server starts.
func (h *HealthHandler) RegisterCheck(name string, check DependencyCheck) {
	h.checks[name] = check
}

// Liveness reports that the process is up.
// GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": config.Version,
	})
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readiness runs all dependency checks.  Any failing check flips the
// overall status to degraded and the response to 503.
// GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	overall := http.StatusOK
	deps := make(map[string]dependencyStatus, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			overall = http.StatusServiceUnavailable
			deps[name] = dependencyStatus{Status: "down", Error: err.Error()}
			continue
		}
		deps[name] = dependencyStatus{Status: "up"}
	}

	status := "ok"
	if overall != http.StatusOK {
		status = "degraded"
	}
	c.JSON(overall, gin.H{
		"status":       status,
		"version":      config.Version,
		"dependencies": deps,
	})
}

// parsePositiveInt parses v as an int in (0, max].
func parsePositiveInt(v string, max int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.NewInvalidInputError("not a number")
	}
	if n <= 0 || n > max {
		return 0, errors.NewInvalidInputError("out of range")
	}
	return n, nil
}
