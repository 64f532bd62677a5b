package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/gin-gonic/gin"
)

const healthProbeTimeout = 2 * time.Second

// HealthProber is satisfied by collaborators with a health endpoint
type HealthProber interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	access     *remote.Access
	generation HealthProber
	catalog    bool
	nlp        string
}

// NewHealthHandler probes the host through access and, when set, the
// generation collaborator. catalog and nlp are reported as configured.
func NewHealthHandler(access *remote.Access, generation HealthProber, catalog bool, nlp string) *HealthHandler {
	return &HealthHandler{access: access, generation: generation, catalog: catalog, nlp: nlp}
}

// HealthCheck returns 200 while the host is reachable. A failing
// generation service degrades the status without failing the check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
	defer cancel()

	overall := "healthy"
	code := http.StatusOK

	hostStatus := "connected"
	if !h.access.Exists(ctx, remote.Root) {
		hostStatus = "unreachable"
		overall = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	generation := gin.H{"status": "disabled"}
	if h.generation != nil {
		if err := h.generation.Health(ctx); err != nil {
			generation = gin.H{"status": "unreachable", "error": remote.Classify(err).UserMessage}
			if overall == "healthy" {
				overall = "degraded"
			}
		} else {
			generation = gin.H{"status": "connected"}
		}
	}

	catalogStatus := "disabled"
	if h.catalog {
		catalogStatus = "enabled"
	}
	nlpStatus := "disabled"
	if h.nlp != "" {
		nlpStatus = "enabled"
	}

	c.JSON(code, gin.H{
		"status":     overall,
		"host":       gin.H{"status": hostStatus},
		"generation": generation,
		"catalog":    gin.H{"status": catalogStatus},
		"nlp":        gin.H{"status": nlpStatus, "provider": h.nlp},
	})
}
