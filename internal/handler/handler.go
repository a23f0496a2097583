package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/riskcast-api/internal/model"
)

// Handler serves the service-level routes: status, probes and metrics.
type Handler struct {
	availability model.ModelAvailability
	gatherer     prometheus.Gatherer
}

func NewHandler(availability model.ModelAvailability, gatherer prometheus.Gatherer) *Handler {
	return &Handler{
		availability: availability,
		gatherer:     gatherer,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.Status)

	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}

	r.GET("/metrics", h.MetricsHandler())
}

func (h *Handler) MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
