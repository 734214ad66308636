package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the gin engine with all service routes registered.
func Router(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", h.Root)
	r.GET("/docs", h.Docs)
	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)
	r.POST("/ingest", h.Ingest)
	r.GET("/queue/stats", h.QueueStats)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}
