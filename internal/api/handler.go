package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storebot/internal/service"
	"storebot/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CallbackHandler processes an authenticated gateway callback
type CallbackHandler interface {
	HandleCallback(ctx context.Context, data, signature string) error
}

// Handler contains HTTP handlers
type Handler struct {
	reconciler CallbackHandler
}

// NewHandler creates a new HTTP handler
func NewHandler(reconciler CallbackHandler) *Handler {
	return &Handler{reconciler: reconciler}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/payment-callback", h.paymentCallback)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// paymentCallback handles the gateway's form-encoded payment notification.
// A duplicate reconciliation is acked with 200 so the gateway stops
// retrying; any unexpected failure gets a 500 so it retries.
func (h *Handler) paymentCallback(c *gin.Context) {
	data := c.PostForm("data")
	signature := c.PostForm("signature")

	start := time.Now()
	err := h.reconciler.HandleCallback(c.Request.Context(), data, signature)
	util.ReconcileLatency.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		util.CallbacksTotal.WithLabelValues("ok").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, service.ErrConflict):
		util.CallbacksTotal.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, service.ErrBadRequest):
		util.CallbacksTotal.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or malformed data"})
	case errors.Is(err, service.ErrForbidden):
		util.CallbacksTotal.WithLabelValues("forbidden").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
	case errors.Is(err, service.ErrNotFound):
		util.CallbacksTotal.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "order or cart not found"})
	default:
		util.CallbacksTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
