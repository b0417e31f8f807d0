package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"paygate/internal/service"
	"paygate/internal/store"
	"paygate/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	checkout *service.CheckoutService
	webhook  *service.WebhookService
	gate     *service.AnalysisGate
	query    *service.OrderQuery
	analyzer service.Analyzer
}

// NewHandler creates a new HTTP handler
func NewHandler(
	checkout *service.CheckoutService,
	webhook *service.WebhookService,
	gate *service.AnalysisGate,
	query *service.OrderQuery,
	analyzer service.Analyzer,
) *Handler {
	return &Handler{
		checkout: checkout,
		webhook:  webhook,
		gate:     gate,
		query:    query,
		analyzer: analyzer,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/checkout", h.createCheckout)
		v1.GET("/payment/notify", h.paymentNotify)
		v1.POST("/payment/notify", h.paymentNotify)
		v1.POST("/analyze", h.analyze)
		v1.GET("/orders/:order_no", h.getOrderStatus)
		v1.GET("/clients/:client_id/orders", h.listClientOrders)
	}
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

type checkoutRequest struct {
	ClientID  string `json:"client_id" binding:"required"`
	PayMethod string `json:"pay_method"`
}

// createCheckout issues a signed payment redirect URL for a new order
func (h *Handler) createCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "client_id is required",
		})
		return
	}

	result, err := h.checkout.CreateCheckout(c.Request.Context(), req.ClientID, req.PayMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayMethod):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unsupported pay_method"})
		case errors.Is(err, service.ErrOrderNoExhausted):
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "could not allocate order number"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"url":      result.RedirectURL,
		"order_no": result.OrderNo,
	})
}

// paymentNotify receives the provider webhook. The provider expects a bare
// token string in the body, not JSON.
func (h *Handler) paymentNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, service.TokenFail)
		return
	}

	params := make(map[string]string, len(c.Request.Form))
	for k, vs := range c.Request.Form {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}

	token, code := h.webhook.HandleCallback(c.Request.Context(), params)
	c.String(code, token)
}

type analyzeRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

// analyze consumes the paid order and runs the analysis call
func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "order_no is required"})
		return
	}

	order, err := h.gate.ConsumeForAnalysis(c.Request.Context(), req.OrderNo)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
		case errors.Is(err, service.ErrNotPaid):
			c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "error": "order not paid"})
		case errors.Is(err, service.ErrAlreadyConsumed):
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "order already consumed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to consume order"})
		}
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), order)
	if err != nil {
		// The gate is already consumed; surface the failure without retrying.
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "analysis call failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// getOrderStatus handles the client status poll
func (h *Handler) getOrderStatus(c *gin.Context) {
	orderNo := c.Param("order_no")

	status, clientID, err := h.query.GetStatus(c.Request.Context(), orderNo)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    status,
		"client_id": clientID,
	})
}

// listClientOrders returns a client's recent orders
func (h *Handler) listClientOrders(c *gin.Context) {
	clientID := c.Param("client_id")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	orders, err := h.query.ListByClient(c.Request.Context(), clientID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
	})
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
