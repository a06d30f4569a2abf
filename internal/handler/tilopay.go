package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pasarela/internal/metrics"
	"pasarela/internal/tilopay"
)

// TilopayHandler handles HTTP requests for the upstream gateway exchange.
type TilopayHandler struct {
	client  *tilopay.Client
	metrics *metrics.PaymentMetrics
}

// NewTilopayHandler creates a new TilopayHandler.
func NewTilopayHandler(client *tilopay.Client, m *metrics.PaymentMetrics) *TilopayHandler {
	return &TilopayHandler{client: client, metrics: m}
}

// SDKToken handles POST /api/tilopay/sdk-token.
// The upstream status and body are proxied verbatim so a failing exchange
// can be diagnosed from the browser. This is a debug affordance carried
// over deliberately; it is not meant for production exposure.
func (h *TilopayHandler) SDKToken(c *gin.Context) {
	result, err := h.client.SDKToken(c.Request.Context())
	if err != nil {
		h.countSDKToken("error")
		if errors.Is(err, tilopay.ErrMissingCredentials) || errors.Is(err, tilopay.ErrMissingTokenURL) {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		log.Printf("tilopay: sdk token exchange: %v", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "gateway unreachable"})
		return
	}

	if result.StatusCode >= 200 && result.StatusCode < 300 {
		h.countSDKToken("ok")
	} else {
		h.countSDKToken("upstream_error")
	}

	c.Data(result.StatusCode, "application/json", result.Body)
}

// ConfigCheck handles GET /api/tilopay/config-check, reporting OK/MISSING
// per configuration key without revealing the values.
func (h *TilopayHandler) ConfigCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.client.ConfigStatus())
}

func (h *TilopayHandler) countSDKToken(outcome string) {
	if h.metrics != nil {
		h.metrics.SDKTokenRequestsTotal.WithLabelValues(outcome).Inc()
	}
}
