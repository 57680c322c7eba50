package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	paymentapp "github.com/storefront/backend/internal/application/payment"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	webhookapp "github.com/storefront/backend/internal/application/webhook"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// Signature headers of the inbound webhooks
const (
	StripeSignatureHeader   = "Stripe-Signature"
	ShippingSignatureHeader = "X-Shipping-Signature"
)

// WebhookHandler receives payment and carrier notifications. Bodies are
// read raw so signatures can be verified over the exact bytes.
type WebhookHandler struct {
	BaseHandler
	payments  *paymentapp.ReconciliationService
	shipping  *shippingapp.ShippingService
	bodyLimit int64
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(payments *paymentapp.ReconciliationService, shipping *shippingapp.ShippingService, bodyLimit int64) *WebhookHandler {
	if bodyLimit <= 0 {
		bodyLimit = 64 << 10
	}
	return &WebhookHandler{payments: payments, shipping: shipping, bodyLimit: bodyLimit}
}

// Stripe handles POST /webhooks/stripe
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, ok := h.ReadRawBody(c, h.bodyLimit)
	if !ok {
		return
	}
	out, err := h.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		h.webhookError(c, err)
		return
	}
	h.Success(c, out)
}

// Shipping handles POST /webhooks/shipping
func (h *WebhookHandler) Shipping(c *gin.Context) {
	payload, ok := h.ReadRawBody(c, h.bodyLimit)
	if !ok {
		return
	}
	out, err := h.shipping.HandleWebhook(c.Request.Context(), payload, c.GetHeader(ShippingSignatureHeader))
	if err != nil {
		h.webhookError(c, err)
		return
	}
	h.Success(c, out)
}

// webhookError answers 400 for payloads that fail verification or parsing
// and 500 for verified events that could not be applied, so the sender
// redelivers them.
func (h *WebhookHandler) webhookError(c *gin.Context, err error) {
	var perr *webhookapp.ProcessingError
	if !errors.As(err, &perr) {
		h.HandleError(c, err)
		return
	}
	logger.L(c.Request.Context()).Error("Webhook processing failed",
		zap.String("event_id", perr.EventID),
		zap.Error(perr.Err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Webhook processing failed")
}
