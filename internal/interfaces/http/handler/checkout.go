package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client's checkout attempt key
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutHandler places orders
type CheckoutHandler struct {
	BaseHandler
	checkout *checkoutapp.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkout *checkoutapp.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Checkout handles POST /store/checkout. A replayed idempotency key returns
// the original order with 200 instead of 201.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req checkoutapp.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.checkout.Checkout(c.Request.Context(), req, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if out.Replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, dto.NewSuccessResponse(out))
		return
	}
	h.Created(c, out)
}
