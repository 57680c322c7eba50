package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	notificationapp "github.com/storefront/backend/internal/application/notification"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ReconciliationHandler exposes orphan payments, manual reconciliation runs
// and the email outbox
type ReconciliationHandler struct {
	BaseHandler
	payments *paymentapp.ReconciliationService
	emails   *notificationapp.EmailService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(payments *paymentapp.ReconciliationService, emails *notificationapp.EmailService) *ReconciliationHandler {
	return &ReconciliationHandler{payments: payments, emails: emails}
}

// ListOrphans handles GET /admin/orphan-payments?status=
func (h *ReconciliationHandler) ListOrphans(c *gin.Context) {
	var filter paymentapp.OrphanListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	out, total, err := h.payments.ListOrphans(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// RetryOrphan handles POST /admin/orphan-payments/:id/retry
func (h *ReconciliationHandler) RetryOrphan(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.payments.RetryOrphan(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Sweep handles POST /admin/reconciliation/sweep
func (h *ReconciliationHandler) Sweep(c *gin.Context) {
	out, err := h.payments.SweepOrphans(c.Request.Context())
	if out == nil {
		h.HandleError(c, err)
		return
	}
	if err != nil {
		// Per-orphan failures are counted in the result and retried next sweep
		logger.L(c.Request.Context()).Warn("Orphan sweep finished with errors", zap.Error(err))
	}
	h.Success(c, out)
}

// Scan handles POST /admin/reconciliation/scan?window=24h. Without a
// window the configured one is used.
func (h *ReconciliationHandler) Scan(c *gin.Context) {
	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "window must be a positive duration such as 24h")
			return
		}
		window = d
	}
	out, err := h.payments.ScanPayments(c.Request.Context(), window)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// ListEmails handles GET /admin/emails?status=
func (h *ReconciliationHandler) ListEmails(c *gin.Context) {
	var filter notificationapp.EmailListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	out, total, err := h.emails.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// RetryEmail handles POST /admin/emails/:id/retry
func (h *ReconciliationHandler) RetryEmail(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.emails.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
