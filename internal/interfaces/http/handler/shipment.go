package handler

import (
	"github.com/gin-gonic/gin"

	shippingapp "github.com/storefront/backend/internal/application/shipping"
)

// ShipmentHandler serves shipments and delivery options
type ShipmentHandler struct {
	BaseHandler
	shipping *shippingapp.ShippingService
	options  *shippingapp.DeliveryOptionService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipping *shippingapp.ShippingService, options *shippingapp.DeliveryOptionService) *ShipmentHandler {
	return &ShipmentHandler{shipping: shipping, options: options}
}

// Get handles GET /admin/shipments/:id
func (h *ShipmentHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.shipping.GetShipment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Sync handles POST /admin/shipments/:id/sync
func (h *ShipmentHandler) Sync(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.shipping.SyncShipment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// ListOptions handles GET /admin/delivery-options
func (h *ShipmentHandler) ListOptions(c *gin.Context) {
	out, err := h.options.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// GetOption handles GET /admin/delivery-options/:id
func (h *ShipmentHandler) GetOption(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.options.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// CreateOption handles POST /admin/delivery-options
func (h *ShipmentHandler) CreateOption(c *gin.Context) {
	var req shippingapp.CreateDeliveryOptionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.options.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// UpdateOption handles PUT /admin/delivery-options/:id
func (h *ShipmentHandler) UpdateOption(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req shippingapp.UpdateDeliveryOptionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.options.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// DeleteOption handles DELETE /admin/delivery-options/:id
func (h *ShipmentHandler) DeleteOption(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.options.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
