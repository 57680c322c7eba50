package handler

import (
	"github.com/gin-gonic/gin"

	cartapp "github.com/storefront/backend/internal/application/cart"
)

// CartHandler serves guest carts
type CartHandler struct {
	BaseHandler
	carts *cartapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *cartapp.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Create handles POST /store/carts
func (h *CartHandler) Create(c *gin.Context) {
	out, err := h.carts.Create(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// Get handles GET /store/carts/:id
func (h *CartHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.carts.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// SetItem handles PUT /store/carts/:id/items
func (h *CartHandler) SetItem(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req cartapp.SetItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.carts.SetItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// RemoveItem handles DELETE /store/carts/:id/items/:variantId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	variantID, ok := h.ParamUUID(c, "variantId")
	if !ok {
		return
	}
	out, err := h.carts.RemoveItem(c.Request.Context(), id, variantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
