package handler

import (
	"github.com/gin-gonic/gin"

	customerapp "github.com/storefront/backend/internal/application/customer"
)

// CustomerHandler manages customers and their wishlists
type CustomerHandler struct {
	BaseHandler
	customers *customerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers *customerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// List handles GET /admin/customers
func (h *CustomerHandler) List(c *gin.Context) {
	var filter customerapp.CustomerListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	out, total, err := h.customers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// Get handles GET /admin/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Create handles POST /admin/customers
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerapp.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.customers.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// Update handles PUT /admin/customers/:id
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req customerapp.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.customers.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Delete handles DELETE /admin/customers/:id. The customer's orders stay,
// detached from the customer.
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Wishlist handles GET /admin/customers/:id/wishlist
func (h *CustomerHandler) Wishlist(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.customers.Wishlist(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// AddToWishlist handles POST /admin/customers/:id/wishlist/:productId
func (h *CustomerHandler) AddToWishlist(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	out, err := h.customers.AddToWishlist(c.Request.Context(), id, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// RemoveFromWishlist handles DELETE /admin/customers/:id/wishlist/:productId
func (h *CustomerHandler) RemoveFromWishlist(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	if err := h.customers.RemoveFromWishlist(c.Request.Context(), id, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
