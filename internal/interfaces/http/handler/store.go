package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	orderapp "github.com/storefront/backend/internal/application/order"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// StoreHandler serves the public catalog and guest order lookup
type StoreHandler struct {
	BaseHandler
	categories      *catalogapp.CategoryService
	products        *catalogapp.ProductService
	deliveryOptions *shippingapp.DeliveryOptionService
	orders          *orderapp.OrderService
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(
	categories *catalogapp.CategoryService,
	products *catalogapp.ProductService,
	deliveryOptions *shippingapp.DeliveryOptionService,
	orders *orderapp.OrderService,
) *StoreHandler {
	return &StoreHandler{
		categories:      categories,
		products:        products,
		deliveryOptions: deliveryOptions,
		orders:          orders,
	}
}

// ListCategories handles GET /store/categories
func (h *StoreHandler) ListCategories(c *gin.Context) {
	out, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// ListProducts handles GET /store/products?category=&q=&page=
func (h *StoreHandler) ListProducts(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	out, total, err := h.products.ListActive(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// GetProduct handles GET /store/products/:slug
func (h *StoreHandler) GetProduct(c *gin.Context) {
	out, err := h.products.GetActiveBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// ListDeliveryOptions handles GET /store/delivery-options
func (h *StoreHandler) ListDeliveryOptions(c *gin.Context) {
	out, err := h.deliveryOptions.List(c.Request.Context(), true)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// LookupOrder handles GET /store/orders/:number?email=
func (h *StoreHandler) LookupOrder(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "email is required")
		return
	}
	out, err := h.orders.LookupGuest(c.Request.Context(), c.Param("number"), email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
