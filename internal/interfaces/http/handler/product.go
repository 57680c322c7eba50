package handler

import (
	"bufio"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ImageFormField is the multipart field carrying a product image
const ImageFormField = "image"

// ProductHandler manages products, variants, stock and images
type ProductHandler struct {
	BaseHandler
	products *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles GET /admin/products
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	out, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// Get handles GET /admin/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Create handles POST /admin/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// Update handles PUT /admin/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Delete handles DELETE /admin/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Publish handles POST /admin/products/:id/publish
func (h *ProductHandler) Publish(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.products.Publish(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Archive handles POST /admin/products/:id/archive
func (h *ProductHandler) Archive(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.products.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// AddVariant handles POST /admin/products/:id/variants
func (h *ProductHandler) AddVariant(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.VariantRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.products.AddVariant(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// UpdateVariant handles PUT /admin/variants/:id
func (h *ProductHandler) UpdateVariant(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateVariantRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.products.UpdateVariant(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// DeleteVariant handles DELETE /admin/variants/:id
func (h *ProductHandler) DeleteVariant(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.products.DeleteVariant(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AdjustStock handles POST /admin/variants/:id/stock
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.products.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// UploadImage handles POST /admin/products/:id/images (multipart, field
// "image"). The content type is sniffed from the file, not trusted from
// the client.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile(ImageFormField)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "multipart field \"image\" is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 512)
	head, _ := reader.Peek(512)
	contentType := http.DetectContentType(head)

	out, err := h.products.UploadImage(c.Request.Context(), id, reader, header.Size, contentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// RemoveImageRequest names the image to detach
type RemoveImageRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// RemoveImage handles DELETE /admin/products/:id/images
func (h *ProductHandler) RemoveImage(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req RemoveImageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.products.RemoveImage(c.Request.Context(), id, req.URL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
