package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
)

// ImportHandler loads YAML catalog files
type ImportHandler struct {
	BaseHandler
	imports *catalogapp.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(imports *catalogapp.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Import handles POST /admin/catalog/import?dry_run=true with the YAML
// document as the request body
func (h *ImportHandler) Import(c *gin.Context) {
	out, err := h.imports.Import(c.Request.Context(), c.Request.Body, c.Query("dry_run") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
