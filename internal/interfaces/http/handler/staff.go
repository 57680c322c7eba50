package handler

import (
	"github.com/gin-gonic/gin"

	staffapp "github.com/storefront/backend/internal/application/staff"
)

// StaffHandler manages back office accounts. All routes require ADMIN.
type StaffHandler struct {
	BaseHandler
	staff *staffapp.StaffService
}

// NewStaffHandler creates a new StaffHandler
func NewStaffHandler(staff *staffapp.StaffService) *StaffHandler {
	return &StaffHandler{staff: staff}
}

// List handles GET /admin/staff
func (h *StaffHandler) List(c *gin.Context) {
	var filter staffapp.StaffListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	out, total, err := h.staff.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, out, total, filter.Page, filter.PageSize)
}

// Get handles GET /admin/staff/:id
func (h *StaffHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.staff.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Create handles POST /admin/staff
func (h *StaffHandler) Create(c *gin.Context) {
	var req staffapp.CreateStaffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.staff.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

// Update handles PUT /admin/staff/:id
func (h *StaffHandler) Update(c *gin.Context) {
	actor, ok := h.StaffID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req staffapp.UpdateStaffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.staff.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Deactivate handles POST /admin/staff/:id/deactivate
func (h *StaffHandler) Deactivate(c *gin.Context) {
	actor, ok := h.StaffID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.staff.Deactivate(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Delete handles DELETE /admin/staff/:id
func (h *StaffHandler) Delete(c *gin.Context) {
	actor, ok := h.StaffID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.staff.Delete(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
