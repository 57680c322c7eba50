package handler

import (
	"github.com/gin-gonic/gin"

	staffapp "github.com/storefront/backend/internal/application/staff"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles back office login and logout
type AuthHandler struct {
	BaseHandler
	staff *staffapp.StaffService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(staff *staffapp.StaffService) *AuthHandler {
	return &AuthHandler{staff: staff}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req staffapp.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.staff.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Logout handles POST /admin/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.staff.Logout(c.Request.Context(), middleware.GetJWTClaims(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /admin/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := h.StaffID(c)
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
