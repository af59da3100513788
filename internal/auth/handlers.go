package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers provides HTTP handlers for authentication
type Handlers struct {
	service *Service
}

// NewHandlers creates new auth handlers
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// Login handles staff login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		var authErr AuthError
		if errors.As(err, &authErr) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   authErr.Code,
				"message": authErr.Message,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL_ERROR",
			"message": "login failed",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChangePassword handles a password change for the logged-in staff member
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
		return
	}

	staffID := GetStaffID(c)
	if staffID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   ErrUnauthorized.Code,
			"message": ErrUnauthorized.Message,
		})
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), staffID, req); err != nil {
		var authErr AuthError
		if errors.As(err, &authErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   authErr.Code,
				"message": authErr.Message,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "INTERNAL_ERROR",
			"message": "password change failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// GetMe returns the logged-in staff member's profile
func (h *Handlers) GetMe(c *gin.Context) {
	staffID := GetStaffID(c)
	if staffID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   ErrUnauthorized.Code,
			"message": ErrUnauthorized.Message,
		})
		return
	}

	staff, err := h.service.GetStaffByID(c.Request.Context(), staffID)
	if err != nil || staff == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   ErrStaffNotFound.Code,
			"message": ErrStaffNotFound.Message,
		})
		return
	}

	c.JSON(http.StatusOK, staff)
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup, jwtManager *JWTManager) {
	router.POST("/login", h.Login)

	protected := router.Group("")
	protected.Use(Middleware(jwtManager))
	protected.GET("/me", h.GetMe)
	protected.POST("/change-password", h.ChangePassword)
}
