package api

import (
	"net/http"
	"time"

	"ca-backoffice/internal/database"

	"github.com/gin-gonic/gin"
)

type createStaffRequest struct {
	Name        string     `json:"name" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required"`
	Role        string     `json:"role"`
	Designation string     `json:"designation"`
	Phone       string     `json:"phone"`
	JoinedOn    *time.Time `json:"joined_on"`
}

func (s *Server) handleCreateStaff(c *gin.Context) {
	var req createStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "name, email and password are required")
		return
	}

	role := req.Role
	if role == "" {
		role = database.RoleStaff
	}
	if role != database.RoleAdmin && role != database.RoleStaff {
		errorResponse(c, http.StatusBadRequest, "role must be admin or staff")
		return
	}

	staff := &database.Staff{
		Name:        req.Name,
		Email:       req.Email,
		Role:        role,
		Status:      database.StaffActive,
		Designation: req.Designation,
		Phone:       req.Phone,
		JoinedOn:    req.JoinedOn,
	}

	if err := s.authService.CreateStaff(c.Request.Context(), staff, req.Password); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	s.invalidateSeatCount(c)
	s.audit(c, "staff.create", "staff", staff.ID, "")
	successResponse(c, staff)
}

func (s *Server) handleGetStaff(c *gin.Context) {
	staff, err := s.repo.GetStaffByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch staff member")
		return
	}
	if staff == nil {
		errorResponse(c, http.StatusNotFound, "Staff member not found")
		return
	}
	successResponse(c, staff)
}

func (s *Server) handleListStaff(c *gin.Context) {
	limit, offset := pagination(c)
	status := c.Query("status")

	staff, total, err := s.repo.ListStaff(c.Request.Context(), status, limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list staff")
		return
	}
	listResponse(c, staff, total, limit, offset)
}

type updateStaffRequest struct {
	Name        string     `json:"name" binding:"required"`
	Role        string     `json:"role" binding:"required"`
	Designation string     `json:"designation"`
	Phone       string     `json:"phone"`
	JoinedOn    *time.Time `json:"joined_on"`
}

func (s *Server) handleUpdateStaff(c *gin.Context) {
	id := c.Param("id")

	var req updateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "name and role are required")
		return
	}
	if req.Role != database.RoleAdmin && req.Role != database.RoleStaff {
		errorResponse(c, http.StatusBadRequest, "role must be admin or staff")
		return
	}

	existing, err := s.repo.GetStaffByID(c.Request.Context(), id)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to fetch staff member")
		return
	}
	if existing == nil {
		errorResponse(c, http.StatusNotFound, "Staff member not found")
		return
	}

	existing.Name = req.Name
	existing.Role = req.Role
	existing.Designation = req.Designation
	existing.Phone = req.Phone
	existing.JoinedOn = req.JoinedOn

	if err := s.repo.UpdateStaff(c.Request.Context(), existing); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to update staff member")
		return
	}

	s.audit(c, "staff.update", "staff", id, "")
	successResponse(c, existing)
}

type setStaffStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// handleSetStaffStatus activates or deactivates a staff member. Deactivation
// is how a firm gets back under its seat limit.
func (s *Server) handleSetStaffStatus(c *gin.Context) {
	id := c.Param("id")

	var req setStaffStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "status is required")
		return
	}
	if req.Status != database.StaffActive && req.Status != database.StaffInactive {
		errorResponse(c, http.StatusBadRequest, "status must be active or inactive")
		return
	}

	if err := s.repo.SetStaffStatus(c.Request.Context(), id, req.Status); err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to update staff status")
		return
	}

	s.invalidateSeatCount(c)
	s.audit(c, "staff.status", "staff", id, auditDetail(map[string]string{"status": req.Status}))
	successResponse(c, gin.H{"id": id, "status": req.Status})
}
