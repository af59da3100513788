package api

import (
	"net/http"
	"time"

	"ca-backoffice/internal/auth"
	"ca-backoffice/internal/events"

	"github.com/gin-gonic/gin"
)

// handleCheckIn records today's check-in for the calling staff member.
// Repeated calls keep the original check-in time.
func (s *Server) handleCheckIn(c *gin.Context) {
	staffID := auth.GetStaffID(c)
	if staffID == "" {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	att, err := s.repo.CheckIn(c.Request.Context(), staffID, time.Now())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to record check-in")
		return
	}

	s.eventBus.PublishData(events.EventStaffCheckedIn, map[string]interface{}{
		"staff_id": staffID,
	})
	successResponse(c, att)
}

func (s *Server) handleCheckOut(c *gin.Context) {
	staffID := auth.GetStaffID(c)
	if staffID == "" {
		errorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	att, err := s.repo.CheckOut(c.Request.Context(), staffID, time.Now())
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	s.eventBus.PublishData(events.EventStaffCheckedOut, map[string]interface{}{
		"staff_id": staffID,
	})
	successResponse(c, att)
}

// handleAttendanceForDay lists attendance for one day, default today.
// Accepts ?day=2026-08-30.
func (s *Server) handleAttendanceForDay(c *gin.Context) {
	day := time.Now()
	if d := c.Query("day"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	records, err := s.repo.ListAttendanceForDay(c.Request.Context(), day)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list attendance")
		return
	}
	successResponse(c, records)
}

// handleAttendanceForStaff lists one staff member's attendance over a range.
// Non-admins can only see their own records.
func (s *Server) handleAttendanceForStaff(c *gin.Context) {
	staffID := c.Param("id")
	if !auth.IsAdmin(c) && staffID != auth.GetStaffID(c) {
		errorResponse(c, http.StatusForbidden, "admin access required")
		return
	}

	to := time.Now()
	from := to.AddDate(0, -1, 0)
	if f := c.Query("from"); f != "" {
		parsed, err := time.Parse("2006-01-02", f)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if t := c.Query("to"); t != "" {
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	records, err := s.repo.ListAttendanceForStaff(c.Request.Context(), staffID, from, to)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list attendance")
		return
	}
	successResponse(c, records)
}
