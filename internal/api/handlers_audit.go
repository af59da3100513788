package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListAuditLogs returns the audit trail, newest first. Admin-only.
func (s *Server) handleListAuditLogs(c *gin.Context) {
	limit, offset := pagination(c)

	logs, total, err := s.repo.ListAuditLogs(c.Request.Context(),
		c.Query("entity"), c.Query("actor_id"), limit, offset)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to list audit logs")
		return
	}
	listResponse(c, logs, total, limit, offset)
}
