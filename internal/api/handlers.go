package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ca-backoffice/internal/auth"
	"ca-backoffice/internal/cache"
	"ca-backoffice/internal/database"
	"ca-backoffice/internal/events"

	"github.com/gin-gonic/gin"
)

// handleHealth returns server health status
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.repo.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unhealthy",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "healthy",
		"uptime":   time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// errorResponse is a helper to send error responses
func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":   true,
		"message": message,
	})
}

// successResponse is a helper to send success responses
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// listResponse sends a paginated collection.
func listResponse(c *gin.Context, items interface{}, total, limit, offset int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// pagination reads limit/offset query parameters with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0

	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// auditDetail encodes key/value context for an audit entry. Values come from
// request input, so this must go through the JSON encoder; the detail column
// is JSONB and rejects malformed payloads.
func auditDetail(kv map[string]string) string {
	data, err := json.Marshal(kv)
	if err != nil {
		return ""
	}
	return string(data)
}

// invalidateSeatCount drops the cached active-staff count after a staff
// mutation so enforcement sees the new seat usage on the next request
// instead of after the TTL.
func (s *Server) invalidateSeatCount(c *gin.Context) {
	if s.cache != nil {
		s.cache.Invalidate(c.Request.Context(), cache.KeyActiveStaffCount)
	}
}

// audit writes an audit log entry and publishes it on the event bus. Audit
// persistence is best-effort; a failed write must not fail the request that
// already happened.
func (s *Server) audit(c *gin.Context, action, entity, entityID, detail string) {
	entry := &database.AuditLog{
		ActorID:    auth.GetStaffID(c),
		ActorEmail: auth.GetStaffEmail(c),
		Action:     action,
		Entity:     entity,
		EntityID:   entityID,
		Detail:     detail,
	}
	if err := s.repo.CreateAuditLog(c.Request.Context(), entry); err != nil {
		s.log.Error().Err(err).Str("action", action).Str("entity", entity).Msg("audit write failed")
		return
	}
	s.eventBus.PublishData(events.EventAuditEntry, map[string]interface{}{
		"action":    action,
		"entity":    entity,
		"entity_id": entityID,
		"actor":     entry.ActorEmail,
	})
}
