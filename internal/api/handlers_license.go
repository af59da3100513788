package api

import (
	"errors"
	"net/http"
	"time"

	"ca-backoffice/internal/events"
	"ca-backoffice/internal/license"

	"github.com/gin-gonic/gin"
)

type activateLicenseRequest struct {
	Token string `json:"token" binding:"required"`
}

// handleActivateLicense verifies the submitted token and installs it as the
// single active license.
func (s *Server) handleActivateLicense(c *gin.Context) {
	var req activateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "token is required")
		return
	}

	rec, err := s.enforcer.Activate(c.Request.Context(), req.Token)
	if err != nil {
		var actErr *license.ActivationError
		if errors.As(err, &actErr) {
			errorResponse(c, http.StatusBadRequest, actErr.Reason)
			return
		}
		s.log.Error().Err(err).Msg("license activation failed")
		errorResponse(c, http.StatusInternalServerError, "Failed to activate license")
		return
	}

	s.audit(c, "license.activate", "license", rec.LicenseID, "")
	s.eventBus.PublishData(events.EventLicenseActivated, map[string]interface{}{
		"company":    rec.Company,
		"type":       string(rec.LicenseType),
		"max_users":  rec.MaxUsers,
		"expires_at": rec.ExpiresAt,
	})

	successResponse(c, gin.H{
		"company":    rec.Company,
		"email":      rec.Email,
		"type":       rec.LicenseType,
		"max_users":  rec.MaxUsers,
		"issued_at":  rec.IssuedAt,
		"expires_at": rec.ExpiresAt,
	})
}

// handleLicenseStatus reports on the current license. Available to any
// authenticated staff member so the UI can surface expiry warnings.
func (s *Server) handleLicenseStatus(c *gin.Context) {
	report, err := s.enforcer.Status(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("license status failed")
		errorResponse(c, http.StatusInternalServerError, "Failed to load license status")
		return
	}

	if report.Activated && report.Valid && report.ExpiringSoon {
		s.eventBus.PublishData(events.EventLicenseExpiringSoon, map[string]interface{}{
			"company":        report.Company,
			"days_remaining": report.DaysRemaining,
		})
	}

	successResponse(c, report)
}

// handleDeactivateLicense demotes the active license. Idempotent.
func (s *Server) handleDeactivateLicense(c *gin.Context) {
	if err := s.enforcer.Deactivate(c.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("license deactivation failed")
		errorResponse(c, http.StatusInternalServerError, "Failed to deactivate license")
		return
	}

	s.audit(c, "license.deactivate", "license", "", "")
	s.eventBus.PublishData(events.EventLicenseDeactivated, nil)
	successResponse(c, gin.H{"deactivated": true})
}

// handleLicenseHistory lists past and present license records.
func (s *Server) handleLicenseHistory(c *gin.Context) {
	records, err := s.repo.ListLicenseHistory(c.Request.Context(), 50)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "Failed to load license history")
		return
	}

	type entry struct {
		Company     string       `json:"company"`
		LicenseType license.Type `json:"license_type"`
		MaxUsers    int          `json:"max_users"`
		IssuedAt    time.Time    `json:"issued_at"`
		ExpiresAt   time.Time    `json:"expires_at"`
		Status      string       `json:"status"`
	}
	out := make([]entry, 0, len(records))
	for _, r := range records {
		out = append(out, entry{
			Company:     r.Company,
			LicenseType: r.LicenseType,
			MaxUsers:    r.MaxUsers,
			IssuedAt:    r.IssuedAt,
			ExpiresAt:   r.ExpiresAt,
			Status:      r.Status,
		})
	}
	successResponse(c, out)
}

type generateLicenseRequest struct {
	Type           string          `json:"type" binding:"required"`
	Company        string          `json:"company" binding:"required"`
	Email          string          `json:"email" binding:"required"`
	DurationMonths int             `json:"duration_months"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	MaxUsers       int             `json:"max_users"`
	Features       map[string]bool `json:"features"`
}

// handleGenerateLicense mints a signed token. Admin-only; this exists for
// installations where the operator is also the vendor.
func (s *Server) handleGenerateLicense(c *gin.Context) {
	var req generateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "type, company and email are required")
		return
	}

	params := license.IssueParams{
		Kind:           license.Type(req.Type),
		Company:        req.Company,
		Email:          req.Email,
		DurationMonths: req.DurationMonths,
		MaxUsers:       req.MaxUsers,
		Features:       req.Features,
	}
	if req.ExpiresAt != nil {
		params.ExpiresAt = *req.ExpiresAt
	}

	token, err := s.issuer.Issue(params)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	s.audit(c, "license.generate", "license", "", auditDetail(map[string]string{"company": req.Company}))
	successResponse(c, gin.H{"token": token})
}

type extendLicenseRequest struct {
	Token          string `json:"token" binding:"required"`
	AdditionalDays int    `json:"additional_days" binding:"required"`
}

// handleExtendLicense reissues a token with a pushed-out expiry. Works on
// expired tokens; renewal after lapse is the main use.
func (s *Server) handleExtendLicense(c *gin.Context) {
	var req extendLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "token and additional_days are required")
		return
	}

	ext, err := s.issuer.Extend(req.Token, req.AdditionalDays)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	s.audit(c, "license.extend", "license", "", "")
	successResponse(c, gin.H{
		"token":      ext.Token,
		"old_expiry": ext.OldExpiry,
		"new_expiry": ext.NewExpiry,
	})
}

type inspectLicenseRequest struct {
	Token string `json:"token" binding:"required"`
}

// handleInspectLicense reports usage statistics for an arbitrary token
// without activating it.
func (s *Server) handleInspectLicense(c *gin.Context) {
	var req inspectLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "token is required")
		return
	}

	info := s.issuer.Info(req.Token)
	if info == nil {
		errorResponse(c, http.StatusBadRequest, "token could not be decoded")
		return
	}
	successResponse(c, info)
}

// handleCheckFeature reports whether the active license includes a feature.
// Runs behind enforcement, so the middleware has already attached claims.
func (s *Server) handleCheckFeature(c *gin.Context) {
	feature := c.Param("feature")

	claims := license.ClaimsFromContext(c)
	if claims == nil {
		errorResponse(c, http.StatusInternalServerError, "license claims unavailable")
		return
	}

	successResponse(c, gin.H{
		"feature": feature,
		"enabled": claims.HasFeature(feature),
	})
}
