package license

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ca-backoffice/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Stored license record status values. At most one record is active at a
// time; activation demotes the rest inside one transaction.
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Record is the persisted form of the currently-activated license. Fields
// are derived from the signed claims at activation; the token itself stays
// authoritative and is re-verified on every protected request.
type Record struct {
	ID          int64
	Token       string
	Company     string
	Email       string
	LicenseID   string
	LicenseType Type
	MaxUsers    int
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Status      string
}

// Store is the persistence collaborator the enforcement layer depends on.
// Implemented by the database repository in production and by in-memory
// fakes in tests.
type Store interface {
	// GetActiveLicense returns the active record, newest first when more
	// than one exists, or nil when none does.
	GetActiveLicense(ctx context.Context) (*Record, error)
	// ReplaceActiveLicense demotes every active record and inserts rec as
	// the new active one in a single transaction.
	ReplaceActiveLicense(ctx context.Context, rec *Record) (int64, error)
	SetLicenseStatus(ctx context.Context, id int64, status string) error
	// ExpireActiveLicenses demotes all active records, returning how many
	// were touched. A no-op when none are active.
	ExpireActiveLicenses(ctx context.Context) (int64, error)
	CountActiveStaff(ctx context.Context) (int, error)
}

// ContextKeyClaims is the gin context key under which the enforcement
// middleware attaches the decoded claims for downstream handlers.
const ContextKeyClaims = "license_claims"

// ClaimsFromContext extracts the license claims the middleware attached.
func ClaimsFromContext(c *gin.Context) *Claims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}

// ActivationError carries the verifier's reason when a token is refused at
// activation time.
type ActivationError struct {
	Reason string
}

func (e *ActivationError) Error() string {
	return e.Reason
}

// StatusReport is the answer to "what license are we running under".
type StatusReport struct {
	Activated     bool      `json:"activated"`
	Valid         bool      `json:"valid,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Company       string    `json:"company,omitempty"`
	LicenseType   Type      `json:"license_type,omitempty"`
	MaxUsers      int       `json:"max_users,omitempty"`
	ActiveStaff   int       `json:"active_staff,omitempty"`
	DaysRemaining int       `json:"days_remaining,omitempty"`
	ExpiringSoon  bool      `json:"expiring_soon,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// Enforcer gates requests on the currently-activated license and owns the
// activation and deactivation protocols.
type Enforcer struct {
	store    Store
	verifier *Verifier
	bus      *events.EventBus
	log      zerolog.Logger
}

// NewEnforcer wires the enforcement layer to its persistence collaborator.
// bus may be nil; lifecycle events are then skipped.
func NewEnforcer(store Store, verifier *Verifier, bus *events.EventBus, log zerolog.Logger) *Enforcer {
	return &Enforcer{store: store, verifier: verifier, bus: bus, log: log.With().Str("component", "license").Logger()}
}

func (e *Enforcer) publish(eventType events.EventType, data map[string]interface{}) {
	if e.bus != nil {
		e.bus.PublishData(eventType, data)
	}
}

// Middleware is the per-request gate. Checks run in a fixed order and the
// first failure short-circuits: missing license, then token validity, then
// seat usage. A persistence failure is never treated as a valid license.
func (e *Enforcer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rec, err := e.store.GetActiveLicense(ctx)
		if err != nil {
			e.log.Error().Err(err).Msg("license lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "License check failed",
			})
			return
		}
		if rec == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":            "No active license found. Please activate a license.",
				"requires_license": true,
			})
			return
		}

		res := e.verifier.Verify(rec.Token)
		if !res.Valid {
			// Write-through demotion before responding. The rejection does
			// not depend on the write landing; a failure is logged only.
			if err := e.store.SetLicenseStatus(ctx, rec.ID, StatusExpired); err != nil {
				e.log.Error().Err(err).Int64("license_id", rec.ID).Msg("failed to mark license expired")
			}
			e.publish(events.EventLicenseExpired, map[string]interface{}{
				"company":    rec.Company,
				"license_id": rec.LicenseID,
				"reason":     res.Reason,
			})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   res.Reason,
				"expired": true,
			})
			return
		}

		activeStaff, err := e.store.CountActiveStaff(ctx)
		if err != nil {
			e.log.Error().Err(err).Msg("active staff count failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "License check failed",
			})
			return
		}
		if activeStaff > res.Claims.MaxUsers {
			// Soft violation: correctable by deactivating staff, so the
			// stored record stays active.
			e.publish(events.EventSeatLimitExceeded, map[string]interface{}{
				"company":      rec.Company,
				"max_users":    res.Claims.MaxUsers,
				"active_staff": activeStaff,
			})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": fmt.Sprintf("License allows %d active users but %d are active. Deactivate staff or upgrade the license.",
					res.Claims.MaxUsers, activeStaff),
				"user_limit_exceeded": true,
			})
			return
		}

		c.Set(ContextKeyClaims, res.Claims)
		c.Next()
	}
}

// Activate verifies rawToken and persists it as the single active license.
// An invalid token never reaches persistence. Caller-supplied company/email
// overrides are display metadata for the route layer; the signed claims are
// what gets stored.
func (e *Enforcer) Activate(ctx context.Context, rawToken string) (*Record, error) {
	res := e.verifier.Verify(rawToken)
	if !res.Valid {
		return nil, &ActivationError{Reason: res.Reason}
	}

	claims := res.Claims
	rec := &Record{
		Token:       rawToken,
		Company:     claims.Company,
		Email:       claims.Email,
		LicenseID:   claims.LicenseID,
		LicenseType: claims.Type,
		MaxUsers:    claims.MaxUsers,
		IssuedAt:    claims.IssuedTime(),
		ExpiresAt:   claims.ExpiryTime(),
		Status:      StatusActive,
	}

	id, err := e.store.ReplaceActiveLicense(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to persist license: %w", err)
	}
	rec.ID = id

	e.log.Info().
		Str("company", claims.Company).
		Str("license_id", claims.LicenseID).
		Str("type", string(claims.Type)).
		Int("max_users", claims.MaxUsers).
		Time("expires_at", claims.ExpiryTime()).
		Msg("license activated")
	return rec, nil
}

// Deactivate demotes every active record. Idempotent: a second call is a
// no-op and never errors.
func (e *Enforcer) Deactivate(ctx context.Context) error {
	n, err := e.store.ExpireActiveLicenses(ctx)
	if err != nil {
		return fmt.Errorf("failed to deactivate license: %w", err)
	}
	if n > 0 {
		e.log.Info().Int64("records", n).Msg("license deactivated")
	}
	return nil
}

// Status reports on the current license without gating anything.
func (e *Enforcer) Status(ctx context.Context) (*StatusReport, error) {
	rec, err := e.store.GetActiveLicense(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load license: %w", err)
	}
	if rec == nil {
		return &StatusReport{Activated: false}, nil
	}

	res := e.verifier.Verify(rec.Token)
	report := &StatusReport{
		Activated:   true,
		Valid:       res.Valid,
		Company:     rec.Company,
		LicenseType: rec.LicenseType,
		MaxUsers:    rec.MaxUsers,
		ExpiresAt:   rec.ExpiresAt,
	}
	if res.Valid {
		report.DaysRemaining = res.DaysRemaining
		report.ExpiringSoon = res.ExpiringSoon
		if count, err := e.store.CountActiveStaff(ctx); err == nil {
			report.ActiveStaff = count
		}
	} else {
		report.Reason = res.Reason
	}
	return report, nil
}
