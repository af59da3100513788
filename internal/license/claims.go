package license

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Type defines the commercial tier of a license
type Type string

const (
	TypeCommercial   Type = "commercial"
	TypeSubscription Type = "subscription"
	TypeLifetime     Type = "lifetime"
	TypeEnterprise   Type = "enterprise"
)

// Feature flag names embedded in license tokens
const (
	FeatureAdvancedReports = "advancedReports"
	FeatureAPIAccess       = "apiAccess"
	FeatureCustomBranding  = "customBranding"
	FeaturePrioritySupport = "prioritySupport"
	FeatureMultiLocation   = "multiLocation"
	FeatureAuditTrails     = "auditTrails"
	FeatureSSO             = "sso"
)

// KnownFeatures lists every feature flag the application gates on.
// Unknown keys in a token are preserved but never consulted.
var KnownFeatures = []string{
	FeatureAdvancedReports,
	FeatureAPIAccess,
	FeatureCustomBranding,
	FeaturePrioritySupport,
	FeatureMultiLocation,
	FeatureAuditTrails,
	FeatureSSO,
}

// Claims is the payload embedded in a license token. Values are fixed at
// issuance; extension produces a new token rather than mutating claims.
type Claims struct {
	Company   string          `json:"company"`
	Email     string          `json:"email"`
	MaxUsers  int             `json:"users"`
	Type      Type            `json:"type"`
	LicenseID string          `json:"licenseId"`
	Features  map[string]bool `json:"features"`
	jwt.RegisteredClaims
}

// IssuedTime returns the issued-at instant, zero if absent.
func (c *Claims) IssuedTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiryTime returns the expiry instant, zero if absent.
func (c *Claims) ExpiryTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// HasFeature reports whether a feature flag is present and enabled.
func (c *Claims) HasFeature(name string) bool {
	if c == nil || c.Features == nil {
		return false
	}
	return c.Features[name]
}

// ValidType reports whether t is one of the closed set of license tiers.
func ValidType(t Type) bool {
	_, ok := tierDefaults[t]
	return ok
}

// tierSpec holds per-tier issuance defaults. Adding a tier means adding an
// entry here, which the compiler and tests check, instead of growing a chain
// of string comparisons.
type tierSpec struct {
	defaultMaxUsers int
	defaultTerm     func(issued time.Time) time.Time
	defaultFeatures func() map[string]bool
}

const lifetimeYears = 99

var tierDefaults = map[Type]tierSpec{
	TypeCommercial: {
		defaultMaxUsers: 5,
		defaultTerm:     func(issued time.Time) time.Time { return issued.AddDate(1, 0, 0) },
		defaultFeatures: standardFeatures,
	},
	TypeSubscription: {
		defaultMaxUsers: 5,
		defaultTerm:     func(issued time.Time) time.Time { return issued.AddDate(1, 0, 0) },
		defaultFeatures: standardFeatures,
	},
	TypeLifetime: {
		defaultMaxUsers: 5,
		defaultTerm:     func(issued time.Time) time.Time { return issued.AddDate(lifetimeYears, 0, 0) },
		defaultFeatures: allFeatures,
	},
	TypeEnterprise: {
		defaultMaxUsers: 50,
		defaultTerm:     func(issued time.Time) time.Time { return issued.AddDate(1, 0, 0) },
		defaultFeatures: enterpriseFeatures,
	},
}

func standardFeatures() map[string]bool {
	return map[string]bool{
		FeatureAdvancedReports: true,
		FeatureAPIAccess:       true,
		FeatureCustomBranding:  false,
		FeaturePrioritySupport: false,
		FeatureMultiLocation:   false,
		FeatureAuditTrails:     false,
		FeatureSSO:             false,
	}
}

func enterpriseFeatures() map[string]bool {
	f := standardFeatures()
	f[FeatureCustomBranding] = true
	f[FeaturePrioritySupport] = true
	f[FeatureMultiLocation] = true
	f[FeatureAuditTrails] = true
	f[FeatureSSO] = true
	return f
}

func allFeatures() map[string]bool {
	f := make(map[string]bool, len(KnownFeatures))
	for _, name := range KnownFeatures {
		f[name] = true
	}
	return f
}
