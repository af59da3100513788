package license

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IssueParams describes a license to be generated.
// Zero-valued fields fall back to the tier defaults in tierDefaults.
type IssueParams struct {
	Kind           Type
	Company        string
	Email          string
	ExpiresAt      time.Time // explicit expiry; wins over DurationMonths
	DurationMonths int
	MaxUsers       int
	Features       map[string]bool // overrides applied on top of tier defaults
	Now            time.Time       // issuance clock, defaults to time.Now
}

// Issuer generates tokens for the supported commercial terms and answers
// post-issuance questions about them.
type Issuer struct {
	codec    *Codec
	verifier *Verifier
}

// NewIssuer creates an issuer on top of the shared codec.
func NewIssuer(codec *Codec) *Issuer {
	return &Issuer{codec: codec, verifier: NewVerifier(codec)}
}

// Issue builds and signs a token for the given terms.
func (i *Issuer) Issue(p IssueParams) (string, error) {
	spec, ok := tierDefaults[p.Kind]
	if !ok {
		return "", fmt.Errorf("unknown license type %q", p.Kind)
	}
	if p.Company == "" {
		return "", fmt.Errorf("company name is required")
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.Truncate(time.Second)

	expiry := spec.defaultTerm(now)
	switch {
	case !p.ExpiresAt.IsZero() && p.Kind != TypeLifetime:
		expiry = p.ExpiresAt.Truncate(time.Second)
	case p.DurationMonths > 0 && p.Kind != TypeLifetime:
		expiry = now.AddDate(0, p.DurationMonths, 0)
	}
	if !expiry.After(now) {
		return "", fmt.Errorf("expiry %s is not after issue time", expiry.Format(time.RFC3339))
	}

	maxUsers := p.MaxUsers
	if maxUsers <= 0 {
		maxUsers = spec.defaultMaxUsers
	}

	features := spec.defaultFeatures()
	for name, enabled := range p.Features {
		features[name] = enabled
	}

	claims := &Claims{
		Company:   p.Company,
		Email:     p.Email,
		MaxUsers:  maxUsers,
		Type:      p.Kind,
		LicenseID: uuid.New().String(),
		Features:  features,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	return i.codec.Encode(claims)
}

// Extension is the result of extending a license term.
type Extension struct {
	Token     string
	OldExpiry time.Time
	NewExpiry time.Time
}

// Extend issues a fresh token with the expiry pushed out by additionalDays.
// Renewing an already-expired license is the primary use case, so an expired
// but authentic token extends fine; only a token that fails signature or
// structural checks is refused.
func (i *Issuer) Extend(tokenString string, additionalDays int) (*Extension, error) {
	if additionalDays <= 0 {
		return nil, fmt.Errorf("extension must add at least one day")
	}

	claims, decErr := i.codec.DecodeVerified(tokenString)
	if decErr != nil {
		return nil, decErr
	}

	oldExpiry := claims.ExpiryTime()
	newExpiry := oldExpiry.AddDate(0, 0, additionalDays)

	renewed := &Claims{
		Company:   claims.Company,
		Email:     claims.Email,
		MaxUsers:  claims.MaxUsers,
		Type:      claims.Type,
		LicenseID: uuid.New().String(),
		Features:  claims.Features,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(claims.IssuedTime()),
			ExpiresAt: jwt.NewNumericDate(newExpiry),
		},
	}

	token, err := i.codec.Encode(renewed)
	if err != nil {
		return nil, err
	}
	return &Extension{Token: token, OldExpiry: oldExpiry, NewExpiry: newExpiry}, nil
}

// HasFeature reports whether an authentic token enables a feature.
// Any verification failure or missing key yields false, never an error.
func (i *Issuer) HasFeature(tokenString, feature string) bool {
	claims, decErr := i.codec.DecodeVerified(tokenString)
	if decErr != nil {
		return false
	}
	return claims.HasFeature(feature)
}

// Stats summarizes how much of a license term has been consumed.
type Stats struct {
	TotalDays      int     `json:"total_days"`
	DaysUsed       int     `json:"days_used"`
	DaysRemaining  int     `json:"days_remaining"`
	PercentageUsed float64 `json:"percentage_used"`
	IsExpired      bool    `json:"is_expired"`
	IsExpiringSoon bool    `json:"is_expiring_soon"`
}

// Info is the full post-issuance view of a license.
type Info struct {
	Company   string          `json:"company"`
	Email     string          `json:"email"`
	Type      Type            `json:"type"`
	MaxUsers  int             `json:"max_users"`
	LicenseID string          `json:"license_id"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Features  map[string]bool `json:"features"`
	Stats     Stats           `json:"stats"`
}

// Info inspects an authentic token. Returns nil when the token cannot be
// decoded at all.
func (i *Issuer) Info(tokenString string) *Info {
	return i.InfoAt(tokenString, time.Now())
}

// InfoAt inspects a token against an explicit clock.
func (i *Issuer) InfoAt(tokenString string, now time.Time) *Info {
	claims, decErr := i.codec.DecodeVerifiedAt(tokenString, now)
	if decErr != nil {
		return nil
	}

	issued := claims.IssuedTime()
	expiry := claims.ExpiryTime()

	totalDays := wholeDays(expiry.Sub(issued))
	daysUsed := wholeDays(now.Sub(issued))
	if daysUsed < 0 {
		daysUsed = 0
	}
	remaining := wholeDays(expiry.Sub(now))
	if remaining < 0 {
		remaining = 0
	}

	var pctUsed float64
	if totalDays > 0 {
		pctUsed = float64(daysUsed) / float64(totalDays) * 100
		if pctUsed > 100 {
			pctUsed = 100
		}
	}

	expired := expiry.Before(now)
	return &Info{
		Company:   claims.Company,
		Email:     claims.Email,
		Type:      claims.Type,
		MaxUsers:  claims.MaxUsers,
		LicenseID: claims.LicenseID,
		IssuedAt:  issued,
		ExpiresAt: expiry,
		Features:  claims.Features,
		Stats: Stats{
			TotalDays:      totalDays,
			DaysUsed:       daysUsed,
			DaysRemaining:  remaining,
			PercentageUsed: pctUsed,
			IsExpired:      expired,
			IsExpiringSoon: !expired && remaining > 0 && remaining < ExpiringSoonDays,
		},
	}
}
