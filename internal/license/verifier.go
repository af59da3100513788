package license

import "time"

// ExpiringSoonDays is the warning window for licenses close to expiry.
const ExpiringSoonDays = 30

// Result is the outcome of verifying a token at a point in time.
// DaysRemaining and DaysExpired truncate toward zero: a license with 23 hours
// left reports zero days remaining. ExpiringSoon is meaningful only when
// Valid is true.
type Result struct {
	Valid         bool
	Reason        string
	Claims        *Claims
	DaysRemaining int
	DaysExpired   int
	ExpiringSoon  bool
}

// Verifier determines present-tense validity of license tokens.
type Verifier struct {
	codec *Codec
}

// NewVerifier creates a verifier sharing the codec's signing secret.
func NewVerifier(codec *Codec) *Verifier {
	return &Verifier{codec: codec}
}

// Verify checks signature and expiry against the current clock.
func (v *Verifier) Verify(tokenString string) Result {
	return v.VerifyAt(tokenString, time.Now())
}

// VerifyAt checks signature and expiry against an explicit instant.
// Expired tokens still return their decoded claims so callers can report
// what expired, not just that something did.
func (v *Verifier) VerifyAt(tokenString string, now time.Time) Result {
	claims, decErr := v.codec.DecodeVerifiedAt(tokenString, now)
	if decErr != nil {
		// On malformed input the payload may still be readable; surface it
		// for diagnostics without granting it any authority.
		return Result{
			Valid:  false,
			Reason: decErr.Message,
			Claims: v.codec.DecodeUnverified(tokenString),
		}
	}

	expiry := claims.ExpiryTime()
	if expiry.Before(now) {
		return Result{
			Valid:       false,
			Reason:      "License expired",
			Claims:      claims,
			DaysExpired: wholeDays(now.Sub(expiry)),
		}
	}

	remaining := wholeDays(expiry.Sub(now))
	return Result{
		Valid:         true,
		Claims:        claims,
		DaysRemaining: remaining,
		ExpiringSoon:  remaining < ExpiringSoonDays,
	}
}

// wholeDays truncates a duration to full 24h days, toward zero.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
