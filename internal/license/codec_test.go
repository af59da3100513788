package license

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-signing-secret-do-not-ship"

func testClaims(issued, expiry time.Time) *Claims {
	return &Claims{
		Company:   "Acme CA",
		Email:     "partner@acmeca.example",
		MaxUsers:  5,
		Type:      TypeCommercial,
		LicenseID: uuid.New().String(),
		Features:  standardFeatures(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued.Truncate(time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiry.Truncate(time.Second)),
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec(testSecret)
	now := time.Now()
	claims := testClaims(now, now.AddDate(1, 0, 0))

	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Expected compact three-segment token, got %q", token)
	}

	decoded, decErr := codec.DecodeVerified(token)
	if decErr != nil {
		t.Fatalf("DecodeVerified failed: %v", decErr)
	}
	if decoded.Company != claims.Company {
		t.Errorf("Company = %q, want %q", decoded.Company, claims.Company)
	}
	if decoded.Email != claims.Email {
		t.Errorf("Email = %q, want %q", decoded.Email, claims.Email)
	}
	if decoded.MaxUsers != claims.MaxUsers {
		t.Errorf("MaxUsers = %d, want %d", decoded.MaxUsers, claims.MaxUsers)
	}
	if decoded.Type != claims.Type {
		t.Errorf("Type = %q, want %q", decoded.Type, claims.Type)
	}
	if decoded.LicenseID != claims.LicenseID {
		t.Errorf("LicenseID = %q, want %q", decoded.LicenseID, claims.LicenseID)
	}
	if !decoded.ExpiryTime().Equal(claims.ExpiryTime()) {
		t.Errorf("Expiry = %v, want %v", decoded.ExpiryTime(), claims.ExpiryTime())
	}
	for name, enabled := range claims.Features {
		if decoded.Features[name] != enabled {
			t.Errorf("Feature %q = %v, want %v", name, decoded.Features[name], enabled)
		}
	}
}

func TestEncodeRejectsInvertedTerm(t *testing.T) {
	codec := NewCodec(testSecret)
	now := time.Now()
	claims := testClaims(now, now.Add(-time.Hour))

	if _, err := codec.Encode(claims); err == nil {
		t.Error("Expected error encoding claims with expiry before issue time")
	}
}

func TestDecodeVerifiedTamperedSignature(t *testing.T) {
	codec := NewCodec(testSecret)
	now := time.Now()
	token, err := codec.Encode(testClaims(now, now.AddDate(1, 0, 0)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Flip a byte in the signature segment.
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, decErr := codec.DecodeVerified(tampered)
	if decErr == nil {
		t.Fatal("Expected error for tampered signature")
	}
	if decErr.Kind != KindBadSignature {
		t.Errorf("Kind = %q, want %q", decErr.Kind, KindBadSignature)
	}
}

func TestDecodeVerifiedWrongSecret(t *testing.T) {
	codec := NewCodec(testSecret)
	other := NewCodec("a-completely-different-secret")
	now := time.Now()

	token, err := codec.Encode(testClaims(now, now.AddDate(1, 0, 0)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, decErr := other.DecodeVerified(token)
	if decErr == nil {
		t.Fatal("Expected error verifying with wrong secret")
	}
	if decErr.Kind != KindBadSignature {
		t.Errorf("Kind = %q, want %q", decErr.Kind, KindBadSignature)
	}
}

func TestDecodeVerifiedMalformed(t *testing.T) {
	codec := NewCodec(testSecret)

	for _, token := range []string{"", "garbage", "a.b", "not.a.jwt"} {
		_, decErr := codec.DecodeVerified(token)
		if decErr == nil {
			t.Errorf("Expected error for malformed token %q", token)
			continue
		}
		if decErr.Kind != KindMalformed {
			t.Errorf("Kind for %q = %q, want %q", token, decErr.Kind, KindMalformed)
		}
	}
}

func TestDecodeVerifiedDoesNotEvaluateExpiry(t *testing.T) {
	// A stale expiry must not be mistaken for a signature failure: the codec
	// checks only the signature and leaves expiry to the verifier.
	codec := NewCodec(testSecret)
	now := time.Now()
	token, err := codec.Encode(testClaims(now.AddDate(-2, 0, 0), now.AddDate(-1, 0, 0)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	claims, decErr := codec.DecodeVerified(token)
	if decErr != nil {
		t.Fatalf("DecodeVerified on expired-but-authentic token failed: %v", decErr)
	}
	if claims.Company != "Acme CA" {
		t.Errorf("Company = %q, want %q", claims.Company, "Acme CA")
	}
}

func TestDecodeVerifiedNotYetValid(t *testing.T) {
	codec := NewCodec(testSecret)
	now := time.Now()
	claims := testClaims(now, now.AddDate(1, 0, 0))
	claims.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))

	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, decErr := codec.DecodeVerified(token)
	if decErr == nil {
		t.Fatal("Expected error for not-yet-valid token")
	}
	if decErr.Kind != KindNotYetValid {
		t.Errorf("Kind = %q, want %q", decErr.Kind, KindNotYetValid)
	}
}

func TestDecodeVerifiedAtHonorsInjectedClock(t *testing.T) {
	// The nbf check must use the caller's instant, not the wall clock, so
	// verification against an explicit time is self-consistent.
	codec := NewCodec(testSecret)
	now := time.Now()
	claims := testClaims(now, now.AddDate(1, 0, 0))
	claims.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))

	token, err := codec.Encode(claims)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, decErr := codec.DecodeVerifiedAt(token, now.Add(2*time.Hour)); decErr != nil {
		t.Fatalf("token past its nbf at the injected instant should decode, got %v", decErr)
	}

	_, decErr := codec.DecodeVerifiedAt(token, now.Add(30*time.Minute))
	if decErr == nil {
		t.Fatal("Expected error for token before its nbf at the injected instant")
	}
	if decErr.Kind != KindNotYetValid {
		t.Errorf("Kind = %q, want %q", decErr.Kind, KindNotYetValid)
	}

	res := NewVerifier(codec).VerifyAt(token, now.Add(30*time.Minute))
	if res.Valid {
		t.Error("VerifyAt before nbf should report invalid")
	}
	if res.Reason != "license is not yet valid" {
		t.Errorf("Reason = %q, want not-yet-valid message", res.Reason)
	}
}

func TestDecodeUnverified(t *testing.T) {
	codec := NewCodec(testSecret)
	other := NewCodec("some-other-secret")
	now := time.Now()

	token, err := other.Encode(testClaims(now, now.AddDate(1, 0, 0)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Unverified decode reads the payload regardless of the signing key.
	claims := codec.DecodeUnverified(token)
	if claims == nil {
		t.Fatal("DecodeUnverified returned nil for a structurally valid token")
	}
	if claims.Company != "Acme CA" {
		t.Errorf("Company = %q, want %q", claims.Company, "Acme CA")
	}

	if codec.DecodeUnverified("not-a-token") != nil {
		t.Error("DecodeUnverified should return nil for garbage input")
	}
}
