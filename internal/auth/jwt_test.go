package auth

import (
	"testing"
	"time"
)

func testStaffClaims() StaffClaims {
	return StaffClaims{
		StaffID: "6dff2ab7-41e6-4f62-9314-1f1b0f4e2a10",
		Email:   "asha@example.com",
		Name:    "Asha Verma",
		Role:    "staff",
		IsAdmin: false,
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := NewJWTManager("session-test-secret", time.Hour)

	token, err := m.GenerateAccessToken(testStaffClaims())
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}

	if claims.StaffID != "6dff2ab7-41e6-4f62-9314-1f1b0f4e2a10" {
		t.Errorf("unexpected staff ID: %s", claims.StaffID)
	}
	if claims.Email != "asha@example.com" {
		t.Errorf("unexpected email: %s", claims.Email)
	}
	if claims.IsAdmin {
		t.Error("expected non-admin claims")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewJWTManager("session-test-secret", -time.Hour)

	token, err := m.GenerateAccessToken(testStaffClaims())
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	_, err = m.ValidateAccessToken(token)
	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("session-test-secret", time.Hour)
	other := NewJWTManager("a-different-secret", time.Hour)

	token, err := m.GenerateAccessToken(testStaffClaims())
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, err := other.ValidateAccessToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	m := NewJWTManager("session-test-secret", time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.ValidateAccessToken(token); err != ErrInvalidToken {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}
