package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	// MinCost keeps the test fast; production uses DefaultBcryptCost.
	p := NewPasswordManager(bcrypt.MinCost, 8)

	hash, err := p.HashPassword("firmwide7pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "firmwide7pass" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !p.VerifyPassword("firmwide7pass", hash) {
		t.Error("correct password should verify")
	}
	if p.VerifyPassword("wrong-password1", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost, 8)

	if _, err := p.HashPassword(strings.Repeat("a", MaxPasswordLength+1)); err == nil {
		t.Error("expected error for oversized password")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost, 8)

	cases := []struct {
		password string
		wantErr  bool
	}{
		{"good1password", false},
		{"short1", true},
		{"onlyletters", true},
		{"12345678901", true},
		{strings.Repeat("a1", 70), true},
		{"exact8ly", false},
	}

	for _, tc := range cases {
		err := p.ValidatePasswordStrength(tc.password)
		if tc.wantErr && err == nil {
			t.Errorf("password %q: expected weak-password error", tc.password)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("password %q: unexpected error %v", tc.password, err)
		}
	}
}
