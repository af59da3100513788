package license

import (
	"testing"
	"time"
)

func TestVerifyAtExpiryBoundary(t *testing.T) {
	codec := NewCodec(testSecret)
	verifier := NewVerifier(codec)
	now := time.Now().Truncate(time.Second)

	tests := []struct {
		name      string
		expiry    time.Time
		wantValid bool
		wantDays  int
	}{
		{"one second past expiry", now.Add(-time.Second), false, 0},
		{"one second before expiry", now.Add(time.Second), true, 0},
		{"twenty-three hours left", now.Add(23 * time.Hour), true, 0},
		{"ten days left", now.Add(10*24*time.Hour + time.Hour), true, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Encode(testClaims(now.AddDate(-1, 0, 0), tt.expiry))
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			res := verifier.VerifyAt(token, now)
			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", res.Valid, tt.wantValid)
			}
			if tt.wantValid && res.DaysRemaining != tt.wantDays {
				t.Errorf("DaysRemaining = %d, want %d", res.DaysRemaining, tt.wantDays)
			}
			if !tt.wantValid && res.DaysExpired != tt.wantDays {
				t.Errorf("DaysExpired = %d, want %d", res.DaysExpired, tt.wantDays)
			}
		})
	}
}

func TestVerifyExpiredReturnsClaims(t *testing.T) {
	codec := NewCodec(testSecret)
	verifier := NewVerifier(codec)
	now := time.Now().Truncate(time.Second)

	token, err := codec.Encode(testClaims(now.AddDate(-1, 0, 0), now.Add(-40*24*time.Hour)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	res := verifier.VerifyAt(token, now)
	if res.Valid {
		t.Fatal("Expected expired license to be invalid")
	}
	if res.Reason != "License expired" {
		t.Errorf("Reason = %q, want %q", res.Reason, "License expired")
	}
	if res.Claims == nil || res.Claims.Company != "Acme CA" {
		t.Error("Expected decoded claims to accompany the expiry rejection")
	}
	if res.DaysExpired != 40 {
		t.Errorf("DaysExpired = %d, want 40", res.DaysExpired)
	}
}

func TestVerifyExpiringSoonWindow(t *testing.T) {
	codec := NewCodec(testSecret)
	verifier := NewVerifier(codec)
	now := time.Now().Truncate(time.Second)

	tests := []struct {
		name     string
		daysLeft int
		wantSoon bool
	}{
		{"five days left", 5, true},
		{"twenty-nine days left", 29, true},
		{"thirty days left", 30, false},
		{"ninety days left", 90, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry := now.Add(time.Duration(tt.daysLeft)*24*time.Hour + time.Hour)
			token, err := codec.Encode(testClaims(now.AddDate(-1, 0, 0), expiry))
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			res := verifier.VerifyAt(token, now)
			if !res.Valid {
				t.Fatalf("Expected valid license, got reason %q", res.Reason)
			}
			if res.ExpiringSoon != tt.wantSoon {
				t.Errorf("ExpiringSoon = %v, want %v", res.ExpiringSoon, tt.wantSoon)
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	codec := NewCodec(testSecret)
	verifier := NewVerifier(codec)
	now := time.Now()

	token, err := codec.Encode(testClaims(now, now.AddDate(1, 0, 0)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	res := verifier.VerifyAt(token+"x", now)
	if res.Valid {
		t.Fatal("Expected tampered token to be invalid")
	}
	if res.Reason == "License expired" {
		t.Error("Tampering must not be reported as expiry")
	}
}

func TestVerifyWrongKey(t *testing.T) {
	issuerCodec := NewCodec("key-one")
	verifier := NewVerifier(NewCodec("key-two"))
	now := time.Now()

	token, err := issuerCodec.Encode(testClaims(now, now.AddDate(1, 0, 0)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	res := verifier.VerifyAt(token, now)
	if res.Valid {
		t.Fatal("Expected token signed with a different key to be invalid")
	}
}
