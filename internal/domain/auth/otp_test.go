package auth

import (
	"testing"
	"time"
)

func TestOTPCodeRoundTrip(t *testing.T) {
	secret, err := NewOTPSecret("worker@example.com")
	if err != nil {
		t.Fatalf("secret generation failed: %v", err)
	}

	now := time.Now()
	code, err := GenerateOTPCode(secret, now)
	if err != nil {
		t.Fatalf("code generation failed: %v", err)
	}
	if !ValidateOTPCode(code, secret, now) {
		t.Fatal("freshly generated code must validate")
	}
	if ValidateOTPCode("000000", secret, now) && code != "000000" {
		t.Fatal("arbitrary code must not validate")
	}
}

func TestOTPCodeExpires(t *testing.T) {
	secret, err := NewOTPSecret("worker@example.com")
	if err != nil {
		t.Fatalf("secret generation failed: %v", err)
	}
	issued := time.Now().Add(-2 * time.Hour)
	code, err := GenerateOTPCode(secret, issued)
	if err != nil {
		t.Fatalf("code generation failed: %v", err)
	}
	if ValidateOTPCode(code, secret, time.Now()) {
		t.Fatal("stale code must not validate")
	}
}
