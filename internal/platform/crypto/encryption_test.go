package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := hex.EncodeToString(bytes.Repeat([]byte{0xab}, 32))
	svc, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("service should be configured with a 32-byte key")
	}

	plain := []byte("1234567890123456")
	enc, err := svc.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(enc, plain) {
		t.Fatal("ciphertext must differ from plaintext")
	}

	dec, err := svc.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(dec, plain) {
		t.Fatalf("round trip mismatch: got %q", dec)
	}
}

func TestUnconfiguredPassthrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if svc.Configured() {
		t.Fatal("empty key must leave the service unconfigured")
	}
	plain := []byte("acct-42")
	enc, err := svc.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.Equal(enc, plain) {
		t.Fatal("unconfigured service must pass data through")
	}
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	key := hex.EncodeToString(bytes.Repeat([]byte{0x01}, 32))
	svc, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := svc.Decrypt([]byte{0x01, 0x02}); err == nil {
		t.Fatal("short ciphertext must be rejected")
	}
}
