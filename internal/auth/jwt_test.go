package auth

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestGenerateAndValidateClientToken(t *testing.T) {
	token, err := GenerateClientToken(testSecret, "c1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateClientToken returned error: %v", err)
	}

	claims, err := ValidateClientToken(testSecret, token, "c1")
	if err != nil {
		t.Fatalf("ValidateClientToken returned error: %v", err)
	}
	if claims.ClientID != "c1" {
		t.Errorf("Expected client ID c1, got %s", claims.ClientID)
	}
}

func TestValidateClientToken_Mismatch(t *testing.T) {
	token, err := GenerateClientToken(testSecret, "c1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateClientToken returned error: %v", err)
	}

	if _, err := ValidateClientToken(testSecret, token, "c2"); !errors.Is(err, ErrClientMismatch) {
		t.Errorf("Expected ErrClientMismatch, got %v", err)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	expired, err := GenerateClientToken(testSecret, "c1", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateClientToken returned error: %v", err)
	}
	if _, err := ValidateToken(testSecret, expired); err == nil {
		t.Error("Expected error for expired token")
	}

	valid, _ := GenerateClientToken(testSecret, "c1", time.Hour)
	if _, err := ValidateToken([]byte("other-secret"), valid); err == nil {
		t.Error("Expected error for wrong secret")
	}

	if _, err := ValidateToken(testSecret, "not-a-token"); err == nil {
		t.Error("Expected error for malformed token")
	}
}
