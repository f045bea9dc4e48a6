package auth

import (
	"errors"
	"testing"
	"time"

	"osld-portal/internal/config"
)

func newTestService(expiration time.Duration) *Service {
	return NewService(&config.JWTConfig{
		Secret:     "test-secret",
		Expiration: expiration,
	})
}

func TestHashPassword(t *testing.T) {
	svc := newTestService(time.Hour)

	password := "testpassword123"
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "" || hash == password {
		t.Errorf("unexpected hash %q", hash)
	}

	if err := svc.VerifyPassword(hash, password); err != nil {
		t.Errorf("Should verify correct password, got error: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrongpassword"); err == nil {
		t.Error("Should not verify incorrect password")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestService(time.Hour)

	token, err := svc.GenerateToken(7, "CSC")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}

	if claims.AccountID != 7 {
		t.Errorf("Expected account ID 7, got %d", claims.AccountID)
	}
	if claims.OrganizationCode != "CSC" {
		t.Errorf("Expected organization CSC, got %s", claims.OrganizationCode)
	}
	if claims.ID == "" {
		t.Error("Expected a JTI")
	}
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	issuer := newTestService(time.Hour)
	verifier := newTestService(time.Hour)

	token, err := issuer.GenerateToken(1, "OSLD")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Expected token signed with another key to be rejected")
	}
	if _, err := verifier.ValidateToken("not-a-token"); err == nil {
		t.Error("Expected garbage to be rejected")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestService(-time.Minute)

	token, err := svc.GenerateToken(1, "OSLD")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(16)
	if err != nil {
		t.Fatalf("GenerateRandomToken failed: %v", err)
	}
	b, _ := GenerateRandomToken(16)
	if a == b {
		t.Error("Expected distinct tokens")
	}
}
