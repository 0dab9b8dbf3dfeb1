package jwt

import (
	"testing"
	"time"

	"medical-records/config"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s3cret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	sub := Identity{UserID: uuid.New(), Username: "nurse.joy", RoleID: 3}

	token, tokenID, err := svc.GenerateAccessToken(sub)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != AccessToken {
		t.Errorf("TokenType = %q, want %q", claims.TokenType, AccessToken)
	}
	if claims.TokenID != tokenID {
		t.Errorf("TokenID = %q, want %q", claims.TokenID, tokenID)
	}
	if claims.Identity() != sub {
		t.Errorf("Identity = %+v, want %+v", claims.Identity(), sub)
	}
}

func TestValidate_RejectsForeignSecret(t *testing.T) {
	issuer := NewJWTService(config.JWTConfig{Secret: "one", AccessExpiry: time.Minute})
	verifier := NewJWTService(config.JWTConfig{Secret: "two", AccessExpiry: time.Minute})

	token, _, err := issuer.GenerateRefreshToken(Identity{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestValidate_RejectsExpired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "s3cret", AccessExpiry: -time.Minute})

	token, _, err := svc.GenerateAccessToken(Identity{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
