package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("secret", "surveyhub-test", time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, "researcher")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != userID.String() || claims.Username != "researcher" {
		t.Fatalf("wrong claims: %+v", claims)
	}
	if claims.Issuer != "surveyhub-test" {
		t.Fatalf("wrong issuer: %s", claims.Issuer)
	}
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, err := NewManager("secret-a", "iss", time.Hour).GenerateAccessToken(uuid.New(), "u")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewManager("secret-b", "iss", time.Hour).Validate(token); err == nil {
		t.Fatal("token signed with another key validated")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewManager("secret", "iss", -time.Minute)
	token, err := m.GenerateAccessToken(uuid.New(), "u")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.Validate(token); err == nil {
		t.Fatal("expired token validated")
	}
}
