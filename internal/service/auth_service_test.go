package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldpulse/surveyhub/internal/repository"
	jwtpkg "fieldpulse/surveyhub/pkg/jwt"
)

func newAuthFixture(t *testing.T) (AuthService, *jwtpkg.Manager) {
	t.Helper()
	db := testDB(t)
	manager := jwtpkg.NewManager("test-signing-key", "surveyhub-test", time.Hour)
	return NewAuthService(repository.NewPGUserRepository(db), manager, "admin", "admin-secret"), manager
}

func TestSignupAndLogin(t *testing.T) {
	auth, manager := newAuthFixture(t)
	ctx := context.Background()

	token, user, err := auth.Signup(ctx, "researcher", "r@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("validate signup token: %v", err)
	}
	if claims.Username != "researcher" || claims.Subject != user.ID.String() {
		t.Fatalf("wrong claims: %+v", claims)
	}

	if _, _, err := auth.Login(ctx, "researcher", "hunter2hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := auth.Login(ctx, "researcher", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	if _, _, err := auth.Signup(ctx, "researcher", "r@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	_, _, err := auth.Signup(ctx, "researcher", "other@example.com", "hunter2hunter2")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAdminSeededOnFirstLogin(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	// Wrong admin password never seeds the account.
	if _, _, err := auth.Login(ctx, "admin", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := auth.GetUser(ctx, "admin"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("failed login seeded the admin: %v", err)
	}

	_, user, err := auth.Login(ctx, "admin", "admin-secret")
	if err != nil {
		t.Fatalf("first admin login: %v", err)
	}
	if user.Username != "admin" {
		t.Fatalf("wrong seeded user: %+v", user)
	}

	// Second login hits the stored row.
	if _, _, err := auth.Login(ctx, "admin", "admin-secret"); err != nil {
		t.Fatalf("second admin login: %v", err)
	}
}
