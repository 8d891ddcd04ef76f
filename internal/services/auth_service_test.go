package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pennywise/internal/core"
)

func TestAuthRegisterAndLogin(t *testing.T) {
	clock := core.FixedClock{T: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)}
	store := newFakeUserStore(clock)
	auth := NewAuthService(store, clock)

	user, err := auth.Register(context.Background(), "  Ada@Example.COM ", "Ada", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.PasswordHash == "correct horse" {
		t.Error("password stored in clear")
	}

	got, token, err := auth.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("logged in as %q, want %q", got.ID, user.ID)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}

	authed, err := auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Errorf("authenticated as %q, want %q", authed.ID, user.ID)
	}

	if err := auth.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := auth.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate after logout = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthRegisterRejectsBadInput(t *testing.T) {
	clock := core.FixedClock{T: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)}
	auth := NewAuthService(newFakeUserStore(clock), clock)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "long enough"},
		{"email without at sign", "ada.example.com", "long enough"},
		{"short password", "ada@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Register(context.Background(), tt.email, "Ada", tt.password); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAuthDuplicateEmail(t *testing.T) {
	clock := core.FixedClock{T: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)}
	auth := NewAuthService(newFakeUserStore(clock), clock)

	if _, err := auth.Register(context.Background(), "ada@example.com", "Ada", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := auth.Register(context.Background(), "ADA@example.com", "Other Ada", "battery staple")
	if !errors.Is(err, core.ErrEmailTaken) {
		t.Errorf("second Register = %v, want ErrEmailTaken", err)
	}
}

func TestAuthLoginFailuresAreIndistinguishable(t *testing.T) {
	clock := core.FixedClock{T: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)}
	auth := NewAuthService(newFakeUserStore(clock), clock)

	if _, err := auth.Register(context.Background(), "ada@example.com", "Ada", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := auth.Login(context.Background(), "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := auth.Login(context.Background(), "ada@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	start := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	store := newFakeUserStore(core.FixedClock{T: start})
	auth := NewAuthService(store, core.FixedClock{T: start})

	if _, err := auth.Register(context.Background(), "ada@example.com", "Ada", "correct horse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, token, err := auth.Login(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// The store clock moves past the 24h session lifetime.
	store.clock = core.FixedClock{T: start.Add(25 * time.Hour)}
	if _, err := auth.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate with expired session = %v, want ErrInvalidCredentials", err)
	}
}
