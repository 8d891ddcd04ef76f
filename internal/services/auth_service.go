package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pennywise/internal/core"
	applog "pennywise/internal/log"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown email and wrong password; the
// two are indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid credentials")

var (
	ErrInvalidEmail     = errors.New("invalid email")
	ErrPasswordTooShort = errors.New("password too short (min 8 characters)")
)

const sessionTTL = 24 * time.Hour

// AuthService registers users and issues opaque bearer session tokens.
type AuthService struct {
	users UserStore
	clock core.Clock
}

func NewAuthService(users UserStore, clock core.Clock) *AuthService {
	if clock == nil {
		clock = core.SystemClock()
	}
	return &AuthService{users: users, clock: clock}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return core.User{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return core.User{}, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, email, strings.TrimSpace(name), string(hash))
	if err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User registered", applog.FieldUserID, user.ID)
	return user, nil
}

// Login verifies the password and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return core.User{}, "", err
	}
	if err := s.users.CreateSession(ctx, user.ID, token, s.clock.Now().Add(sessionTTL)); err != nil {
		return core.User{}, "", fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", applog.FieldUserID, user.ID)
	return user, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrInvalidCredentials
	}
	user, err := s.users.UserBySession(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	return user, err
}

// Logout revokes the token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, token)
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
