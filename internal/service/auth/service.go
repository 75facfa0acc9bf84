// Package auth implements account sign-up/sign-in on top of the persistence
// adapter, with opaque bearer tokens held in process.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/amarw/wayfarer/backend/internal/model/user"
	"github.com/amarw/wayfarer/backend/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown accounts and wrong
	// passwords at the API surface.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken mirrors the adapter's duplicate-account error.
	ErrEmailTaken = store.ErrEmailTaken
)

// SignUpInput is the registration payload.
type SignUpInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	UsageType string `json:"usage_type"`
	Password  string `json:"password"`
}

// Service issues and resolves bearer tokens for profiles stored behind the
// adapter. Guest identities are token-only and never stored.
type Service struct {
	store      store.Adapter
	adminEmail string

	mu     sync.RWMutex
	tokens map[string]user.Profile
}

// NewService creates the auth service. adminEmail designates the single
// account allowed to read the admin report; empty disables it.
func NewService(adapter store.Adapter, adminEmail string) *Service {
	return &Service{
		store:      adapter,
		adminEmail: adminEmail,
		tokens:     make(map[string]user.Profile),
	}
}

// SignUp registers an account and signs it in.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (user.Profile, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return user.Profile{}, "", errors.New("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.Profile{}, "", fmt.Errorf("hash password: %w", err)
	}

	profile, err := s.store.CreateUser(ctx, user.Profile{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     email,
		Phone:     strings.TrimSpace(input.Phone),
		UsageType: input.UsageType,
		CreatedAt: time.Now().UTC(),
	}, string(hash))
	if err != nil {
		return user.Profile{}, "", err
	}

	return profile, s.issueToken(profile), nil
}

// SignIn verifies credentials and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (user.Profile, string, error) {
	profile, hash, err := s.store.UserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, store.ErrNotFound) {
		return user.Profile{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return user.Profile{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return user.Profile{}, "", ErrInvalidCredentials
	}
	return profile, s.issueToken(profile), nil
}

// SignInAsGuest mints a synthetic guest identity with no stored account.
func (s *Service) SignInAsGuest(_ context.Context) (user.Profile, string) {
	profile := user.Profile{
		ID:        "guest_" + uuid.NewString(),
		FirstName: "Guest",
		LastName:  "Traveler",
		Email:     "guest@travel.ai",
		UsageType: "personal",
		Guest:     true,
		CreatedAt: time.Now().UTC(),
	}
	return profile, s.issueToken(profile)
}

// SignOut revokes a token. Unknown tokens are ignored.
func (s *Service) SignOut(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// CurrentUser resolves a bearer token.
func (s *Service) CurrentUser(token string) (user.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.tokens[token]
	return profile, ok
}

// IsAdmin reports whether the profile may read the admin report.
func (s *Service) IsAdmin(profile user.Profile) bool {
	return s.adminEmail != "" && profile.Email == s.adminEmail
}

func (s *Service) issueToken(profile user.Profile) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = profile
	s.mu.Unlock()
	return token
}
