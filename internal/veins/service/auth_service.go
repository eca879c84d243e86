package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 8
)

type AuthConfig struct {
	// SessionTTL defaults to 7 days.
	SessionTTL time.Duration

	// InvitationTTL defaults to 168 hours.
	InvitationTTL time.Duration
}

// AuthService handles invitation-only registration and session login.  The
// public base URL used in invitation links is always passed in by the
// caller.
type AuthService struct {
	store store.AuthStore
	cfg   AuthConfig
	now   func() time.Time
}

func NewAuthService(s store.AuthStore, cfg AuthConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.InvitationTTL <= 0 {
		cfg.InvitationTTL = 168 * time.Hour
	}
	return &AuthService{
		store: s,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.  Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// EnsureBootstrapInvitation creates a system invitation when nobody can log
// in yet.  The user who redeems it becomes an administrator.  created is
// false when active users already exist.
func (s *AuthService) EnsureBootstrapInvitation(ctx context.Context, baseURL string) (resp types.InvitationResponse, created bool, err error) {
	n, err := s.store.CountActiveUsers(ctx)
	if err != nil {
		return types.InvitationResponse{}, false, err
	}
	if n > 0 {
		return types.InvitationResponse{}, false, nil
	}

	resp, err = s.createInvitation(ctx, nil, "", baseURL)
	if err != nil {
		return types.InvitationResponse{}, false, err
	}
	return resp, true, nil
}

// IssueInvitation lets an administrator invite a new user.
func (s *AuthService) IssueInvitation(ctx context.Context, inviter types.User, email, baseURL string) (types.InvitationResponse, error) {
	if !inviter.IsAdmin {
		return types.InvitationResponse{}, ErrForbidden
	}
	id := inviter.ID
	return s.createInvitation(ctx, &id, email, baseURL)
}

// IssueSystemInvitation creates an invitation with no inviter, which
// registers an administrator.  Reserved for operators with database access.
func (s *AuthService) IssueSystemInvitation(ctx context.Context, email, baseURL string) (types.InvitationResponse, error) {
	return s.createInvitation(ctx, nil, email, baseURL)
}

func (s *AuthService) createInvitation(ctx context.Context, inviter *string, email, baseURL string) (types.InvitationResponse, error) {
	now := s.now()
	inv := types.Invitation{
		ID:        uuid.NewString(),
		Email:     optionalString(email),
		Token:     uuid.NewString(),
		InvitedBy: inviter,
		ExpiresAt: now.Add(s.cfg.InvitationTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return types.InvitationResponse{}, err
	}
	return types.InvitationResponse{
		ID:            inv.ID,
		Email:         inv.Email,
		Token:         inv.Token,
		ExpiresAt:     inv.ExpiresAt,
		InvitationURL: InvitationURL(baseURL, inv.Token),
	}, nil
}

// InvitationURL builds the registration link for token.
func InvitationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/register?token=" + url.QueryEscape(token)
}

// Register redeems an invitation and creates the account.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (types.User, error) {
	username := strings.TrimSpace(req.Username)
	if err := validateUsername(username); err != nil {
		return types.User{}, err
	}
	if len(req.Password) < minPasswordLen {
		return types.User{}, invalid("password", "password must be at least 8 characters")
	}

	now := s.now()
	inv, err := s.store.GetOpenInvitation(ctx, strings.TrimSpace(req.Token), now)
	if errors.Is(err, store.ErrInvitationNotFound) {
		return types.User{}, ErrInvalidInvitation
	}
	if err != nil {
		return types.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	email := optionalString(req.Email)
	if email == nil {
		email = inv.Email
	}
	u := types.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      inv.InvitedBy == nil,
		IsActive:     true,
		CreatedAt:    now,
		InvitedBy:    inv.InvitedBy,
	}

	err = s.store.RedeemInvitation(ctx, inv.Token, u, now)
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		return types.User{}, invalid("username", "username is already taken")
	case errors.Is(err, store.ErrInvitationNotFound):
		return types.User{}, ErrInvalidInvitation
	case err != nil:
		return types.User{}, err
	}
	return u, nil
}

// Login checks the password and opens a session.  The returned token is
// shown to the client once; only its hash is stored.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (types.LoginResponse, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrUserNotFound) {
		return types.LoginResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return types.LoginResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return types.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return types.LoginResponse{}, err
	}
	now := s.now()
	sess := types.Session{
		TokenHash: HashToken(token),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return types.LoginResponse{}, err
	}
	return types.LoginResponse{User: u, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Authenticate maps a session token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (types.User, error) {
	if token == "" {
		return types.User{}, ErrUnauthorized
	}
	sess, err := s.store.GetSession(ctx, HashToken(token))
	if errors.Is(err, store.ErrSessionNotFound) {
		return types.User{}, ErrUnauthorized
	}
	if err != nil {
		return types.User{}, err
	}
	if !sess.ExpiresAt.After(s.now()) {
		return types.User{}, ErrUnauthorized
	}

	u, err := s.store.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return types.User{}, ErrUnauthorized
	}
	return u, err
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, HashToken(token))
}

// HashToken is the at-rest form of a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func validateUsername(u string) error {
	if len(u) < minUsernameLen || len(u) > maxUsernameLen {
		return invalid("username", "username must be 3-50 characters")
	}
	for _, r := range u {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return invalid("username", "username may only contain letters, digits, '_' and '-'")
		}
	}
	return nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
