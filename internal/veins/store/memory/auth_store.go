package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// AuthStore is an in-memory store.AuthStore for tests.
type AuthStore struct {
	mu          sync.Mutex
	users       map[string]types.User // by id
	invitations map[string]types.Invitation
	sessions    map[string]types.Session
}

func NewAuthStore() *AuthStore {
	return &AuthStore{
		users:       make(map[string]types.User),
		invitations: make(map[string]types.Invitation),
		sessions:    make(map[string]types.Session),
	}
}

func (s *AuthStore) CountActiveUsers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *AuthStore) GetUserByUsername(_ context.Context, username string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username && u.IsActive {
			return u, nil
		}
	}
	return types.User{}, store.ErrUserNotFound
}

func (s *AuthStore) GetUserByID(_ context.Context, id string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return types.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (s *AuthStore) CreateInvitation(_ context.Context, inv types.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	s.invitations[inv.Token] = inv
	return nil
}

func (s *AuthStore) GetOpenInvitation(_ context.Context, token string, now time.Time) (types.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invitations[token]
	if !ok || inv.UsedAt != nil || !inv.ExpiresAt.After(now) {
		return types.Invitation{}, store.ErrInvitationNotFound
	}
	return inv, nil
}

func (s *AuthStore) RedeemInvitation(_ context.Context, token string, u types.User, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return store.ErrUsernameTaken
		}
	}
	inv, ok := s.invitations[token]
	if !ok || inv.UsedAt != nil || !inv.ExpiresAt.After(now) {
		return store.ErrInvitationNotFound
	}

	usedAt := now
	usedBy := u.ID
	inv.UsedAt = &usedAt
	inv.UsedBy = &usedBy
	s.invitations[token] = inv

	u.IsActive = true
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	s.users[u.ID] = u
	return nil
}

func (s *AuthStore) PruneInvitations(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for token, inv := range s.invitations {
		if inv.UsedAt == nil && inv.ExpiresAt.Before(now) {
			delete(s.invitations, token)
			n++
		}
	}
	return n, nil
}

func (s *AuthStore) CreateSession(_ context.Context, sess types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	s.sessions[sess.TokenHash] = sess
	return nil
}

func (s *AuthStore) GetSession(_ context.Context, tokenHash string) (types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tokenHash]
	if !ok {
		return types.Session{}, store.ErrSessionNotFound
	}
	return sess, nil
}

func (s *AuthStore) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *AuthStore) PruneSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, sess := range s.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(s.sessions, hash)
			n++
		}
	}
	return n, nil
}

// Invitations returns a copy of every stored invitation.  Test-only helper.
func (s *AuthStore) Invitations() []types.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Invitation, 0, len(s.invitations))
	for _, inv := range s.invitations {
		out = append(out, inv)
	}
	return out
}

// Sessions returns the number of stored sessions.  Test-only helper.
func (s *AuthStore) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var _ store.AuthStore = (*AuthStore)(nil)
