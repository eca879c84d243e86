package types

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	InvitedBy    *string   `json:"-"`
}

// Invitation is a single-use registration token.  An invitation without an
// inviter is a system invitation and registers an administrator.
type Invitation struct {
	ID        string     `json:"id"`
	Email     *string    `json:"email,omitempty"`
	Token     string     `json:"token"`
	InvitedBy *string    `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"-"`
	UsedBy    *string    `json:"-"`
	CreatedAt time.Time  `json:"-"`
}

type Session struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type InviteRequest struct {
	Email string `json:"email,omitempty"`
}

type InvitationResponse struct {
	ID            string    `json:"id"`
	Email         *string   `json:"email,omitempty"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	InvitationURL string    `json:"invitation_url"`
}

type LoginResponse struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
