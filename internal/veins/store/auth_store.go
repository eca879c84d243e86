package store

import (
	"context"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

type UserStore interface {
	CountActiveUsers(ctx context.Context) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (types.User, error)
	GetUserByID(ctx context.Context, id string) (types.User, error)
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv types.Invitation) error
	// GetOpenInvitation returns an unused, unexpired invitation.
	GetOpenInvitation(ctx context.Context, token string, now time.Time) (types.Invitation, error)
	// RedeemInvitation creates the user and marks the invitation used in
	// one transaction.  Fails with ErrInvitationNotFound if the invitation
	// was used or expired in the meantime.
	RedeemInvitation(ctx context.Context, token string, user types.User, now time.Time) error
	PruneInvitations(ctx context.Context, now time.Time) (int64, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s types.Session) error
	GetSession(ctx context.Context, tokenHash string) (types.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	PruneSessions(ctx context.Context, now time.Time) (int64, error)
}

// AuthStore is everything the auth service needs.
type AuthStore interface {
	UserStore
	InvitationStore
	SessionStore
}
