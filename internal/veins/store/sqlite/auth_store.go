package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/pluslatte/gt6-vein-manager/internal/db"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

const userColumns = `id, username, email, password_hash, is_admin, is_active, created_at_ms, invited_by`

// AuthStore persists users, invitations and sessions.
type AuthStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAuthStore(db *sql.DB, writer *dbpkg.Worker) *AuthStore {
	return &AuthStore{db: db, writer: writer}
}

// ── Users ────────────────────────────────────────────────────────────────────

func (s *AuthStore) CountActiveUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_active = 1;`).Scan(&n)
	if err != nil {
		return 0, wrap("CountActiveUsers", err)
	}
	return n, nil
}

func (s *AuthStore) GetUserByUsername(ctx context.Context, username string) (types.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+userColumns+` FROM users WHERE username = ? AND is_active = 1;
`, username)
	return s.userFromRow("GetUserByUsername", row)
}

func (s *AuthStore) GetUserByID(ctx context.Context, id string) (types.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+userColumns+` FROM users WHERE id = ? AND is_active = 1;
`, id)
	return s.userFromRow("GetUserByID", row)
}

func (s *AuthStore) userFromRow(op string, row *sql.Row) (types.User, error) {
	var (
		u         types.User
		email     sql.NullString
		invitedBy sql.NullString
		isAdmin   int
		isActive  int
		createdMs int64
	)
	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &isAdmin, &isActive, &createdMs, &invitedBy)
	if err == sql.ErrNoRows {
		return types.User{}, store.ErrUserNotFound
	}
	if err != nil {
		return types.User{}, wrap(op, err)
	}
	u.Email = stringPtr(email)
	u.InvitedBy = stringPtr(invitedBy)
	u.IsAdmin = isAdmin == 1
	u.IsActive = isActive == 1
	u.CreatedAt = fromMs(createdMs)
	return u, nil
}

// ── Invitations ──────────────────────────────────────────────────────────────

func (s *AuthStore) CreateInvitation(ctx context.Context, inv types.Invitation) error {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO invitations(id, email, token, invited_by, expires_at_ms, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, inv.ID, nullableString(inv.Email), inv.Token, nullableString(inv.InvitedBy),
			inv.ExpiresAt.UTC().UnixMilli(), msOrNow(inv.CreatedAt)); err != nil {
			return fmt.Errorf("insert invitation: %w", err)
		}
		return nil
	})
	return wrap("CreateInvitation", err)
}

func (s *AuthStore) GetOpenInvitation(ctx context.Context, token string, now time.Time) (types.Invitation, error) {
	var (
		inv       types.Invitation
		email     sql.NullString
		invitedBy sql.NullString
		usedBy    sql.NullString
		usedAt    sql.NullInt64
		expiresMs int64
		createdMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, email, token, invited_by, expires_at_ms, used_at_ms, used_by, created_at_ms
FROM invitations
WHERE token = ? AND used_at_ms IS NULL AND expires_at_ms > ?;
`, token, now.UTC().UnixMilli()).Scan(
		&inv.ID, &email, &inv.Token, &invitedBy, &expiresMs, &usedAt, &usedBy, &createdMs,
	)
	if err == sql.ErrNoRows {
		return types.Invitation{}, store.ErrInvitationNotFound
	}
	if err != nil {
		return types.Invitation{}, wrap("GetOpenInvitation", err)
	}
	inv.Email = stringPtr(email)
	inv.InvitedBy = stringPtr(invitedBy)
	inv.UsedBy = stringPtr(usedBy)
	inv.UsedAt = timePtr(usedAt)
	inv.ExpiresAt = fromMs(expiresMs)
	inv.CreatedAt = fromMs(createdMs)
	return inv, nil
}

func (s *AuthStore) RedeemInvitation(ctx context.Context, token string, u types.User, now time.Time) error {
	nowMs := now.UTC().UnixMilli()

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username = ?;`, u.Username).Scan(&one)
		if err == nil {
			return store.ErrUsernameTaken
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("lookup username: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
UPDATE invitations
SET used_at_ms = ?,
    used_by    = ?
WHERE token = ? AND used_at_ms IS NULL AND expires_at_ms > ?;
`, nowMs, u.ID, token, nowMs)
		if err != nil {
			return fmt.Errorf("mark invitation used: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrInvitationNotFound
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO users(`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, u.ID, u.Username, nullableString(u.Email), u.PasswordHash,
			boolToInt(u.IsAdmin), 1, msOrNow(u.CreatedAt), nullableString(u.InvitedBy)); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	return wrap("RedeemInvitation", err)
}

// PruneInvitations deletes unused invitations that expired before now.
// Used invitations are kept as a record of who invited whom.
func (s *AuthStore) PruneInvitations(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM invitations
WHERE used_at_ms IS NULL AND expires_at_ms < ?;
`, now.UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("prune invitations: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, wrap("PruneInvitations", err)
}

// ── Sessions ─────────────────────────────────────────────────────────────────

func (s *AuthStore) CreateSession(ctx context.Context, sess types.Session) error {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions(token_hash, user_id, expires_at_ms, created_at_ms)
VALUES (?, ?, ?, ?);
`, sess.TokenHash, sess.UserID, sess.ExpiresAt.UTC().UnixMilli(), msOrNow(sess.CreatedAt)); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	return wrap("CreateSession", err)
}

func (s *AuthStore) GetSession(ctx context.Context, tokenHash string) (types.Session, error) {
	var (
		sess      types.Session
		expiresMs int64
		createdMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT token_hash, user_id, expires_at_ms, created_at_ms
FROM sessions WHERE token_hash = ?;
`, tokenHash).Scan(&sess.TokenHash, &sess.UserID, &expiresMs, &createdMs)
	if err == sql.ErrNoRows {
		return types.Session{}, store.ErrSessionNotFound
	}
	if err != nil {
		return types.Session{}, wrap("GetSession", err)
	}
	sess.ExpiresAt = fromMs(expiresMs)
	sess.CreatedAt = fromMs(createdMs)
	return sess, nil
}

func (s *AuthStore) DeleteSession(ctx context.Context, tokenHash string) error {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?;`, tokenHash); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
	return wrap("DeleteSession", err)
}

func (s *AuthStore) PruneSessions(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at_ms < ?;`, now.UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, wrap("PruneSessions", err)
}
