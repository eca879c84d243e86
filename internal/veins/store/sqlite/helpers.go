package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// wrap passes store sentinels through untouched and marks everything else
// as ErrUnavailable while keeping the driver error in the chain.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		store.ErrVeinNotFound,
		store.ErrUserNotFound,
		store.ErrUsernameTaken,
		store.ErrInvitationNotFound,
		store.ErrSessionNotFound,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, store.ErrUnavailable, err)
}

func msOrNow(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixMilli()
}

func fromMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMs(ms.Int64)
	return &t
}
