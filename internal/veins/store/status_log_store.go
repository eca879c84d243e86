package store

import (
	"context"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// StatusLogStore persists one append-only log per status dimension.
// Entries are never updated or deleted individually.
type StatusLogStore interface {
	// AppendStatus adds an entry and returns it with its assigned Seq.
	// Returns ErrVeinNotFound when veinID does not reference a vein.
	// A zero at means "now".
	AppendStatus(ctx context.Context, dim types.Dimension, veinID string, value bool, at time.Time) (types.StatusEntry, error)
	// StatusEntries returns the full log for (dim, veinID) in insertion order.
	StatusEntries(ctx context.Context, dim types.Dimension, veinID string) ([]types.StatusEntry, error)
}

// NoteLogStore is the append-only log of free-text notes.
type NoteLogStore interface {
	AppendNote(ctx context.Context, veinID, note string, at time.Time) (types.NoteEntry, error)
	NoteEntries(ctx context.Context, veinID string) ([]types.NoteEntry, error)
}
