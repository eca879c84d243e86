package service

import (
	"context"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// DefaultStatus is the value of a dimension whose log is empty.  "Never set"
// and "set to false" read the same.
func DefaultStatus(types.Dimension) bool {
	return false
}

// ResolveStatus returns the value of the latest entry in a dimension log.
// Latest means greatest CreatedAt; entries sharing a timestamp are ordered by
// Seq, so the one inserted last wins.  An empty log resolves to the default.
func ResolveStatus(dim types.Dimension, entries []types.StatusEntry) bool {
	if len(entries) == 0 {
		return DefaultStatus(dim)
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if newer(e.CreatedAt.UnixMilli(), e.Seq, latest.CreatedAt.UnixMilli(), latest.Seq) {
			latest = e
		}
	}
	return latest.Value
}

// ResolveNote returns the text of the latest note, or nil when there is none.
func ResolveNote(entries []types.NoteEntry) *string {
	if len(entries) == 0 {
		return nil
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if newer(e.CreatedAt.UnixMilli(), e.Seq, latest.CreatedAt.UnixMilli(), latest.Seq) {
			latest = e
		}
	}
	note := latest.Note
	return &note
}

func newer(atMs, seq, curMs, curSeq int64) bool {
	if atMs != curMs {
		return atMs > curMs
	}
	return seq > curSeq
}

// Resolver computes the current state of a vein from its logs.  Every call
// reads the logs again; nothing is memoized between calls.
type Resolver struct {
	status store.StatusLogStore
	notes  store.NoteLogStore
}

func NewResolver(status store.StatusLogStore, notes store.NoteLogStore) *Resolver {
	return &Resolver{status: status, notes: notes}
}

// Resolve attaches the current value of every dimension and the latest note
// to v.  Actions are filled in as well.
func (r *Resolver) Resolve(ctx context.Context, v types.Vein) (types.ResolvedVein, error) {
	out := types.ResolvedVein{Vein: v}

	for _, dim := range types.Dimensions {
		entries, err := r.status.StatusEntries(ctx, dim, v.ID)
		if err != nil {
			return types.ResolvedVein{}, err
		}
		value := ResolveStatus(dim, entries)
		switch dim {
		case types.DimensionConfirmation:
			out.Confirmed = value
		case types.DimensionDepletion:
			out.Depleted = value
		case types.DimensionRevocation:
			out.Revoked = value
		case types.DimensionBedrock:
			out.IsBedrock = value
		}
	}

	notes, err := r.notes.NoteEntries(ctx, v.ID)
	if err != nil {
		return types.ResolvedVein{}, err
	}
	out.Note = ResolveNote(notes)
	out.Actions = AvailableActions(out)
	return out, nil
}
