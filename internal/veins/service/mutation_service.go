package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// MutationService is the only write path for veins and their logs.  Every
// call is a single attempt; nothing is retried, since a retried append would
// leave a duplicate entry behind.
type MutationService struct {
	veins  store.VeinStore
	status store.StatusLogStore
	notes  store.NoteLogStore
	now    func() time.Time
}

func NewMutationService(vs store.VeinStore, ss store.StatusLogStore, ns store.NoteLogStore) *MutationService {
	return &MutationService{
		veins:  vs,
		status: ss,
		notes:  ns,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.  Used by tests to pin timestamps.
func (s *MutationService) WithClock(now func() time.Time) *MutationService {
	s.now = now
	return s
}

// CreateVein validates the add-vein form, stores the vein with its optional
// first note and appends a true entry for every initial flag that is set.
func (s *MutationService) CreateVein(ctx context.Context, in types.CreateVeinInput) (types.Vein, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return types.Vein{}, invalid("name", "name is required")
	}
	x, err := parseCoord("x_coord", in.X)
	if err != nil {
		return types.Vein{}, err
	}
	z, err := parseCoord("z_coord", in.Z)
	if err != nil {
		return types.Vein{}, err
	}

	var y *int
	if strings.TrimSpace(in.Y) != "" {
		yy, err := parseCoord("y_coord", in.Y)
		if err != nil {
			return types.Vein{}, err
		}
		y = &yy
	}

	now := s.now()
	v, err := s.veins.CreateVein(ctx, store.VeinRecord{
		ID:        uuid.NewString(),
		Name:      name,
		X:         x,
		Y:         y,
		Z:         z,
		CreatedAt: now,
	}, strings.TrimSpace(in.Notes))
	if err != nil {
		return types.Vein{}, err
	}

	initial := []struct {
		dim types.Dimension
		set bool
	}{
		{types.DimensionConfirmation, in.Confirmed},
		{types.DimensionDepletion, in.Depleted},
		{types.DimensionBedrock, in.IsBedrock},
	}
	for _, f := range initial {
		if !f.set {
			continue
		}
		if _, err := s.status.AppendStatus(ctx, f.dim, v.ID, true, now); err != nil {
			return v, err
		}
	}
	return v, nil
}

// SetStatus appends exactly one entry.  It does not compare against the
// current value: re-confirming a confirmed vein records a second entry.
func (s *MutationService) SetStatus(ctx context.Context, dim types.Dimension, veinID string, value bool) (types.StatusEntry, error) {
	if !dim.Valid() {
		return types.StatusEntry{}, invalid("dimension", "unknown status dimension")
	}
	return s.status.AppendStatus(ctx, dim, veinID, value, s.now())
}

// AddNote appends a note.  An explicitly supplied empty note is recorded and
// becomes the current note.
func (s *MutationService) AddNote(ctx context.Context, veinID, note string) (types.NoteEntry, error) {
	return s.notes.AppendNote(ctx, veinID, note, s.now())
}

// DeleteVein removes a vein and every log entry for it.  Only reachable from
// the admin CLI.
func (s *MutationService) DeleteVein(ctx context.Context, veinID string) error {
	return s.veins.DeleteVein(ctx, veinID)
}

func parseCoord(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid(field, "coordinate is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(field, "coordinate must be an integer")
	}
	return n, nil
}
