package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// Store is an in-memory VeinStore, StatusLogStore and NoteLogStore.
// It is intended for use in tests and dev environments.  Timestamps are
// truncated to milliseconds so it behaves like the SQLite store.
type Store struct {
	mu          sync.RWMutex
	seq         int64
	veins       map[string]types.Vein
	status      map[types.Dimension][]types.StatusEntry
	notes       []types.NoteEntry
	unavailable bool
}

func New() *Store {
	return &Store{
		veins:  make(map[string]types.Vein),
		status: make(map[types.Dimension][]types.StatusEntry),
	}
}

// SetUnavailable makes every subsequent call fail with store.ErrUnavailable.
// Test-only helper.
func (s *Store) SetUnavailable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = v
}

func (s *Store) check(op string) error {
	if s.unavailable {
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}
	return nil
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Truncate(time.Millisecond)
}

// ── Veins ────────────────────────────────────────────────────────────────────

func (s *Store) CreateVein(_ context.Context, rec store.VeinRecord, note string) (types.Vein, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CreateVein"); err != nil {
		return types.Vein{}, err
	}
	if _, dup := s.veins[rec.ID]; dup {
		return types.Vein{}, fmt.Errorf("CreateVein: duplicate id %s", rec.ID)
	}

	at := stamp(rec.CreatedAt)
	v := types.Vein{
		ID:        rec.ID,
		Seq:       s.nextSeq(),
		Name:      rec.Name,
		X:         rec.X,
		Y:         copyInt(rec.Y),
		Z:         rec.Z,
		CreatedAt: at,
	}
	s.veins[v.ID] = v

	if note != "" {
		s.notes = append(s.notes, types.NoteEntry{
			ID:        uuid.NewString(),
			Seq:       s.nextSeq(),
			VeinID:    v.ID,
			Note:      note,
			CreatedAt: at,
		})
	}
	return v, nil
}

func (s *Store) GetVein(_ context.Context, id string) (types.Vein, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("GetVein"); err != nil {
		return types.Vein{}, err
	}
	v, ok := s.veins[id]
	if !ok {
		return types.Vein{}, store.ErrVeinNotFound
	}
	return v, nil
}

func (s *Store) ListVeins(_ context.Context, nameFilter string) ([]types.Vein, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("ListVeins"); err != nil {
		return nil, err
	}

	filter := strings.TrimSpace(nameFilter) != ""
	var out []types.Vein
	for _, v := range s.veins {
		if filter && !strings.Contains(v.Name, nameFilter) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

func (s *Store) DeleteVein(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DeleteVein"); err != nil {
		return err
	}
	if _, ok := s.veins[id]; !ok {
		return store.ErrVeinNotFound
	}
	delete(s.veins, id)

	for dim, entries := range s.status {
		s.status[dim] = dropVein(entries, id, func(e types.StatusEntry) string { return e.VeinID })
	}
	s.notes = dropVein(s.notes, id, func(e types.NoteEntry) string { return e.VeinID })
	return nil
}

// ── Logs ─────────────────────────────────────────────────────────────────────

func (s *Store) AppendStatus(_ context.Context, dim types.Dimension, veinID string, value bool, at time.Time) (types.StatusEntry, error) {
	if !dim.Valid() {
		return types.StatusEntry{}, fmt.Errorf("AppendStatus: unknown dimension %s", dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("AppendStatus"); err != nil {
		return types.StatusEntry{}, err
	}
	if _, ok := s.veins[veinID]; !ok {
		return types.StatusEntry{}, store.ErrVeinNotFound
	}

	e := types.StatusEntry{
		ID:        uuid.NewString(),
		Seq:       s.nextSeq(),
		VeinID:    veinID,
		Dimension: dim,
		Value:     value,
		CreatedAt: stamp(at),
	}
	s.status[dim] = append(s.status[dim], e)
	return e, nil
}

func (s *Store) StatusEntries(_ context.Context, dim types.Dimension, veinID string) ([]types.StatusEntry, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("StatusEntries: unknown dimension %s", dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("StatusEntries"); err != nil {
		return nil, err
	}

	var out []types.StatusEntry
	for _, e := range s.status[dim] {
		if e.VeinID == veinID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) AppendNote(_ context.Context, veinID, note string, at time.Time) (types.NoteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("AppendNote"); err != nil {
		return types.NoteEntry{}, err
	}
	if _, ok := s.veins[veinID]; !ok {
		return types.NoteEntry{}, store.ErrVeinNotFound
	}

	e := types.NoteEntry{
		ID:        uuid.NewString(),
		Seq:       s.nextSeq(),
		VeinID:    veinID,
		Note:      note,
		CreatedAt: stamp(at),
	}
	s.notes = append(s.notes, e)
	return e, nil
}

func (s *Store) NoteEntries(_ context.Context, veinID string) ([]types.NoteEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check("NoteEntries"); err != nil {
		return nil, err
	}

	var out []types.NoteEntry
	for _, e := range s.notes {
		if e.VeinID == veinID {
			out = append(out, e)
		}
	}
	return out, nil
}

// LogLen returns the number of entries in one status log across all veins.
// Test-only helper.
func (s *Store) LogLen(dim types.Dimension) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.status[dim])
}

func dropVein[T any](entries []T, veinID string, key func(T) string) []T {
	out := entries[:0]
	for _, e := range entries {
		if key(e) != veinID {
			out = append(out, e)
		}
	}
	return out
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var (
	_ store.VeinStore      = (*Store)(nil)
	_ store.StatusLogStore = (*Store)(nil)
	_ store.NoteLogStore   = (*Store)(nil)
)
