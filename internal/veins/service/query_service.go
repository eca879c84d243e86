package service

import (
	"context"
	"sort"
	"strings"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// QueryService produces resolved, filtered vein listings.  It holds no state
// of its own between calls.
type QueryService struct {
	veins    store.VeinStore
	status   store.StatusLogStore
	notes    store.NoteLogStore
	resolver *Resolver
}

func NewQueryService(vs store.VeinStore, ss store.StatusLogStore, ns store.NoteLogStore) *QueryService {
	return &QueryService{
		veins:    vs,
		status:   ss,
		notes:    ns,
		resolver: NewResolver(ss, ns),
	}
}

// Search lists veins whose name contains q.Name (case-sensitive; a blank name
// matches everything), newest first.  Revoked veins are left out unless
// q.IncludeRevoked is set.
func (s *QueryService) Search(ctx context.Context, q types.SearchQuery) ([]types.ResolvedVein, error) {
	name := q.Name
	if strings.TrimSpace(name) == "" {
		name = ""
	}

	veins, err := s.veins.ListVeins(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make([]types.ResolvedVein, 0, len(veins))
	for _, v := range veins {
		rv, err := s.resolver.Resolve(ctx, v)
		if err != nil {
			return nil, err
		}
		if rv.Revoked && !q.IncludeRevoked {
			continue
		}
		out = append(out, rv)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq > b.Seq
	})
	return out, nil
}

// Get resolves a single vein.  Revoked veins are returned as well.
func (s *QueryService) Get(ctx context.Context, id string) (types.ResolvedVein, error) {
	v, err := s.veins.GetVein(ctx, id)
	if err != nil {
		return types.ResolvedVein{}, err
	}
	return s.resolver.Resolve(ctx, v)
}

// History returns every log entry recorded for the vein, oldest first.
func (s *QueryService) History(ctx context.Context, id string) (types.VeinHistory, error) {
	v, err := s.veins.GetVein(ctx, id)
	if err != nil {
		return types.VeinHistory{}, err
	}

	h := types.VeinHistory{Vein: v}
	for _, dim := range types.Dimensions {
		entries, err := s.status.StatusEntries(ctx, dim, id)
		if err != nil {
			return types.VeinHistory{}, err
		}
		if entries == nil {
			entries = []types.StatusEntry{}
		}
		*h.Entries(dim) = entries
	}

	notes, err := s.notes.NoteEntries(ctx, id)
	if err != nil {
		return types.VeinHistory{}, err
	}
	if notes == nil {
		notes = []types.NoteEntry{}
	}
	h.Notes = notes
	return h, nil
}

// AvailableActions lists the status toggles a client may offer.  A revoked
// vein only offers unrevoke.  Otherwise each dimension offers the single
// toggle that flips its current value.
//
// This is advisory: SetStatus does not consult it.
func AvailableActions(rv types.ResolvedVein) types.Actions {
	if rv.Revoked {
		return types.Actions{Unrevoke: true}
	}
	return types.Actions{
		Confirm:      !rv.Confirmed,
		Unconfirm:    rv.Confirmed,
		Deplete:      !rv.Depleted,
		Undeplete:    rv.Depleted,
		Revoke:       true,
		SetBedrock:   !rv.IsBedrock,
		UnsetBedrock: rv.IsBedrock,
	}
}
