package types

import "time"

// Vein holds the immutable facts recorded when a vein is discovered.
type Vein struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"-"`
	Name      string    `json:"name"`
	X         int       `json:"x_coord"`
	Y         *int      `json:"y_coord"` // nil = unknown vertical level
	Z         int       `json:"z_coord"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusEntry is one immutable row of a dimension log.
type StatusEntry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	VeinID    string    `json:"vein_id"`
	Dimension Dimension `json:"-"`
	Value     bool      `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteEntry is one immutable row of the note log.
type NoteEntry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	VeinID    string    `json:"vein_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Actions lists which status toggles a client may offer for a vein.
type Actions struct {
	Confirm      bool `json:"confirm"`
	Unconfirm    bool `json:"unconfirm"`
	Deplete      bool `json:"deplete"`
	Undeplete    bool `json:"undeplete"`
	Revoke       bool `json:"revoke"`
	Unrevoke     bool `json:"unrevoke"`
	SetBedrock   bool `json:"set_bedrock"`
	UnsetBedrock bool `json:"unset_bedrock"`
}

// ResolvedVein is a vein joined with the current value of every dimension.
// It is computed on every read and never stored.
type ResolvedVein struct {
	Vein
	Confirmed bool    `json:"confirmed"`
	Depleted  bool    `json:"depleted"`
	Revoked   bool    `json:"revoked"`
	IsBedrock bool    `json:"is_bedrock"`
	Note      *string `json:"notes"`
	Actions   Actions `json:"actions"`
}

// Status returns the resolved value of d.
func (r ResolvedVein) Status(d Dimension) bool {
	switch d {
	case DimensionConfirmation:
		return r.Confirmed
	case DimensionDepletion:
		return r.Depleted
	case DimensionRevocation:
		return r.Revoked
	case DimensionBedrock:
		return r.IsBedrock
	}
	return false
}

// VeinHistory is the raw audit trail of a vein.
type VeinHistory struct {
	Vein         Vein          `json:"vein"`
	Confirmation []StatusEntry `json:"confirmation"`
	Depletion    []StatusEntry `json:"depletion"`
	Revocation   []StatusEntry `json:"revocation"`
	Bedrock      []StatusEntry `json:"is_bedrock"`
	Notes        []NoteEntry   `json:"notes"`
}

// Entries returns the history slot for d.
func (h *VeinHistory) Entries(d Dimension) *[]StatusEntry {
	switch d {
	case DimensionConfirmation:
		return &h.Confirmation
	case DimensionDepletion:
		return &h.Depletion
	case DimensionRevocation:
		return &h.Revocation
	case DimensionBedrock:
		return &h.Bedrock
	}
	return nil
}

type SearchQuery struct {
	Name           string `json:"name,omitempty"`
	IncludeRevoked bool   `json:"include_revoked,omitempty"`
}

// CreateVeinInput mirrors the add-vein form: coordinates arrive as text and
// are parsed by the mutation service.
type CreateVeinInput struct {
	Name      string `json:"name"`
	X         string `json:"x_coord"`
	Y         string `json:"y_coord"`
	Z         string `json:"z_coord"`
	Notes     string `json:"notes,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
	Depleted  bool   `json:"depleted,omitempty"`
	IsBedrock bool   `json:"is_bedrock,omitempty"`
}
