package store

import (
	"context"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// VeinRecord is the input for CreateVein.  ID must already be generated.
type VeinRecord struct {
	ID        string
	Name      string
	X         int
	Y         *int
	Z         int
	CreatedAt time.Time
}

// VeinStore holds the immutable facts about veins.
type VeinStore interface {
	// CreateVein inserts the vein and, when note is non-empty, its first
	// note log entry.
	CreateVein(ctx context.Context, rec VeinRecord, note string) (types.Vein, error)
	GetVein(ctx context.Context, id string) (types.Vein, error)
	// ListVeins returns veins whose name contains nameFilter (case-sensitive),
	// newest first.  An empty filter matches everything.
	ListVeins(ctx context.Context, nameFilter string) ([]types.Vein, error)
	// DeleteVein removes the vein and, by cascade, every log entry for it.
	DeleteVein(ctx context.Context, id string) error
}
