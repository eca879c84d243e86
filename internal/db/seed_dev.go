package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type seedVein struct {
	id      string
	name    string
	x, z    int
	y       any
	confirm bool
}

var devVeins = []seedVein{
	{id: "00000000-0000-4000-8000-000000000001", name: "Diamond Vein A", x: 120, y: 12, z: -340, confirm: true},
	{id: "00000000-0000-4000-8000-000000000002", name: "Magnetite Vein", x: -48, y: nil, z: 96},
	{id: "00000000-0000-4000-8000-000000000003", name: "Bauxite Vein", x: 512, y: 40, z: 512},
}

// SeedDev inserts a few sample veins so an empty dev database has something
// to search.  Existing rows are left untouched.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC().UnixMilli()

	for i, v := range devVeins {
		createdMs := now - int64(len(devVeins)-i)*1000

		res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO veins(id, name, x, y, z, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`, v.id, v.name, v.x, v.y, v.z, createdMs)
		if err != nil {
			return fmt.Errorf("seed vein %s: %w", v.name, err)
		}
		n, _ := res.RowsAffected()
		if n == 0 || !v.confirm {
			continue
		}

		if _, err := db.ExecContext(ctx, `
INSERT INTO vein_confirmation(id, vein_id, value, created_at_ms)
VALUES (?, ?, 1, ?);`, uuid.NewString(), v.id, createdMs); err != nil {
			return fmt.Errorf("seed confirmation %s: %w", v.name, err)
		}
	}

	return nil
}
