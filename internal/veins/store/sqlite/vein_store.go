package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	dbpkg "github.com/pluslatte/gt6-vein-manager/internal/db"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

const veinColumns = `seq, id, name, x, y, z, created_at_ms`

type VeinStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewVeinStore(db *sql.DB, writer *dbpkg.Worker) *VeinStore {
	return &VeinStore{db: db, writer: writer}
}

func (s *VeinStore) CreateVein(ctx context.Context, rec store.VeinRecord, note string) (types.Vein, error) {
	createdMs := msOrNow(rec.CreatedAt)

	var y any
	if rec.Y != nil {
		y = *rec.Y
	}

	var seq int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO veins(id, name, x, y, z, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, rec.ID, rec.Name, rec.X, y, rec.Z, createdMs)
		if err != nil {
			return fmt.Errorf("insert vein: %w", err)
		}
		if seq, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("vein seq: %w", err)
		}

		if note == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO vein_note(id, vein_id, note, created_at_ms)
VALUES (?, ?, ?, ?);
`, uuid.NewString(), rec.ID, note, createdMs); err != nil {
			return fmt.Errorf("insert initial note: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.Vein{}, wrap("CreateVein", err)
	}

	return types.Vein{
		ID:        rec.ID,
		Seq:       seq,
		Name:      rec.Name,
		X:         rec.X,
		Y:         rec.Y,
		Z:         rec.Z,
		CreatedAt: fromMs(createdMs),
	}, nil
}

func (s *VeinStore) GetVein(ctx context.Context, id string) (types.Vein, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+veinColumns+` FROM veins WHERE id = ?;`, id)
	v, err := scanVein(row)
	if err == sql.ErrNoRows {
		return types.Vein{}, store.ErrVeinNotFound
	}
	if err != nil {
		return types.Vein{}, wrap("GetVein", err)
	}
	return v, nil
}

// ListVeins filters with instr() rather than LIKE: SQLite's LIKE folds ASCII
// case, and the name filter is case-sensitive.
func (s *VeinStore) ListVeins(ctx context.Context, nameFilter string) ([]types.Vein, error) {
	q := `SELECT ` + veinColumns + ` FROM veins`
	var args []any
	if strings.TrimSpace(nameFilter) != "" {
		q += ` WHERE instr(name, ?) > 0`
		args = append(args, nameFilter)
	}
	q += ` ORDER BY created_at_ms DESC, seq DESC;`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrap("ListVeins", err)
	}
	defer rows.Close()

	var out []types.Vein
	for rows.Next() {
		v, err := scanVein(rows)
		if err != nil {
			return nil, wrap("ListVeins scan", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("ListVeins", err)
	}
	return out, nil
}

func (s *VeinStore) DeleteVein(ctx context.Context, id string) error {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM veins WHERE id = ?;`, id)
		if err != nil {
			return fmt.Errorf("delete vein: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrVeinNotFound
		}
		return nil
	})
	return wrap("DeleteVein", err)
}

func scanVein(r rowScanner) (types.Vein, error) {
	var (
		v         types.Vein
		y         sql.NullInt64
		createdMs int64
	)
	if err := r.Scan(&v.Seq, &v.ID, &v.Name, &v.X, &y, &v.Z, &createdMs); err != nil {
		return types.Vein{}, err
	}
	if y.Valid {
		yy := int(y.Int64)
		v.Y = &yy
	}
	v.CreatedAt = fromMs(createdMs)
	return v, nil
}
