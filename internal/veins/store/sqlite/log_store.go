package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/pluslatte/gt6-vein-manager/internal/db"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// LogStore implements both the status logs and the note log.  Every append
// is a single-row insert; nothing here ever updates or deletes an entry.
type LogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewLogStore(db *sql.DB, writer *dbpkg.Worker) *LogStore {
	return &LogStore{db: db, writer: writer}
}

func (s *LogStore) AppendStatus(ctx context.Context, dim types.Dimension, veinID string, value bool, at time.Time) (types.StatusEntry, error) {
	if !dim.Valid() {
		return types.StatusEntry{}, fmt.Errorf("AppendStatus: unknown dimension %s", dim)
	}

	entry := types.StatusEntry{
		ID:        uuid.NewString(),
		VeinID:    veinID,
		Dimension: dim,
		Value:     value,
	}
	createdMs := msOrNow(at)

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireVein(ctx, tx, veinID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s(id, vein_id, value, created_at_ms)
VALUES (?, ?, ?, ?);
`, dim.Table()), entry.ID, veinID, boolToInt(value), createdMs)
		if err != nil {
			return fmt.Errorf("insert %s: %w", dim, err)
		}
		entry.Seq, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return types.StatusEntry{}, wrap("AppendStatus", err)
	}

	entry.CreatedAt = fromMs(createdMs)
	return entry, nil
}

func (s *LogStore) StatusEntries(ctx context.Context, dim types.Dimension, veinID string) ([]types.StatusEntry, error) {
	if !dim.Valid() {
		return nil, fmt.Errorf("StatusEntries: unknown dimension %s", dim)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
SELECT seq, id, vein_id, value, created_at_ms
FROM %s
WHERE vein_id = ?
ORDER BY seq ASC;
`, dim.Table()), veinID)
	if err != nil {
		return nil, wrap("StatusEntries", err)
	}
	defer rows.Close()

	var out []types.StatusEntry
	for rows.Next() {
		var (
			e         types.StatusEntry
			value     int
			createdMs int64
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.VeinID, &value, &createdMs); err != nil {
			return nil, wrap("StatusEntries scan", err)
		}
		e.Dimension = dim
		e.Value = value == 1
		e.CreatedAt = fromMs(createdMs)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("StatusEntries", err)
	}
	return out, nil
}

func (s *LogStore) AppendNote(ctx context.Context, veinID, note string, at time.Time) (types.NoteEntry, error) {
	entry := types.NoteEntry{
		ID:     uuid.NewString(),
		VeinID: veinID,
		Note:   note,
	}
	createdMs := msOrNow(at)

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := requireVein(ctx, tx, veinID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO vein_note(id, vein_id, note, created_at_ms)
VALUES (?, ?, ?, ?);
`, entry.ID, veinID, note, createdMs)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		entry.Seq, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return types.NoteEntry{}, wrap("AppendNote", err)
	}

	entry.CreatedAt = fromMs(createdMs)
	return entry, nil
}

func (s *LogStore) NoteEntries(ctx context.Context, veinID string) ([]types.NoteEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT seq, id, vein_id, note, created_at_ms
FROM vein_note
WHERE vein_id = ?
ORDER BY seq ASC;
`, veinID)
	if err != nil {
		return nil, wrap("NoteEntries", err)
	}
	defer rows.Close()

	var out []types.NoteEntry
	for rows.Next() {
		var (
			e         types.NoteEntry
			createdMs int64
		)
		if err := rows.Scan(&e.Seq, &e.ID, &e.VeinID, &e.Note, &createdMs); err != nil {
			return nil, wrap("NoteEntries scan", err)
		}
		e.CreatedAt = fromMs(createdMs)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("NoteEntries", err)
	}
	return out, nil
}

// requireVein reports ErrVeinNotFound before the insert would trip the
// foreign key, so callers get a typed error instead of a constraint message.
//
// Must be called inside an existing transaction.
func requireVein(ctx context.Context, tx *sql.Tx, veinID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM veins WHERE id = ?;`, veinID).Scan(&one)
	if err == sql.ErrNoRows {
		return store.ErrVeinNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup vein %s: %w", veinID, err)
	}
	return nil
}
