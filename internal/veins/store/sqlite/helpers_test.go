package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/pluslatte/gt6-vein-manager/internal/db"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/store"
	sqlitestore "github.com/pluslatte/gt6-vein-manager/internal/veins/store/sqlite"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		name,
	)

	conn, err := sql.Open("sqlite", dsn)
	require.NoError(t, err, "sql.Open")

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	require.NoError(t, conn.Ping(), "ping")
	require.NoError(t, db.Migrate(context.Background(), conn), "migrate")

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

type testStores struct {
	conn  *sql.DB
	veins *sqlitestore.VeinStore
	logs  *sqlitestore.LogStore
	auth  *sqlitestore.AuthStore
}

func newTestStores(t *testing.T) testStores {
	t.Helper()

	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	return testStores{
		conn:  conn,
		veins: sqlitestore.NewVeinStore(conn, w),
		logs:  sqlitestore.NewLogStore(conn, w),
		auth:  sqlitestore.NewAuthStore(conn, w),
	}
}

func seedVein(t *testing.T, vs *sqlitestore.VeinStore, id, name string) types.Vein {
	t.Helper()

	y := 40
	v, err := vs.CreateVein(context.Background(), store.VeinRecord{
		ID:   id,
		Name: name,
		X:    100,
		Y:    &y,
		Z:    -200,
	}, "")
	require.NoError(t, err, "seed vein %s", id)
	return v
}

func countRows(t *testing.T, conn *sql.DB, table, veinID string) int {
	t.Helper()

	var n int
	err := conn.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM `+table+` WHERE vein_id = ?`, veinID,
	).Scan(&n)
	require.NoError(t, err, "count %s", table)
	return n
}
