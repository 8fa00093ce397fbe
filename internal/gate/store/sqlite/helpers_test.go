package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/BrandonDHaskell/facegate/internal/db"
	sqlitestore "github.com/BrandonDHaskell/facegate/internal/gate/store/sqlite"
)

var dbSeq atomic.Int64

// openTestDB returns a private in-memory database migrated to the current
// schema, closed when the test ends.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf(
		"file:facegate_%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		name, dbSeq.Add(1),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}
	// One connection, as in production; it also keeps the memory DB alive.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(w.Close)
	return w
}

func newUsageStore(t *testing.T) (*sql.DB, *sqlitestore.UsageStore) {
	t.Helper()
	conn := openTestDB(t)
	return conn, sqlitestore.NewUsageStore(conn, newTestWriter(t, conn))
}

func newAccessStore(t *testing.T) (*sql.DB, *sqlitestore.AccessRecordStore) {
	t.Helper()
	conn := openTestDB(t)
	return conn, sqlitestore.NewAccessRecordStore(conn, newTestWriter(t, conn))
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
