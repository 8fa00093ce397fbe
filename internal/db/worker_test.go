package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/facegate/internal/db"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(context.Background(), conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWorker_RollsBackOnError(t *testing.T) {
	conn := openMemDB(t)
	w := db.NewWorker(conn)
	defer w.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	err := w.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO usage_events(device, state, at_ms) VALUES ('lamp', 'on', 1)`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM usage_events`).Scan(&n))
	assert.Zero(t, n, "failed job must not leave rows behind")
}

func TestWorker_DoAfterCloseFails(t *testing.T) {
	conn := openMemDB(t)
	w := db.NewWorker(conn)
	w.Close()
	w.Close()

	err := w.Do(context.Background(), func(context.Context, *sql.Tx) error { return nil })
	assert.ErrorIs(t, err, db.ErrWorkerClosed)
}

func TestSeedDev_CreatesOffRowsOnce(t *testing.T) {
	conn := openMemDB(t)
	ctx := context.Background()

	require.NoError(t, db.SeedDev(ctx, conn, db.SeedDevOptions{Devices: []string{"door", " lamp ", ""}}))
	_, err := conn.ExecContext(ctx, `UPDATE device_states SET state = 'on' WHERE device = 'lamp'`)
	require.NoError(t, err)
	require.NoError(t, db.SeedDev(ctx, conn, db.SeedDevOptions{Devices: []string{"lamp"}}))

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_states`).Scan(&n))
	assert.Equal(t, 2, n)

	var state string
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT state FROM device_states WHERE device = 'lamp'`).Scan(&state))
	assert.Equal(t, "on", state, "seeding must not overwrite an existing projection")
}
