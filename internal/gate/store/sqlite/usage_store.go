package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/BrandonDHaskell/facegate/internal/db"
	"github.com/BrandonDHaskell/facegate/internal/gate/store"
)

type UsageStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewUsageStore(db *sql.DB, writer *dbpkg.Worker) *UsageStore {
	return &UsageStore{db: db, writer: writer}
}

// AppendEvent inserts the event and, unless the event is older than the
// current projection, rewrites the device_states row in the same transaction.
func (s *UsageStore) AppendEvent(ctx context.Context, rec store.UsageEventRecord) error {
	device := strings.TrimSpace(rec.Device)
	if device == "" {
		return fmt.Errorf("AppendEvent: empty device")
	}
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	atMs := rec.At.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO usage_events(device, state, at_ms)
VALUES (?, ?, ?);
`, device, string(rec.State), atMs); err != nil {
			return fmt.Errorf("AppendEvent insert event: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO device_states(device, state, updated_at_ms)
VALUES (?, ?, ?)
ON CONFLICT(device) DO UPDATE SET
  state = excluded.state,
  updated_at_ms = excluded.updated_at_ms
WHERE excluded.updated_at_ms >= device_states.updated_at_ms;
`, device, string(rec.State), atMs); err != nil {
			return fmt.Errorf("AppendEvent upsert state: %w", err)
		}

		return nil
	})
}

func (s *UsageStore) CurrentState(ctx context.Context, device string) (store.DeviceStateRecord, bool, error) {
	var (
		state     string
		updatedMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT state, updated_at_ms
FROM device_states
WHERE device = ?;
`, device).Scan(&state, &updatedMs)

	if err == sql.ErrNoRows {
		return store.DeviceStateRecord{}, false, nil
	}
	if err != nil {
		return store.DeviceStateRecord{}, false, fmt.Errorf("CurrentState query: %w", err)
	}

	return store.DeviceStateRecord{
		Device:    device,
		State:     store.State(state),
		UpdatedAt: time.UnixMilli(updatedMs).UTC(),
	}, true, nil
}

// EventsSince uses idx_usage_events_device_time for the range scan.
func (s *UsageStore) EventsSince(ctx context.Context, device string, since time.Time) ([]store.UsageEventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT device, state, at_ms
FROM usage_events
WHERE device = ? AND at_ms >= ?
ORDER BY at_ms ASC, event_id ASC;
`, device, since.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("EventsSince query: %w", err)
	}
	defer rows.Close()

	return scanUsageEvents(rows, "EventsSince")
}

func (s *UsageStore) RecentEvents(ctx context.Context, limit int) ([]store.UsageEventRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT device, state, at_ms
FROM usage_events
ORDER BY at_ms DESC, event_id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentEvents query: %w", err)
	}
	defer rows.Close()

	return scanUsageEvents(rows, "RecentEvents")
}

// PruneOlderThan deletes usage events before cutoff.  device_states is left
// alone so current state survives pruning.
func (s *UsageStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cutoffMs := cutoff.UTC().UnixMilli()

	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
DELETE FROM usage_events
WHERE at_ms < ?;
`, cutoffMs)
		if err != nil {
			return fmt.Errorf("PruneOlderThan: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return deleted, err
}

func scanUsageEvents(rows *sql.Rows, op string) ([]store.UsageEventRecord, error) {
	var out []store.UsageEventRecord
	for rows.Next() {
		var (
			device string
			state  string
			atMs   int64
		)
		if err := rows.Scan(&device, &state, &atMs); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, store.UsageEventRecord{
			Device: device,
			State:  store.State(state),
			At:     time.UnixMilli(atMs).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}
