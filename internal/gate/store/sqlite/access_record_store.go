package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	dbpkg "github.com/BrandonDHaskell/facegate/internal/db"
	"github.com/BrandonDHaskell/facegate/internal/gate/store"
)

type AccessRecordStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAccessRecordStore(db *sql.DB, writer *dbpkg.Worker) *AccessRecordStore {
	return &AccessRecordStore{db: db, writer: writer}
}

func (s *AccessRecordStore) RecordAccess(ctx context.Context, rec store.AccessRecord) error {
	if rec.CapturedAt.IsZero() {
		rec.CapturedAt = time.Now().UTC()
	}

	names := rec.RecognizedNames
	if names == nil {
		names = []string{}
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("RecordAccess encode names: %w", err)
	}

	var granted int
	if rec.Granted {
		granted = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO access_records(filename, captured_at_ms, recognized_names, granted)
VALUES (?, ?, ?, ?);
`, rec.Filename, rec.CapturedAt.UTC().UnixMilli(), string(namesJSON), granted); err != nil {
			return fmt.Errorf("RecordAccess insert: %w", err)
		}
		return nil
	})
}

func (s *AccessRecordStore) RecentAccess(ctx context.Context, limit int) ([]store.AccessRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT record_id, filename, captured_at_ms, recognized_names, granted
FROM access_records
ORDER BY captured_at_ms DESC, record_id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentAccess query: %w", err)
	}
	defer rows.Close()

	var out []store.AccessRecord
	for rows.Next() {
		var (
			rec        store.AccessRecord
			capturedMs int64
			namesJSON  string
			granted    int
		)
		if err := rows.Scan(&rec.ID, &rec.Filename, &capturedMs, &namesJSON, &granted); err != nil {
			return nil, fmt.Errorf("RecentAccess scan: %w", err)
		}
		if err := json.Unmarshal([]byte(namesJSON), &rec.RecognizedNames); err != nil {
			return nil, fmt.Errorf("RecentAccess decode names for record %d: %w", rec.ID, err)
		}
		rec.CapturedAt = time.UnixMilli(capturedMs).UTC()
		rec.Granted = granted == 1
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentAccess rows: %w", err)
	}
	return out, nil
}
