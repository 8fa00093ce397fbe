package store

import (
	"context"
	"time"
)

// AccessRecord is the audit entry written for every processed capture,
// granted or not. RecognizedNames keeps the per-face order of the verdicts.
type AccessRecord struct {
	ID              int64
	Filename        string
	CapturedAt      time.Time
	RecognizedNames []string
	Granted         bool
}

// AccessRecordStore persists access records as an append-only audit log.
type AccessRecordStore interface {
	RecordAccess(ctx context.Context, rec AccessRecord) error
	// RecentAccess returns up to limit records, newest first.
	RecentAccess(ctx context.Context, limit int) ([]AccessRecord, error)
}
