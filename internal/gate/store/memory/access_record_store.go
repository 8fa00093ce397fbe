package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/facegate/internal/gate/store"
)

// AccessRecordStore is an in-memory append-only log of processed captures.
// It is intended for use in tests and dev environments.
type AccessRecordStore struct {
	mu      sync.Mutex
	nextID  int64
	records []store.AccessRecord
}

func NewAccessRecordStore() *AccessRecordStore {
	return &AccessRecordStore{}
}

func (s *AccessRecordStore) RecordAccess(_ context.Context, rec store.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	rec.RecognizedNames = append([]string(nil), rec.RecognizedNames...)
	s.records = append(s.records, rec)
	return nil
}

func (s *AccessRecordStore) RecentAccess(_ context.Context, limit int) ([]store.AccessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]store.AccessRecord, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Records returns a copy of all records in append order.  Test-only helper.
func (s *AccessRecordStore) Records() []store.AccessRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AccessRecord, len(s.records))
	copy(out, s.records)
	return out
}
