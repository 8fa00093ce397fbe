package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BrandonDHaskell/facegate/internal/gate/store"
)

// UsageStore keeps the usage ledger in process memory.  Events and the
// state projection share one lock so an append and its projection update
// are observed together.
type UsageStore struct {
	mu     sync.RWMutex
	events []store.UsageEventRecord
	states map[string]store.DeviceStateRecord
}

func NewUsageStore() *UsageStore {
	return &UsageStore{
		states: make(map[string]store.DeviceStateRecord),
	}
}

func (s *UsageStore) AppendEvent(_ context.Context, rec store.UsageEventRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, rec)
	// A backdated event joins the log but does not replace a newer state.
	if cur, ok := s.states[rec.Device]; ok && rec.At.Before(cur.UpdatedAt) {
		return nil
	}
	s.states[rec.Device] = store.DeviceStateRecord{
		Device:    rec.Device,
		State:     rec.State,
		UpdatedAt: rec.At,
	}
	return nil
}

func (s *UsageStore) CurrentState(_ context.Context, device string) (store.DeviceStateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[device]
	return st, ok, nil
}

func (s *UsageStore) EventsSince(_ context.Context, device string, since time.Time) ([]store.UsageEventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.UsageEventRecord
	for _, ev := range s.events {
		if ev.Device == device && !ev.At.Before(since) {
			out = append(out, ev)
		}
	}
	// Appends may arrive out of timestamp order (explicit timestamps).
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

func (s *UsageStore) RecentEvents(_ context.Context, limit int) ([]store.UsageEventRecord, error) {
	s.mu.RLock()
	out := make([]store.UsageEventRecord, len(s.events))
	copy(out, s.events)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *UsageStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var deleted int64
	for _, ev := range s.events {
		if ev.At.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return deleted, nil
}

// Events returns a copy of all recorded events in append order.  Test-only helper.
func (s *UsageStore) Events() []store.UsageEventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.UsageEventRecord, len(s.events))
	copy(out, s.events)
	return out
}
