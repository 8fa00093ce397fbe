package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BrandonDHaskell/facegate/internal/gate/store"
)

const DefaultActivityLimit = 20

// UsageLedger records actuator on/off events and derives usage time from
// them.  The event log is append-only; the per-device state is a
// projection of the latest event.
type UsageLedger struct {
	store    store.UsageStore
	registry *DeviceRegistry
	now      Clock
}

func NewUsageLedger(st store.UsageStore, reg *DeviceRegistry, clock Clock) *UsageLedger {
	return &UsageLedger{store: st, registry: reg, now: orSystem(clock)}
}

func (l *UsageLedger) Registry() *DeviceRegistry { return l.registry }

// RecordEvent appends one event and updates the device projection.  A zero
// at is stamped with the ledger clock.
func (l *UsageLedger) RecordEvent(ctx context.Context, device, state string, at time.Time) error {
	dev, err := l.registry.Resolve(device)
	if err != nil {
		return err
	}
	st, err := parseState(state)
	if err != nil {
		return err
	}
	if at.IsZero() {
		at = l.now()
	}
	if err := l.store.AppendEvent(ctx, store.UsageEventRecord{Device: dev, State: st, At: at.UTC()}); err != nil {
		return fmt.Errorf("RecordEvent append: %w", err)
	}
	return nil
}

// CurrentState returns the projected state of device, off if it has never
// had an event.
func (l *UsageLedger) CurrentState(ctx context.Context, device string) (store.State, error) {
	dev, err := l.registry.Resolve(device)
	if err != nil {
		return "", err
	}
	rec, ok, err := l.store.CurrentState(ctx, dev)
	if err != nil {
		return "", fmt.Errorf("CurrentState lookup: %w", err)
	}
	if !ok {
		return store.StateOff, nil
	}
	return rec.State, nil
}

// UsageMinutes sums the on-time of device over the last windowDays days.
func (l *UsageLedger) UsageMinutes(ctx context.Context, device string, windowDays int) (float64, error) {
	dev, err := l.registry.Resolve(device)
	if err != nil {
		return 0, err
	}
	if windowDays <= 0 {
		return 0, nil
	}
	now := l.now()
	since := now.AddDate(0, 0, -windowDays)

	events, err := l.store.EventsSince(ctx, dev, since)
	if err != nil {
		return 0, fmt.Errorf("UsageMinutes query: %w", err)
	}
	return ComputeUsageMinutes(events, now), nil
}

// RecentActivity lists the latest events across every device, newest first.
func (l *UsageLedger) RecentActivity(ctx context.Context, limit int) ([]store.UsageEventRecord, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	events, err := l.store.RecentEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentActivity query: %w", err)
	}
	return events, nil
}

// ComputeUsageMinutes pairs on/off events (oldest first) into intervals and
// returns their total length in minutes.
//
// A repeated on restarts the interval.  An off with no open interval is
// ignored.  An interval still open at the end is credited up to now.
// Negative spans count as zero.
func ComputeUsageMinutes(events []store.UsageEventRecord, now time.Time) float64 {
	var (
		total  time.Duration
		lastOn time.Time
		open   bool
	)
	add := func(from, to time.Time) {
		if d := to.Sub(from); d > 0 {
			total += d
		}
	}

	for _, ev := range events {
		switch ev.State {
		case store.StateOn:
			lastOn, open = ev.At, true
		case store.StateOff:
			if open {
				add(lastOn, ev.At)
				open = false
			}
		}
	}
	if open {
		add(lastOn, now)
	}
	return total.Minutes()
}
