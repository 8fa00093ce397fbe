package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// State is the binary logical state of an actuator.
type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

// ParseState accepts "on"/"off" in any case.
func ParseState(s string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(s))) {
	case StateOn:
		return StateOn, nil
	case StateOff:
		return StateOff, nil
	}
	return "", fmt.Errorf("invalid state %q", s)
}

// UsageEventRecord is a single actuator transition in the usage ledger.
type UsageEventRecord struct {
	Device string
	State  State
	At     time.Time
}

// DeviceStateRecord is the cached projection of the latest event for a device.
type DeviceStateRecord struct {
	Device    string
	State     State
	UpdatedAt time.Time
}

// UsageStore owns the usage event log and the per-device state projection.
//
// AppendEvent must write the event and update the projection as one
// unit: no reader may see one without the other.  The projection only moves
// forward in time; an event older than it is logged but leaves it alone.
type UsageStore interface {
	AppendEvent(ctx context.Context, rec UsageEventRecord) error
	CurrentState(ctx context.Context, device string) (DeviceStateRecord, bool, error)
	// EventsSince returns events for device with At >= since, oldest first.
	EventsSince(ctx context.Context, device string, since time.Time) ([]UsageEventRecord, error)
	// RecentEvents returns up to limit events across all devices, newest first.
	RecentEvents(ctx context.Context, limit int) ([]UsageEventRecord, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
