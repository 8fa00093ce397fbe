package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BrandonDHaskell/facegate/internal/gate/service"
	"github.com/BrandonDHaskell/facegate/internal/gate/store"
	"github.com/BrandonDHaskell/facegate/internal/gate/store/memory"
)

var (
	t0         = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	errStorage = errors.New("disk full")
)

func at(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }

func fixedClock(t time.Time) service.Clock { return func() time.Time { return t } }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func commandTable() map[string]service.Effect {
	return map[string]service.Effect{
		"open_door":     {Device: "door", State: "on"},
		"close_door":    {Device: "door", State: "off"},
		"turn_on_lamp":  {Device: "lamp", State: "on"},
		"turn_off_lamp": {Device: "lamp", State: "off"},
		"turn_on_pris":  {Device: "outlet", State: "on"},
		"turn_off_pris": {Device: "outlet", State: "off"},
	}
}

func registry() *service.DeviceRegistry {
	return service.NewDeviceRegistry([]string{"door", "lamp", "outlet"})
}

// fakeLink records every command and answers with a fixed outcome.
type fakeLink struct {
	mu       sync.Mutex
	deliver  bool
	commands []string
}

func (f *fakeLink) Send(_ context.Context, cmd string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return f.deliver
}

func (f *fakeLink) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// failingUsageStore wraps the memory store and fails every write.
type failingUsageStore struct {
	*memory.UsageStore
}

func (failingUsageStore) AppendEvent(context.Context, store.UsageEventRecord) error {
	return errStorage
}

type failingAccessStore struct{}

func (failingAccessStore) RecordAccess(context.Context, store.AccessRecord) error { return errStorage }

func (failingAccessStore) RecentAccess(context.Context, int) ([]store.AccessRecord, error) {
	return nil, errStorage
}
