package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/facegate/internal/gate/service"
	"github.com/BrandonDHaskell/facegate/internal/gate/store"
	"github.com/BrandonDHaskell/facegate/internal/gate/store/memory"
)

func newControl(deliver bool) (*service.ControlService, *fakeLink, *memory.UsageStore) {
	link := &fakeLink{deliver: deliver}
	st := memory.NewUsageStore()
	ledger := service.NewUsageLedger(st, registry(), fixedClock(at(5)))
	return service.NewControlService(link, ledger, commandTable(), quietLogger()), link, st
}

func TestIssue_DeliveredCommandUpdatesLedger(t *testing.T) {
	ctrl, link, st := newControl(true)

	delivered, err := ctrl.Issue(context.Background(), "turn_on_lamp")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, []string{"turn_on_lamp"}, link.Sent())

	events := st.Events()
	require.Len(t, events, 1)
	assert.Equal(t, store.UsageEventRecord{Device: "lamp", State: store.StateOn, At: at(5)}, events[0])
}

func TestIssue_UndeliveredCommandLeavesLedger(t *testing.T) {
	ctrl, link, st := newControl(false)

	delivered, err := ctrl.Issue(context.Background(), "open_door")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Equal(t, []string{"open_door"}, link.Sent())
	assert.Empty(t, st.Events())
}

func TestIssue_UnknownCommandPassesThrough(t *testing.T) {
	ctrl, link, st := newControl(true)

	delivered, err := ctrl.Issue(context.Background(), "blink_status_led")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, []string{"blink_status_led"}, link.Sent())
	assert.Empty(t, st.Events())
}

func TestIssue_LedgerFailureReportedAfterDelivery(t *testing.T) {
	link := &fakeLink{deliver: true}
	ledger := service.NewUsageLedger(failingUsageStore{memory.NewUsageStore()}, registry(), fixedClock(at(0)))
	ctrl := service.NewControlService(link, ledger, commandTable(), quietLogger())

	delivered, err := ctrl.Issue(context.Background(), "turn_off_pris")
	assert.True(t, delivered)
	assert.ErrorIs(t, err, errStorage)
}

func TestCommandFor(t *testing.T) {
	ctrl, _, _ := newControl(true)

	cmd, err := ctrl.CommandFor("Outlet", "on")
	require.NoError(t, err)
	assert.Equal(t, "turn_on_pris", cmd)

	cmd, err = ctrl.CommandFor("door", "OFF")
	require.NoError(t, err)
	assert.Equal(t, "close_door", cmd)

	_, err = ctrl.CommandFor("garage", "on")
	assert.ErrorIs(t, err, service.ErrUnknownDevice)

	_, err = ctrl.CommandFor("lamp", "half")
	assert.ErrorIs(t, err, service.ErrInvalidState)
}

func TestSetDevice(t *testing.T) {
	ctrl, link, st := newControl(true)

	cmd, delivered, err := ctrl.SetDevice(context.Background(), "lamp", "off")
	require.NoError(t, err)
	assert.Equal(t, "turn_off_lamp", cmd)
	assert.True(t, delivered)
	assert.Equal(t, []string{"turn_off_lamp"}, link.Sent())
	require.Len(t, st.Events(), 1)
}
