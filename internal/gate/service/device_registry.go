package service

import (
	"errors"
	"slices"
	"strings"

	"github.com/BrandonDHaskell/facegate/internal/gate/store"
)

var (
	ErrUnknownDevice = errors.New("unknown device")
	ErrInvalidState  = errors.New("state must be on or off")
)

// DeviceRegistry is the closed set of actuators the gateway drives.
type DeviceRegistry struct {
	devices []string
}

func NewDeviceRegistry(devices []string) *DeviceRegistry {
	var out []string
	for _, d := range devices {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	slices.Sort(out)
	return &DeviceRegistry{devices: out}
}

// Devices returns the registered device names, sorted.
func (r *DeviceRegistry) Devices() []string {
	return slices.Clone(r.devices)
}

// Resolve normalises a device name and reports ErrUnknownDevice when it is
// not registered.
func (r *DeviceRegistry) Resolve(device string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(device))
	if !slices.Contains(r.devices, d) {
		return "", ErrUnknownDevice
	}
	return d, nil
}

func parseState(s string) (store.State, error) {
	st, err := store.ParseState(s)
	if err != nil {
		return "", ErrInvalidState
	}
	return st, nil
}
