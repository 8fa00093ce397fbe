package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CommandSender transmits a raw command to the actuator board.  It reports
// delivery as a bool; connectivity problems are never errors.
type CommandSender interface {
	Send(ctx context.Context, command string) bool
}

// Effect is the ledger transition a command implies.
type Effect struct {
	Device string
	State  string
}

// ControlService sends board commands and keeps the usage ledger in step
// with what was delivered.
type ControlService struct {
	link    CommandSender
	ledger  *UsageLedger
	effects map[string]Effect
	logger  logrus.FieldLogger
}

func NewControlService(link CommandSender, ledger *UsageLedger, effects map[string]Effect, logger logrus.FieldLogger) *ControlService {
	cp := make(map[string]Effect, len(effects))
	for cmd, eff := range effects {
		cp[cmd] = Effect{Device: strings.ToLower(eff.Device), State: strings.ToLower(eff.State)}
	}
	return &ControlService{link: link, ledger: ledger, effects: cp, logger: logger}
}

// Issue sends cmd over the link.  When the board accepted it and cmd is in
// the command table the implied event is recorded.  Commands outside the
// table are sent as-is with no ledger effect.
func (s *ControlService) Issue(ctx context.Context, cmd string) (bool, error) {
	log := s.logger.WithField("command", cmd)

	if !s.link.Send(ctx, cmd) {
		log.Warn("command not delivered")
		return false, nil
	}

	eff, ok := s.effects[cmd]
	if !ok {
		log.Debug("command delivered, no ledger effect")
		return true, nil
	}
	if err := s.ledger.RecordEvent(ctx, eff.Device, eff.State, time.Time{}); err != nil {
		return true, fmt.Errorf("Issue record %s: %w", cmd, err)
	}
	log.WithFields(logrus.Fields{"device": eff.Device, "state": eff.State}).Info("command delivered")
	return true, nil
}

// CommandFor looks up the command that drives device into state.
func (s *ControlService) CommandFor(device, state string) (string, error) {
	dev, err := s.ledger.Registry().Resolve(device)
	if err != nil {
		return "", err
	}
	st, err := parseState(state)
	if err != nil {
		return "", err
	}
	for cmd, eff := range s.effects {
		if eff.Device == dev && eff.State == string(st) {
			return cmd, nil
		}
	}
	return "", ErrUnknownDevice
}

// SetDevice resolves and issues the command for device/state.
func (s *ControlService) SetDevice(ctx context.Context, device, state string) (string, bool, error) {
	cmd, err := s.CommandFor(device, state)
	if err != nil {
		return "", false, err
	}
	delivered, err := s.Issue(ctx, cmd)
	return cmd, delivered, err
}
