package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/BrandonDHaskell/facegate/internal/gate/store"
	"github.com/BrandonDHaskell/facegate/internal/recognition"
)

const (
	CommandOpenDoor  = "open_door"
	CommandCloseDoor = "close_door"
)

// Capture is one processed photograph: where it was stored and the verdict
// for every face found in it, in detection order.
type Capture struct {
	Filename string
	Verdicts []recognition.Verdict
}

type Decision struct {
	Granted   bool     `json:"granted"`
	Names     []string `json:"names"`
	Command   string   `json:"command"`
	Delivered bool     `json:"delivered"`
}

type AccessService struct {
	control *ControlService
	records store.AccessRecordStore
	now     Clock
	logger  logrus.FieldLogger
}

func NewAccessService(ctrl *ControlService, records store.AccessRecordStore, clock Clock, logger logrus.FieldLogger) *AccessService {
	return &AccessService{control: ctrl, records: records, now: orSystem(clock), logger: logger}
}

// ProcessCapture decides access for a capture, issues exactly one door
// command and appends one access record.
//
// Access is granted only when at least one face was seen and every face is
// known; a single unknown face denies.  The command is issued whether or
// not the board is reachable.  Persistence failures are returned alongside
// the decision, which has already been acted on.
func (s *AccessService) ProcessCapture(ctx context.Context, c Capture) (Decision, error) {
	names := make([]string, 0, len(c.Verdicts))
	granted := len(c.Verdicts) > 0
	for _, v := range c.Verdicts {
		names = append(names, v.Name)
		if !v.Known() {
			granted = false
		}
	}

	d := Decision{Granted: granted, Names: names, Command: CommandCloseDoor}
	if granted {
		d.Command = CommandOpenDoor
	}

	log := s.logger.WithFields(logrus.Fields{
		"filename": c.Filename,
		"names":    names,
		"granted":  granted,
	})

	delivered, issueErr := s.control.Issue(ctx, d.Command)
	d.Delivered = delivered

	recErr := s.records.RecordAccess(ctx, store.AccessRecord{
		Filename:        c.Filename,
		CapturedAt:      s.now(),
		RecognizedNames: names,
		Granted:         granted,
	})
	if recErr != nil {
		recErr = fmt.Errorf("ProcessCapture record: %w", recErr)
	}

	err := errors.Join(issueErr, recErr)
	if err != nil {
		log.WithError(err).Error("access decision not fully persisted")
	} else {
		log.Info("access decided")
	}
	return d, err
}

// RecentAccess lists the latest access records, newest first.
func (s *AccessService) RecentAccess(ctx context.Context, limit int) ([]store.AccessRecord, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	recs, err := s.records.RecentAccess(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentAccess query: %w", err)
	}
	return recs, nil
}
