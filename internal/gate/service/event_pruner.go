package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BrandonDHaskell/facegate/internal/gate/store"
)

// EventPruner periodically deletes usage events older than a retention
// period.  A retention of 0 disables pruning entirely.
type EventPruner struct {
	store     store.UsageStore
	retention time.Duration
	interval  time.Duration
	now       Clock
	logger    logrus.FieldLogger

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// PrunerConfig holds the parameters for NewEventPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of usage history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs.  Defaults to 6.
	IntervalHours int
}

// NewEventPruner creates a pruner but does not start it.
func NewEventPruner(s store.UsageStore, cfg PrunerConfig, clock Clock, logger logrus.FieldLogger) *EventPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &EventPruner{
		store:     s,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		now:       orSystem(clock),
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start runs one prune immediately, then repeats on the configured
// interval until ctx is cancelled or Stop is called.
func (p *EventPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Info("event pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.WithFields(logrus.Fields{
		"retention_days": int(p.retention.Hours() / 24),
		"interval_hours": int(p.interval.Hours()),
	}).Info("event pruner started")
}

// Stop signals the pruner to exit and waits for it.  Safe to call more
// than once.
func (p *EventPruner) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	<-p.done
}

func (p *EventPruner) loop(ctx context.Context) {
	defer close(p.done)

	p.PruneOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce deletes events older than the retention cutoff.
func (p *EventPruner) PruneOnce(ctx context.Context) int64 {
	cutoff := p.now().Add(-p.retention)
	deleted, err := p.store.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.WithError(err).Error("usage event prune failed")
		return 0
	}
	if deleted > 0 {
		p.logger.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("pruned usage events")
	}
	return deleted
}
