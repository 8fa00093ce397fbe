package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/BrandonDHaskell/facegate/internal/config"
	"github.com/BrandonDHaskell/facegate/internal/db"
	"github.com/BrandonDHaskell/facegate/internal/gate/service"
	"github.com/BrandonDHaskell/facegate/internal/gate/store"
	"github.com/BrandonDHaskell/facegate/internal/gate/store/memory"
	"github.com/BrandonDHaskell/facegate/internal/gate/store/sqlite"
)

type stores struct {
	usage   store.UsageStore
	records store.AccessRecordStore
	close   func()
}

func openStores(ctx context.Context, cfg config.Config, devices []string, logger logrus.FieldLogger) (stores, error) {
	if cfg.Store == "memory" {
		logger.Warn("using in-memory stores; nothing survives a restart")
		return stores{
			usage:   memory.NewUsageStore(),
			records: memory.NewAccessRecordStore(),
			close:   func() {},
		}, nil
	}

	h, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env, Devices: devices})
	if err != nil {
		return stores{}, fmt.Errorf("open sqlite: %w", err)
	}
	logger.WithFields(logrus.Fields{"path": cfg.DBPath, "env": cfg.Env}).Info("sqlite store ready")

	return stores{
		usage:   sqlite.NewUsageStore(h.DB, h.Writer),
		records: sqlite.NewAccessRecordStore(h.DB, h.Writer),
		close:   func() { _ = h.Close() },
	}, nil
}

// commandEffects loads the embedded command table in service form.
func commandEffects() (map[string]service.Effect, []string, error) {
	cmds, err := config.Commands()
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string]service.Effect, len(cmds))
	for cmd, eff := range cmds {
		out[cmd] = service.Effect{Device: eff.Device, State: eff.State}
	}
	return out, config.Devices(cmds), nil
}
