package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type SeedDevOptions struct {
	// Devices get an "off" projection row if they have none yet, so a fresh
	// dev database lists every actuator on the status surfaces.
	Devices []string
}

func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	for _, d := range opt.Devices {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO device_states(device, state, updated_at_ms)
VALUES (?, 'off', ?);
`, d, now); err != nil {
			return fmt.Errorf("seed device %s: %w", d, err)
		}
	}

	return nil
}
