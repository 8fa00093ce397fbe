package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/facegate/internal/config"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := config.FromEnv()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, "./data/captures", cfg.CapturesDir)
	assert.Equal(t, 0.6, cfg.MatchTolerance)
	assert.Equal(t, 3*time.Second, cfg.DeviceLinkTimeout)
	assert.Equal(t, 0, cfg.EventRetentionDays)
	assert.Equal(t, 6, cfg.PruneIntervalHours)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FACEGATE_ENV", "PROD")
	t.Setenv("FACEGATE_STORE", "memory")
	t.Setenv("FACEGATE_GRPC_ADDR", "off")
	t.Setenv("FACEGATE_CAPTURES_DIR", "OFF")
	t.Setenv("FACEGATE_MATCH_TOLERANCE", "0.45")
	t.Setenv("FACEGATE_DEVICE_LINK_URL", "ws://10.0.0.7/ws")
	t.Setenv("FACEGATE_DEVICE_LINK_TIMEOUT_MS", "750")
	t.Setenv("FACEGATE_EVENT_RETENTION_DAYS", "90")

	cfg := config.FromEnv()

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "memory", cfg.Store)
	assert.Empty(t, cfg.GRPCAddr)
	assert.Empty(t, cfg.CapturesDir)
	assert.Equal(t, 0.45, cfg.MatchTolerance)
	assert.Equal(t, "ws://10.0.0.7/ws", cfg.DeviceLinkURL)
	assert.Equal(t, 750*time.Millisecond, cfg.DeviceLinkTimeout)
	assert.Equal(t, 90, cfg.EventRetentionDays)
}

func TestFromEnv_FailSoft(t *testing.T) {
	t.Setenv("FACEGATE_ENV", "staging")
	t.Setenv("FACEGATE_STORE", "postgres")
	t.Setenv("FACEGATE_MATCH_TOLERANCE", "-1")
	t.Setenv("FACEGATE_PRUNE_INTERVAL_HOURS", "soon")

	cfg := config.FromEnv()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, 0.6, cfg.MatchTolerance)
	assert.Equal(t, 6, cfg.PruneIntervalHours)
}

func TestCommands_EmbeddedTable(t *testing.T) {
	cmds, err := config.Commands()
	require.NoError(t, err)

	assert.Equal(t, config.CommandEffect{Device: "door", State: "on"}, cmds["open_door"])
	assert.Equal(t, config.CommandEffect{Device: "door", State: "off"}, cmds["close_door"])
	assert.Equal(t, config.CommandEffect{Device: "outlet", State: "on"}, cmds["turn_on_pris"])
	assert.Len(t, cmds, 6)

	assert.Equal(t, []string{"door", "lamp", "outlet"}, config.Devices(cmds))
}
