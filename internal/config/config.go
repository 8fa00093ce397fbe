package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	GRPCAddr string // "" disables the gRPC health endpoint

	// DB
	Env    string // "dev" | "prod"
	Store  string // "sqlite" | "memory"
	DBPath string // e.g. "./data/facegate.db"

	// Recognition
	FacesDir         string
	CapturesDir      string // "" disables saving uploaded images
	EmbeddingURL     string
	EmbeddingTimeout time.Duration
	MatchTolerance   float64

	// Device link
	DeviceLinkURL     string
	DeviceLinkTimeout time.Duration

	// Usage event retention
	EventRetentionDays int // 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 6)

	LogLevel  string
	LogFormat string // "text" | "json"
}

func FromEnv() Config {
	env := strings.ToLower(getenvDefault("FACEGATE_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	st := strings.ToLower(getenvDefault("FACEGATE_STORE", "sqlite"))
	if st != "sqlite" && st != "memory" {
		st = "sqlite"
	}

	grpcAddr := getenvDefault("FACEGATE_GRPC_ADDR", ":9090")
	if strings.EqualFold(grpcAddr, "off") {
		grpcAddr = ""
	}

	capturesDir := getenvDefault("FACEGATE_CAPTURES_DIR", "./data/captures")
	if strings.EqualFold(capturesDir, "off") {
		capturesDir = ""
	}

	return Config{
		HTTPAddr: getenvDefault("FACEGATE_HTTP_ADDR", ":8080"),
		GRPCAddr: grpcAddr,

		Env:    env,
		Store:  st,
		DBPath: getenvDefault("FACEGATE_DB_PATH", "./data/facegate.db"),

		FacesDir:         getenvDefault("FACEGATE_FACES_DIR", "./data/faces"),
		CapturesDir:      capturesDir,
		EmbeddingURL:     getenvDefault("FACEGATE_EMBEDDING_URL", "http://localhost:8000"),
		EmbeddingTimeout: time.Duration(getenvInt("FACEGATE_EMBEDDING_TIMEOUT_MS", 30000)) * time.Millisecond,
		MatchTolerance:   getenvFloat("FACEGATE_MATCH_TOLERANCE", 0.6),

		DeviceLinkURL:     getenvDefault("FACEGATE_DEVICE_LINK_URL", "ws://192.168.1.50/ws"),
		DeviceLinkTimeout: time.Duration(getenvInt("FACEGATE_DEVICE_LINK_TIMEOUT_MS", 3000)) * time.Millisecond,

		EventRetentionDays: getenvInt("FACEGATE_EVENT_RETENTION_DAYS", 0),
		PruneIntervalHours: getenvInt("FACEGATE_PRUNE_INTERVAL_HOURS", 6),

		LogLevel:  strings.ToLower(getenvDefault("FACEGATE_LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenvDefault("FACEGATE_LOG_FORMAT", "text")),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}
