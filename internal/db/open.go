package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	defaultPath = "./data/facegate.db"
	pingTimeout = 3 * time.Second
)

type Config struct {
	Path string // e.g. "./data/facegate.db"
	Env  string // "dev" | "prod"

	// Devices get an "off" projection row in dev.
	Devices []string
}

// Handle bundles the connection with its single writer.
type Handle struct {
	DB     *sql.DB
	Writer *Worker
}

// Close stops the writer before closing the connection it uses.
func (h *Handle) Close() error {
	h.Writer.Close()
	return h.DB.Close()
}

// Open creates the database file if needed, migrates it and starts the
// writer.  In dev the device projection is seeded.
func Open(ctx context.Context, cfg Config) (*Handle, error) {
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("Open mkdir: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("Open sql.Open: %w", err)
	}
	// SQLite has one writer anyway; a single pooled conn keeps pragmas and
	// the Worker's transactions on the same handle.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := prepare(ctx, conn, cfg); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Handle{DB: conn, Writer: NewWorker(conn)}, nil
}

func dsn(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"
}

func prepare(ctx context.Context, conn *sql.DB, cfg Config) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return fmt.Errorf("Open ping: %w", err)
	}

	if err := Migrate(ctx, conn); err != nil {
		return err
	}

	if cfg.Env == "" || cfg.Env == "dev" {
		if err := SeedDev(ctx, conn, SeedDevOptions{Devices: cfg.Devices}); err != nil {
			return err
		}
	}
	return nil
}
