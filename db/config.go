package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type SQLiteConfig struct {
	BusyTimeoutMs int
	WAL           bool
	ForeignKeys   bool
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Config struct {
	Driver      string
	DSN         string
	Pool        PoolConfig
	SQLite      SQLiteConfig
	AutoMigrate bool
}

// DefaultConfig keeps a single connection: SQLite serializes writers anyway
// and the durable log writes from several workers.
func DefaultConfig() Config {
	return Config{
		Driver: "sqlite",
		Pool: PoolConfig{
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		SQLite: SQLiteConfig{
			BusyTimeoutMs: 5000,
			WAL:           true,
			ForeignKeys:   true,
		},
		AutoMigrate: true,
	}
}

const sqliteFileName = "chatbot.sqlite"

// ResolveSQLiteDSN returns dsn when set. Otherwise it prefers an existing
// ./chatbot.sqlite and falls back to chatbot/chatbot.sqlite under the user
// config dir, creating the directory.
func ResolveSQLiteDSN(dsn string) (string, error) {
	if dsn = strings.TrimSpace(dsn); dsn != "" {
		return dsn, nil
	}
	local := filepath.Clean("./" + sqliteFileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	dir := filepath.Join(base, "chatbot")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, sqliteFileName), nil
}
