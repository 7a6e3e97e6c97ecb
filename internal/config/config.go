// Copyright (C) 2025 Austin Beattie
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/server"
)

// Config holds every environment-driven setting for cmd/inboxsync. There is
// no dotenv or flags library here, matching the teacher's own
// os.Getenv-with-defaults style.
type Config struct {
	// DataDir is the directory holding the SQLite file and the encryption key.
	DataDir string
	// DatabaseDSN is passed straight to db.OpenDatabase.
	DatabaseDSN string
	// ListenAddr is the HTTP server bind address, e.g. ":8080".
	ListenAddr string
	// WorkerConcurrency is the number of concurrent job workers (spec §5).
	WorkerConcurrency int
	// SyncInterval is the orchestrator's default per-connection poll
	// interval (spec §4.6), overridable per provider in code.
	SyncInterval time.Duration
	// HTTPClientTimeout bounds every outbound provider HTTP call.
	HTTPClientTimeout time.Duration
	// ShutdownGracePeriod is how long graceful shutdown waits for in-flight
	// jobs and requests to finish (spec §5).
	ShutdownGracePeriod time.Duration
	// Debug enables verbose console logging (internal/config.NewDebugConsoleLogger).
	Debug bool
	// CORSOrigins is the allow-list for the HTTP surface (spec §6.2).
	CORSOrigins []string
}

// Load builds a Config from the process environment, applying the same
// defaults a developer running this locally would expect.
func Load() (Config, error) {
	dataDir := os.Getenv("INBOXSYNC_DATA_DIR")
	if dataDir == "" {
		dir, err := db.GetDefaultDataDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve default data dir: %w", err)
		}
		dataDir = dir
	}

	cfg := Config{
		DataDir:             dataDir,
		DatabaseDSN:         envOr("INBOXSYNC_DATABASE_DSN", dataDir+"/inboxsync.db"),
		ListenAddr:          envOr("INBOXSYNC_LISTEN_ADDR", ":8080"),
		WorkerConcurrency:   envOrInt("INBOXSYNC_WORKER_CONCURRENCY", 4),
		SyncInterval:        envOrDuration("INBOXSYNC_SYNC_INTERVAL", 5*time.Minute),
		HTTPClientTimeout:   envOrDuration("INBOXSYNC_HTTP_CLIENT_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: envOrDuration("INBOXSYNC_SHUTDOWN_GRACE", 60*time.Second),
		Debug:               envOrBool("INBOXSYNC_DEBUG", false),
		CORSOrigins:         server.ParseCORSOrigins(os.Getenv("INBOXSYNC_CORS_ORIGINS")),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
