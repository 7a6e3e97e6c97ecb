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

//go:build integration

// Package testserver spins up a real inboxsync HTTP server backed by an
// in-memory SQLite database and fake provider adapters, for the
// end-to-end scenarios in spec §8.
package testserver

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/actions"
	"github.com/octobud-hq/octobud/backend/internal/api"
	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/orchestrator"
	"github.com/octobud-hq/octobud/backend/internal/providers"
	"github.com/octobud-hq/octobud/backend/internal/server"
	"github.com/octobud-hq/octobud/backend/internal/sync"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// TestEncryptionKey is fixed so fixture data (encrypted tokens) is
// reproducible across test runs. integration/fixtures encrypts access
// tokens with this same key so NewSQLite's server can decrypt them.
var TestEncryptionKey = []byte("0123456789abcdef0123456789abcdef")

// TestServer wraps a real HTTP server, its store, and its job queue so
// integration tests can exercise the full sync/action/orchestration
// pipeline end-to-end rather than stubbing collaborators.
type TestServer struct {
	Server *httptest.Server
	Store  db.Store
	DB     *sql.DB
	Queue  *jobs.Queue
	Sync   *sync.Service
	UserID string

	orchestrator *orchestrator.Orchestrator
	cancel       context.CancelFunc
}

// NewSQLite creates a test server backed by in-memory SQLite, wired with
// the given provider adapters (typically httptest.Server-backed fakes —
// see integration/fixtures). Called with no adapters, every provider kind
// simply has no adapter registered, so syncing an unconfigured connection
// fails fast instead of silently no-op-ing.
func NewSQLite(t *testing.T, adapters ...providers.Adapter) *TestServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	dbConn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		cancel()
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	dbConn.SetMaxOpenConns(1)

	if err := db.Migrate(dbConn); err != nil {
		cancel()
		dbConn.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	store := db.NewStore(dbConn)
	logger := zap.NewNop()

	encryptor, err := crypto.NewEncryptor(TestEncryptionKey)
	if err != nil {
		cancel()
		dbConn.Close()
		t.Fatalf("failed to create encryptor: %v", err)
	}

	registry := providers.NewRegistry(adapters...)
	queue := jobs.NewQueue(store)
	syncService := sync.NewService(store, registry, logger, time.Now)
	dispatcher := actions.New(store, registry, queue, logger, time.Now)
	orch := orchestrator.New(store, queue, logger, time.Now,
		orchestrator.WithTickInterval(50*time.Millisecond),
	)
	orch.Start(ctx)

	tx, err := store.BeginTx(ctx)
	if err != nil {
		cancel()
		dbConn.Close()
		t.Fatalf("failed to begin tx: %v", err)
	}
	now := time.Now().UTC()
	user, err := store.CreateUser(ctx, tx, models.User{
		ID: models.NewID(), Email: "test@example.com", AuthMethod: "test", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		_ = tx.Rollback()
		cancel()
		dbConn.Close()
		t.Fatalf("failed to create test user: %v", err)
	}
	if err := tx.Commit(); err != nil {
		cancel()
		dbConn.Close()
		t.Fatalf("failed to commit test user: %v", err)
	}

	apiHandler := api.NewHandler(logger, store, encryptor, queue, dispatcher, syncService, orch, time.Now)
	router := server.NewRouter(server.DefaultConfig())
	router.Route("/api", apiHandler.Register)

	ts := httptest.NewServer(router)

	return &TestServer{
		Server:       ts,
		Store:        store,
		DB:           dbConn,
		Queue:        queue,
		Sync:         syncService,
		UserID:       user.ID,
		orchestrator: orch,
		cancel:       cancel,
	}
}

// Cleanup stops the orchestrator, the HTTP server, and the database.
func (ts *TestServer) Cleanup() {
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	_ = ts.orchestrator.Stop(stopCtx)
	ts.cancel()
	ts.Server.Close()
	ts.DB.Close()
}

// Reset clears all domain data from the database while preserving the
// schema and the test user, so tests can share one TestServer instance.
func (ts *TestServer) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	tables := []string{
		"jobs",
		"tasks",
		"notifications",
		"third_party_items",
		"integration_connections",
	}
	for _, table := range tables {
		if _, err := ts.DB.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("failed to clear table %s: %v", table, err)
		}
	}
}
