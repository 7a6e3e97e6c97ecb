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

// Package main is the entry point for inboxsync - a headless multi-user
// unified-inbox sync engine: an HTTP API plus a background job pool and
// sync orchestrator, all sharing one SQLite-backed store.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/octobud-hq/octobud/backend/internal/actions"
	"github.com/octobud-hq/octobud/backend/internal/api"
	"github.com/octobud-hq/octobud/backend/internal/config"
	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/orchestrator"
	"github.com/octobud-hq/octobud/backend/internal/providers"
	"github.com/octobud-hq/octobud/backend/internal/providers/github"
	"github.com/octobud-hq/octobud/backend/internal/providers/googlemail"
	"github.com/octobud-hq/octobud/backend/internal/providers/linear"
	"github.com/octobud-hq/octobud/backend/internal/providers/slack"
	"github.com/octobud-hq/octobud/backend/internal/providers/ticktick"
	"github.com/octobud-hq/octobud/backend/internal/providers/todoist"
	"github.com/octobud-hq/octobud/backend/internal/server"
	"github.com/octobud-hq/octobud/backend/internal/sync"

	// SQLite driver
	_ "modernc.org/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	logDir := filepath.Join(cfg.DataDir, "logs")
	if err := os.MkdirAll(logDir, 0700); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}
	logWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "inboxsync.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logWriter))
	logger := config.NewConsoleLoggerWithFile(logWriter)
	if cfg.Debug {
		logger = config.NewDebugConsoleLoggerWithFile(logWriter)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutdown signal received")
		cancel()
	}()

	dbConn, err := db.OpenDatabase(cfg.DatabaseDSN)
	if err != nil {
		cancel()
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if closeErr := dbConn.Close(); closeErr != nil {
			logger.Warn("error closing database", zap.Error(closeErr))
		}
	}()

	if err := db.Migrate(dbConn); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	store := db.NewStore(dbConn)

	encryptionKey, err := crypto.LoadOrGenerateKey(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to load/generate encryption key: %v", err)
	}
	encryptor, err := crypto.NewEncryptor(encryptionKey)
	if err != nil {
		log.Fatalf("Failed to create encryptor: %v", err)
	}

	registry := providers.NewRegistry(
		github.NewAdapter(encryptor, cfg.HTTPClientTimeout),
		linear.NewAdapter(encryptor, cfg.HTTPClientTimeout),
		googlemail.NewAdapter(encryptor),
		slack.NewAdapter(encryptor, cfg.HTTPClientTimeout),
		todoist.NewAdapter(encryptor, cfg.HTTPClientTimeout),
		ticktick.NewAdapter(encryptor, cfg.HTTPClientTimeout),
	)

	queue := jobs.NewQueue(store)
	syncService := sync.NewService(store, registry, logger, time.Now)
	dispatcher := actions.New(store, registry, queue, logger, time.Now)
	orch := orchestrator.New(store, queue, logger, time.Now, orchestrator.WithSyncInterval(cfg.SyncInterval))

	pool := jobs.NewPool(queue, logger, map[string]jobs.Handler{
		jobs.QueueSyncConnection: syncConnectionHandler(store, syncService, logger),
		jobs.QueueWebhookIngest:  webhookIngestHandler(store, syncService, logger),
		jobs.QueueRetryPush:      retryPushHandler(dispatcher),
	}, cfg.WorkerConcurrency)

	if err := pool.Start(ctx); err != nil {
		log.Fatalf("Failed to start job pool: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer shutdownCancel()
		if stopErr := pool.Stop(shutdownCtx); stopErr != nil {
			logger.Warn("job pool shutdown error", zap.Error(stopErr))
		}
	}()

	orch.Start(ctx)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer shutdownCancel()
		if stopErr := orch.Stop(shutdownCtx); stopErr != nil {
			logger.Warn("orchestrator shutdown error", zap.Error(stopErr))
		}
	}()

	apiHandler := api.NewHandler(logger, store, encryptor, queue, dispatcher, syncService, orch, time.Now)

	serverCfg := server.DefaultConfig()
	serverCfg.CORSOrigins = cfg.CORSOrigins
	router := server.NewRouter(serverCfg)
	router.Route("/api", apiHandler.Register)

	httpServer := server.NewHTTPServer(cfg.ListenAddr, router)

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	logger.Info("inboxsync started", zap.String("addr", cfg.ListenAddr), zap.String("dataDir", cfg.DataDir))

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}
	logger.Info("inboxsync stopped")
}

// syncConnectionHandler runs one sync pass for the connection named in a
// QueueSyncConnection job, releasing the orchestrator's single-flight
// marker in every case so a failed or panicking sync never strands a
// connection locked out of future ticks (spec §4.6).
func syncConnectionHandler(store db.Store, syncer *sync.Service, logger *zap.Logger) jobs.Handler {
	return func(ctx context.Context, payload []byte) error {
		var args jobs.SyncConnectionArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return err
		}
		defer releaseSingleFlight(context.Background(), store, args.ConnectionID, logger)

		conn, err := getConnection(ctx, store, args.ConnectionID)
		if err != nil {
			return err
		}
		_, err = syncer.SyncConnection(ctx, conn)
		return err
	}
}

// webhookIngestHandler treats a received webhook as a near-real-time
// signal to resync its connection rather than applying the raw payload
// directly: no adapter in this pack exposes an incremental single-item
// ingest path, only list_for_user's cursor-based fetch, so a webhook's
// job here is simply to make that fetch happen sooner than the next
// orchestrator tick (spec §4.5, §8 scenario 4).
func webhookIngestHandler(store db.Store, syncer *sync.Service, logger *zap.Logger) jobs.Handler {
	return func(ctx context.Context, payload []byte) error {
		var args jobs.WebhookIngestArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return err
		}
		conn, err := getConnection(ctx, store, args.ConnectionID)
		if err != nil {
			return err
		}
		if conn.ProviderKind != args.ProviderKind {
			logger.Warn("webhook provider kind mismatch", zap.String("connectionID", args.ConnectionID))
			return nil
		}
		_, err = syncer.SyncConnection(ctx, conn)
		return err
	}
}

// retryPushHandler re-attempts a previously-failed status/plan push to
// its provider (spec §4.4's compensate-or-retry path).
func retryPushHandler(dispatcher *actions.Dispatcher) jobs.Handler {
	return func(ctx context.Context, payload []byte) error {
		var args jobs.RetryPushArgs
		if err := json.Unmarshal(payload, &args); err != nil {
			return err
		}
		return dispatcher.RetryPush(ctx, args.EntityKind, args.EntityID)
	}
}

func getConnection(ctx context.Context, store db.Store, id string) (models.IntegrationConnection, error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	conn, err := store.GetIntegrationConnection(ctx, tx, id)
	if err != nil {
		_ = tx.Rollback()
		return models.IntegrationConnection{}, err
	}
	return conn, tx.Commit()
}

// releaseSingleFlight clears a connection's in-flight marker after a sync
// attempt (success or failure) so the orchestrator's next tick, or another
// manual trigger, can pick it up again (spec §4.6 single-flight).
func releaseSingleFlight(ctx context.Context, store db.Store, connectionID string, logger *zap.Logger) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		logger.Warn("release single-flight: begin tx failed", zap.Error(err))
		return
	}
	if err := store.ReleaseSingleFlight(ctx, tx, connectionID); err != nil {
		_ = tx.Rollback()
		logger.Warn("release single-flight failed", zap.String("connectionID", connectionID), zap.Error(err))
		return
	}
	if err := tx.Commit(); err != nil {
		logger.Warn("release single-flight: commit failed", zap.Error(err))
	}
}
