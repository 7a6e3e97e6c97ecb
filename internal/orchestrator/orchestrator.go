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

// Package orchestrator implements the Sync Orchestrator (spec.md §4.6,
// component C6): the policy layer deciding when to enqueue a sync job for
// each integration connection, respecting single-flight and backoff.
// Grounded on the teacher's SQLiteScheduler.run ticker loop
// (internal/jobs/sqlite_scheduler.go), generalized from "one GitHub poll
// per user" to "one sync per (user, connection)".
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

// Defaults from spec §4.6.
const (
	DefaultTickInterval     = time.Minute
	DefaultSyncInterval     = 15 * time.Minute
	DefaultFailureThreshold = 5
	DefaultBackoffCeiling   = 24 * time.Hour
)

// Orchestrator periodically enqueues a sync_connection job for every
// Validated/Failing connection that is due, skipping any connection
// already in flight (spec §4.6 single-flight) and stretching the
// effective interval for connections with repeated failures (backoff).
type Orchestrator struct {
	store  db.Store
	queue  *jobs.Queue
	logger *zap.Logger
	clock  func() time.Time

	tickInterval     time.Duration
	syncInterval     time.Duration
	failureThreshold int
	backoffCeiling   time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
	mu     gosync.Mutex
	running bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSyncInterval overrides the default 15-minute per-connection sync
// interval.
func WithSyncInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.syncInterval = d }
}

// WithFailureThreshold overrides the default failure count (5) above
// which backoff starts stretching a connection's effective interval.
func WithFailureThreshold(n int) Option {
	return func(o *Orchestrator) { o.failureThreshold = n }
}

// WithBackoffCeiling overrides the default 24-hour backoff ceiling.
func WithBackoffCeiling(d time.Duration) Option {
	return func(o *Orchestrator) { o.backoffCeiling = d }
}

// WithTickInterval overrides how often the orchestrator re-scans
// connections for due syncs (default 1 minute; independent of
// syncInterval, which governs per-connection due-ness).
func WithTickInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.tickInterval = d }
}

// New builds an Orchestrator over store and queue.
func New(store db.Store, queue *jobs.Queue, logger *zap.Logger, clock func() time.Time, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:            store,
		queue:            queue,
		logger:           logger,
		clock:            clock,
		tickInterval:     DefaultTickInterval,
		syncInterval:     DefaultSyncInterval,
		failureThreshold: DefaultFailureThreshold,
		backoffCeiling:   DefaultBackoffCeiling,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches the ticker loop. It is idempotent; calling Start twice
// without an intervening Stop is a no-op.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	o.running = true
	o.mu.Unlock()

	go o.run(ctx)
}

// Stop signals the loop to exit and waits for it, up to ctx's deadline.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	close(o.stopCh)
	select {
	case <-o.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerSync enqueues a one-off sync for a specific connection, subject
// to the same single-flight rule as the periodic scan (spec §4.6 "manual
// trigger"). Returns false (not an error) if a sync is already in flight.
func (o *Orchestrator) TriggerSync(ctx context.Context, connectionID string) (bool, error) {
	return o.tryEnqueue(ctx, connectionID)
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.doneCh)
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	ticker := time.NewTicker(o.tickInterval)
	defer ticker.Stop()

	o.scan(ctx)
	for {
		select {
		case <-o.stopCh:
			o.logger.Info("orchestrator stopping")
			return
		case <-ctx.Done():
			o.logger.Info("orchestrator context cancelled")
			return
		case <-ticker.C:
			o.scan(ctx)
		}
	}
}

func (o *Orchestrator) scan(ctx context.Context) {
	conns, err := o.listSyncable(ctx)
	if err != nil {
		o.logger.Warn("list syncable connections failed", zap.Error(err))
		return
	}

	now := o.clock()
	for _, conn := range conns {
		if conn.Status != models.ConnectionValidated && conn.Status != models.ConnectionFailing {
			continue
		}
		if conn.EnqueuedAt != nil {
			continue
		}
		if !o.isDue(conn, now) {
			continue
		}
		if _, err := o.tryEnqueue(ctx, conn.ID); err != nil {
			o.logger.Warn("enqueue sync failed", zap.String("connectionID", conn.ID), zap.Error(err))
		}
	}
}

// tryEnqueue acquires the single-flight marker and, only on success,
// enqueues the sync job — so a lost race (another tick, or a manual
// trigger, winning first) never double-enqueues.
func (o *Orchestrator) tryEnqueue(ctx context.Context, connectionID string) (bool, error) {
	acquired, err := o.acquireSingleFlight(ctx, connectionID)
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}

	payload, err := json.Marshal(jobs.SyncConnectionArgs{ConnectionID: connectionID})
	if err != nil {
		return false, fmt.Errorf("marshal sync connection args: %w", err)
	}
	if _, err := o.queue.Enqueue(ctx, jobs.EnqueueParams{
		Queue:       jobs.QueueSyncConnection,
		Payload:     payload,
		MaxAttempts: jobs.DefaultMaxAttempts,
	}); err != nil {
		// The job never made it onto the queue; release the marker so a
		// later tick gets another chance instead of being locked out
		// until the process restarts.
		if relErr := o.releaseSingleFlight(ctx, connectionID); relErr != nil {
			o.logger.Warn("release single-flight after failed enqueue failed",
				zap.String("connectionID", connectionID), zap.Error(relErr))
		}
		return false, fmt.Errorf("enqueue sync job: %w", err)
	}
	return true, nil
}

func (o *Orchestrator) acquireSingleFlight(ctx context.Context, connectionID string) (bool, error) {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	acquired, err := o.store.TryAcquireSingleFlight(ctx, tx, connectionID, o.clock())
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	return acquired, tx.Commit()
}

func (o *Orchestrator) releaseSingleFlight(ctx context.Context, connectionID string) error {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := o.store.ReleaseSingleFlight(ctx, tx, connectionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (o *Orchestrator) listSyncable(ctx context.Context) ([]models.IntegrationConnection, error) {
	tx, err := o.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Commit() //nolint:errcheck // read-only transaction
	return o.store.ListSyncableIntegrationConnections(ctx, tx)
}

// isDue reports whether conn's last sync attempt is old enough for a new
// one, given its effective (possibly backed-off) interval.
func (o *Orchestrator) isDue(conn models.IntegrationConnection, now time.Time) bool {
	if conn.LastSyncStartedAt == nil {
		return true
	}
	return now.Sub(*conn.LastSyncStartedAt) >= o.effectiveInterval(conn)
}

// effectiveInterval implements spec §4.6's backoff: once a connection's
// worst failure counter exceeds failureThreshold, the interval doubles
// per excess failure, capped at backoffCeiling.
func (o *Orchestrator) effectiveInterval(conn models.IntegrationConnection) time.Duration {
	failures := conn.NotificationsSyncFailures
	if conn.TasksSyncFailures > failures {
		failures = conn.TasksSyncFailures
	}
	if failures <= o.failureThreshold {
		return o.syncInterval
	}
	interval := o.syncInterval
	for excess := failures - o.failureThreshold; excess > 0 && interval < o.backoffCeiling; excess-- {
		interval *= 2
	}
	if interval > o.backoffCeiling {
		interval = o.backoffCeiling
	}
	return interval
}
