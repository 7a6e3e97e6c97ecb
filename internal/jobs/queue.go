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

package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

// Queue names (spec §4.5's tagged-union job payload, one queue per kind).
const (
	QueueSyncConnection = "sync_connection"
	QueueWebhookIngest  = "webhook_ingest"
	QueueRetryPush      = "retry_push"
)

// Default configuration.
const (
	DefaultMaxAttempts       = 5
	DefaultVisibilityTimeout = 5 * time.Minute
)

// ErrNoJobAvailable is returned by Dequeue when a queue has nothing ready.
var ErrNoJobAvailable = errors.New("jobs: no job available")

// Job is a queued unit of asynchronous work, re-exported from models so
// callers outside internal/db don't need to import it directly.
type Job = models.Job

// EnqueueParams are the parameters for enqueueing a new job.
type EnqueueParams = db.EnqueueParams

// QueueStats summarizes a queue's pending/processing/failed counts.
type QueueStats = db.QueueStats

// Queue is a persistent job queue backed by the same Store (and SQLite
// connection) as the rest of the application's durable state, satisfying
// spec §4.5's "ordered persistent queue... database table polled" option
// without adding a separate broker dependency.
type Queue struct {
	store db.Store
}

// NewQueue builds a Queue over store.
func NewQueue(store db.Store) *Queue {
	return &Queue{store: store}
}

// Enqueue adds a job to the given queue.
func (q *Queue) Enqueue(ctx context.Context, params EnqueueParams) (int64, error) {
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = DefaultMaxAttempts
	}
	tx, err := q.store.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	id, err := q.store.EnqueueJob(ctx, tx, params)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	return id, tx.Commit()
}

// Dequeue atomically claims the next ready job from queue, or
// ErrNoJobAvailable if none is ready.
func (q *Queue) Dequeue(ctx context.Context, queue string) (*Job, error) {
	tx, err := q.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	job, err := q.store.DequeueJob(ctx, tx, queue)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if job == nil {
		_ = tx.Rollback()
		return nil, ErrNoJobAvailable
	}
	return job, tx.Commit()
}

// Ack marks a job as successfully processed.
func (q *Queue) Ack(ctx context.Context, jobID int64) error {
	tx, err := q.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := q.store.AckJob(ctx, tx, jobID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Nack marks a job as failed, either rescheduling it with backoff or
// dead-lettering it once its max attempts are exhausted.
func (q *Queue) Nack(ctx context.Context, jobID int64, jobErr error) error {
	tx, err := q.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := q.store.NackJob(ctx, tx, jobID, jobErr); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ResetStale reclaims jobs stuck in processing state past timeout,
// recovering from a crashed or killed worker (spec §4.5).
func (q *Queue) ResetStale(ctx context.Context, timeout time.Duration) (int64, error) {
	tx, err := q.store.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	count, err := q.store.ResetStaleJobs(ctx, tx, timeout)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	return count, tx.Commit()
}

// Stats returns queue statistics for a single queue.
func (q *Queue) Stats(ctx context.Context, queue string) (QueueStats, error) {
	tx, err := q.store.BeginTx(ctx)
	if err != nil {
		return QueueStats{}, err
	}
	defer tx.Commit() //nolint:errcheck // read-only transaction
	return q.store.QueueStats(ctx, tx, queue)
}

// AllQueues lists every queue name a Queue worker pool polls.
func AllQueues() []string {
	return []string{QueueSyncConnection, QueueWebhookIngest, QueueRetryPush}
}

// AllStats sums queue statistics across every known queue.
func (q *Queue) AllStats(ctx context.Context) (QueueStats, error) {
	var total QueueStats
	for _, name := range AllQueues() {
		s, err := q.Stats(ctx, name)
		if err != nil {
			return QueueStats{}, err
		}
		total.Pending += s.Pending
		total.Processing += s.Processing
		total.Failed += s.Failed
	}
	return total, nil
}
