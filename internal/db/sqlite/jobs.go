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

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

// Job queue statuses, kept internal to this table's rows.
const (
	jobStatusPending    = "pending"
	jobStatusProcessing = "processing"
	jobStatusFailed     = "failed"
)

// EnqueueJob inserts a new job (spec §4.5).
func (s *Store) EnqueueJob(ctx context.Context, q db.Querier, params db.EnqueueParams) (int64, error) {
	now := time.Now()
	scheduledAt := now.Add(params.Delay)
	res, err := q.ExecContext(ctx, `
		INSERT INTO jobs (queue, payload, attempts, max_attempts, status, created_at, scheduled_at)
		VALUES (?, ?, 0, ?, ?, ?, ?)`,
		params.Queue, params.Payload, params.MaxAttempts, jobStatusPending, formatTime(now), formatTime(scheduledAt),
	)
	if err != nil {
		return 0, fmt.Errorf("enqueue job: %w", err)
	}
	return res.LastInsertId()
}

// DequeueJob claims the oldest ready job in a queue, marking it
// processing (spec §4.5 at-least-once delivery).
func (s *Store) DequeueJob(ctx context.Context, q db.Querier, queue string) (*models.Job, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, queue, payload, attempts, max_attempts, created_at, scheduled_at
		FROM jobs
		WHERE queue = ? AND status = ? AND scheduled_at <= ?
		ORDER BY scheduled_at ASC
		LIMIT 1`,
		queue, jobStatusPending, formatTime(time.Now()),
	)
	var j models.Job
	var createdAt, scheduledAt string
	if err := row.Scan(&j.ID, &j.Queue, &j.Payload, &j.Attempts, &j.MaxAttempts, &createdAt, &scheduledAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue job: %w", err)
	}
	j.CreatedAt = parseTime(createdAt)
	j.ScheduledAt = parseTime(scheduledAt)

	if _, err := q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, attempts = attempts + 1, locked_at = ? WHERE id = ?`,
		jobStatusProcessing, formatTime(time.Now()), j.ID,
	); err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	j.Attempts++
	return &j, nil
}

// AckJob deletes a successfully processed job.
func (s *Store) AckJob(ctx context.Context, q db.Querier, jobID int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID); err != nil {
		return fmt.Errorf("ack job: %w", err)
	}
	return nil
}

// NackJob reschedules a failed job with exponential backoff, or marks it
// permanently failed once max_attempts is exhausted (spec §4.5, §7).
func (s *Store) NackJob(ctx context.Context, q db.Querier, jobID int64, jobErr error) error {
	row := q.QueryRowContext(ctx, `SELECT attempts, max_attempts FROM jobs WHERE id = ?`, jobID)
	var attempts, maxAttempts int
	if err := row.Scan(&attempts, &maxAttempts); err != nil {
		return fmt.Errorf("nack job: %w", err)
	}
	if attempts >= maxAttempts {
		_, err := q.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, jobStatusFailed, jobID)
		if err != nil {
			return fmt.Errorf("mark job failed: %w", err)
		}
		return nil
	}
	backoffSeconds := 1 << uint(attempts-1)
	if backoffSeconds > 300 {
		backoffSeconds = 300
	}
	nextAttempt := time.Now().Add(time.Duration(backoffSeconds) * time.Second)
	_, err := q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, scheduled_at = ?, locked_at = NULL WHERE id = ?`,
		jobStatusPending, formatTime(nextAttempt), jobID,
	)
	if err != nil {
		return fmt.Errorf("reschedule job: %w", err)
	}
	return nil
}

// ResetStaleJobs returns processing jobs locked longer than timeout to
// pending, recovering from a worker crash mid-job.
func (s *Store) ResetStaleJobs(ctx context.Context, q db.Querier, timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	res, err := q.ExecContext(ctx, `
		UPDATE jobs SET status = ?, locked_at = NULL
		WHERE status = ? AND locked_at <= ?`,
		jobStatusPending, jobStatusProcessing, formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reset stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// QueueStats summarizes a queue's pending/processing/failed counts.
func (s *Store) QueueStats(ctx context.Context, q db.Querier, queue string) (db.QueueStats, error) {
	var stats db.QueueStats
	row := q.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = ?),
			COUNT(*) FILTER (WHERE status = ?),
			COUNT(*) FILTER (WHERE status = ?)
		FROM jobs WHERE queue = ?`,
		jobStatusPending, jobStatusProcessing, jobStatusFailed, queue,
	)
	if err := row.Scan(&stats.Pending, &stats.Processing, &stats.Failed); err != nil {
		return db.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	return stats, nil
}
