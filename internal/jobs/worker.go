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
	gosync "sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one job's payload. An error triggers Nack (retry with
// backoff, or dead-letter once attempts are exhausted); nil triggers Ack.
type Handler func(ctx context.Context, payload []byte) error

// poolDefaults mirror the teacher's notificationWorker polling/visibility
// shape (internal/jobs/sqlite_scheduler.go), generalized from one queue to
// the fixed set this domain uses.
const (
	defaultWorkersPerQueue = 4
	pollInterval           = 100 * time.Millisecond
	errorBackoff           = time.Second
	staleJobCheckInterval  = time.Minute
)

// Pool runs a fixed number of workers per queue, dispatching dequeued jobs
// to the Handler registered for that queue (spec §4.5's "concurrency-
// limited worker pool... at-least-once processing").
type Pool struct {
	queue    *Queue
	logger   *zap.Logger
	handlers map[string]Handler
	workers  int

	stopCh chan struct{}
	wg     gosync.WaitGroup
}

// NewPool builds a worker Pool over queue, dispatching to the handlers
// keyed by queue name. workersPerQueue <= 0 uses defaultWorkersPerQueue.
func NewPool(queue *Queue, logger *zap.Logger, handlers map[string]Handler, workersPerQueue int) *Pool {
	if workersPerQueue <= 0 {
		workersPerQueue = defaultWorkersPerQueue
	}
	return &Pool{
		queue:    queue,
		logger:   logger,
		handlers: handlers,
		workers:  workersPerQueue,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the worker goroutines and the stale-job reclaim loop.
// It returns once startup bookkeeping (resetting stale jobs from a prior
// crashed run) is done; workers keep running until Stop or ctx is done.
func (p *Pool) Start(ctx context.Context) error {
	if count, err := p.queue.ResetStale(ctx, DefaultVisibilityTimeout); err == nil && count > 0 {
		p.logger.Info("reset stale jobs from previous run", zap.Int64("count", count))
	} else if err != nil {
		p.logger.Warn("failed to reset stale jobs on startup", zap.Error(err))
	}

	if stats, err := p.queue.AllStats(ctx); err == nil {
		p.logger.Info("job queue status on startup",
			zap.Int64("pending", stats.Pending),
			zap.Int64("processing", stats.Processing),
			zap.Int64("failed", stats.Failed))
	}

	for queueName, handler := range p.handlers {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx, queueName, handler, i)
		}
	}

	p.wg.Add(1)
	go p.staleJobCleanupLoop(ctx)

	return nil
}

// Stop signals every worker to exit and waits for them to drain, up to
// ctx's deadline (spec §5's 60s graceful-shutdown grace period).
func (p *Pool) Stop(ctx context.Context) error {
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker(ctx context.Context, queueName string, handler Handler, workerID int) {
	defer p.wg.Done()
	log := p.logger.With(zap.String("queue", queueName), zap.Int("worker", workerID))

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, queueName)
		if err != nil {
			if errors.Is(err, ErrNoJobAvailable) {
				select {
				case <-p.stopCh:
					return
				case <-ctx.Done():
					return
				case <-time.After(pollInterval):
					continue
				}
			}
			log.Warn("dequeue failed", zap.Error(err))
			time.Sleep(errorBackoff)
			continue
		}

		log.Debug("processing job", zap.Int64("jobID", job.ID), zap.Int("attempt", job.Attempts))
		if err := handler(ctx, job.Payload); err != nil {
			log.Warn("job failed", zap.Int64("jobID", job.ID), zap.Int("attempt", job.Attempts), zap.Error(err))
			if nackErr := p.queue.Nack(ctx, job.ID, err); nackErr != nil {
				log.Error("failed to nack job", zap.Int64("jobID", job.ID), zap.Error(nackErr))
			}
			continue
		}
		if ackErr := p.queue.Ack(ctx, job.ID); ackErr != nil {
			log.Error("failed to ack job", zap.Int64("jobID", job.ID), zap.Error(ackErr))
		}
	}
}

func (p *Pool) staleJobCleanupLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(staleJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := p.queue.ResetStale(ctx, DefaultVisibilityTimeout)
			if err != nil {
				p.logger.Warn("failed to reset stale jobs", zap.Error(err))
			} else if count > 0 {
				p.logger.Info("reset stale jobs", zap.Int64("count", count))
			}
		}
	}
}
