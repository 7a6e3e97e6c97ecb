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

// Package actions implements the Action Dispatcher (spec.md §4.4,
// component C4): applying a user-originated patch to a Notification or
// Task locally, pushing the effect back to its provider, and compensating
// the local write if that push permanently fails. Grounded on the
// teacher's internal/core/notification/actions.go local-effect style and
// original_source/api/src/routes/notification.rs's patch handling.
package actions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
	"github.com/octobud-hq/octobud/backend/internal/sync"
)

// Dispatcher applies Notification/Task patches and propagates them to the
// owning provider (spec §4.4).
type Dispatcher struct {
	store    db.Store
	registry *providers.Registry
	queue    *jobs.Queue
	logger   *zap.Logger
	clock    func() time.Time
}

// New assembles a Dispatcher. queue may be nil, in which case a push that
// fails with a recoverable error is simply logged rather than retried
// asynchronously (acceptable for tests and the integration harness).
func New(store db.Store, registry *providers.Registry, queue *jobs.Queue, logger *zap.Logger, clock func() time.Time) *Dispatcher {
	return &Dispatcher{store: store, registry: registry, queue: queue, logger: logger, clock: clock}
}

// PatchNotification applies patch to the notification identified by id,
// pushing any status change to its provider (spec §4.4, §6.2
// PATCH /notifications/{id}). updated is false (with no error) when the
// patch named no actual change, mirroring db.StatusUpdateResult's
// semantics at the HTTP boundary (caller responds 304 Not Modified).
func (d *Dispatcher) PatchNotification(
	ctx context.Context, id string, patch models.NotificationPatch,
) (result models.Notification, updated bool, err error) {
	existing, err := d.getNotification(ctx, id)
	if err != nil {
		return models.Notification{}, false, err
	}

	previousStatus := existing.Status
	current := existing
	anyUpdated := false

	if patch.Status != nil && *patch.Status != current.Status {
		res, err := d.updateNotificationStatus(ctx, id, *patch.Status)
		if err != nil {
			return models.Notification{}, false, err
		}
		current = res
		anyUpdated = true
	}
	if patch.SnoozedUntil != nil {
		res, err := d.updateNotificationSnooze(ctx, id, *patch.SnoozedUntil)
		if err != nil {
			return models.Notification{}, false, err
		}
		current = res
		anyUpdated = true
	}
	if patch.TaskID != nil {
		res, err := d.updateNotificationTaskID(ctx, id, *patch.TaskID)
		if err != nil {
			return models.Notification{}, false, err
		}
		current = res
		anyUpdated = true
	}
	if !anyUpdated {
		return existing, false, nil
	}

	if patch.Status != nil && *patch.Status != previousStatus {
		if pushErr := d.pushNotificationStatus(ctx, current); pushErr != nil {
			if apperrors.IsRecoverable(pushErr) {
				d.enqueueRetry(ctx, "notification", id)
				d.logger.Warn("push notification status failed, queued for retry",
					zap.String("notificationID", id), zap.Error(pushErr))
			} else {
				// Compensate: the provider rejected the change outright, so
				// our local copy must not claim it happened.
				if _, revertErr := d.updateNotificationStatus(ctx, id, previousStatus); revertErr != nil {
					d.logger.Error("failed to compensate notification status after push failure",
						zap.String("notificationID", id), zap.Error(revertErr))
				}
				return models.Notification{}, false, fmt.Errorf("push notification status: %w", pushErr)
			}
		}
	}

	return current, true, nil
}

// PatchTask applies patch to the task identified by id, pushing any
// observable change to its provider (spec §4.4, §6.2 analogous
// /tasks/{id} PATCH).
func (d *Dispatcher) PatchTask(
	ctx context.Context, id string, patch models.TaskPatch,
) (result models.Task, updated bool, err error) {
	existing, err := d.getTask(ctx, id)
	if err != nil {
		return models.Task{}, false, err
	}

	current := existing
	anyUpdated := false
	statusChanged := false

	if patch.Status != nil && *patch.Status != current.Status {
		res, err := d.updateTaskStatus(ctx, id, *patch.Status)
		if err != nil {
			return models.Task{}, false, err
		}
		current = res
		anyUpdated = true
		statusChanged = true
	}
	if planPatchIsSet(patch) {
		res, err := d.updateTaskPlan(ctx, id, patch)
		if err != nil {
			return models.Task{}, false, err
		}
		current = res
		anyUpdated = true
	}
	if !anyUpdated {
		return existing, false, nil
	}

	if pushErr := d.pushTaskUpdate(ctx, current); pushErr != nil {
		switch {
		case apperrors.IsRecoverable(pushErr):
			d.enqueueRetry(ctx, "task", id)
			d.logger.Warn("push task update failed, queued for retry",
				zap.String("taskID", id), zap.Error(pushErr))
		case apperrors.IsNotFound(pushErr):
			// The sink deleted its copy out from under us (e.g. Todoist
			// 404): re-create it there and re-link rather than treating
			// this like any other permanent failure (spec §4.4).
			newSinkItemID, recreateErr := d.recreateTaskSink(ctx, current)
			if recreateErr != nil {
				d.logger.Error("recreate stale task sink failed",
					zap.String("taskID", id), zap.Error(recreateErr))
				if statusChanged {
					if _, revertErr := d.updateTaskStatus(ctx, id, existing.Status); revertErr != nil {
						d.logger.Error("failed to compensate task status after push failure",
							zap.String("taskID", id), zap.Error(revertErr))
					}
				}
				return models.Task{}, false, fmt.Errorf("push task update: sink gone, recreate failed: %w", recreateErr)
			}
			current.SinkItemID = &newSinkItemID
			d.logger.Info("task sink was gone, recreated", zap.String("taskID", id))
		case statusChanged:
			if _, revertErr := d.updateTaskStatus(ctx, id, existing.Status); revertErr != nil {
				d.logger.Error("failed to compensate task status after push failure",
					zap.String("taskID", id), zap.Error(revertErr))
			}
			return models.Task{}, false, fmt.Errorf("push task update: %w", pushErr)
		default:
			d.logger.Error("push task update failed permanently", zap.String("taskID", id), zap.Error(pushErr))
			return models.Task{}, false, fmt.Errorf("push task update: %w", pushErr)
		}
	}

	return current, true, nil
}

func planPatchIsSet(patch models.TaskPatch) bool {
	return patch.Title != nil || patch.Body != nil || patch.Project != nil ||
		patch.DueAt != nil || patch.Priority != nil
}

func (d *Dispatcher) getNotification(ctx context.Context, id string) (models.Notification, error) {
	var n models.Notification
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = d.store.GetNotification(ctx, tx, id)
		return err
	})
	return n, err
}

func (d *Dispatcher) getTask(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		t, err = d.store.GetTask(ctx, tx, id)
		return err
	})
	return t, err
}

func (d *Dispatcher) updateNotificationStatus(ctx context.Context, id string, status models.NotificationStatus) (models.Notification, error) {
	var n models.Notification
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := d.store.UpdateNotificationStatus(ctx, tx, id, status)
		if err != nil {
			return err
		}
		n = res.Result
		return nil
	})
	return n, err
}

func (d *Dispatcher) updateNotificationSnooze(ctx context.Context, id string, snoozedUntil *time.Time) (models.Notification, error) {
	var n models.Notification
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = d.store.UpdateNotificationSnooze(ctx, tx, id, snoozedUntil)
		return err
	})
	return n, err
}

func (d *Dispatcher) updateNotificationTaskID(ctx context.Context, id string, taskID *string) (models.Notification, error) {
	var n models.Notification
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = d.store.UpdateNotificationTaskID(ctx, tx, id, taskID)
		return err
	})
	return n, err
}

func (d *Dispatcher) updateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	var t models.Task
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var completedAt *time.Time
		if status == models.TaskDone || status == models.TaskDeleted {
			now := d.clock()
			completedAt = &now
		}
		res, err := d.store.UpdateTaskStatus(ctx, tx, id, status, completedAt)
		if err != nil {
			return err
		}
		t = res.Result
		return nil
	})
	return t, err
}

func (d *Dispatcher) updateTaskPlan(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	var t models.Task
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		t, err = d.store.UpdateTaskPlan(ctx, tx, id, patch)
		return err
	})
	return t, err
}

// pushNotificationStatus resolves n's owning connection and adapter and
// pushes the status change back to the provider.
func (d *Dispatcher) pushNotificationStatus(ctx context.Context, n models.Notification) error {
	var sourceItem models.ThirdPartyItem
	var conn models.IntegrationConnection
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		sourceItem, err = d.store.GetThirdPartyItem(ctx, tx, n.SourceItemID)
		if err != nil {
			return fmt.Errorf("get source item: %w", err)
		}
		conn, err = d.store.GetIntegrationConnection(ctx, tx, sourceItem.IntegrationConnectionID)
		if err != nil {
			return fmt.Errorf("get connection: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	adapter, ok := d.registry.Get(conn.ProviderKind)
	if !ok {
		return fmt.Errorf("no adapter registered for provider %q", conn.ProviderKind)
	}
	return adapter.PushNotificationStatus(ctx, conn, n, sourceItem)
}

// pushTaskUpdate resolves t's sink item (or, when the source provider is
// itself a task manager, its source item) and pushes the patch to it.
func (d *Dispatcher) pushTaskUpdate(ctx context.Context, t models.Task) error {
	var sinkItem models.ThirdPartyItem
	var conn models.IntegrationConnection
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		itemID := t.SinkItemID
		if itemID == nil {
			itemID = &t.SourceItemID
		}
		var err error
		sinkItem, err = d.store.GetThirdPartyItem(ctx, tx, *itemID)
		if err != nil {
			return fmt.Errorf("get sink item: %w", err)
		}
		conn, err = d.store.GetIntegrationConnection(ctx, tx, sinkItem.IntegrationConnectionID)
		if err != nil {
			return fmt.Errorf("get connection: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	adapter, ok := d.registry.Get(conn.ProviderKind)
	if !ok {
		return fmt.Errorf("no adapter registered for provider %q", conn.ProviderKind)
	}
	return adapter.PushTaskUpdate(ctx, conn, t, sinkItem)
}

// recreateTaskSink rebuilds t's sink item after the provider has reported
// the old one gone (apperrors.NotFoundError, e.g. a Todoist 404): it calls
// the sink adapter's PushTaskCreation again and re-links t.sink_item to a
// fresh ThirdPartyItem, all in one new transaction, so a future push has
// somewhere to land (spec §4.4 "after commit" not-found policy). It
// returns the new sink item's id so the caller can update its in-memory
// copy of t without a round trip back to the store.
func (d *Dispatcher) recreateTaskSink(ctx context.Context, t models.Task) (string, error) {
	itemID := t.SinkItemID
	if itemID == nil {
		itemID = &t.SourceItemID
	}

	var conn models.IntegrationConnection
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := d.store.GetThirdPartyItem(ctx, tx, *itemID)
		if err != nil {
			return fmt.Errorf("get existing sink item: %w", err)
		}
		conn, err = d.store.GetIntegrationConnection(ctx, tx, existing.IntegrationConnectionID)
		if err != nil {
			return fmt.Errorf("get sink connection: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	adapter, ok := d.registry.Get(conn.ProviderKind)
	if !ok {
		return "", fmt.Errorf("no adapter registered for provider %q", conn.ProviderKind)
	}
	sourceID, err := adapter.PushTaskCreation(ctx, conn, t)
	if err != nil {
		return "", fmt.Errorf("recreate sink item via push task creation: %w", err)
	}

	now := d.clock()
	sourceItemID := t.SourceItemID
	mirror := models.ThirdPartyItem{
		ID:                      models.NewID(),
		SourceID:                sourceID,
		Kind:                    sync.SinkItemKindFor(conn.ProviderKind),
		Data:                    sync.SinkItemDataFor(conn.ProviderKind, t, sourceID),
		UserID:                  t.UserID,
		IntegrationConnectionID: conn.ID,
		SourceItemID:            &sourceItemID,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	var newSinkItemID string
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		result, err := d.store.UpsertThirdPartyItem(ctx, tx, mirror)
		if err != nil {
			return fmt.Errorf("upsert recreated sink item: %w", err)
		}
		newSinkItemID = result.New.ID
		if _, err := d.store.UpdateTaskSinkItem(ctx, tx, t.ID, newSinkItemID); err != nil {
			return fmt.Errorf("relink task sink item: %w", err)
		}
		return nil
	})
	return newSinkItemID, err
}

// RetryPush reattempts pushing an entity's current state to its provider,
// for the job handler behind QueueRetryPush to call once a prior push
// failed with a recoverable error (spec §4.4, §4.5).
func (d *Dispatcher) RetryPush(ctx context.Context, entityKind, entityID string) error {
	switch entityKind {
	case "notification":
		n, err := d.getNotification(ctx, entityID)
		if err != nil {
			return err
		}
		return d.pushNotificationStatus(ctx, n)
	case "task":
		t, err := d.getTask(ctx, entityID)
		if err != nil {
			return err
		}
		if pushErr := d.pushTaskUpdate(ctx, t); pushErr != nil {
			if apperrors.IsNotFound(pushErr) {
				_, recreateErr := d.recreateTaskSink(ctx, t)
				return recreateErr
			}
			return pushErr
		}
		return nil
	default:
		return apperrors.NewInvalidInput(fmt.Sprintf("unknown retry push entity kind %q", entityKind))
	}
}

func (d *Dispatcher) enqueueRetry(ctx context.Context, entityKind, entityID string) {
	if d.queue == nil {
		return
	}
	payload, err := json.Marshal(jobs.RetryPushArgs{EntityKind: entityKind, EntityID: entityID})
	if err != nil {
		d.logger.Error("marshal retry push args failed", zap.Error(err))
		return
	}
	if _, err := d.queue.Enqueue(ctx, jobs.EnqueueParams{
		Queue:       jobs.QueueRetryPush,
		Payload:     payload,
		MaxAttempts: jobs.DefaultMaxAttempts,
	}); err != nil {
		d.logger.Error("enqueue retry push failed", zap.String("entityKind", entityKind), zap.String("entityID", entityID), zap.Error(err))
	}
}

func (d *Dispatcher) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
