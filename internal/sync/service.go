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

// Package sync implements the upsert & reconciliation engine (spec.md §4.3,
// component C3): one connection's worth of provider items, turned into
// third-party items, notifications and tasks, with a stale sweep over
// whatever the provider stopped returning.
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

// Result summarizes one connection's sync pass for logging/job-result
// purposes.
type Result struct {
	Created   int
	Updated   int
	Untouched int
	Stale     int
}

// Service coordinates fetching items from a provider adapter and
// reconciling them into the store (spec §4.3 steps 1-5).
type Service struct {
	store    db.Store
	registry *providers.Registry
	logger   *zap.Logger
	clock    func() time.Time
}

// NewService assembles a Service with the provided dependencies.
func NewService(store db.Store, registry *providers.Registry, logger *zap.Logger, clock func() time.Time) *Service {
	return &Service{store: store, registry: registry, logger: logger, clock: clock}
}

// SyncConnection runs one full sync pass for conn: mark started, list,
// upsert+derive each item, sweep stale items, mark completed/failed and
// transition the connection's status (spec §4.3, §4.1).
func (s *Service) SyncConnection(ctx context.Context, conn models.IntegrationConnection) (Result, error) {
	log := s.logger.With(
		zap.String("connectionID", conn.ID),
		zap.String("provider", string(conn.ProviderKind)),
	)

	adapter, ok := s.registry.Get(conn.ProviderKind)
	if !ok {
		err := fmt.Errorf("sync: no adapter registered for provider %q", conn.ProviderKind)
		s.failSync(ctx, conn, err)
		return Result{}, err
	}

	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.store.MarkSyncStarted(ctx, tx, conn.ID, s.clock())
	}); err != nil {
		return Result{}, fmt.Errorf("sync: mark started: %w", err)
	}

	items, syncContext, err := adapter.ListForUser(ctx, conn)
	if err != nil {
		s.failSync(ctx, conn, err)
		return Result{}, err
	}

	var result Result
	observed := make(map[models.ThirdPartyItemKind][]string)
	var mirrorCandidates []models.Task

	for _, fi := range items {
		observed[fi.Data.Kind] = append(observed[fi.Data.Kind], fi.SourceID)

		outcome, mirrorCandidate, err := s.processItem(ctx, conn, adapter, fi, log)
		if err != nil {
			log.Warn("process item failed", zap.String("sourceID", fi.SourceID), zap.Error(err))
			continue
		}
		switch outcome {
		case db.UpsertCreated:
			result.Created++
		case db.UpsertUpdated:
			result.Updated++
		case db.UpsertUntouched:
			result.Untouched++
		}
		if mirrorCandidate != nil && mirrorCandidate.Status.IsActive() &&
			mirrorCandidate.SinkItemID == nil && !mirrorCandidate.Kind.IsTaskManager() {
			mirrorCandidates = append(mirrorCandidates, *mirrorCandidate)
		}
	}

	for kind, sourceIDs := range observed {
		stale, err := s.listStale(ctx, conn.ID, kind, sourceIDs)
		if err != nil {
			log.Warn("list stale items failed", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		for _, item := range stale {
			if err := s.sweepStaleItem(ctx, item); err != nil {
				log.Warn("sweep stale item failed", zap.String("itemID", item.ID), zap.Error(err))
				continue
			}
			result.Stale++
		}
	}

	// Mirror creation makes an outbound call to the sink provider; it runs
	// after the bulk item loop rather than inside processItem's
	// transaction, so a slow or failing push never holds a write lock on
	// the items/tasks just upserted.
	for _, task := range mirrorCandidates {
		s.createTaskMirror(ctx, task, log)
	}

	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.store.UpdateIntegrationConnectionContext(ctx, tx, conn.ID, syncContext)
	}); err != nil {
		log.Warn("update sync context failed", zap.Error(err))
	}

	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.store.MarkSyncCompleted(ctx, tx, conn.ID, s.clock())
	}); err != nil {
		return result, fmt.Errorf("sync: mark completed: %w", err)
	}

	// Created->Validated and Failing->Validated are the only legal
	// transitions into Validated; once a connection is already Validated,
	// every subsequent successful sync must leave it alone.
	if conn.Status != models.ConnectionValidated {
		if err := s.withTx(ctx, func(tx *sql.Tx) error {
			_, err := s.store.TransitionIntegrationConnectionStatus(ctx, tx, conn.ID, models.ConnectionValidated, nil)
			return err
		}); err != nil {
			log.Warn("transition connection to validated failed", zap.Error(err))
		}
	}

	log.Info("sync completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("untouched", result.Untouched),
		zap.Int("stale", result.Stale),
	)
	return result, nil
}

func (s *Service) failSync(ctx context.Context, conn models.IntegrationConnection, cause error) {
	message := cause.Error()
	at := s.clock()
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.store.MarkSyncFailed(ctx, tx, conn.ID, at, message)
	}); err != nil {
		s.logger.Warn("mark sync failed write failed", zap.String("connectionID", conn.ID), zap.Error(err))
	}
	// *->Failing is always legal, regardless of current status.
	if err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.store.TransitionIntegrationConnectionStatus(ctx, tx, conn.ID, models.ConnectionFailing, &message)
		return err
	}); err != nil {
		s.logger.Warn("transition connection to failing failed", zap.String("connectionID", conn.ID), zap.Error(err))
	}
	s.logger.Error("sync failed", zap.String("connectionID", conn.ID), zap.Error(cause))
}

// processItem upserts one fetched item and derives its notification/task,
// all within a single transaction. mirrorCandidate is non-nil only when a
// task was created or touched by this item.
func (s *Service) processItem(
	ctx context.Context,
	conn models.IntegrationConnection,
	adapter providers.Adapter,
	fi providers.FetchedItem,
	log *zap.Logger,
) (db.UpsertOutcome, *models.Task, error) {
	now := s.clock()
	updatedAt := fi.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	tpi := models.ThirdPartyItem{
		ID:                      models.NewID(),
		SourceID:                fi.SourceID,
		Kind:                    fi.Data.Kind,
		Data:                    fi.Data,
		UserID:                  conn.UserID,
		IntegrationConnectionID: conn.ID,
		CreatedAt:               now,
		UpdatedAt:               updatedAt,
	}

	var outcome db.UpsertOutcome
	var mirrorCandidate *models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := s.store.UpsertThirdPartyItem(ctx, tx, tpi)
		if err != nil {
			return fmt.Errorf("upsert third party item: %w", err)
		}
		outcome = result.Outcome
		item := result.New

		s.deriveNotification(ctx, tx, conn, adapter, item, log)
		mirrorCandidate = s.deriveTask(ctx, tx, conn, adapter, item, log)
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return outcome, mirrorCandidate, nil
}

// deriveNotification projects item into a Notification and either creates
// it or merges it into whatever is already derived from this item,
// preserving the user-owned fields a fresh derivation must not clobber
// (spec §4.3 step 3).
func (s *Service) deriveNotification(
	ctx context.Context,
	tx *sql.Tx,
	conn models.IntegrationConnection,
	adapter providers.Adapter,
	item models.ThirdPartyItem,
	log *zap.Logger,
) {
	derived, ok := adapter.DeriveNotification(conn, item)
	if !ok {
		return
	}

	existing, err := s.store.FindNotificationBySourceItem(ctx, tx, derived.SourceItemID)
	if apperrors.IsNotFound(err) {
		if _, err := s.store.CreateNotification(ctx, tx, derived); err != nil {
			log.Warn("create notification failed", zap.Error(err))
		}
		return
	}
	if err != nil {
		log.Warn("find notification failed", zap.Error(err))
		return
	}

	status := mergeNotificationStatus(existing.Status, derived.Status, existing.UpdatedAt, derived.UpdatedAt, conn.Config.ResyncDeletedOnChange)
	if _, err := s.store.UpdateNotificationDerived(
		ctx, tx, existing.ID, derived.Title, status, derived.LastReadAt, derived.UpdatedAt,
	); err != nil {
		log.Warn("update notification derived failed", zap.Error(err))
	}
}

// mergeNotificationStatus resolves the Open Question of spec §9(a): a
// Deleted/Unsubscribed notification stays that way even if the upstream
// payload changes again, unless the connection is configured to resync it
// *and* the source has actually moved: derivedUpdatedAt must fall after
// existingUpdatedAt, so re-deriving from an unchanged payload (e.g. a
// byte-identical re-poll) never revives a notification the user dismissed
// (spec §4.3 step 3).
func mergeNotificationStatus(existing, derived models.NotificationStatus, existingUpdatedAt, derivedUpdatedAt time.Time, resyncOnChange bool) models.NotificationStatus {
	if existing == models.NotificationDeleted || existing == models.NotificationUnsubscribed {
		if resyncOnChange && derivedUpdatedAt.After(existingUpdatedAt) {
			return derived
		}
		return existing
	}
	return derived
}

// deriveTask projects item into a Task and either creates it or merges it
// into the existing task sharing its SourceItemID, returning the resulting
// task so the caller can decide whether it still needs a sink mirror.
func (s *Service) deriveTask(
	ctx context.Context,
	tx *sql.Tx,
	conn models.IntegrationConnection,
	adapter providers.Adapter,
	item models.ThirdPartyItem,
	log *zap.Logger,
) *models.Task {
	derived, ok := adapter.DeriveTask(conn, item)
	if !ok {
		return nil
	}

	existing, err := s.store.FindTaskBySourceItem(ctx, tx, derived.SourceItemID)
	if apperrors.IsNotFound(err) {
		created, err := s.store.CreateTask(ctx, tx, derived)
		if err != nil {
			log.Warn("create task failed", zap.Error(err))
			return nil
		}
		return &created
	}
	if err != nil {
		log.Warn("find task failed", zap.Error(err))
		return nil
	}

	priority := derived.Priority
	patch := db.TaskDerivedPatch{
		Title:     derived.Title,
		Body:      derived.Body,
		Priority:  &priority,
		DueAt:     derived.DueAt,
		UpdatedAt: derived.UpdatedAt,
	}
	if derived.Project != "" {
		project := derived.Project
		patch.Project = &project
	}
	updated, err := s.store.UpdateTaskDerived(ctx, tx, existing.ID, patch)
	if err != nil {
		log.Warn("update task derived failed", zap.Error(err))
		return nil
	}

	if status := mergeTaskStatus(updated.Status, derived.Status, conn.Config.ResyncDeletedOnChange); status != updated.Status {
		res, err := s.store.UpdateTaskStatus(ctx, tx, updated.ID, status, completedAtFor(status, s.clock()))
		if err != nil {
			log.Warn("update task status failed", zap.Error(err))
			return &updated
		}
		updated = res.Result
	}

	// TickTick re-derives a task from its own mirror TPI (spec: its
	// DeriveTask requires SourceItemID set); when that happens, this is
	// how the link back to the mirror gets (re)established even if the
	// initial createTaskMirror write never landed.
	if derived.SinkItemID != nil && updated.SinkItemID == nil {
		if t, err := s.store.UpdateTaskSinkItem(ctx, tx, updated.ID, *derived.SinkItemID); err != nil {
			log.Warn("link task sink item failed", zap.Error(err))
		} else {
			updated = t
		}
	}
	return &updated
}

// mergeTaskStatus mirrors mergeNotificationStatus's symmetry (spec §4.3
// step 3): once a task is Done or Deleted, a fresh derivation only flips it
// back when the connection opts into resyncing past terminal states.
func mergeTaskStatus(existing, derived models.TaskStatus, resyncOnChange bool) models.TaskStatus {
	if existing == models.TaskDone || existing == models.TaskDeleted {
		if resyncOnChange {
			return derived
		}
		return existing
	}
	return derived
}

func completedAtFor(status models.TaskStatus, now time.Time) *time.Time {
	if status == models.TaskDone || status == models.TaskDeleted {
		return &now
	}
	return nil
}

// createTaskMirror implements the sink role of spec §3.3: a task originated
// by a non-task-manager provider gets mirrored into the user's configured
// task manager. Failure here is logged, not fatal — SinkItemID stays nil
// and the next sync pass retries the mirror from scratch.
func (s *Service) createTaskMirror(ctx context.Context, task models.Task, log *zap.Logger) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sinkConn, err := s.findTaskManagerConnection(ctx, tx, task.UserID)
		if err != nil {
			return err
		}
		adapter, ok := s.registry.Get(sinkConn.ProviderKind)
		if !ok {
			return fmt.Errorf("no adapter registered for task-manager provider %q", sinkConn.ProviderKind)
		}
		sourceID, err := adapter.PushTaskCreation(ctx, sinkConn, task)
		if err != nil {
			return fmt.Errorf("push task creation to %s: %w", sinkConn.ProviderKind, err)
		}

		now := s.clock()
		sourceItemID := task.SourceItemID
		mirror := models.ThirdPartyItem{
			ID:                      models.NewID(),
			SourceID:                sourceID,
			Kind:                    SinkItemKindFor(sinkConn.ProviderKind),
			Data:                    SinkItemDataFor(sinkConn.ProviderKind, task, sourceID),
			UserID:                  task.UserID,
			IntegrationConnectionID: sinkConn.ID,
			SourceItemID:            &sourceItemID,
			CreatedAt:               now,
			UpdatedAt:               now,
		}
		result, err := s.store.UpsertThirdPartyItem(ctx, tx, mirror)
		if err != nil {
			return fmt.Errorf("upsert task mirror item: %w", err)
		}
		if _, err := s.store.UpdateTaskSinkItem(ctx, tx, task.ID, result.New.ID); err != nil {
			return fmt.Errorf("link task sink item: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Warn("create task mirror failed, will retry next sync", zap.String("taskID", task.ID), zap.Error(err))
	}
}

// findTaskManagerConnection picks the user's sink for mirrored tasks.
// Neither spec.md nor the models package names how to choose among several
// task-manager connections a user might hold; this takes the first
// Validated one, in connection-creation order.
func (s *Service) findTaskManagerConnection(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
) (models.IntegrationConnection, error) {
	conns, err := s.store.ListIntegrationConnectionsByUser(ctx, tx, userID)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	for _, c := range conns {
		if c.ProviderKind.IsTaskManager() && c.Status == models.ConnectionValidated {
			return c, nil
		}
	}
	return models.IntegrationConnection{}, apperrors.NewNotFound("IntegrationConnection", "task-manager-for-user:"+userID)
}

// SinkItemKindFor maps a task-manager provider to the ThirdPartyItemKind
// its mirrored sink items carry. Exported so internal/actions can rebuild a
// sink item after the provider reports the old one gone (spec §4.4).
func SinkItemKindFor(kind models.ProviderKind) models.ThirdPartyItemKind {
	switch kind {
	case models.ProviderTodoist:
		return models.ItemKindTodoistItem
	case models.ProviderTickTick:
		return models.ItemKindTickTickTask
	default:
		return ""
	}
}

// SinkItemDataFor builds a provisional payload for a freshly-created
// mirror item. PushTaskCreation only returns the sink's assigned id, not a
// full payload, so this is good enough to satisfy the sink provider's own
// DeriveTask until that provider's next sync pass overwrites it with the
// authoritative data via the normal natural-key upsert. Exported for the
// same reason as SinkItemKindFor.
func SinkItemDataFor(kind models.ProviderKind, t models.Task, sourceID string) models.ThirdPartyItemData {
	var due *string
	if t.DueAt != nil && t.DueAt.Kind == models.DueDateDate {
		d := t.DueAt.Date
		due = &d
	}
	switch kind {
	case models.ProviderTodoist:
		return models.ThirdPartyItemData{
			Kind: models.ItemKindTodoistItem,
			TodoistItem: &models.TodoistItemData{
				ID:          sourceID,
				Content:     t.Title,
				Description: t.Body,
				Due:         due,
				IsCompleted: t.Status == models.TaskDone,
			},
		}
	case models.ProviderTickTick:
		return models.ThirdPartyItemData{
			Kind: models.ItemKindTickTickTask,
			TickTickTask: &models.TickTickTaskData{
				ID:      sourceID,
				Title:   t.Title,
				Content: t.Body,
				DueDate: due,
			},
		}
	default:
		return models.ThirdPartyItemData{}
	}
}

func (s *Service) listStale(
	ctx context.Context,
	connID string,
	kind models.ThirdPartyItemKind,
	observedSourceIDs []string,
) ([]models.ThirdPartyItem, error) {
	var items []models.ThirdPartyItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		items, err = s.store.ListStaleThirdPartyItems(ctx, tx, connID, kind, observedSourceIDs)
		return err
	})
	return items, err
}

// disappearanceMeansDone lists item kinds whose provider semantics treat a
// vanished item as completed rather than removed (spec §4.3 step 4): a
// Linear assigned issue, a Todoist item, a TickTick task or a Slack star
// drops out of its provider's list because the user resolved it, not
// because the underlying thing was deleted. Kinds absent from this map
// (GitHub notifications, Gmail threads, Linear notifications) fall back to
// Deleted, matching L3.
var disappearanceMeansDone = map[models.ThirdPartyItemKind]bool{
	models.ItemKindLinearIssue:  true,
	models.ItemKindTodoistItem:  true,
	models.ItemKindTickTickTask: true,
	models.ItemKindSlackStar:    true,
}

// taskSweepStatus picks the status a stale task transitions to once its
// source item stops being returned by the provider (spec §4.3 step 4).
func taskSweepStatus(kind models.ThirdPartyItemKind) models.TaskStatus {
	if disappearanceMeansDone[kind] {
		return models.TaskDone
	}
	return models.TaskDeleted
}

// sweepStaleItem marks a TPI's active derived notification Deleted, and its
// active derived task Done or Deleted depending on provider semantics
// (taskSweepStatus), once the provider has stopped returning the item
// (spec §4.3 step 4). The provider itself already dropped the item, so
// there is nothing to push back — only our own copy needs updating.
func (s *Service) sweepStaleItem(ctx context.Context, item models.ThirdPartyItem) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		existingNotification, err := s.store.FindNotificationBySourceItem(ctx, tx, item.ID)
		switch {
		case apperrors.IsNotFound(err):
		case err != nil:
			return err
		case existingNotification.Status.IsActive():
			if _, err := s.store.UpdateNotificationStatus(ctx, tx, existingNotification.ID, models.NotificationDeleted); err != nil {
				return fmt.Errorf("mark stale notification deleted: %w", err)
			}
		}

		existingTask, err := s.store.FindTaskBySourceItem(ctx, tx, item.ID)
		switch {
		case apperrors.IsNotFound(err):
		case err != nil:
			return err
		case existingTask.Status.IsActive():
			now := s.clock()
			status := taskSweepStatus(item.Kind)
			if _, err := s.store.UpdateTaskStatus(ctx, tx, existingTask.ID, status, &now); err != nil {
				return fmt.Errorf("mark stale task %s: %w", status, err)
			}
		}
		return nil
	})
}

func (s *Service) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
