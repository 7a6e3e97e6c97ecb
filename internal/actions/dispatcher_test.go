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

package actions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/db/sqlite"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

func newTestStore(t *testing.T) db.Store {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn))
	return sqlite.NewStore(conn)
}

func withSetupTx(t *testing.T, ctx context.Context, store db.Store, fn func(q db.Querier) error) {
	t.Helper()
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, fn(tx))
	require.NoError(t, tx.Commit())
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// pushAdapter is a minimal providers.Adapter double whose push methods are
// configurable per test, grounded on the shape every real adapter in
// internal/providers implements (see internal/sync's equivalent fake).
type pushAdapter struct {
	kind                   models.ProviderKind
	pushNotificationStatus func(ctx context.Context, conn models.IntegrationConnection, n models.Notification, sourceItem models.ThirdPartyItem) error
	pushTaskUpdate         func(ctx context.Context, conn models.IntegrationConnection, t models.Task, sinkItem models.ThirdPartyItem) error
	pushTaskCreation       func(ctx context.Context, conn models.IntegrationConnection, t models.Task) (string, error)
}

func (a *pushAdapter) Kind() models.ProviderKind { return a.kind }

func (a *pushAdapter) ListForUser(
	context.Context, models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	return nil, nil, nil
}

func (a *pushAdapter) DeriveNotification(models.IntegrationConnection, models.ThirdPartyItem) (models.Notification, bool) {
	return models.Notification{}, false
}

func (a *pushAdapter) DeriveTask(models.IntegrationConnection, models.ThirdPartyItem) (models.Task, bool) {
	return models.Task{}, false
}

func (a *pushAdapter) PushNotificationStatus(
	ctx context.Context, conn models.IntegrationConnection, n models.Notification, sourceItem models.ThirdPartyItem,
) error {
	if a.pushNotificationStatus == nil {
		return nil
	}
	return a.pushNotificationStatus(ctx, conn, n, sourceItem)
}

func (a *pushAdapter) PushTaskCreation(
	ctx context.Context, conn models.IntegrationConnection, t models.Task,
) (string, error) {
	if a.pushTaskCreation == nil {
		return "", nil
	}
	return a.pushTaskCreation(ctx, conn, t)
}

func (a *pushAdapter) PushTaskUpdate(
	ctx context.Context, conn models.IntegrationConnection, t models.Task, sinkItem models.ThirdPartyItem,
) error {
	if a.pushTaskUpdate == nil {
		return nil
	}
	return a.pushTaskUpdate(ctx, conn, t, sinkItem)
}

var _ providers.Adapter = (*pushAdapter)(nil)

func mustSeedNotification(t *testing.T, ctx context.Context, store db.Store) (models.IntegrationConnection, models.Notification) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var conn models.IntegrationConnection
	var sourceItem models.ThirdPartyItem
	var n models.Notification
	withSetupTx(t, ctx, store, func(q db.Querier) error {
		user, err := store.CreateUser(ctx, q, models.User{ID: models.NewID(), Email: "u@example.com", AuthMethod: "test", CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return err
		}
		conn, err = store.CreateIntegrationConnection(ctx, q, models.IntegrationConnection{
			ID: models.NewID(), UserID: user.ID, ProviderKind: models.ProviderGitHub,
			Config: models.IntegrationConnectionConfig{Kind: models.ProviderGitHub},
			Status: models.ConnectionCreated, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		upsert, err := store.UpsertThirdPartyItem(ctx, q, models.ThirdPartyItem{
			ID: models.NewID(), SourceID: "thread-1", Kind: models.ItemKindGitHubNotification,
			Data:                    models.ThirdPartyItemData{Kind: models.ItemKindGitHubNotification},
			UserID:                  user.ID,
			IntegrationConnectionID: conn.ID,
			CreatedAt:               now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		sourceItem = upsert.New
		n, err = store.CreateNotification(ctx, q, models.Notification{
			ID: models.NewID(), Title: "PR review requested", Kind: models.ProviderGitHub,
			Status: models.NotificationUnread, SourceItemID: sourceItem.ID,
			UpdatedAt: now, UserID: user.ID, CreatedAt: now,
		})
		return err
	})
	return conn, n
}

func TestPatchNotification_PushesStatusChangeToProvider(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, n := mustSeedNotification(t, ctx, store)

	var pushed models.NotificationStatus
	adapter := &pushAdapter{
		kind: models.ProviderGitHub,
		pushNotificationStatus: func(_ context.Context, _ models.IntegrationConnection, n models.Notification, _ models.ThirdPartyItem) error {
			pushed = n.Status
			return nil
		},
	}
	registry := providers.NewRegistry(adapter)
	d := New(store, registry, nil, zap.NewNop(), fixedClock(time.Now()))

	read := models.NotificationRead
	result, updated, err := d.PatchNotification(ctx, n.ID, models.NotificationPatch{Status: &read})
	require.NoError(t, err)
	require.True(t, updated)
	require.Equal(t, models.NotificationRead, result.Status)
	require.Equal(t, models.NotificationRead, pushed)
}

func TestPatchNotification_NoChangeReturnsUpdatedFalse(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, n := mustSeedNotification(t, ctx, store)

	adapter := &pushAdapter{kind: models.ProviderGitHub}
	registry := providers.NewRegistry(adapter)
	d := New(store, registry, nil, zap.NewNop(), fixedClock(time.Now()))

	sameStatus := models.NotificationUnread
	result, updated, err := d.PatchNotification(ctx, n.ID, models.NotificationPatch{Status: &sameStatus})
	require.NoError(t, err)
	require.False(t, updated)
	require.Equal(t, models.NotificationUnread, result.Status)
}

func TestPatchNotification_CompensatesOnPermanentPushFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, n := mustSeedNotification(t, ctx, store)

	adapter := &pushAdapter{
		kind: models.ProviderGitHub,
		pushNotificationStatus: func(context.Context, models.IntegrationConnection, models.Notification, models.ThirdPartyItem) error {
			return apperrors.NewPermanent("github", sql.ErrTxDone)
		},
	}
	registry := providers.NewRegistry(adapter)
	d := New(store, registry, nil, zap.NewNop(), fixedClock(time.Now()))

	read := models.NotificationRead
	_, updated, err := d.PatchNotification(ctx, n.ID, models.NotificationPatch{Status: &read})
	require.Error(t, err)
	require.False(t, updated)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Commit()
	reverted, err := store.GetNotification(ctx, tx, n.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationUnread, reverted.Status)
}

// mustSeedTaskWithSink creates a task whose source is a Linear connection
// and whose sink is a mirrored item in a Todoist connection, the same
// source/sink shape internal/sync's createTaskMirror produces.
func mustSeedTaskWithSink(t *testing.T, ctx context.Context, store db.Store) (models.IntegrationConnection, models.Task) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var sinkConn models.IntegrationConnection
	var task models.Task
	withSetupTx(t, ctx, store, func(q db.Querier) error {
		user, err := store.CreateUser(ctx, q, models.User{ID: models.NewID(), Email: "u@example.com", AuthMethod: "test", CreatedAt: now, UpdatedAt: now})
		if err != nil {
			return err
		}
		sourceConn, err := store.CreateIntegrationConnection(ctx, q, models.IntegrationConnection{
			ID: models.NewID(), UserID: user.ID, ProviderKind: models.ProviderLinear,
			Config: models.IntegrationConnectionConfig{Kind: models.ProviderLinear},
			Status: models.ConnectionValidated, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		sinkConn, err = store.CreateIntegrationConnection(ctx, q, models.IntegrationConnection{
			ID: models.NewID(), UserID: user.ID, ProviderKind: models.ProviderTodoist,
			Config: models.IntegrationConnectionConfig{Kind: models.ProviderTodoist, Todoist: &models.TodoistConfig{SyncTasksEnabled: true}},
			Status: models.ConnectionValidated, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}

		sourceUpsert, err := store.UpsertThirdPartyItem(ctx, q, models.ThirdPartyItem{
			ID: models.NewID(), SourceID: "issue-1", Kind: models.ItemKindLinearIssue,
			Data:                    models.ThirdPartyItemData{Kind: models.ItemKindLinearIssue},
			UserID:                  user.ID,
			IntegrationConnectionID: sourceConn.ID,
			CreatedAt:               now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		sourceItemID := sourceUpsert.New.ID

		sinkUpsert, err := store.UpsertThirdPartyItem(ctx, q, models.ThirdPartyItem{
			ID: models.NewID(), SourceID: "todoist-1", Kind: models.ItemKindTodoistItem,
			Data:                    models.ThirdPartyItemData{Kind: models.ItemKindTodoistItem, TodoistItem: &models.TodoistItemData{ID: "todoist-1"}},
			UserID:                  user.ID,
			IntegrationConnectionID: sinkConn.ID,
			SourceItemID:            &sourceItemID,
			CreatedAt:               now, UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		sinkItemID := sinkUpsert.New.ID

		task, err = store.CreateTask(ctx, q, models.Task{
			ID: models.NewID(), Title: "ENG-1 fix the thing", Status: models.TaskActive,
			Kind: models.ProviderLinear, Priority: models.TaskPriorityP2,
			SourceItemID: sourceItemID, SinkItemID: &sinkItemID,
			UserID: user.ID, CreatedAt: now, UpdatedAt: now,
		})
		return err
	})
	return sinkConn, task
}

func TestPatchTask_RecreatesSinkItemWhenProviderReportsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, task := mustSeedTaskWithSink(t, ctx, store)

	sourceAdapter := &pushAdapter{kind: models.ProviderLinear}
	sinkAdapter := &pushAdapter{
		kind: models.ProviderTodoist,
		pushTaskUpdate: func(context.Context, models.IntegrationConnection, models.Task, models.ThirdPartyItem) error {
			return apperrors.NewNotFound("todoist", "todoist-1")
		},
		pushTaskCreation: func(context.Context, models.IntegrationConnection, models.Task) (string, error) {
			return "todoist-2", nil
		},
	}
	registry := providers.NewRegistry(sourceAdapter, sinkAdapter)
	d := New(store, registry, nil, zap.NewNop(), fixedClock(time.Now()))

	newTitle := "ENG-1 fix the other thing"
	result, updated, err := d.PatchTask(ctx, task.ID, models.TaskPatch{Title: &newTitle})
	require.NoError(t, err)
	require.True(t, updated)
	require.Equal(t, newTitle, result.Title)
	require.NotNil(t, result.SinkItemID)
	require.NotEqual(t, *task.SinkItemID, *result.SinkItemID, "a recreated sink must re-link to a new mirror item")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Commit()
	mirror, err := store.GetThirdPartyItem(ctx, tx, *result.SinkItemID)
	require.NoError(t, err)
	require.Equal(t, "todoist-2", mirror.SourceID)
}

func TestPatchNotification_QueuesRetryOnRecoverablePushFailure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, n := mustSeedNotification(t, ctx, store)

	adapter := &pushAdapter{
		kind: models.ProviderGitHub,
		pushNotificationStatus: func(context.Context, models.IntegrationConnection, models.Notification, models.ThirdPartyItem) error {
			return apperrors.NewRecoverable("github", sql.ErrConnDone)
		},
	}
	registry := providers.NewRegistry(adapter)
	queue := jobs.NewQueue(store)
	d := New(store, registry, queue, zap.NewNop(), fixedClock(time.Now()))

	read := models.NotificationRead
	result, updated, err := d.PatchNotification(ctx, n.ID, models.NotificationPatch{Status: &read})
	require.NoError(t, err)
	require.True(t, updated)
	require.Equal(t, models.NotificationRead, result.Status)

	stats, err := queue.Stats(ctx, jobs.QueueRetryPush)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Pending)
}
