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

package sync

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/db/sqlite"
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

// withSetupTx runs fn inside its own transaction and commits immediately,
// so the single in-memory connection (SetMaxOpenConns(1)) is never left
// checked out across setup steps and the code under test.
func withSetupTx(t *testing.T, ctx context.Context, store db.Store, fn func(q db.Querier) error) {
	t.Helper()
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, fn(tx))
	require.NoError(t, tx.Commit())
}

func mustCreateUser(t *testing.T, ctx context.Context, store db.Store) models.User {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var u models.User
	withSetupTx(t, ctx, store, func(q db.Querier) error {
		var err error
		u, err = store.CreateUser(ctx, q, models.User{
			ID: models.NewID(), Email: "user@example.com", AuthMethod: "test",
			CreatedAt: now, UpdatedAt: now,
		})
		return err
	})
	return u
}

func mustCreateConnection(
	t *testing.T, ctx context.Context, store db.Store, userID string, kind models.ProviderKind, cfg models.IntegrationConnectionConfig,
) models.IntegrationConnection {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var c models.IntegrationConnection
	withSetupTx(t, ctx, store, func(q db.Querier) error {
		var err error
		c, err = store.CreateIntegrationConnection(ctx, q, models.IntegrationConnection{
			ID: models.NewID(), UserID: userID, ProviderKind: kind, Config: cfg,
			Status: models.ConnectionCreated, CreatedAt: now, UpdatedAt: now,
		})
		return err
	})
	return c
}

// fakeAdapter is a minimal providers.Adapter double configured per test,
// grounded on the shape every real provider adapter in internal/providers
// already implements.
type fakeAdapter struct {
	kind               models.ProviderKind
	items              []providers.FetchedItem
	deriveNotification func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Notification, bool)
	deriveTask         func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Task, bool)
	pushTaskCreation   func(ctx context.Context, conn models.IntegrationConnection, t models.Task) (string, error)
}

func (a *fakeAdapter) Kind() models.ProviderKind { return a.kind }

func (a *fakeAdapter) ListForUser(
	_ context.Context, conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	return a.items, conn.Context, nil
}

func (a *fakeAdapter) DeriveNotification(
	conn models.IntegrationConnection, item models.ThirdPartyItem,
) (models.Notification, bool) {
	if a.deriveNotification == nil {
		return models.Notification{}, false
	}
	return a.deriveNotification(conn, item)
}

func (a *fakeAdapter) DeriveTask(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Task, bool) {
	if a.deriveTask == nil {
		return models.Task{}, false
	}
	return a.deriveTask(conn, item)
}

func (a *fakeAdapter) PushNotificationStatus(
	context.Context, models.IntegrationConnection, models.Notification, models.ThirdPartyItem,
) error {
	return nil
}

func (a *fakeAdapter) PushTaskCreation(
	ctx context.Context, conn models.IntegrationConnection, t models.Task,
) (string, error) {
	if a.pushTaskCreation == nil {
		return "", fmt.Errorf("fakeAdapter: %s is not a task manager", a.kind)
	}
	return a.pushTaskCreation(ctx, conn, t)
}

func (a *fakeAdapter) PushTaskUpdate(
	context.Context, models.IntegrationConnection, models.Task, models.ThirdPartyItem,
) error {
	return nil
}

var _ providers.Adapter = (*fakeAdapter)(nil)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSyncConnection_CreatesNotificationAndValidatesConnection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	conn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderGitHub, models.IntegrationConnectionConfig{
		Kind:   models.ProviderGitHub,
		GitHub: &models.GitHubConfig{SyncNotificationsEnabled: true},
	})

	adapter := &fakeAdapter{
		kind: models.ProviderGitHub,
		items: []providers.FetchedItem{
			{SourceID: "thread-1", Data: models.ThirdPartyItemData{Kind: models.ItemKindGitHubNotification}, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		deriveNotification: func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Notification, bool) {
			return models.Notification{
				ID: models.NewID(), Title: "PR review requested", Kind: models.ProviderGitHub,
				Status: models.NotificationUnread, SourceItemID: item.ID, UpdatedAt: item.UpdatedAt,
				UserID: item.UserID, CreatedAt: item.CreatedAt,
			}, true
		},
	}
	registry := providers.NewRegistry(adapter)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))

	result, err := svc.SyncConnection(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Commit()

	item, err := store.FindThirdPartyItemBySourceID(ctx, tx, user.ID, conn.ID, models.ItemKindGitHubNotification, "thread-1")
	require.NoError(t, err)
	n, err := store.FindNotificationBySourceItem(ctx, tx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "PR review requested", n.Title)
	require.Equal(t, models.NotificationUnread, n.Status)

	updatedConn, err := store.GetIntegrationConnection(ctx, tx, conn.ID)
	require.NoError(t, err)
	require.Equal(t, models.ConnectionValidated, updatedConn.Status)
	require.NotNil(t, updatedConn.LastSyncCompletedAt)
}

func TestSyncConnection_PreservesDeletedNotificationUnlessResyncConfigured(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	conn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderGitHub, models.IntegrationConnectionConfig{
		Kind: models.ProviderGitHub, GitHub: &models.GitHubConfig{SyncNotificationsEnabled: true},
	})

	firstUpdate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	secondUpdate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	adapter := &fakeAdapter{
		kind: models.ProviderGitHub,
		items: []providers.FetchedItem{
			{SourceID: "thread-1", Data: models.ThirdPartyItemData{Kind: models.ItemKindGitHubNotification}, UpdatedAt: secondUpdate},
		},
		deriveNotification: func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Notification, bool) {
			return models.Notification{
				ID: models.NewID(), Title: "thread updated upstream", Kind: models.ProviderGitHub,
				Status: models.NotificationUnread, SourceItemID: item.ID, UpdatedAt: item.UpdatedAt,
				UserID: item.UserID, CreatedAt: item.CreatedAt,
			}, true
		},
	}
	registry := providers.NewRegistry(adapter)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(firstUpdate))

	// First pass creates the notification, then the user (or a push-side
	// effect) marks it Deleted.
	_, err := svc.SyncConnection(ctx, conn)
	require.NoError(t, err)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	item, err := store.FindThirdPartyItemBySourceID(ctx, tx, user.ID, conn.ID, models.ItemKindGitHubNotification, "thread-1")
	require.NoError(t, err)
	n, err := store.FindNotificationBySourceItem(ctx, tx, item.ID)
	require.NoError(t, err)
	_, err = store.UpdateNotificationStatus(ctx, tx, n.ID, models.NotificationDeleted)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// Second pass re-observes the same upstream item with a changed title;
	// the Deleted status must survive since ResyncDeletedOnChange is false.
	svc2 := NewService(store, registry, zap.NewNop(), fixedClock(secondUpdate))
	_, err = svc2.SyncConnection(ctx, conn)
	require.NoError(t, err)

	tx2, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx2.Commit()
	refreshed, err := store.FindNotificationBySourceItem(ctx, tx2, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationDeleted, refreshed.Status)
	require.Equal(t, "thread updated upstream", refreshed.Title)
}

func TestSyncConnection_ResyncOnChangeStillRequiresUpdatedAtToAdvance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	conn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderGitHub, models.IntegrationConnectionConfig{
		Kind: models.ProviderGitHub, GitHub: &models.GitHubConfig{SyncNotificationsEnabled: true},
		ResyncDeletedOnChange: true,
	})

	sameUpdate := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	adapter := &fakeAdapter{
		kind: models.ProviderGitHub,
		items: []providers.FetchedItem{
			{SourceID: "thread-1", Data: models.ThirdPartyItemData{Kind: models.ItemKindGitHubNotification}, UpdatedAt: sameUpdate},
		},
		deriveNotification: func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Notification, bool) {
			return models.Notification{
				ID: models.NewID(), Title: "thread", Kind: models.ProviderGitHub,
				Status: models.NotificationUnread, SourceItemID: item.ID, UpdatedAt: item.UpdatedAt,
				UserID: item.UserID, CreatedAt: item.CreatedAt,
			}, true
		},
	}
	registry := providers.NewRegistry(adapter)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(sameUpdate))

	_, err := svc.SyncConnection(ctx, conn)
	require.NoError(t, err)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	item, err := store.FindThirdPartyItemBySourceID(ctx, tx, user.ID, conn.ID, models.ItemKindGitHubNotification, "thread-1")
	require.NoError(t, err)
	n, err := store.FindNotificationBySourceItem(ctx, tx, item.ID)
	require.NoError(t, err)
	_, err = store.UpdateNotificationStatus(ctx, tx, n.ID, models.NotificationDeleted)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// Second pass re-observes the identical upstream item (same UpdatedAt):
	// even with ResyncDeletedOnChange true, a Deleted notification must not
	// revive because the source has not actually moved.
	svc2 := NewService(store, registry, zap.NewNop(), fixedClock(sameUpdate))
	_, err = svc2.SyncConnection(ctx, conn)
	require.NoError(t, err)

	tx2, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx2.Commit()
	refreshed, err := store.FindNotificationBySourceItem(ctx, tx2, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationDeleted, refreshed.Status,
		"resync opt-in alone must not revive a notification whose source updated_at hasn't advanced")
}

func TestSyncConnection_SweepsItemsTheProviderStoppedReturning(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	conn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderSlack, models.IntegrationConnectionConfig{
		Kind: models.ProviderSlack, Slack: &models.SlackConfig{SyncEnabled: true, SyncType: models.SlackSyncAsNotifications},
	})

	adapter := &fakeAdapter{
		kind: models.ProviderSlack,
		items: []providers.FetchedItem{
			{SourceID: "chan:123", Data: models.ThirdPartyItemData{Kind: models.ItemKindSlackStar}, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		deriveNotification: func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Notification, bool) {
			return models.Notification{
				ID: models.NewID(), Title: "starred message", Kind: models.ProviderSlack,
				Status: models.NotificationUnread, SourceItemID: item.ID, UpdatedAt: item.UpdatedAt,
				UserID: item.UserID, CreatedAt: item.CreatedAt,
			}, true
		},
	}
	registry := providers.NewRegistry(adapter)
	now := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(now))

	_, err := svc.SyncConnection(ctx, conn)
	require.NoError(t, err)

	// The star is no longer observed on the next pass (unstarred elsewhere).
	adapter.items = nil
	result, err := svc.SyncConnection(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Stale)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Commit()
	item, err := store.FindThirdPartyItemBySourceID(ctx, tx, user.ID, conn.ID, models.ItemKindSlackStar, "chan:123")
	require.NoError(t, err)
	n, err := store.FindNotificationBySourceItem(ctx, tx, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationDeleted, n.Status)
}

func TestSyncConnection_SweepsStaleTaskToDoneForDisappearanceMeansDoneProviders(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	conn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderLinear, models.IntegrationConnectionConfig{
		Kind: models.ProviderLinear, Linear: &models.LinearConfig{SyncTaskConfig: models.TaskSyncConfig{Enabled: true}},
	})

	adapter := &fakeAdapter{
		kind: models.ProviderLinear,
		items: []providers.FetchedItem{
			{SourceID: "issue-1", Data: models.ThirdPartyItemData{Kind: models.ItemKindLinearIssue}, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		deriveTask: func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Task, bool) {
			return models.Task{
				ID: models.NewID(), Title: "ENG-1 fix the thing", Status: models.TaskActive,
				Kind: models.ProviderLinear, Priority: models.TaskPriorityP2,
				SourceItemID: item.ID, UserID: item.UserID,
				CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt,
			}, true
		},
	}
	registry := providers.NewRegistry(adapter)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))

	_, err := svc.SyncConnection(ctx, conn)
	require.NoError(t, err)

	// The issue is no longer returned (e.g. it moved out of "assigned to me").
	adapter.items = nil
	result, err := svc.SyncConnection(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Stale)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Commit()
	item, err := store.FindThirdPartyItemBySourceID(ctx, tx, user.ID, conn.ID, models.ItemKindLinearIssue, "issue-1")
	require.NoError(t, err)
	task, err := store.FindTaskBySourceItem(ctx, tx, item.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskDone, task.Status, "a disappearance-means-done provider's stale task must resolve to Done, not Deleted")
}

func TestSyncConnection_MirrorsActiveTaskToTaskManagerSink(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)

	sourceConn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderLinear, models.IntegrationConnectionConfig{
		Kind: models.ProviderLinear,
		Linear: &models.LinearConfig{
			SyncTaskConfig: models.TaskSyncConfig{Enabled: true},
		},
	})
	sinkConn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderTodoist, models.IntegrationConnectionConfig{
		Kind: models.ProviderTodoist, Todoist: &models.TodoistConfig{SyncTasksEnabled: true},
	})
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	_, err = store.TransitionIntegrationConnectionStatus(ctx, tx, sinkConn.ID, models.ConnectionValidated, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	sourceAdapter := &fakeAdapter{
		kind: models.ProviderLinear,
		items: []providers.FetchedItem{
			{SourceID: "issue-1", Data: models.ThirdPartyItemData{Kind: models.ItemKindLinearIssue}, UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		deriveTask: func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Task, bool) {
			return models.Task{
				ID: models.NewID(), Title: "ENG-1 fix the thing", Status: models.TaskActive,
				Kind: models.ProviderLinear, Priority: models.TaskPriorityP2,
				SourceItemID: item.ID, UserID: item.UserID,
				CreatedAt: item.CreatedAt, UpdatedAt: item.UpdatedAt,
			}, true
		},
	}
	sinkAdapter := &fakeAdapter{
		kind: models.ProviderTodoist,
		pushTaskCreation: func(_ context.Context, _ models.IntegrationConnection, t models.Task) (string, error) {
			return "todoist-999", nil
		},
	}
	registry := providers.NewRegistry(sourceAdapter, sinkAdapter)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)))

	result, err := svc.SyncConnection(ctx, sourceConn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)

	tx2, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx2.Commit()
	sourceItem, err := store.FindThirdPartyItemBySourceID(ctx, tx2, user.ID, sourceConn.ID, models.ItemKindLinearIssue, "issue-1")
	require.NoError(t, err)
	task, err := store.FindTaskBySourceItem(ctx, tx2, sourceItem.ID)
	require.NoError(t, err)
	require.NotNil(t, task.SinkItemID)

	mirror, err := store.FindThirdPartyItemBySourceID(ctx, tx2, user.ID, sinkConn.ID, models.ItemKindTodoistItem, "todoist-999")
	require.NoError(t, err)
	require.Equal(t, *task.SinkItemID, mirror.ID)
	require.NotNil(t, mirror.SourceItemID)
	require.Equal(t, sourceItem.ID, *mirror.SourceItemID)
}

func TestTaskSweepStatus_DisappearanceMeansDoneByKind(t *testing.T) {
	for _, tc := range []struct {
		kind models.ThirdPartyItemKind
		want models.TaskStatus
	}{
		{models.ItemKindLinearIssue, models.TaskDone},
		{models.ItemKindTodoistItem, models.TaskDone},
		{models.ItemKindTickTickTask, models.TaskDone},
		{models.ItemKindSlackStar, models.TaskDone},
		{models.ItemKindGitHubNotification, models.TaskDeleted},
		{models.ItemKindGoogleMailThread, models.TaskDeleted},
		{models.ItemKindLinearNotification, models.TaskDeleted},
	} {
		require.Equal(t, tc.want, taskSweepStatus(tc.kind), "kind %s", tc.kind)
	}
}

func TestSyncConnection_MarksConnectionFailingOnListError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	conn := mustCreateConnection(t, ctx, store, user.ID, models.ProviderGitHub, models.IntegrationConnectionConfig{
		Kind: models.ProviderGitHub, GitHub: &models.GitHubConfig{SyncNotificationsEnabled: true},
	})

	registry := providers.NewRegistry(&failingAdapter{kind: models.ProviderGitHub})
	svc := NewService(store, registry, zap.NewNop(), fixedClock(time.Now()))

	_, err := svc.SyncConnection(ctx, conn)
	require.Error(t, err)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Commit()
	updated, err := store.GetIntegrationConnection(ctx, tx, conn.ID)
	require.NoError(t, err)
	require.Equal(t, models.ConnectionFailing, updated.Status)
	require.NotNil(t, updated.FailureMessage)
}

type failingAdapter struct{ kind models.ProviderKind }

func (a *failingAdapter) Kind() models.ProviderKind { return a.kind }
func (a *failingAdapter) ListForUser(context.Context, models.IntegrationConnection) ([]providers.FetchedItem, map[string]string, error) {
	return nil, nil, apperrors.NewRecoverable(string(a.kind), fmt.Errorf("upstream unavailable"))
}
func (a *failingAdapter) DeriveNotification(models.IntegrationConnection, models.ThirdPartyItem) (models.Notification, bool) {
	return models.Notification{}, false
}
func (a *failingAdapter) DeriveTask(models.IntegrationConnection, models.ThirdPartyItem) (models.Task, bool) {
	return models.Task{}, false
}
func (a *failingAdapter) PushNotificationStatus(context.Context, models.IntegrationConnection, models.Notification, models.ThirdPartyItem) error {
	return nil
}
func (a *failingAdapter) PushTaskCreation(context.Context, models.IntegrationConnection, models.Task) (string, error) {
	return "", fmt.Errorf("not a task manager")
}
func (a *failingAdapter) PushTaskUpdate(context.Context, models.IntegrationConnection, models.Task, models.ThirdPartyItem) error {
	return nil
}

var _ providers.Adapter = (*failingAdapter)(nil)
