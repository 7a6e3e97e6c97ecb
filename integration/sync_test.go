//go:build test && integration

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

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/octobud-hq/octobud/backend/integration/fixtures"
	"github.com/octobud-hq/octobud/backend/integration/testserver"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

// These tests exercise internal/sync.Service directly against a fake
// provider adapter, the way spec §8's scenarios describe a sync pass:
// create on first sight, merge on a later pass, sweep what the provider
// stops returning.

var errAdapterUnavailable = errors.New("fixture: provider unavailable")

func newGithubNotificationItem(sourceID, title string, updatedAt time.Time) providers.FetchedItem {
	return providers.FetchedItem{
		SourceID:  sourceID,
		UpdatedAt: updatedAt,
		Data: models.ThirdPartyItemData{
			Kind: models.ItemKindGitHubNotification,
			GitHubNotification: &models.GitHubNotificationData{
				ThreadID:           sourceID,
				Reason:             "subscribed",
				Unread:             true,
				UpdatedAt:          updatedAt,
				SubjectTitle:       title,
				SubjectType:        "PullRequest",
				SubjectURL:         "https://api.github.com/repos/acme/widgets/pulls/1",
				RepositoryFullName: "acme/widgets",
				URL:                "https://api.github.com/notifications/threads/" + sourceID,
			},
		},
	}
}

func deriveGithubNotification(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Notification, bool) {
	data := item.Data.GitHubNotification
	if data == nil {
		return models.Notification{}, false
	}
	status := models.NotificationUnread
	if !data.Unread {
		status = models.NotificationRead
	}
	return models.Notification{
		Title:        data.SubjectTitle,
		Kind:         models.ProviderGitHub,
		Status:       status,
		SourceItemID: item.ID,
		UserID:       conn.UserID,
		UpdatedAt:    item.UpdatedAt,
	}, true
}

func newGithubFixture(t *testing.T) (*testserver.TestServer, *fixtures.FakeAdapter, models.IntegrationConnection) {
	t.Helper()
	adapter := fixtures.NewFakeAdapter(models.ProviderGitHub)
	adapter.DeriveNotificationFunc = deriveGithubNotification

	ts := testserver.NewSQLite(t, adapter)
	t.Cleanup(ts.Cleanup)

	conn := fixtures.NewIntegrationConnection(models.ProviderGitHub).
		WithConfig(models.IntegrationConnectionConfig{
			GitHub: &models.GitHubConfig{SyncNotificationsEnabled: true},
		}).
		Build(t, context.Background(), ts.Store, ts.UserID)

	return ts, adapter, conn
}

func TestSyncConnection_CreatesNotificationFromFetchedItem(t *testing.T) {
	ts, adapter, conn := newGithubFixture(t)
	ctx := context.Background()

	updatedAt := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	adapter.Items = []providers.FetchedItem{newGithubNotificationItem("thread-1", "Fix the thing", updatedAt)}

	result, err := ts.Sync.SyncConnection(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Equal(t, 0, result.Updated)

	tx, err := ts.Store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	notifications, err := ts.Store.ListNotifications(ctx, tx, db.NotificationFilter{UserID: ts.UserID})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "Fix the thing", notifications[0].Title)
	require.Equal(t, models.NotificationUnread, notifications[0].Status)
}

func TestSyncConnection_SecondPassWithUnchangedItemIsUntouched(t *testing.T) {
	ts, adapter, conn := newGithubFixture(t)
	ctx := context.Background()

	updatedAt := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	item := newGithubNotificationItem("thread-1", "Fix the thing", updatedAt)
	adapter.Items = []providers.FetchedItem{item}

	_, err := ts.Sync.SyncConnection(ctx, conn)
	require.NoError(t, err)

	result, err := ts.Sync.SyncConnection(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, 0, result.Created)
	require.Equal(t, 0, result.Updated)
	require.Equal(t, 1, result.Untouched)
}

func TestSyncConnection_ChangedItemRefreshesNotificationTitle(t *testing.T) {
	ts, adapter, conn := newGithubFixture(t)
	ctx := context.Background()

	firstUpdatedAt := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
	adapter.Items = []providers.FetchedItem{newGithubNotificationItem("thread-1", "Original title", firstUpdatedAt)}

	_, err := ts.Sync.SyncConnection(ctx, conn)
	require.NoError(t, err)

	secondUpdatedAt := time.Now().UTC().Truncate(time.Second)
	adapter.Items = []providers.FetchedItem{newGithubNotificationItem("thread-1", "Updated title", secondUpdatedAt)}

	result, err := ts.Sync.SyncConnection(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Updated)

	tx, err := ts.Store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	notifications, err := ts.Store.ListNotifications(ctx, tx, db.NotificationFilter{UserID: ts.UserID})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, "Updated title", notifications[0].Title)
}

func TestSyncConnection_StaleSweepDeletesNotificationNoLongerReturned(t *testing.T) {
	ts, adapter, conn := newGithubFixture(t)
	ctx := context.Background()

	updatedAt := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	adapter.Items = []providers.FetchedItem{newGithubNotificationItem("thread-1", "Fix the thing", updatedAt)}

	_, err := ts.Sync.SyncConnection(ctx, conn)
	require.NoError(t, err)

	// The provider's next page no longer includes thread-1 (e.g. it was
	// unsubscribed upstream) but does still return another thread of the
	// same kind; the stale sweep only considers kinds actually observed in
	// a pass, so thread-1 is only caught because thread-2 keeps that kind
	// present in this pass's observed set.
	adapter.Items = []providers.FetchedItem{newGithubNotificationItem("thread-2", "Unrelated thread", updatedAt)}

	result, err := ts.Sync.SyncConnection(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, 1, result.Stale)

	tx, err := ts.Store.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	notifications, err := ts.Store.ListNotifications(ctx, tx, db.NotificationFilter{
		UserID:                      ts.UserID,
		Statuses:                    []models.NotificationStatus{models.NotificationDeleted},
		IncludeSnoozedNotifications: true,
	})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, models.NotificationDeleted, notifications[0].Status)
}

func TestSyncConnection_ProviderErrorTransitionsConnectionToFailing(t *testing.T) {
	adapter := fixtures.NewFakeAdapter(models.ProviderGitHub)
	adapter.ListErr = errAdapterUnavailable

	ts := testserver.NewSQLite(t, adapter)
	t.Cleanup(ts.Cleanup)

	conn := fixtures.NewIntegrationConnection(models.ProviderGitHub).
		WithConfig(models.IntegrationConnectionConfig{
			GitHub: &models.GitHubConfig{SyncNotificationsEnabled: true},
		}).
		Build(t, context.Background(), ts.Store, ts.UserID)

	_, err := ts.Sync.SyncConnection(context.Background(), conn)
	require.Error(t, err)

	tx, err := ts.Store.BeginTx(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	refreshed, err := ts.Store.GetIntegrationConnection(context.Background(), tx, conn.ID)
	require.NoError(t, err)
	require.Equal(t, models.ConnectionFailing, refreshed.Status)
	require.NotNil(t, refreshed.FailureMessage)
}
