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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/db/mocks"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

// These tests force store-layer failures that a real SQLite connection
// won't produce on demand (a dropped connection, a corrupt row), the way
// the teacher's internal/core/syncstate tests use a mocked Store.

var errStoreUnavailable = errors.New("store: connection reset")

// newTestTx opens a throwaway real transaction so MockStore's BeginTx
// expectations can return something withTx can legally Commit/Rollback;
// nothing is ever queried through it.
func newTestTx(t *testing.T) *sql.Tx {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	tx, err := conn.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	return tx
}

func TestSyncConnection_MarkSyncStartedFailureIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	conn := models.IntegrationConnection{
		ID: models.NewID(), UserID: models.NewID(), ProviderKind: models.ProviderGitHub,
		Status: models.ConnectionCreated,
	}

	store.EXPECT().BeginTx(gomock.Any()).DoAndReturn(func(context.Context) (*sql.Tx, error) {
		return newTestTx(t), nil
	}).AnyTimes()
	store.EXPECT().MarkSyncStarted(gomock.Any(), gomock.Any(), conn.ID, gomock.Any()).
		Return(errStoreUnavailable)

	adapter := &fakeAdapter{kind: models.ProviderGitHub}
	registry := providers.NewRegistry(adapter)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(time.Now()))

	_, err := svc.SyncConnection(context.Background(), conn)
	require.Error(t, err)
	require.ErrorIs(t, err, errStoreUnavailable)
}

func TestSyncConnection_UpsertFailureSkipsItemButContinuesSync(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)

	conn := models.IntegrationConnection{
		ID: models.NewID(), UserID: models.NewID(), ProviderKind: models.ProviderGitHub,
		Status: models.ConnectionValidated,
	}
	item := providers.FetchedItem{
		SourceID: "thread-1",
		Data: models.ThirdPartyItemData{
			Kind:               models.ItemKindGitHubNotification,
			GitHubNotification: &models.GitHubNotificationData{ThreadID: "thread-1"},
		},
	}

	store.EXPECT().BeginTx(gomock.Any()).DoAndReturn(func(context.Context) (*sql.Tx, error) {
		return newTestTx(t), nil
	}).AnyTimes()
	store.EXPECT().MarkSyncStarted(gomock.Any(), gomock.Any(), conn.ID, gomock.Any()).Return(nil)
	store.EXPECT().UpsertThirdPartyItem(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(db.UpsertResult{}, errStoreUnavailable)
	store.EXPECT().ListStaleThirdPartyItems(gomock.Any(), gomock.Any(), conn.ID, models.ItemKindGitHubNotification, []string{"thread-1"}).
		Return(nil, nil)
	store.EXPECT().UpdateIntegrationConnectionContext(gomock.Any(), gomock.Any(), conn.ID, gomock.Any()).Return(nil)
	store.EXPECT().MarkSyncCompleted(gomock.Any(), gomock.Any(), conn.ID, gomock.Any()).Return(nil)

	adapter := &fakeAdapter{kind: models.ProviderGitHub, items: []providers.FetchedItem{item}}
	registry := providers.NewRegistry(adapter)
	svc := NewService(store, registry, zap.NewNop(), fixedClock(time.Now()))

	result, err := svc.SyncConnection(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, Result{}, result)
}
