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

package notifications

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/octobud-hq/octobud/backend/internal/api/shared"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/db/sqlite"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/sync"
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

func mustCreateUser(t *testing.T, ctx context.Context, store db.Store) models.User {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	u, err := store.CreateUser(ctx, tx, models.User{
		ID: models.NewID(), Email: "user@example.com", AuthMethod: "test", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return u
}

func mustCreateNotification(t *testing.T, ctx context.Context, store db.Store, userID string) models.Notification {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	n, err := store.CreateNotification(ctx, tx, models.Notification{
		ID: models.NewID(), Title: "PR review requested", Kind: models.ProviderGitHub,
		Status: models.NotificationUnread, SourceItemID: models.NewID(),
		UserID: userID, UpdatedAt: now, CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return n
}

type stubDispatcher struct {
	result  models.Notification
	changed bool
	err     error
}

func (s *stubDispatcher) PatchNotification(
	context.Context, string, models.NotificationPatch,
) (models.Notification, bool, error) {
	return s.result, s.changed, s.err
}

type stubSyncer struct {
	result sync.Result
	err    error
	calls  []string
}

func (s *stubSyncer) SyncConnection(_ context.Context, conn models.IntegrationConnection) (sync.Result, error) {
	s.calls = append(s.calls, conn.ID)
	return s.result, s.err
}

type stubTrigger struct {
	acquired bool
	err      error
	calls    []string
}

func (s *stubTrigger) TriggerSync(_ context.Context, connectionID string) (bool, error) {
	s.calls = append(s.calls, connectionID)
	return s.acquired, s.err
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(shared.RequireUser)
	h.Register(r)
	return r
}

func authedRequest(method, path string, body []byte, userID string) *http.Request {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(shared.AuthenticatedUserHeader, userID)
	return req
}

func TestHandleList_FiltersByStatusAndSnooze(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	mustCreateNotification(t, ctx, store, user.ID)

	h := New(zap.NewNop(), store, &stubDispatcher{}, &stubSyncer{}, &stubTrigger{}, time.Now)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/notifications?status=Unread", nil, user.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Notifications, 1)
}

func TestHandlePatch_ReturnsNotModifiedWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	n := mustCreateNotification(t, ctx, store, user.ID)

	dispatcher := &stubDispatcher{result: n, changed: false}
	h := New(zap.NewNop(), store, dispatcher, &stubSyncer{}, &stubTrigger{}, time.Now)
	router := newRouter(h)

	body, err := json.Marshal(patchNotificationRequest{Status: &n.Status})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/notifications/"+n.ID, body, user.ID))
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHandlePatch_ReturnsUpdatedBody(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	n := mustCreateNotification(t, ctx, store, user.ID)

	read := models.NotificationRead
	updated := n
	updated.Status = read
	dispatcher := &stubDispatcher{result: updated, changed: true}
	h := New(zap.NewNop(), store, dispatcher, &stubSyncer{}, &stubTrigger{}, time.Now)
	router := newRouter(h)

	body, err := json.Marshal(patchNotificationRequest{Status: &read})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/notifications/"+n.ID, body, user.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, models.NotificationRead, got.Status)
}

func TestHandleSync_AsynchronousTriggersAndReturns201(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	conn, err := store.CreateIntegrationConnection(ctx, tx, models.IntegrationConnection{
		ID: models.NewID(), UserID: user.ID, ProviderKind: models.ProviderGitHub,
		Config: models.IntegrationConnectionConfig{Kind: models.ProviderGitHub},
		Status: models.ConnectionCreated, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	_, err = store.TransitionIntegrationConnectionStatus(ctx, tx, conn.ID, models.ConnectionValidated, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	trigger := &stubTrigger{acquired: true}
	h := New(zap.NewNop(), store, &stubDispatcher{}, &stubSyncer{}, trigger, func() time.Time { return now })
	router := newRouter(h)

	body, err := json.Marshal(syncRequest{Asynchronous: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/notifications/sync", body, user.ID))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{conn.ID}, trigger.calls)
}

func TestHandleSync_SynchronousAggregatesResults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	_, err = store.CreateIntegrationConnection(ctx, tx, models.IntegrationConnection{
		ID: models.NewID(), UserID: user.ID, ProviderKind: models.ProviderGitHub,
		Config: models.IntegrationConnectionConfig{Kind: models.ProviderGitHub},
		Status: models.ConnectionValidated, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	syncer := &stubSyncer{result: sync.Result{Created: 2, Updated: 1}}
	h := New(zap.NewNop(), store, &stubDispatcher{}, syncer, &stubTrigger{}, func() time.Time { return now })
	router := newRouter(h)

	body, err := json.Marshal(syncRequest{Asynchronous: false})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/notifications/sync", body, user.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var result sync.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 2, result.Created)
	require.Equal(t, 1, result.Updated)
	require.Len(t, syncer.calls, 1)
}

func TestHandlePromoteToTask_CreatesTaskAndLinksNotification(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	n := mustCreateNotification(t, ctx, store, user.ID)

	h := New(zap.NewNop(), store, &stubDispatcher{}, &stubSyncer{}, &stubTrigger{}, time.Now)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/notifications/"+n.ID+"/task", nil, user.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	require.Equal(t, n.Title, task.Title)
	require.Equal(t, models.TaskActive, task.Status)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	refreshed, err := store.GetNotification(ctx, tx, n.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NotNil(t, refreshed.TaskID)
	require.Equal(t, task.ID, *refreshed.TaskID)
}

func TestHandlePromoteToTask_RejectsAlreadyPromoted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	n := mustCreateNotification(t, ctx, store, user.ID)

	h := New(zap.NewNop(), store, &stubDispatcher{}, &stubSyncer{}, &stubTrigger{}, time.Now)
	router := newRouter(h)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, authedRequest(http.MethodPost, "/notifications/"+n.ID+"/task", nil, user.ID))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, authedRequest(http.MethodPost, "/notifications/"+n.ID+"/task", nil, user.ID))
	require.Equal(t, http.StatusBadRequest, second.Code)
}
