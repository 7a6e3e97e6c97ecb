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

package tasks

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

func mustCreateTask(t *testing.T, ctx context.Context, store db.Store, userID string) models.Task {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	task, err := store.CreateTask(ctx, tx, models.Task{
		ID: models.NewID(), Title: "Fix flaky test", Status: models.TaskActive,
		Kind: models.ProviderGitHub, Priority: models.TaskPriorityP2,
		SourceItemID: models.NewID(), UserID: userID, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return task
}

type stubDispatcher struct {
	result  models.Task
	changed bool
	err     error
}

func (s *stubDispatcher) PatchTask(context.Context, string, models.TaskPatch) (models.Task, bool, error) {
	return s.result, s.changed, s.err
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(shared.RequireUser)
	h.Register(r)
	return r
}

func authedRequest(method, path string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(shared.AuthenticatedUserHeader, userID)
	return req
}

func TestHandleList_ReturnsTasksForUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	mustCreateTask(t, ctx, store, user.ID)

	h := New(zap.NewNop(), store, &stubDispatcher{}, time.Now)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/tasks?status=Active", nil, user.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tasks []models.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
}

func TestHandleGet_ReturnsNotFoundForUnknownID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)

	h := New(zap.NewNop(), store, &stubDispatcher{}, time.Now)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/tasks/does-not-exist", nil, user.ID))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreate_PersistsTask(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)

	h := New(zap.NewNop(), store, &stubDispatcher{}, func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) })
	router := newRouter(h)

	body, err := json.Marshal(createTaskRequest{
		Title: "Write release notes", Kind: models.ProviderLinear, SourceItemID: models.NewID(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/tasks", body, user.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "Write release notes", created.Title)
	require.Equal(t, models.TaskPriorityP3, created.Priority)
}

func TestHandlePatch_ReturnsNotModifiedWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	task := mustCreateTask(t, ctx, store, user.ID)

	dispatcher := &stubDispatcher{result: task, changed: false}
	h := New(zap.NewNop(), store, dispatcher, time.Now)
	router := newRouter(h)

	status := task.Status
	body, err := json.Marshal(patchTaskRequest{Status: &status})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/tasks/"+task.ID, body, user.ID))
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHandlePatch_ReturnsUpdatedBody(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	task := mustCreateTask(t, ctx, store, user.ID)

	done := models.TaskDone
	updated := task
	updated.Status = done
	dispatcher := &stubDispatcher{result: updated, changed: true}
	h := New(zap.NewNop(), store, dispatcher, time.Now)
	router := newRouter(h)

	body, err := json.Marshal(patchTaskRequest{Status: &done})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPatch, "/tasks/"+task.ID, body, user.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, models.TaskDone, got.Status)
}
