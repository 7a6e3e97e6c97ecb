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

package integrationconnections

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
	"github.com/octobud-hq/octobud/backend/internal/crypto"
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

func newTestEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	enc, err := crypto.NewEncryptor(bytes.Repeat([]byte{0x42}, crypto.KeySize))
	require.NoError(t, err)
	return enc
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

// stubSyncTrigger is a minimal SyncTrigger double so handler tests don't
// need the real orchestrator's ticking/backoff machinery.
type stubSyncTrigger struct {
	acquired bool
	err      error
	calls    []string
}

func (s *stubSyncTrigger) TriggerSync(_ context.Context, connectionID string) (bool, error) {
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
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(shared.AuthenticatedUserHeader, userID)
	return req
}

func TestHandleCreate_EncryptsTokenAndPersistsConnection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	h := New(zap.NewNop(), store, newTestEncryptor(t), func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }, &stubSyncTrigger{})
	router := newRouter(h)

	body, err := json.Marshal(createConnectionRequest{
		ProviderKind: models.ProviderGitHub,
		Config:       models.IntegrationConnectionConfig{Kind: models.ProviderGitHub},
		AccessToken:  "raw-token-value",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/integration-connections", body, user.ID))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.IntegrationConnection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, models.ConnectionCreated, created.Status)
	require.NotContains(t, rec.Body.String(), "raw-token-value")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	stored, err := store.GetIntegrationConnection(ctx, tx, created.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NotEqual(t, "raw-token-value", stored.AccessTokenEncrypted)
	require.NotEmpty(t, stored.AccessTokenEncrypted)
}

func TestHandleCreate_RejectsMissingProviderKind(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	h := New(zap.NewNop(), store, newTestEncryptor(t), time.Now, &stubSyncTrigger{})
	router := newRouter(h)

	body, err := json.Marshal(createConnectionRequest{AccessToken: "tok"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/integration-connections", body, user.ID))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGet_ReturnsNotFoundForUnknownID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	h := New(zap.NewNop(), store, newTestEncryptor(t), time.Now, &stubSyncTrigger{})
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/integration-connections/does-not-exist", nil, user.ID))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDisconnect_TransitionsStatus(t *testing.T) {
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
	require.NoError(t, tx.Commit())

	h := New(zap.NewNop(), store, newTestEncryptor(t), func() time.Time { return now }, &stubSyncTrigger{})
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/integration-connections/"+conn.ID, nil, user.ID))
	require.Equal(t, http.StatusNoContent, rec.Code)

	tx2, err := store.BeginTx(ctx)
	require.NoError(t, err)
	got, err := store.GetIntegrationConnection(ctx, tx2, conn.ID)
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())
	require.Equal(t, models.ConnectionDisconnected, got.Status)
}

func TestHandleTriggerSync_ReturnsConflictWhenAlreadyInFlight(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	conn, err := store.CreateIntegrationConnection(ctx, tx, models.IntegrationConnection{
		ID: models.NewID(), UserID: user.ID, ProviderKind: models.ProviderGitHub,
		Config: models.IntegrationConnectionConfig{Kind: models.ProviderGitHub},
		Status: models.ConnectionValidated, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	trigger := &stubSyncTrigger{acquired: false}
	h := New(zap.NewNop(), store, newTestEncryptor(t), func() time.Time { return now }, trigger)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/integration-connections/"+conn.ID+"/sync", nil, user.ID))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, []string{conn.ID}, trigger.calls)
}

func TestHandleTriggerSync_ReturnsAcceptedOnAcquire(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	user := mustCreateUser(t, ctx, store)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	conn, err := store.CreateIntegrationConnection(ctx, tx, models.IntegrationConnection{
		ID: models.NewID(), UserID: user.ID, ProviderKind: models.ProviderGitHub,
		Config: models.IntegrationConnectionConfig{Kind: models.ProviderGitHub},
		Status: models.ConnectionValidated, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	trigger := &stubSyncTrigger{acquired: true}
	h := New(zap.NewNop(), store, newTestEncryptor(t), func() time.Time { return now }, trigger)
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/integration-connections/"+conn.ID+"/sync", nil, user.ID))
	require.Equal(t, http.StatusAccepted, rec.Code)
}
