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

package webhooks

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/db/sqlite"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
)

func newTestQueue(t *testing.T) *jobs.Queue {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn))
	return jobs.NewQueue(sqlite.NewStore(conn))
}

func TestHandleEvent_EnqueuesPayloadAndReturns200(t *testing.T) {
	queue := newTestQueue(t)
	h := New(zap.NewNop(), queue)
	r := chi.NewRouter()
	h.Register(r)

	body := []byte(`{"event":"star_added","channel":"C05XXX"}`)
	req := httptest.NewRequest(
		http.MethodPost, "/hooks/slack/events?connection_id=conn-1", bytes.NewReader(body),
	)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	stats, err := queue.Stats(req.Context(), jobs.QueueWebhookIngest)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.Pending)
}

func TestHandleEvent_RejectsMissingConnectionID(t *testing.T) {
	queue := newTestQueue(t)
	h := New(zap.NewNop(), queue)
	r := chi.NewRouter()
	h.Register(r)

	req := httptest.NewRequest(http.MethodPost, "/hooks/slack/events", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvent_EnqueuedArgsCarryProviderAndPayload(t *testing.T) {
	queue := newTestQueue(t)
	h := New(zap.NewNop(), queue)
	r := chi.NewRouter()
	h.Register(r)

	body := []byte(`{"event":"star_added"}`)
	req := httptest.NewRequest(
		http.MethodPost, "/hooks/slack/events?connection_id=conn-42", bytes.NewReader(body),
	)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	job, err := queue.Dequeue(req.Context(), jobs.QueueWebhookIngest)
	require.NoError(t, err)
	require.NotNil(t, job)

	var args jobs.WebhookIngestArgs
	require.NoError(t, json.Unmarshal(job.Payload, &args))
	require.Equal(t, "conn-42", args.ConnectionID)
	require.JSONEq(t, string(body), string(args.Payload))
}
