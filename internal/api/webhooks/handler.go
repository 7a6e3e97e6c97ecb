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

// Package webhooks provides the provider webhook receiver of spec §6.2:
// `POST /hooks/<provider>/events`. The handler's job is narrow by design
// (spec §4.5/§4.6) — durably enqueue the raw payload and return quickly;
// a provider-specific internal/jobs worker does the actual ingest so a
// slow or misbehaving provider never holds an HTTP connection open.
package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/api/shared"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

// Enqueuer is the subset of internal/jobs.Queue this handler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, params jobs.EnqueueParams) (int64, error)
}

// Handler handles provider webhook receiver routes.
type Handler struct {
	logger *zap.Logger
	queue  Enqueuer
}

// New creates a webhooks Handler.
func New(logger *zap.Logger, queue Enqueuer) *Handler {
	return &Handler{logger: logger, queue: queue}
}

// Register mounts webhook routes on r. Unlike the other resource
// handlers, these routes are NOT behind shared.RequireUser: a provider
// has no session with us, only whatever per-connection identifier it
// was configured to echo back (spec §4.5's webhook ingest path).
func (h *Handler) Register(r chi.Router) {
	r.Route("/hooks", func(r chi.Router) {
		r.Post("/{provider}/events", h.handleEvent)
	})
}

// handleEvent durably enqueues the webhook payload and returns 200.
// Per spec §6.2, the response is 200 unless the request is malformed;
// ingest failures (unknown connection, bad signature, parse errors)
// happen downstream in the QueueWebhookIngest job handler and are never
// surfaced to the provider as a non-200, since providers commonly
// disable or backoff a webhook subscription on repeated error statuses.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := models.ProviderKind(chi.URLParam(r, "provider"))
	connectionID := r.URL.Query().Get("connection_id")
	if connectionID == "" {
		shared.WriteError(w, http.StatusBadRequest, "connection_id is required")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		shared.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	args := jobs.WebhookIngestArgs{ConnectionID: connectionID, ProviderKind: provider, Payload: payload}
	marshaled, err := json.Marshal(args)
	if err != nil {
		h.logger.Error("marshal webhook ingest args failed", zap.Error(err))
		shared.WriteError(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}

	if _, err := h.queue.Enqueue(ctx, jobs.EnqueueParams{
		Queue:       jobs.QueueWebhookIngest,
		Payload:     marshaled,
		MaxAttempts: jobs.DefaultMaxAttempts,
	}); err != nil {
		h.logger.Error("enqueue webhook ingest failed", zap.String("provider", string(provider)), zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to accept webhook")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// maxPayloadBytes bounds a single webhook body; every provider in spec
// §6.1 sends small JSON event payloads, so this is generous headroom
// rather than a tuned limit.
const maxPayloadBytes = 1 << 20
