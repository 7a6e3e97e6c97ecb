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

// Package api wires the resource handler packages onto a chi.Router.
package api //nolint:revive // This is a package.

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/api/integrationconnections"
	"github.com/octobud-hq/octobud/backend/internal/api/notifications"
	"github.com/octobud-hq/octobud/backend/internal/api/shared"
	"github.com/octobud-hq/octobud/backend/internal/api/tasks"
	"github.com/octobud-hq/octobud/backend/internal/api/webhooks"
	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/jobs"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/sync"
)

// Dispatcher is the subset of internal/actions.Dispatcher the resource
// handlers need: patch-then-push for notifications and tasks, plus the
// retry path a background job uses after a push failure.
type Dispatcher interface {
	PatchNotification(
		ctx context.Context, id string, patch models.NotificationPatch,
	) (models.Notification, bool, error)
	PatchTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, bool, error)
}

// Syncer is the subset of internal/sync.Service the notifications handler
// needs for its synchronous POST /notifications/sync branch.
type Syncer interface {
	SyncConnection(ctx context.Context, conn models.IntegrationConnection) (sync.Result, error)
}

// SyncTrigger is the subset of internal/orchestrator.Orchestrator the
// integration-connections and notifications handlers need to kick off an
// asynchronous sync without importing the orchestrator's scheduling
// internals.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, connectionID string) (bool, error)
}

// Enqueuer is the subset of internal/jobs.Queue the webhook receiver needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, params jobs.EnqueueParams) (int64, error)
}

// Handler wires the per-resource handler packages together.
type Handler struct {
	logger *zap.Logger

	integrationConnectionsH *integrationconnections.Handler
	notificationsH          *notifications.Handler
	tasksH                  *tasks.Handler
	webhooksH               *webhooks.Handler
}

// NewHandler builds a Handler backed by the given store and collaborators.
// store is the durable database layer; registry, queue, dispatcher, syncer
// and trigger are the sync/action/orchestration engine's entrypoints
// (internal/providers.Registry, internal/jobs.Queue,
// internal/actions.Dispatcher, internal/sync.Service and
// internal/orchestrator.Orchestrator respectively); encryptor wraps
// connection access tokens at rest.
func NewHandler(
	logger *zap.Logger,
	store db.Store,
	encryptor *crypto.Encryptor,
	queue Enqueuer,
	dispatcher Dispatcher,
	syncer Syncer,
	trigger SyncTrigger,
	clock func() time.Time,
) *Handler {
	return &Handler{
		logger:                  logger,
		integrationConnectionsH: integrationconnections.New(logger, store, encryptor, clock, trigger),
		notificationsH:          notifications.New(logger, store, dispatcher, syncer, trigger, clock),
		tasksH:                  tasks.New(logger, store, dispatcher, clock),
		webhooksH:               webhooks.New(logger, queue),
	}
}

// Register attaches every authenticated resource route to r, then mounts
// the unauthenticated webhook receiver. The caller is expected to have
// already scoped r to the API's path prefix (e.g. via router.Route("/api",
// ...)), matching the teacher's mount-one-subrouter-per-resource shape.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireUser)
		h.integrationConnectionsH.Register(r)
		h.notificationsH.Register(r)
		h.tasksH.Register(r)
	})

	// Webhook receivers authenticate via a per-connection identifier
	// supplied by the provider, not a user session, so they sit outside
	// the RequireUser group (see internal/api/webhooks).
	h.webhooksH.Register(r)
}
