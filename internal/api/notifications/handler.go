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

// Package notifications provides the Notification HTTP surface of spec
// §6.2: listing, direct insert, patching, sync triggering, and
// promote-to-task.
package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/api/shared"
	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/sync"
)

// Dispatcher is the subset of internal/actions.Dispatcher this handler
// needs, kept narrow so tests can substitute a stub.
type Dispatcher interface {
	PatchNotification(ctx context.Context, id string, patch models.NotificationPatch) (models.Notification, bool, error)
}

// Syncer is the subset of internal/sync.Service needed for the
// synchronous branch of POST /notifications/sync.
type Syncer interface {
	SyncConnection(ctx context.Context, conn models.IntegrationConnection) (sync.Result, error)
}

// SyncTrigger is the subset of internal/orchestrator.Orchestrator needed
// for the asynchronous branch of POST /notifications/sync and for
// trigger_sync=true on GET /notifications.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, connectionID string) (bool, error)
}

// Handler handles notification HTTP routes.
type Handler struct {
	logger     *zap.Logger
	store      db.Store
	dispatcher Dispatcher
	syncer     Syncer
	trigger    SyncTrigger
	clock      func() time.Time
}

// New creates a notifications Handler.
func New(
	logger *zap.Logger, store db.Store, dispatcher Dispatcher, syncer Syncer, trigger SyncTrigger, clock func() time.Time,
) *Handler {
	return &Handler{logger: logger, store: store, dispatcher: dispatcher, syncer: syncer, trigger: trigger, clock: clock}
}

// Register mounts notification routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Post("/sync", h.handleSync)
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", h.handlePatch)
			r.Post("/task", h.handlePromoteToTask)
		})
	})
}

type createNotificationRequest struct {
	Title        string                    `json:"title"`
	Kind         models.ProviderKind       `json:"kind"`
	Status       models.NotificationStatus `json:"status"`
	SourceItemID string                    `json:"sourceItemId"`
	HTMLURL      string                    `json:"htmlUrl,omitempty"`
}

type patchNotificationRequest struct {
	Status       *models.NotificationStatus `json:"status,omitempty"`
	SnoozedUntil **time.Time                `json:"snoozedUntil,omitempty"`
}

type syncRequest struct {
	Source       *models.ProviderKind `json:"source,omitempty"`
	Asynchronous bool                 `json:"asynchronous"`
}

type promoteToTaskRequest struct {
	Title    *string              `json:"title,omitempty"`
	Priority *models.TaskPriority `json:"priority,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.RequireUserID(ctx, w)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := db.NotificationFilter{
		UserID:                      userID,
		Statuses:                    parseStatuses(q.Get("status")),
		IncludeSnoozedNotifications: q.Get("include_snoozed_notifications") == "true",
		Sources:                     parseSources(q.Get("sources")),
		Limit:                       parseIntOr(q.Get("limit"), 50),
		Offset:                      parseIntOr(q.Get("offset"), 0),
	}
	if taskID := q.Get("task_id"); taskID != "" {
		filter.TaskID = &taskID
	}

	if q.Get("trigger_sync") == "true" {
		h.triggerSyncForUser(ctx, userID, nil)
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	defer tx.Commit() //nolint:errcheck // read-only transaction

	notifications, err := h.store.ListNotifications(ctx, tx, filter)
	if err != nil {
		h.logger.Error("list notifications failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.RequireUserID(ctx, w)
	if !ok {
		return
	}

	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceItemID == "" || req.Title == "" {
		shared.WriteError(w, http.StatusBadRequest, "title and sourceItemId are required")
		return
	}
	status := req.Status
	if status == "" {
		status = models.NotificationUnread
	}

	now := h.clock()
	var created models.Notification
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = h.store.CreateNotification(ctx, tx, models.Notification{
			ID:           models.NewID(),
			Title:        req.Title,
			Kind:         req.Kind,
			Status:       status,
			SourceItemID: req.SourceItemID,
			HTMLURL:      req.HTMLURL,
			UserID:       userID,
			UpdatedAt:    now,
			CreatedAt:    now,
		})
		return err
	})
	if err != nil {
		writeStoreError(w, h.logger, "create notification", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req patchNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, changed, err := h.dispatcher.PatchNotification(ctx, id, models.NotificationPatch{
		Status:       req.Status,
		SnoozedUntil: req.SnoozedUntil,
	})
	if err != nil {
		writeStoreError(w, h.logger, "patch notification", err)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

// handleSync implements POST /notifications/sync: synchronous runs await
// the sync and return aggregated results, asynchronous runs enqueue via
// the orchestrator's single-flight trigger and return immediately.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.RequireUserID(ctx, w)
	if !ok {
		return
	}

	var req syncRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			shared.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	conns, err := h.connectionsForUser(ctx, userID, req.Source)
	if err != nil {
		h.logger.Error("list connections for sync failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to trigger sync")
		return
	}

	if req.Asynchronous {
		for _, conn := range conns {
			if _, err := h.trigger.TriggerSync(ctx, conn.ID); err != nil {
				h.logger.Warn("trigger sync failed", zap.String("connectionID", conn.ID), zap.Error(err))
			}
		}
		w.WriteHeader(http.StatusCreated)
		return
	}

	aggregate := sync.Result{}
	for _, conn := range conns {
		result, err := h.syncer.SyncConnection(ctx, conn)
		if err != nil {
			h.logger.Warn("synchronous sync failed", zap.String("connectionID", conn.ID), zap.Error(err))
			continue
		}
		aggregate.Created += result.Created
		aggregate.Updated += result.Updated
		aggregate.Untouched += result.Untouched
		aggregate.Stale += result.Stale
	}
	shared.WriteJSON(w, http.StatusOK, aggregate)
}

// handlePromoteToTask atomically creates a Task carrying the
// notification's identity and links it back via TaskID, per spec §6.2's
// "promote a notification to a task; atomic".
func (h *Handler) handlePromoteToTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req promoteToTaskRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			shared.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	now := h.clock()
	var task models.Task
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		n, err := h.store.GetNotification(ctx, tx, id)
		if err != nil {
			return err
		}
		if n.TaskID != nil {
			return apperrors.NewAlreadyExists("task", *n.TaskID)
		}

		title := n.Title
		if req.Title != nil {
			title = *req.Title
		}
		priority := models.TaskPriorityP3
		if req.Priority != nil {
			priority = *req.Priority
		}

		task, err = h.store.CreateTask(ctx, tx, models.Task{
			ID:           models.NewID(),
			Title:        title,
			Status:       models.TaskActive,
			Kind:         n.Kind,
			Priority:     priority,
			SourceItemID: n.SourceItemID,
			UserID:       n.UserID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}

		taskID := task.ID
		_, err = h.store.UpdateNotificationTaskID(ctx, tx, id, &taskID)
		return err
	})
	if err != nil {
		writeStoreError(w, h.logger, "promote notification to task", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, task)
}

func (h *Handler) triggerSyncForUser(ctx context.Context, userID string, source *models.ProviderKind) {
	conns, err := h.connectionsForUser(ctx, userID, source)
	if err != nil {
		h.logger.Warn("list connections for trigger_sync failed", zap.Error(err))
		return
	}
	for _, conn := range conns {
		if _, err := h.trigger.TriggerSync(ctx, conn.ID); err != nil {
			h.logger.Warn("trigger_sync failed", zap.String("connectionID", conn.ID), zap.Error(err))
		}
	}
}

func (h *Handler) connectionsForUser(
	ctx context.Context, userID string, source *models.ProviderKind,
) ([]models.IntegrationConnection, error) {
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Commit() //nolint:errcheck // read-only transaction

	all, err := h.store.ListIntegrationConnectionsByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	var filtered []models.IntegrationConnection
	for _, conn := range all {
		if conn.Status != models.ConnectionValidated && conn.Status != models.ConnectionFailing {
			continue
		}
		if source != nil && conn.ProviderKind != *source {
			continue
		}
		filtered = append(filtered, conn)
	}
	return filtered, nil
}

func (h *Handler) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func parseStatuses(csv string) []models.NotificationStatus {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	statuses := make([]models.NotificationStatus, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			statuses = append(statuses, models.NotificationStatus(p))
		}
	}
	return statuses
}

func parseSources(csv string) []models.ProviderKind {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	sources := make([]models.ProviderKind, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sources = append(sources, models.ProviderKind(p))
		}
	}
	return sources
}

func parseIntOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func writeStoreError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	switch {
	case apperrors.IsNotFound(err):
		shared.WriteError(w, http.StatusNotFound, "notification not found")
	case apperrors.IsAlreadyExists(err):
		shared.WriteError(w, http.StatusBadRequest, err.Error())
	case apperrors.IsInvalidInput(err):
		shared.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(op+" failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to "+op)
	}
}
