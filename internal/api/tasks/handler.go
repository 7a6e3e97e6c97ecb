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

// Package tasks provides the Task HTTP surface of spec §6.2's "analogous
// /tasks endpoints" — listing, direct insert, and patching, mirroring
// internal/api/notifications' shape for the Task side of the model.
package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
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
)

// Dispatcher is the subset of internal/actions.Dispatcher this handler
// needs, kept narrow so tests can substitute a stub.
type Dispatcher interface {
	PatchTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, bool, error)
}

// Handler handles task HTTP routes.
type Handler struct {
	logger     *zap.Logger
	store      db.Store
	dispatcher Dispatcher
	clock      func() time.Time
}

// New creates a tasks Handler.
func New(logger *zap.Logger, store db.Store, dispatcher Dispatcher, clock func() time.Time) *Handler {
	return &Handler{logger: logger, store: store, dispatcher: dispatcher, clock: clock}
}

// Register mounts task routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handlePatch)
		})
	})
}

type createTaskRequest struct {
	Title        string              `json:"title"`
	Body         string              `json:"body,omitempty"`
	Kind         models.ProviderKind `json:"kind"`
	Priority     models.TaskPriority `json:"priority"`
	Project      string              `json:"project,omitempty"`
	SourceItemID string              `json:"sourceItemId"`
}

type patchTaskRequest struct {
	Status   *models.TaskStatus   `json:"status,omitempty"`
	Title    *string              `json:"title,omitempty"`
	Body     *string              `json:"body,omitempty"`
	Project  *string              `json:"project,omitempty"`
	DueAt    **models.DueDate     `json:"dueAt,omitempty"`
	Priority *models.TaskPriority `json:"priority,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.RequireUserID(ctx, w)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := db.TaskFilter{
		UserID:   userID,
		Statuses: parseStatuses(q.Get("status")),
		Sources:  parseSources(q.Get("sources")),
		Project:  q.Get("project"),
		Limit:    parseIntOr(q.Get("limit"), 50),
		Offset:   parseIntOr(q.Get("offset"), 0),
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	defer tx.Commit() //nolint:errcheck // read-only transaction

	tasks, err := h.store.ListTasks(ctx, tx, filter)
	if err != nil {
		h.logger.Error("list tasks failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	defer tx.Commit() //nolint:errcheck // read-only transaction

	task, err := h.store.GetTask(ctx, tx, id)
	if err != nil {
		writeStoreError(w, h.logger, "get task", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, task)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.RequireUserID(ctx, w)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.SourceItemID == "" {
		shared.WriteError(w, http.StatusBadRequest, "title and sourceItemId are required")
		return
	}
	priority := req.Priority
	if priority == 0 {
		priority = models.TaskPriorityP3
	}

	now := h.clock()
	var created models.Task
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = h.store.CreateTask(ctx, tx, models.Task{
			ID:           models.NewID(),
			Title:        req.Title,
			Body:         req.Body,
			Status:       models.TaskActive,
			Kind:         req.Kind,
			Priority:     priority,
			Project:      req.Project,
			SourceItemID: req.SourceItemID,
			UserID:       userID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	})
	if err != nil {
		writeStoreError(w, h.logger, "create task", err)
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

	var req patchTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, changed, err := h.dispatcher.PatchTask(ctx, id, models.TaskPatch{
		Status:   req.Status,
		Title:    req.Title,
		Body:     req.Body,
		Project:  req.Project,
		DueAt:    req.DueAt,
		Priority: req.Priority,
	})
	if err != nil {
		writeStoreError(w, h.logger, "patch task", err)
		return
	}
	if !changed {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
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

func parseStatuses(csv string) []models.TaskStatus {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	statuses := make([]models.TaskStatus, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			statuses = append(statuses, models.TaskStatus(p))
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
		shared.WriteError(w, http.StatusNotFound, "task not found")
	case apperrors.IsInvalidInput(err):
		shared.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(op+" failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to "+op)
	}
}
