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

// Package integrationconnections provides the integration connection CRUD
// and manual-sync-trigger HTTP surface (spec §6.2's
// "GET/POST/PATCH/PUT/DELETE /integration-connections").
package integrationconnections

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/octobud-hq/octobud/backend/internal/api/shared"
	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

// SyncTrigger is the subset of internal/orchestrator.Orchestrator the
// manual-trigger endpoint needs, kept as a narrow interface so this
// package doesn't import the orchestrator's scheduling internals.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, connectionID string) (bool, error)
}

// Handler handles integration connection HTTP routes.
type Handler struct {
	logger      *zap.Logger
	store       db.Store
	encryptor   *crypto.Encryptor
	clock       func() time.Time
	syncTrigger SyncTrigger
}

// New creates an integration connections Handler.
func New(
	logger *zap.Logger, store db.Store, encryptor *crypto.Encryptor, clock func() time.Time, syncTrigger SyncTrigger,
) *Handler {
	return &Handler{logger: logger, store: store, encryptor: encryptor, clock: clock, syncTrigger: syncTrigger}
}

// Register mounts integration connection routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/integration-connections", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Patch("/", h.handlePatchConfig)
			r.Put("/", h.handleReplace)
			r.Delete("/", h.handleDisconnect)
			r.Post("/sync", h.handleTriggerSync)
		})
	})
}

type createConnectionRequest struct {
	ProviderKind models.ProviderKind                `json:"providerKind"`
	Config       models.IntegrationConnectionConfig `json:"config"`
	AccessToken  string                             `json:"accessToken"`
}

type patchConnectionRequest struct {
	Config *models.IntegrationConnectionConfig `json:"config,omitempty"`
}

type replaceConnectionRequest struct {
	Config      models.IntegrationConnectionConfig `json:"config"`
	AccessToken *string                            `json:"accessToken,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.RequireUserID(ctx, w)
	if !ok {
		return
	}

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		shared.WriteError(w, http.StatusInternalServerError, "failed to list integration connections")
		return
	}
	defer tx.Commit() //nolint:errcheck // read-only transaction

	conns, err := h.store.ListIntegrationConnectionsByUser(ctx, tx, userID)
	if err != nil {
		h.logger.Error("list integration connections failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to list integration connections")
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{"integrationConnections": conns})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	conn, err := h.getConnection(ctx, id)
	if err != nil {
		writeStoreError(w, h.logger, "get integration connection", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, conn)
}

// handleTriggerSync enqueues an immediate sync for the connection, honoring
// the same single-flight acquisition the background scan loop uses so a
// manual trigger can never race a sync already in flight.
func (h *Handler) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := h.getConnection(ctx, id); err != nil {
		writeStoreError(w, h.logger, "trigger sync", err)
		return
	}

	acquired, err := h.syncTrigger.TriggerSync(ctx, id)
	if err != nil {
		h.logger.Error("trigger sync failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to trigger sync")
		return
	}
	if !acquired {
		shared.WriteJSON(w, http.StatusConflict, map[string]string{"message": "sync already in progress"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := shared.RequireUserID(ctx, w)
	if !ok {
		return
	}

	var req createConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProviderKind == "" {
		shared.WriteError(w, http.StatusBadRequest, "providerKind is required")
		return
	}

	encryptedToken, err := h.encryptor.Encrypt(req.AccessToken)
	if err != nil {
		h.logger.Error("encrypt access token failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, "failed to store access token")
		return
	}

	now := h.clock()
	var created models.IntegrationConnection
	err = h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = h.store.CreateIntegrationConnection(ctx, tx, models.IntegrationConnection{
			ID:                   models.NewID(),
			UserID:               userID,
			ProviderKind:         req.ProviderKind,
			Config:               req.Config,
			AccessTokenEncrypted: encryptedToken,
			Status:               models.ConnectionCreated,
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		return err
	})
	if err != nil {
		writeStoreError(w, h.logger, "create integration connection", err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req patchConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Config == nil {
		shared.WriteError(w, http.StatusBadRequest, "config is required")
		return
	}

	var updated models.IntegrationConnection
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		updated, err = h.store.UpdateIntegrationConnectionConfig(ctx, tx, id, *req.Config)
		return err
	})
	if err != nil {
		writeStoreError(w, h.logger, "update integration connection config", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

// handleReplace implements PUT: a full config (and, optionally, token)
// replacement — the "update config, verify" half of spec §6.2's CRUD
// bullet, distinct from PATCH's partial-config semantics above.
func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req replaceConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var updated models.IntegrationConnection
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		updated, err = h.store.UpdateIntegrationConnectionConfig(ctx, tx, id, req.Config)
		if err != nil {
			return err
		}
		if req.AccessToken != nil {
			encrypted, encErr := h.encryptor.Encrypt(*req.AccessToken)
			if encErr != nil {
				return encErr
			}
			if err := h.store.UpdateIntegrationConnectionToken(ctx, tx, id, encrypted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		writeStoreError(w, h.logger, "replace integration connection", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := shared.RequireUserID(ctx, w); !ok {
		return
	}
	id := chi.URLParam(r, "id")

	err := h.withTx(ctx, func(tx *sql.Tx) error {
		_, err := h.store.TransitionIntegrationConnectionStatus(ctx, tx, id, models.ConnectionDisconnected, nil)
		return err
	})
	if err != nil {
		writeStoreError(w, h.logger, "disconnect integration connection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getConnection(ctx context.Context, id string) (models.IntegrationConnection, error) {
	var conn models.IntegrationConnection
	err := h.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		conn, err = h.store.GetIntegrationConnection(ctx, tx, id)
		return err
	})
	return conn, err
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

func writeStoreError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	switch {
	case apperrors.IsNotFound(err):
		shared.WriteError(w, http.StatusNotFound, "integration connection not found")
	case apperrors.IsInvalidInput(err), errors.As(err, new(*models.ErrInvalidStatusTransition)):
		shared.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(op+" failed", zap.Error(err))
		shared.WriteError(w, http.StatusInternalServerError, op+" failed")
	}
}
