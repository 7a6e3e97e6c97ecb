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

//go:build integration

// Package fixtures builds integration-test data: connections, derived
// notifications/tasks, and FakeAdapter, a scriptable stand-in for a
// providers.Adapter that lets spec §8 scenario tests drive internal/sync
// without reaching a real third-party API.
package fixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/octobud-hq/octobud/backend/integration/testserver"
	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

var idCounter int64

// nextID returns a small monotonically increasing integer, used to build
// readable, collision-free fixture identifiers without touching time.Now
// (so fixtures stay deterministic under t.Parallel).
func nextID() int64 {
	return atomic.AddInt64(&idCounter, 1)
}

// fixtureEncryptor encrypts access tokens with testserver.TestEncryptionKey,
// the same key NewSQLite's server uses, so a connection built here decrypts
// cleanly when a sync actually runs against it.
func fixtureEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	enc, err := crypto.NewEncryptor(testserver.TestEncryptionKey)
	if err != nil {
		t.Fatalf("fixtures: build encryptor: %v", err)
	}
	return enc
}

// IntegrationConnectionBuilder assembles a models.IntegrationConnection for
// a test, mirroring the chained With*-then-Build shape the teacher used for
// its repository/notification fixtures.
type IntegrationConnectionBuilder struct {
	kind        models.ProviderKind
	config      models.IntegrationConnectionConfig
	accessToken string
	status      models.ConnectionStatus
	context     map[string]string
}

// NewIntegrationConnection starts a builder for a connection of the given
// provider kind, defaulted to Validated so it is immediately syncable.
func NewIntegrationConnection(kind models.ProviderKind) *IntegrationConnectionBuilder {
	return &IntegrationConnectionBuilder{
		kind:        kind,
		config:      models.IntegrationConnectionConfig{Kind: kind},
		accessToken: fmt.Sprintf("fixture-token-%d", nextID()),
		status:      models.ConnectionValidated,
	}
}

// WithConfig sets the provider-specific config. Kind is forced to the
// builder's own kind so a caller never has to repeat it.
func (b *IntegrationConnectionBuilder) WithConfig(cfg models.IntegrationConnectionConfig) *IntegrationConnectionBuilder {
	cfg.Kind = b.kind
	b.config = cfg
	return b
}

// WithAccessToken overrides the generated access token.
func (b *IntegrationConnectionBuilder) WithAccessToken(token string) *IntegrationConnectionBuilder {
	b.accessToken = token
	return b
}

// WithStatus overrides the connection's post-creation status. Created is
// the only status CreateIntegrationConnection itself can leave a row in;
// anything else is reached with a follow-up transition, matching spec §4.1's
// legal transition set.
func (b *IntegrationConnectionBuilder) WithStatus(status models.ConnectionStatus) *IntegrationConnectionBuilder {
	b.status = status
	return b
}

// WithSyncContext seeds the connection's opaque sync cursor.
func (b *IntegrationConnectionBuilder) WithSyncContext(ctx map[string]string) *IntegrationConnectionBuilder {
	b.context = ctx
	return b
}

// Build persists the connection via store, fataling the test on any error.
func (b *IntegrationConnectionBuilder) Build(
	t *testing.T, ctx context.Context, store db.Store, userID string,
) models.IntegrationConnection {
	t.Helper()

	encrypted, err := fixtureEncryptor(t).Encrypt(b.accessToken)
	if err != nil {
		t.Fatalf("fixtures: encrypt access token: %v", err)
	}

	now := time.Now().UTC()
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("fixtures: begin tx: %v", err)
	}
	conn, err := store.CreateIntegrationConnection(ctx, tx, models.IntegrationConnection{
		ID:                   models.NewID(),
		UserID:               userID,
		ProviderKind:         b.kind,
		Config:               b.config,
		Context:              b.context,
		AccessTokenEncrypted: encrypted,
		Status:               models.ConnectionCreated,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("fixtures: create integration connection: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("fixtures: commit integration connection: %v", err)
	}

	if b.status != models.ConnectionCreated {
		tx, err = store.BeginTx(ctx)
		if err != nil {
			t.Fatalf("fixtures: begin tx: %v", err)
		}
		conn, err = store.TransitionIntegrationConnectionStatus(ctx, tx, conn.ID, b.status, nil)
		if err != nil {
			_ = tx.Rollback()
			t.Fatalf("fixtures: transition connection to %s: %v", b.status, err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("fixtures: commit connection status transition: %v", err)
		}
	}

	return conn
}

// ThirdPartyItemBuilder assembles a models.ThirdPartyItem directly, for
// tests that want a TPI on the books without running a sync pass first
// (e.g. to set up the "stale" half of a stale-sweep scenario).
type ThirdPartyItemBuilder struct {
	kind         models.ThirdPartyItemKind
	data         models.ThirdPartyItemData
	sourceID     string
	sourceItemID *string
}

// NewThirdPartyItem starts a builder for a TPI of the given kind, with data
// carrying the same kind and a generated SourceID.
func NewThirdPartyItem(kind models.ThirdPartyItemKind) *ThirdPartyItemBuilder {
	return &ThirdPartyItemBuilder{
		kind:     kind,
		data:     models.ThirdPartyItemData{Kind: kind},
		sourceID: fmt.Sprintf("fixture-source-%d", nextID()),
	}
}

// WithData sets the typed payload. Kind is forced to the builder's kind.
func (b *ThirdPartyItemBuilder) WithData(data models.ThirdPartyItemData) *ThirdPartyItemBuilder {
	data.Kind = b.kind
	b.data = data
	return b
}

// WithSourceID overrides the generated source id.
func (b *ThirdPartyItemBuilder) WithSourceID(id string) *ThirdPartyItemBuilder {
	b.sourceID = id
	return b
}

// WithSourceItemID points this TPI at another TPI that originated it (the
// task-sink-mirror case of spec §3.1/§3.3).
func (b *ThirdPartyItemBuilder) WithSourceItemID(id string) *ThirdPartyItemBuilder {
	b.sourceItemID = &id
	return b
}

// Build upserts the TPI via store.UpsertThirdPartyItem so its row shape
// matches exactly what a real sync pass would have produced.
func (b *ThirdPartyItemBuilder) Build(
	t *testing.T, ctx context.Context, store db.Store, userID, connectionID string,
) models.ThirdPartyItem {
	t.Helper()

	now := time.Now().UTC()
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("fixtures: begin tx: %v", err)
	}
	result, err := store.UpsertThirdPartyItem(ctx, tx, models.ThirdPartyItem{
		ID:                      models.NewID(),
		SourceID:                b.sourceID,
		Kind:                    b.kind,
		Data:                    b.data,
		UserID:                  userID,
		IntegrationConnectionID: connectionID,
		SourceItemID:            b.sourceItemID,
		CreatedAt:               now,
		UpdatedAt:               now,
	})
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("fixtures: upsert third-party item: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("fixtures: commit third-party item: %v", err)
	}
	return result.New
}

// NotificationBuilder assembles a models.Notification tied to a TPI.
type NotificationBuilder struct {
	title  string
	kind   models.ProviderKind
	status models.NotificationStatus
}

// NewNotification starts a builder for an Unread notification of the given
// provider kind.
func NewNotification(kind models.ProviderKind) *NotificationBuilder {
	return &NotificationBuilder{
		title:  fmt.Sprintf("fixture notification %d", nextID()),
		kind:   kind,
		status: models.NotificationUnread,
	}
}

// WithTitle overrides the generated title.
func (b *NotificationBuilder) WithTitle(title string) *NotificationBuilder {
	b.title = title
	return b
}

// WithStatus overrides the notification's status.
func (b *NotificationBuilder) WithStatus(status models.NotificationStatus) *NotificationBuilder {
	b.status = status
	return b
}

// Build persists the notification against sourceItem, matching the shape
// internal/sync produces when it first derives one from a TPI.
func (b *NotificationBuilder) Build(
	t *testing.T, ctx context.Context, store db.Store, userID string, sourceItem models.ThirdPartyItem,
) models.Notification {
	t.Helper()

	now := time.Now().UTC()
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("fixtures: begin tx: %v", err)
	}
	n, err := store.CreateNotification(ctx, tx, models.Notification{
		ID:           models.NewID(),
		Title:        b.title,
		Kind:         b.kind,
		Status:       b.status,
		SourceItemID: sourceItem.ID,
		UserID:       userID,
		UpdatedAt:    now,
		CreatedAt:    now,
	})
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("fixtures: create notification: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("fixtures: commit notification: %v", err)
	}
	return n
}

// TaskBuilder assembles a models.Task tied to a TPI.
type TaskBuilder struct {
	title    string
	kind     models.ProviderKind
	status   models.TaskStatus
	priority models.TaskPriority
}

// NewTask starts a builder for an Active, P3 task of the given provider
// kind (spec §3.1's default priority when a provider payload carries none).
func NewTask(kind models.ProviderKind) *TaskBuilder {
	return &TaskBuilder{
		title:    fmt.Sprintf("fixture task %d", nextID()),
		kind:     kind,
		status:   models.TaskActive,
		priority: models.TaskPriorityP3,
	}
}

// WithTitle overrides the generated title.
func (b *TaskBuilder) WithTitle(title string) *TaskBuilder {
	b.title = title
	return b
}

// WithStatus overrides the task's status.
func (b *TaskBuilder) WithStatus(status models.TaskStatus) *TaskBuilder {
	b.status = status
	return b
}

// WithPriority overrides the task's priority.
func (b *TaskBuilder) WithPriority(priority models.TaskPriority) *TaskBuilder {
	b.priority = priority
	return b
}

// Build persists the task against sourceItem.
func (b *TaskBuilder) Build(
	t *testing.T, ctx context.Context, store db.Store, userID string, sourceItem models.ThirdPartyItem,
) models.Task {
	t.Helper()

	now := time.Now().UTC()
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("fixtures: begin tx: %v", err)
	}
	task, err := store.CreateTask(ctx, tx, models.Task{
		ID:           models.NewID(),
		Title:        b.title,
		Status:       b.status,
		Kind:         b.kind,
		Priority:     b.priority,
		SourceItemID: sourceItem.ID,
		UserID:       userID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		_ = tx.Rollback()
		t.Fatalf("fixtures: create task: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("fixtures: commit task: %v", err)
	}
	return task
}

// FakeAdapter is a scriptable, in-process stand-in for providers.Adapter.
// Integration tests configure its exported fields/funcs before handing it
// to providers.NewRegistry (via testserver.NewSQLite's variadic adapters
// argument) so internal/sync can be driven end-to-end without a real
// third-party API behind it.
type FakeAdapter struct {
	kind models.ProviderKind

	// Items is returned verbatim by ListForUser on every call, unless
	// ListFunc is set.
	Items []providers.FetchedItem
	// SyncContext is returned verbatim by ListForUser alongside Items.
	SyncContext map[string]string
	// ListErr, if set, makes ListForUser fail (spec §8 scenario: a
	// provider outage during sync).
	ListErr error
	// ListFunc, if set, overrides Items/SyncContext/ListErr entirely and
	// is called on every ListForUser invocation — useful for simulating a
	// cursor that advances call over call.
	ListFunc func(ctx context.Context, conn models.IntegrationConnection) ([]providers.FetchedItem, map[string]string, error)

	// DeriveNotificationFunc, if set, backs DeriveNotification.
	DeriveNotificationFunc func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Notification, bool)
	// DeriveTaskFunc, if set, backs DeriveTask.
	DeriveTaskFunc func(conn models.IntegrationConnection, item models.ThirdPartyItem) (models.Task, bool)

	// PushStatusErr, if set, is returned by every PushNotificationStatus
	// call (spec §4.4's compensate-or-retry path).
	PushStatusErr error
	// PushTaskCreationErr, if set, is returned by every PushTaskCreation
	// call; the source id is only returned on success.
	PushTaskCreationErr error
	// PushTaskUpdateErr, if set, is returned by every PushTaskUpdate call.
	PushTaskUpdateErr error

	// Pushed* record every push call this adapter has seen, so a test can
	// assert on what was sent back to the "provider" without a real one.
	PushedStatuses      []models.Notification
	PushedTaskCreations []models.Task
	PushedTaskUpdates   []models.Task
}

var _ providers.Adapter = (*FakeAdapter)(nil)

// NewFakeAdapter builds a FakeAdapter for the given provider kind. An empty
// FakeAdapter derives nothing and lists nothing; configure its fields
// before registering it.
func NewFakeAdapter(kind models.ProviderKind) *FakeAdapter {
	return &FakeAdapter{kind: kind}
}

// Kind implements providers.Adapter.
func (f *FakeAdapter) Kind() models.ProviderKind { return f.kind }

// ListForUser implements providers.Adapter.
func (f *FakeAdapter) ListForUser(
	ctx context.Context, conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, conn)
	}
	if f.ListErr != nil {
		return nil, nil, f.ListErr
	}
	return f.Items, f.SyncContext, nil
}

// DeriveNotification implements providers.Adapter.
func (f *FakeAdapter) DeriveNotification(
	conn models.IntegrationConnection, item models.ThirdPartyItem,
) (models.Notification, bool) {
	if f.DeriveNotificationFunc != nil {
		return f.DeriveNotificationFunc(conn, item)
	}
	return models.Notification{}, false
}

// DeriveTask implements providers.Adapter.
func (f *FakeAdapter) DeriveTask(
	conn models.IntegrationConnection, item models.ThirdPartyItem,
) (models.Task, bool) {
	if f.DeriveTaskFunc != nil {
		return f.DeriveTaskFunc(conn, item)
	}
	return models.Task{}, false
}

// PushNotificationStatus implements providers.Adapter, recording every call
// it receives.
func (f *FakeAdapter) PushNotificationStatus(
	_ context.Context, _ models.IntegrationConnection, n models.Notification, _ models.ThirdPartyItem,
) error {
	f.PushedStatuses = append(f.PushedStatuses, n)
	return f.PushStatusErr
}

// PushTaskCreation implements providers.Adapter, recording every call it
// receives and returning a generated sink source id on success.
func (f *FakeAdapter) PushTaskCreation(
	_ context.Context, _ models.IntegrationConnection, t models.Task,
) (string, error) {
	f.PushedTaskCreations = append(f.PushedTaskCreations, t)
	if f.PushTaskCreationErr != nil {
		return "", f.PushTaskCreationErr
	}
	return fmt.Sprintf("fixture-sink-%d", nextID()), nil
}

// PushTaskUpdate implements providers.Adapter, recording every call it
// receives.
func (f *FakeAdapter) PushTaskUpdate(
	_ context.Context, _ models.IntegrationConnection, t models.Task, _ models.ThirdPartyItem,
) error {
	f.PushedTaskUpdates = append(f.PushedTaskUpdates, t)
	return f.PushTaskUpdateErr
}
