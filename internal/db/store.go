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

// Package db defines the Store contract (spec.md §4.1, component C1): the
// only durable truth for users, integration connections, third-party
// items, notifications, tasks and jobs. The store itself never opens or
// commits a transaction on its own — every mutating call takes the
// transaction handle explicitly, exactly as spec §4.1 requires.
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/models"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// Querier is satisfied by both *sql.DB and *sql.Tx, letting every Store
// method accept either a bare connection or an in-flight transaction
// without the store ever deciding for the caller when to commit.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertOutcome categorizes the result of an upsert-by-natural-key
// operation (spec §4.1, §4.3, glossary "Upsert"/"Untouched").
type UpsertOutcome string

// Recognized upsert outcomes.
const (
	UpsertCreated   UpsertOutcome = "Created"
	UpsertUpdated   UpsertOutcome = "Updated"
	UpsertUntouched UpsertOutcome = "Untouched"
)

// UpsertResult is returned by UpsertThirdPartyItem. Old is only populated
// when Outcome == UpsertUpdated.
type UpsertResult struct {
	Outcome UpsertOutcome
	Old     *models.ThirdPartyItem
	New     models.ThirdPartyItem
}

// StatusUpdateResult is returned by notification/task status updates
// (spec §4.1): Updated is false iff the row already held the requested
// status, which lets the HTTP boundary answer 304 Not Modified.
type StatusUpdateResult[T any] struct {
	Updated bool
	Result  T
}

// NotificationFilter selects notifications for listing (spec §6.2
// GET /notifications).
type NotificationFilter struct {
	UserID                      string
	Statuses                    []models.NotificationStatus
	IncludeSnoozedNotifications bool
	TaskID                      *string
	Sources                     []models.ProviderKind
	Limit                       int
	Offset                      int
}

// TaskFilter selects tasks for listing (spec §6.2 analogous /tasks
// endpoint).
type TaskFilter struct {
	UserID   string
	Statuses []models.TaskStatus
	Sources  []models.ProviderKind
	Project  string
	Limit    int
	Offset   int
}

// Store is the interface for all durable state operations used by the
// business logic layer (sync engine, action dispatcher, HTTP handlers,
// orchestrator). Every method takes a Querier explicitly; the caller is
// responsible for opening and closing (committing/rolling back) any
// transaction via BeginTx.
type Store interface {
	// BeginTx opens a new transaction. The caller must Commit or Rollback it.
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// --- Users ---

	CreateUser(ctx context.Context, q Querier, user models.User) (models.User, error)
	GetUser(ctx context.Context, q Querier, id string) (models.User, error)
	DeleteUser(ctx context.Context, q Querier, id string) error

	// --- Integration connections ---

	CreateIntegrationConnection(
		ctx context.Context,
		q Querier,
		conn models.IntegrationConnection,
	) (models.IntegrationConnection, error)
	GetIntegrationConnection(ctx context.Context, q Querier, id string) (models.IntegrationConnection, error)
	ListIntegrationConnectionsByUser(
		ctx context.Context,
		q Querier,
		userID string,
	) ([]models.IntegrationConnection, error)
	ListSyncableIntegrationConnections(ctx context.Context, q Querier) ([]models.IntegrationConnection, error)
	UpdateIntegrationConnectionConfig(
		ctx context.Context,
		q Querier,
		id string,
		cfg models.IntegrationConnectionConfig,
	) (models.IntegrationConnection, error)
	UpdateIntegrationConnectionContext(
		ctx context.Context,
		q Querier,
		id string,
		syncContext map[string]string,
	) error
	UpdateIntegrationConnectionToken(ctx context.Context, q Querier, id, accessTokenEncrypted string) error

	// TransitionIntegrationConnectionStatus enforces the legal transition
	// set of spec §4.1 and returns ErrInvalidStatusTransition otherwise.
	TransitionIntegrationConnectionStatus(
		ctx context.Context,
		q Querier,
		id string,
		next models.ConnectionStatus,
		failureMessage *string,
	) (models.IntegrationConnection, error)

	MarkSyncStarted(ctx context.Context, q Querier, id string, at time.Time) error
	MarkSyncCompleted(ctx context.Context, q Querier, id string, at time.Time) error
	MarkSyncFailed(ctx context.Context, q Querier, id string, at time.Time, message string) error

	// TryAcquireSingleFlight sets EnqueuedAt if and only if it is
	// currently nil, implementing the single-flight marker of spec §4.6.
	// Returns true iff this call acquired it.
	TryAcquireSingleFlight(ctx context.Context, q Querier, id string, at time.Time) (bool, error)
	ReleaseSingleFlight(ctx context.Context, q Querier, id string) error

	DeleteIntegrationConnection(ctx context.Context, q Querier, id string) error

	// --- Third-party items ---

	// UpsertThirdPartyItem implements spec §4.1's natural-key upsert.
	UpsertThirdPartyItem(
		ctx context.Context,
		q Querier,
		item models.ThirdPartyItem,
	) (UpsertResult, error)
	GetThirdPartyItem(ctx context.Context, q Querier, id string) (models.ThirdPartyItem, error)
	FindThirdPartyItemBySourceID(
		ctx context.Context,
		q Querier,
		userID, integrationConnectionID string,
		kind models.ThirdPartyItemKind,
		sourceID string,
	) (models.ThirdPartyItem, error)

	// ListStaleThirdPartyItems returns TPIs of (connectionID, kind) whose
	// source_id is not in observedSourceIDs AND whose derived
	// notification/task is currently active (spec §4.1 "sweep stale",
	// §4.3 step 4).
	ListStaleThirdPartyItems(
		ctx context.Context,
		q Querier,
		integrationConnectionID string,
		kind models.ThirdPartyItemKind,
		observedSourceIDs []string,
	) ([]models.ThirdPartyItem, error)

	// --- Notifications ---

	CreateNotification(ctx context.Context, q Querier, n models.Notification) (models.Notification, error)
	GetNotification(ctx context.Context, q Querier, id string) (models.Notification, error)
	FindNotificationBySourceItem(
		ctx context.Context,
		q Querier,
		sourceItemID string,
	) (models.Notification, error)
	// UpdateNotificationDerived merges observable fields from a fresh
	// derivation while preserving user-set fields, per spec §4.3 step 3.
	UpdateNotificationDerived(
		ctx context.Context,
		q Querier,
		id string,
		title string,
		status models.NotificationStatus,
		lastReadAt *time.Time,
		updatedAt time.Time,
	) (models.Notification, error)
	UpdateNotificationStatus(
		ctx context.Context,
		q Querier,
		id string,
		status models.NotificationStatus,
	) (StatusUpdateResult[models.Notification], error)
	UpdateNotificationSnooze(
		ctx context.Context,
		q Querier,
		id string,
		snoozedUntil *time.Time,
	) (models.Notification, error)
	UpdateNotificationTaskID(ctx context.Context, q Querier, id string, taskID *string) (models.Notification, error)
	ListNotifications(ctx context.Context, q Querier, filter NotificationFilter) ([]models.Notification, error)

	// --- Tasks ---

	CreateTask(ctx context.Context, q Querier, t models.Task) (models.Task, error)
	GetTask(ctx context.Context, q Querier, id string) (models.Task, error)
	FindTaskBySourceItem(ctx context.Context, q Querier, sourceItemID string) (models.Task, error)
	UpdateTaskDerived(ctx context.Context, q Querier, id string, patch TaskDerivedPatch) (models.Task, error)
	UpdateTaskStatus(
		ctx context.Context,
		q Querier,
		id string,
		status models.TaskStatus,
		completedAt *time.Time,
	) (StatusUpdateResult[models.Task], error)
	UpdateTaskPlan(ctx context.Context, q Querier, id string, patch models.TaskPatch) (models.Task, error)
	UpdateTaskSinkItem(ctx context.Context, q Querier, id string, sinkItemID string) (models.Task, error)
	ListTasks(ctx context.Context, q Querier, filter TaskFilter) ([]models.Task, error)

	// --- Jobs (spec §4.5) ---

	EnqueueJob(ctx context.Context, q Querier, params EnqueueParams) (int64, error)
	DequeueJob(ctx context.Context, q Querier, queue string) (*models.Job, error)
	AckJob(ctx context.Context, q Querier, jobID int64) error
	NackJob(ctx context.Context, q Querier, jobID int64, jobErr error) error
	ResetStaleJobs(ctx context.Context, q Querier, timeout time.Duration) (int64, error)
	QueueStats(ctx context.Context, q Querier, queue string) (QueueStats, error)
}

// TaskDerivedPatch carries the observable fields a fresh derive_task
// pass may update, leaving user-set plan fields alone unless the provider
// payload itself supplied them (spec §4.3 step 3).
type TaskDerivedPatch struct {
	Title     string
	Body      string
	Priority  *models.TaskPriority
	DueAt     *models.DueDate
	Project   *string
	UpdatedAt time.Time
}

// EnqueueParams are the parameters for enqueueing a new job (spec §4.5).
type EnqueueParams struct {
	Queue       string
	Payload     []byte
	MaxAttempts int
	Delay       time.Duration
}

// QueueStats summarizes the state of a job queue.
type QueueStats struct {
	Pending    int64
	Processing int64
	Failed     int64
}
