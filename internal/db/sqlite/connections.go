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

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

const connectionColumns = `
	id, user_id, provider_kind, config_json, context_json, access_token_encrypted, status,
	last_sync_started_at, last_sync_completed_at, last_sync_failed_at, failure_message,
	notifications_sync_failures, tasks_sync_failures, enqueued_at, registered_scopes_json,
	created_at, updated_at`

func scanConnection(row interface {
	Scan(dest ...any) error
}) (models.IntegrationConnection, error) {
	var c models.IntegrationConnection
	var configJSON, contextJSON, scopesJSON string
	var lastSyncStarted, lastSyncCompleted, lastSyncFailed, enqueuedAt sql.NullString
	var failureMessage sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&c.ID, &c.UserID, &c.ProviderKind, &configJSON, &contextJSON, &c.AccessTokenEncrypted, &c.Status,
		&lastSyncStarted, &lastSyncCompleted, &lastSyncFailed, &failureMessage,
		&c.NotificationsSyncFailures, &c.TasksSyncFailures, &enqueuedAt, &scopesJSON,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	if err := unmarshalJSON(configJSON, &c.Config); err != nil {
		return models.IntegrationConnection{}, err
	}
	if err := unmarshalJSON(contextJSON, &c.Context); err != nil {
		return models.IntegrationConnection{}, err
	}
	if c.Context == nil {
		c.Context = map[string]string{}
	}
	if err := unmarshalJSON(scopesJSON, &c.RegisteredScopes); err != nil {
		return models.IntegrationConnection{}, err
	}
	c.LastSyncStartedAt = parseNullTime(lastSyncStarted)
	c.LastSyncCompletedAt = parseNullTime(lastSyncCompleted)
	c.LastSyncFailedAt = parseNullTime(lastSyncFailed)
	c.EnqueuedAt = parseNullTime(enqueuedAt)
	c.FailureMessage = toStringPtr(failureMessage)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

// CreateIntegrationConnection inserts a new connection.
func (s *Store) CreateIntegrationConnection(
	ctx context.Context,
	q db.Querier,
	conn models.IntegrationConnection,
) (models.IntegrationConnection, error) {
	configJSON, err := marshalJSON(conn.Config)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	if conn.Context == nil {
		conn.Context = map[string]string{}
	}
	contextJSON, err := marshalJSON(conn.Context)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	scopesJSON, err := marshalJSON(conn.RegisteredScopes)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO integration_connections (
			id, user_id, provider_kind, config_json, context_json, access_token_encrypted, status,
			notifications_sync_failures, tasks_sync_failures, registered_scopes_json,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conn.ID, conn.UserID, conn.ProviderKind, configJSON, contextJSON, conn.AccessTokenEncrypted, conn.Status,
		conn.NotificationsSyncFailures, conn.TasksSyncFailures, scopesJSON,
		formatTime(conn.CreatedAt), formatTime(conn.UpdatedAt),
	)
	if err != nil {
		return models.IntegrationConnection{}, fmt.Errorf("create integration connection: %w", err)
	}
	return conn, nil
}

// GetIntegrationConnection loads a connection by id.
func (s *Store) GetIntegrationConnection(
	ctx context.Context,
	q db.Querier,
	id string,
) (models.IntegrationConnection, error) {
	row := q.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM integration_connections WHERE id = ?`, id)
	c, err := scanConnection(row)
	if err != nil {
		return models.IntegrationConnection{}, noRowsToNotFound(err, "IntegrationConnection", id)
	}
	return c, nil
}

// ListIntegrationConnectionsByUser lists every connection owned by a user.
func (s *Store) ListIntegrationConnectionsByUser(
	ctx context.Context,
	q db.Querier,
	userID string,
) ([]models.IntegrationConnection, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+connectionColumns+`
		FROM integration_connections WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list integration connections: %w", err)
	}
	defer rows.Close()
	var out []models.IntegrationConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListSyncableIntegrationConnections lists connections the orchestrator
// (C6) should consider ticking: everything not Disconnected.
func (s *Store) ListSyncableIntegrationConnections(
	ctx context.Context,
	q db.Querier,
) ([]models.IntegrationConnection, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+connectionColumns+`
		FROM integration_connections WHERE status != ? ORDER BY id`, models.ConnectionDisconnected)
	if err != nil {
		return nil, fmt.Errorf("list syncable integration connections: %w", err)
	}
	defer rows.Close()
	var out []models.IntegrationConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateIntegrationConnectionConfig replaces a connection's config.
func (s *Store) UpdateIntegrationConnectionConfig(
	ctx context.Context,
	q db.Querier,
	id string,
	cfg models.IntegrationConnectionConfig,
) (models.IntegrationConnection, error) {
	configJSON, err := marshalJSON(cfg)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	res, err := q.ExecContext(ctx, `
		UPDATE integration_connections SET config_json = ?, updated_at = ? WHERE id = ?`,
		configJSON, formatTime(time.Now()), id,
	)
	if err != nil {
		return models.IntegrationConnection{}, fmt.Errorf("update integration connection config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.IntegrationConnection{}, apperrors.NewNotFound("IntegrationConnection", id)
	}
	return s.GetIntegrationConnection(ctx, q, id)
}

// UpdateIntegrationConnectionContext replaces a connection's sync cursor.
func (s *Store) UpdateIntegrationConnectionContext(
	ctx context.Context,
	q db.Querier,
	id string,
	syncContext map[string]string,
) error {
	contextJSON, err := marshalJSON(syncContext)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `
		UPDATE integration_connections SET context_json = ?, updated_at = ? WHERE id = ?`,
		contextJSON, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update integration connection context: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFound("IntegrationConnection", id)
	}
	return nil
}

// UpdateIntegrationConnectionToken replaces a connection's encrypted token.
func (s *Store) UpdateIntegrationConnectionToken(
	ctx context.Context,
	q db.Querier,
	id, accessTokenEncrypted string,
) error {
	res, err := q.ExecContext(ctx, `
		UPDATE integration_connections SET access_token_encrypted = ?, updated_at = ? WHERE id = ?`,
		accessTokenEncrypted, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("update integration connection token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFound("IntegrationConnection", id)
	}
	return nil
}

// TransitionIntegrationConnectionStatus enforces spec §4.1's legal
// transition set before writing the new status.
func (s *Store) TransitionIntegrationConnectionStatus(
	ctx context.Context,
	q db.Querier,
	id string,
	next models.ConnectionStatus,
	failureMessage *string,
) (models.IntegrationConnection, error) {
	current, err := s.GetIntegrationConnection(ctx, q, id)
	if err != nil {
		return models.IntegrationConnection{}, err
	}
	if !current.Status.CanTransitionTo(next) {
		return models.IntegrationConnection{}, &models.ErrInvalidStatusTransition{From: current.Status, To: next}
	}
	_, err = q.ExecContext(ctx, `
		UPDATE integration_connections SET status = ?, failure_message = ?, updated_at = ? WHERE id = ?`,
		next, nullString(failureMessage), formatTime(time.Now()), id,
	)
	if err != nil {
		return models.IntegrationConnection{}, fmt.Errorf("transition integration connection status: %w", err)
	}
	return s.GetIntegrationConnection(ctx, q, id)
}

// MarkSyncStarted records the start of a sync attempt.
func (s *Store) MarkSyncStarted(ctx context.Context, q db.Querier, id string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE integration_connections SET last_sync_started_at = ?, updated_at = ? WHERE id = ?`,
		formatTime(at), formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("mark sync started: %w", err)
	}
	return nil
}

// MarkSyncCompleted records a successful sync and resets failure counters.
func (s *Store) MarkSyncCompleted(ctx context.Context, q db.Querier, id string, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		UPDATE integration_connections
		SET last_sync_completed_at = ?, failure_message = NULL,
			notifications_sync_failures = 0, tasks_sync_failures = 0, updated_at = ?
		WHERE id = ?`,
		formatTime(at), formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("mark sync completed: %w", err)
	}
	return nil
}

// MarkSyncFailed records a failed sync and increments failure counters.
func (s *Store) MarkSyncFailed(ctx context.Context, q db.Querier, id string, at time.Time, message string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE integration_connections
		SET last_sync_failed_at = ?, failure_message = ?,
			notifications_sync_failures = notifications_sync_failures + 1,
			tasks_sync_failures = tasks_sync_failures + 1, updated_at = ?
		WHERE id = ?`,
		formatTime(at), message, formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("mark sync failed: %w", err)
	}
	return nil
}

// TryAcquireSingleFlight implements spec §4.6's single-flight marker: it
// sets enqueued_at atomically only if currently NULL.
func (s *Store) TryAcquireSingleFlight(ctx context.Context, q db.Querier, id string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE integration_connections SET enqueued_at = ? WHERE id = ? AND enqueued_at IS NULL`,
		formatTime(at), id,
	)
	if err != nil {
		return false, fmt.Errorf("acquire single-flight: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire single-flight: %w", err)
	}
	return n == 1, nil
}

// ReleaseSingleFlight clears the single-flight marker.
func (s *Store) ReleaseSingleFlight(ctx context.Context, q db.Querier, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE integration_connections SET enqueued_at = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("release single-flight: %w", err)
	}
	return nil
}

// DeleteIntegrationConnection removes a connection and, via ON DELETE
// CASCADE, every TPI/notification/task sourced from it.
func (s *Store) DeleteIntegrationConnection(ctx context.Context, q db.Querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM integration_connections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete integration connection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFound("IntegrationConnection", id)
	}
	return nil
}
