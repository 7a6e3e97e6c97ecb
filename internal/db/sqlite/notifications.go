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
	"strings"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

const notificationColumns = `
	id, title, kind, status, source_item_id, task_id, updated_at, last_read_at, snoozed_until,
	user_id, created_at`

func scanNotification(row interface{ Scan(dest ...any) error }) (models.Notification, error) {
	var n models.Notification
	var taskID sql.NullString
	var lastReadAt, snoozedUntil sql.NullString
	var updatedAt, createdAt string
	err := row.Scan(
		&n.ID, &n.Title, &n.Kind, &n.Status, &n.SourceItemID, &taskID, &updatedAt,
		&lastReadAt, &snoozedUntil, &n.UserID, &createdAt,
	)
	if err != nil {
		return models.Notification{}, err
	}
	n.TaskID = toStringPtr(taskID)
	n.UpdatedAt = parseTime(updatedAt)
	n.LastReadAt = parseNullTime(lastReadAt)
	n.SnoozedUntil = parseNullTime(snoozedUntil)
	n.CreatedAt = parseTime(createdAt)
	return n, nil
}

// CreateNotification inserts a new notification.
func (s *Store) CreateNotification(
	ctx context.Context,
	q db.Querier,
	n models.Notification,
) (models.Notification, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO notifications (
			id, title, kind, status, source_item_id, task_id, updated_at, last_read_at,
			snoozed_until, user_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Kind, n.Status, n.SourceItemID, nullString(n.TaskID), formatTime(n.UpdatedAt),
		formatNullTime(n.LastReadAt), formatNullTime(n.SnoozedUntil), n.UserID, formatTime(n.CreatedAt),
	)
	if isUniqueConstraintErr(err) {
		return models.Notification{}, apperrors.NewAlreadyExists("Notification", n.SourceItemID)
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// GetNotification loads a notification by id.
func (s *Store) GetNotification(ctx context.Context, q db.Querier, id string) (models.Notification, error) {
	row := q.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err != nil {
		return models.Notification{}, noRowsToNotFound(err, "Notification", id)
	}
	return n, nil
}

// FindNotificationBySourceItem loads the notification derived from a TPI.
func (s *Store) FindNotificationBySourceItem(
	ctx context.Context,
	q db.Querier,
	sourceItemID string,
) (models.Notification, error) {
	row := q.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE source_item_id = ?`,
		sourceItemID)
	n, err := scanNotification(row)
	if err != nil {
		return models.Notification{}, noRowsToNotFound(err, "Notification", sourceItemID)
	}
	return n, nil
}

// UpdateNotificationDerived merges the observable fields of a fresh
// derive_notification pass, leaving Status/SnoozedUntil/TaskID alone: those
// are user-owned once set (spec §4.3 step 3).
func (s *Store) UpdateNotificationDerived(
	ctx context.Context,
	q db.Querier,
	id string,
	title string,
	status models.NotificationStatus,
	lastReadAt *time.Time,
	updatedAt time.Time,
) (models.Notification, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE notifications SET title = ?, status = ?, last_read_at = ?, updated_at = ? WHERE id = ?`,
		title, status, formatNullTime(lastReadAt), formatTime(updatedAt), id,
	)
	if err != nil {
		return models.Notification{}, fmt.Errorf("update notification derived: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Notification{}, apperrors.NewNotFound("Notification", id)
	}
	return s.GetNotification(ctx, q, id)
}

// UpdateNotificationStatus sets a notification's status, reporting whether
// it actually changed (spec §4.1, HTTP 304 semantics).
func (s *Store) UpdateNotificationStatus(
	ctx context.Context,
	q db.Querier,
	id string,
	status models.NotificationStatus,
) (db.StatusUpdateResult[models.Notification], error) {
	current, err := s.GetNotification(ctx, q, id)
	if err != nil {
		return db.StatusUpdateResult[models.Notification]{}, err
	}
	if current.Status == status {
		return db.StatusUpdateResult[models.Notification]{Updated: false, Result: current}, nil
	}
	_, err = q.ExecContext(ctx, `UPDATE notifications SET status = ?, updated_at = ? WHERE id = ?`,
		status, formatTime(time.Now()), id,
	)
	if err != nil {
		return db.StatusUpdateResult[models.Notification]{}, fmt.Errorf("update notification status: %w", err)
	}
	updated, err := s.GetNotification(ctx, q, id)
	if err != nil {
		return db.StatusUpdateResult[models.Notification]{}, err
	}
	return db.StatusUpdateResult[models.Notification]{Updated: true, Result: updated}, nil
}

// UpdateNotificationSnooze sets or clears a notification's snooze.
func (s *Store) UpdateNotificationSnooze(
	ctx context.Context,
	q db.Querier,
	id string,
	snoozedUntil *time.Time,
) (models.Notification, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE notifications SET snoozed_until = ?, updated_at = ? WHERE id = ?`,
		formatNullTime(snoozedUntil), formatTime(time.Now()), id,
	)
	if err != nil {
		return models.Notification{}, fmt.Errorf("update notification snooze: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Notification{}, apperrors.NewNotFound("Notification", id)
	}
	return s.GetNotification(ctx, q, id)
}

// UpdateNotificationTaskID links or unlinks a notification's companion
// task (spec §3.2 "bidirectional link").
func (s *Store) UpdateNotificationTaskID(
	ctx context.Context,
	q db.Querier,
	id string,
	taskID *string,
) (models.Notification, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE notifications SET task_id = ?, updated_at = ? WHERE id = ?`,
		nullString(taskID), formatTime(time.Now()), id,
	)
	if err != nil {
		return models.Notification{}, fmt.Errorf("update notification task id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Notification{}, apperrors.NewNotFound("Notification", id)
	}
	return s.GetNotification(ctx, q, id)
}

// ListNotifications lists notifications matching a filter (spec §6.2 GET
// /notifications).
func (s *Store) ListNotifications(
	ctx context.Context,
	q db.Querier,
	filter db.NotificationFilter,
) ([]models.Notification, error) {
	var where []string
	var args []any
	where = append(where, "user_id = ?")
	args = append(args, filter.UserID)

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, st)
		}
		where = append(where, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(filter.Sources) > 0 {
		placeholders := make([]string, len(filter.Sources))
		for i, src := range filter.Sources {
			placeholders[i] = "?"
			args = append(args, src)
		}
		where = append(where, "kind IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.TaskID != nil {
		where = append(where, "task_id = ?")
		args = append(args, *filter.TaskID)
	}
	if !filter.IncludeSnoozedNotifications {
		where = append(where, "(snoozed_until IS NULL OR snoozed_until <= ?)")
		args = append(args, formatTime(time.Now()))
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
