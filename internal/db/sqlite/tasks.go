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

const taskColumns = `
	id, title, body, status, kind, priority, due_at_json, project, tags_json, parent_id,
	is_recurring, created_at, updated_at, completed_at, source_item_id, sink_item_id, user_id`

func scanTask(row interface{ Scan(dest ...any) error }) (models.Task, error) {
	var t models.Task
	var dueAtJSON sql.NullString
	var tagsJSON string
	var parentID, sinkItemID sql.NullString
	var isRecurring int64
	var createdAt, updatedAt string
	var completedAt sql.NullString
	err := row.Scan(
		&t.ID, &t.Title, &t.Body, &t.Status, &t.Kind, &t.Priority, &dueAtJSON, &t.Project, &tagsJSON,
		&parentID, &isRecurring, &createdAt, &updatedAt, &completedAt, &t.SourceItemID, &sinkItemID, &t.UserID,
	)
	if err != nil {
		return models.Task{}, err
	}
	if dueAtJSON.Valid && dueAtJSON.String != "" {
		var due models.DueDate
		if err := unmarshalJSON(dueAtJSON.String, &due); err != nil {
			return models.Task{}, err
		}
		t.DueAt = &due
	}
	if err := unmarshalJSON(tagsJSON, &t.Tags); err != nil {
		return models.Task{}, err
	}
	t.ParentID = toStringPtr(parentID)
	t.SinkItemID = toStringPtr(sinkItemID)
	t.IsRecurring = isRecurring != 0
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.CompletedAt = parseNullTime(completedAt)
	return t, nil
}

func dueAtJSONOf(d *models.DueDate) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	b, err := marshalJSON(d)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: b, Valid: true}
}

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, q db.Querier, t models.Task) (models.Task, error) {
	tagsJSON, err := marshalJSON(t.Tags)
	if err != nil {
		return models.Task{}, err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, body, status, kind, priority, due_at_json, project, tags_json, parent_id,
			is_recurring, created_at, updated_at, completed_at, source_item_id, sink_item_id, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Body, t.Status, t.Kind, t.Priority, dueAtJSONOf(t.DueAt), t.Project, tagsJSON,
		nullString(t.ParentID), boolToInt(t.IsRecurring), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		formatNullTime(t.CompletedAt), t.SourceItemID, nullString(t.SinkItemID), t.UserID,
	)
	if isUniqueConstraintErr(err) {
		return models.Task{}, apperrors.NewAlreadyExists("Task", t.SourceItemID)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetTask loads a task by id.
func (s *Store) GetTask(ctx context.Context, q db.Querier, id string) (models.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, noRowsToNotFound(err, "Task", id)
	}
	return t, nil
}

// FindTaskBySourceItem loads the task derived from a TPI.
func (s *Store) FindTaskBySourceItem(ctx context.Context, q db.Querier, sourceItemID string) (models.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE source_item_id = ?`, sourceItemID)
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, noRowsToNotFound(err, "Task", sourceItemID)
	}
	return t, nil
}

// UpdateTaskDerived merges the observable fields of a fresh derive_task
// pass, leaving Status alone: that is user-owned once set (spec §4.3
// step 3).
func (s *Store) UpdateTaskDerived(
	ctx context.Context,
	q db.Querier,
	id string,
	patch db.TaskDerivedPatch,
) (models.Task, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE tasks SET title = ?, body = ?, priority = COALESCE(?, priority),
			due_at_json = COALESCE(?, due_at_json), project = COALESCE(?, project), updated_at = ?
		WHERE id = ?`,
		patch.Title, patch.Body, priorityPtrValue(patch.Priority), dueAtJSONOf(patch.DueAt),
		patch.Project, formatTime(patch.UpdatedAt), id,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task derived: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Task{}, apperrors.NewNotFound("Task", id)
	}
	return s.GetTask(ctx, q, id)
}

func priorityPtrValue(p *models.TaskPriority) any {
	if p == nil {
		return nil
	}
	return *p
}

// UpdateTaskStatus sets a task's status, reporting whether it actually
// changed (spec §4.1, HTTP 304 semantics).
func (s *Store) UpdateTaskStatus(
	ctx context.Context,
	q db.Querier,
	id string,
	status models.TaskStatus,
	completedAt *time.Time,
) (db.StatusUpdateResult[models.Task], error) {
	current, err := s.GetTask(ctx, q, id)
	if err != nil {
		return db.StatusUpdateResult[models.Task]{}, err
	}
	if current.Status == status {
		return db.StatusUpdateResult[models.Task]{Updated: false, Result: current}, nil
	}
	_, err = q.ExecContext(ctx, `UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		status, formatNullTime(completedAt), formatTime(time.Now()), id,
	)
	if err != nil {
		return db.StatusUpdateResult[models.Task]{}, fmt.Errorf("update task status: %w", err)
	}
	updated, err := s.GetTask(ctx, q, id)
	if err != nil {
		return db.StatusUpdateResult[models.Task]{}, err
	}
	return db.StatusUpdateResult[models.Task]{Updated: true, Result: updated}, nil
}

// UpdateTaskPlan applies a user-originated TaskPatch (spec §4.4).
func (s *Store) UpdateTaskPlan(ctx context.Context, q db.Querier, id string, patch models.TaskPatch) (models.Task, error) {
	current, err := s.GetTask(ctx, q, id)
	if err != nil {
		return models.Task{}, err
	}
	if patch.Status != nil {
		current.Status = *patch.Status
	}
	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Body != nil {
		current.Body = *patch.Body
	}
	if patch.Project != nil {
		current.Project = *patch.Project
	}
	if patch.DueAt != nil {
		current.DueAt = *patch.DueAt
	}
	if patch.Priority != nil {
		current.Priority = *patch.Priority
	}
	tagsJSON, err := marshalJSON(current.Tags)
	if err != nil {
		return models.Task{}, err
	}
	_, err = q.ExecContext(ctx, `
		UPDATE tasks SET title = ?, body = ?, status = ?, project = ?, due_at_json = ?, priority = ?,
			tags_json = ?, updated_at = ?
		WHERE id = ?`,
		current.Title, current.Body, current.Status, current.Project, dueAtJSONOf(current.DueAt),
		current.Priority, tagsJSON, formatTime(time.Now()), id,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task plan: %w", err)
	}
	return s.GetTask(ctx, q, id)
}

// UpdateTaskSinkItem records the TPI mirroring this task in a task-manager
// provider (spec §3.1, §3.3).
func (s *Store) UpdateTaskSinkItem(ctx context.Context, q db.Querier, id string, sinkItemID string) (models.Task, error) {
	res, err := q.ExecContext(ctx, `UPDATE tasks SET sink_item_id = ?, updated_at = ? WHERE id = ?`,
		sinkItemID, formatTime(time.Now()), id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task sink item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Task{}, apperrors.NewNotFound("Task", id)
	}
	return s.GetTask(ctx, q, id)
}

// ListTasks lists tasks matching a filter.
func (s *Store) ListTasks(ctx context.Context, q db.Querier, filter db.TaskFilter) ([]models.Task, error) {
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
	if filter.Project != "" {
		where = append(where, "project = ?")
		args = append(args, filter.Project)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
