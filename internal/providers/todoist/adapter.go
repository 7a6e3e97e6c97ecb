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

package todoist

import (
	"context"
	"fmt"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

// Adapter implements providers.Adapter for Todoist, which can act both as
// a task source (spec §6.1) and as the task-manager sink tasks from other
// providers get mirrored into (spec §3.3).
type Adapter struct {
	encryptor   *crypto.Encryptor
	httpTimeout time.Duration
}

// NewAdapter builds a Todoist Adapter. httpTimeout bounds every outbound
// call to the Todoist REST API (config.Config.HTTPClientTimeout).
func NewAdapter(encryptor *crypto.Encryptor, httpTimeout time.Duration) *Adapter {
	return &Adapter{encryptor: encryptor, httpTimeout: httpTimeout}
}

// Kind implements providers.Adapter.
func (a *Adapter) Kind() models.ProviderKind { return models.ProviderTodoist }

func (a *Adapter) clientFor(conn models.IntegrationConnection) (*Client, error) {
	token, err := a.encryptor.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("todoist: decrypt token: %w", err)
	}
	return NewClient(token, a.httpTimeout), nil
}

// ListForUser implements providers.Adapter (spec §4.2).
func (a *Adapter) ListForUser(
	ctx context.Context,
	conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	client, err := a.clientFor(conn)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := client.FetchActiveTasks(ctx)
	if err != nil {
		return nil, nil, err
	}
	items := make([]providers.FetchedItem, 0, len(tasks))
	for _, t := range tasks {
		data := models.TodoistItemData{
			ID:          t.ID,
			Content:     t.Content,
			Description: t.Description,
			ProjectID:   t.ProjectID,
			Priority:    t.Priority,
			IsCompleted: t.IsCompleted,
			URL:         t.URL,
		}
		if t.Due != nil {
			d := t.Due.Date
			data.Due = &d
		}
		items = append(items, providers.FetchedItem{
			SourceID: t.ID,
			Data:     models.ThirdPartyItemData{Kind: models.ItemKindTodoistItem, TodoistItem: &data},
		})
	}
	return items, conn.Context, nil
}

// DeriveNotification implements providers.Adapter. Todoist only
// contributes a notification for tasks it did not itself originate as a
// mirrored sink item, and only when configured to (spec §3.3
// createNotificationFromInboxTask); it never doubles up by notifying about
// its own mirror of another provider's task.
func (a *Adapter) DeriveNotification(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Notification, bool) {
	if conn.Config.Todoist == nil || !conn.Config.Todoist.CreateNotificationFromInboxTask {
		return models.Notification{}, false
	}
	if item.SourceItemID != nil {
		return models.Notification{}, false
	}
	d := item.Data.TodoistItem
	if d == nil {
		return models.Notification{}, false
	}
	status := models.NotificationUnread
	if d.IsCompleted {
		status = models.NotificationRead
	}
	return models.Notification{
		ID:           models.NewID(),
		Title:        d.Content,
		Kind:         models.ProviderTodoist,
		Status:       status,
		SourceItemID: item.ID,
		UpdatedAt:    item.UpdatedAt,
		UserID:       item.UserID,
		HTMLURL:      d.URL,
		CreatedAt:    item.CreatedAt,
	}, true
}

// DeriveTask implements providers.Adapter (spec §6.1 task source role).
// Mirrored sink items (SourceItemID set) are never re-derived into a
// second Task of their own.
func (a *Adapter) DeriveTask(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Task, bool) {
	if conn.Config.Todoist == nil || !conn.Config.Todoist.SyncTasksEnabled {
		return models.Task{}, false
	}
	if item.SourceItemID != nil {
		return models.Task{}, false
	}
	d := item.Data.TodoistItem
	if d == nil {
		return models.Task{}, false
	}
	status := models.TaskActive
	if d.IsCompleted {
		status = models.TaskDone
	}
	t := models.Task{
		ID:           models.NewID(),
		Title:        d.Content,
		Body:         d.Description,
		Status:       status,
		Kind:         models.ProviderTodoist,
		Priority:     todoistPriorityToTaskPriority(d.Priority),
		SourceItemID: item.ID,
		SinkItemID:   &item.ID,
		UserID:       item.UserID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if d.Due != nil {
		t.DueAt = &models.DueDate{Kind: models.DueDateDate, Date: *d.Due}
	}
	return t, true
}

// todoistPriorityToTaskPriority maps Todoist's 1 (normal) .. 4 (urgent)
// scale onto our P1 (highest) .. P4 (lowest) scale.
func todoistPriorityToTaskPriority(p int) models.TaskPriority {
	switch p {
	case 4:
		return models.TaskPriorityP1
	case 3:
		return models.TaskPriorityP2
	case 2:
		return models.TaskPriorityP3
	default:
		return models.TaskPriorityP4
	}
}

func taskPriorityToTodoistPriority(p models.TaskPriority) int {
	switch p {
	case models.TaskPriorityP1:
		return 4
	case models.TaskPriorityP2:
		return 3
	case models.TaskPriorityP3:
		return 2
	default:
		return 1
	}
}

// PushNotificationStatus implements providers.Adapter (spec §4.4).
func (a *Adapter) PushNotificationStatus(
	ctx context.Context,
	conn models.IntegrationConnection,
	n models.Notification,
	sourceItem models.ThirdPartyItem,
) error {
	client, err := a.clientFor(conn)
	if err != nil {
		return err
	}
	switch n.Status {
	case models.NotificationRead:
		return client.CloseTask(ctx, sourceItem.SourceID)
	case models.NotificationDeleted, models.NotificationUnsubscribed:
		return client.DeleteTask(ctx, sourceItem.SourceID)
	default:
		return nil
	}
}

func dueStringFor(t models.Task) string {
	if t.DueAt == nil {
		return ""
	}
	switch t.DueAt.Kind {
	case models.DueDateDate:
		return t.DueAt.Date
	default:
		return t.DueAt.DateTime.Format("2006-01-02T15:04:05")
	}
}

// PushTaskCreation implements providers.Adapter (spec §3.3 sink role):
// creates a mirrored Todoist task for one originated by another provider.
func (a *Adapter) PushTaskCreation(
	ctx context.Context,
	conn models.IntegrationConnection,
	t models.Task,
) (string, error) {
	client, err := a.clientFor(conn)
	if err != nil {
		return "", err
	}
	req := createTaskRequest{
		Content:   t.Title,
		Priority:  taskPriorityToTodoistPriority(t.Priority),
		DueString: dueStringFor(t),
	}
	return client.CreateTask(ctx, req)
}

// PushTaskUpdate implements providers.Adapter (spec §4.4): pushes a status
// or field change to the mirrored Todoist task.
func (a *Adapter) PushTaskUpdate(
	ctx context.Context,
	conn models.IntegrationConnection,
	t models.Task,
	sinkItem models.ThirdPartyItem,
) error {
	client, err := a.clientFor(conn)
	if err != nil {
		return err
	}
	switch t.Status {
	case models.TaskDone:
		return client.CloseTask(ctx, sinkItem.SourceID)
	case models.TaskDeleted:
		return client.DeleteTask(ctx, sinkItem.SourceID)
	case models.TaskActive:
		if err := client.ReopenTask(ctx, sinkItem.SourceID); err != nil {
			return err
		}
	}
	return client.UpdateTask(ctx, sinkItem.SourceID, createTaskRequest{
		Content:   t.Title,
		Priority:  taskPriorityToTodoistPriority(t.Priority),
		DueString: dueStringFor(t),
	})
}

var _ providers.Adapter = (*Adapter)(nil)
