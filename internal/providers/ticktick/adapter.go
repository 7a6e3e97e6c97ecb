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

package ticktick

import (
	"context"
	"fmt"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

// Adapter implements providers.Adapter for TickTick, a task-manager sink
// only (spec §3.3): it never originates notifications or tasks of its own,
// it only receives mirrored tasks from other providers.
type Adapter struct {
	encryptor   *crypto.Encryptor
	httpTimeout time.Duration
}

// NewAdapter builds a TickTick Adapter. httpTimeout bounds every outbound
// call to the TickTick open API (config.Config.HTTPClientTimeout).
func NewAdapter(encryptor *crypto.Encryptor, httpTimeout time.Duration) *Adapter {
	return &Adapter{encryptor: encryptor, httpTimeout: httpTimeout}
}

// Kind implements providers.Adapter.
func (a *Adapter) Kind() models.ProviderKind { return models.ProviderTickTick }

func (a *Adapter) clientFor(conn models.IntegrationConnection) (*Client, error) {
	token, err := a.encryptor.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("ticktick: decrypt token: %w", err)
	}
	return NewClient(token, a.httpTimeout), nil
}

// ListForUser implements providers.Adapter (spec §4.2). TickTick's API has
// no single cross-project task listing, so this walks every project.
func (a *Adapter) ListForUser(
	ctx context.Context,
	conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	client, err := a.clientFor(conn)
	if err != nil {
		return nil, nil, err
	}
	projects, err := client.FetchProjects(ctx)
	if err != nil {
		return nil, nil, err
	}

	var items []providers.FetchedItem
	for _, p := range projects {
		tasks, err := client.FetchProjectTasks(ctx, p.ID)
		if err != nil {
			return nil, nil, err
		}
		for _, t := range tasks {
			data := models.TickTickTaskData{
				ID:        t.ID,
				ProjectID: t.ProjectID,
				Title:     t.Title,
				Content:   t.Content,
				Priority:  t.Priority,
				Status:    t.Status,
			}
			if t.DueDate != "" {
				due := t.DueDate
				data.DueDate = &due
			}
			items = append(items, providers.FetchedItem{
				SourceID: t.ID,
				Data:     models.ThirdPartyItemData{Kind: models.ItemKindTickTickTask, TickTickTask: &data},
			})
		}
	}
	return items, conn.Context, nil
}

// DeriveNotification implements providers.Adapter. TickTick never
// originates notifications (spec §3.3: sink-only provider).
func (a *Adapter) DeriveNotification(models.IntegrationConnection, models.ThirdPartyItem) (models.Notification, bool) {
	return models.Notification{}, false
}

// DeriveTask implements providers.Adapter, used only for TickTick's own
// mirror of a task this connection itself created as a sink (so the task's
// SourceItemID and SinkItemID both resolve back to it, per
// models.Task.SinkItemID's doc comment); tasks whose SourceItemID is unset
// originate elsewhere and flow through PushTaskCreation instead.
func (a *Adapter) DeriveTask(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Task, bool) {
	if item.SourceItemID == nil {
		return models.Task{}, false
	}
	d := item.Data.TickTickTask
	if d == nil {
		return models.Task{}, false
	}
	status := models.TaskActive
	if d.Status == 2 {
		status = models.TaskDone
	}
	t := models.Task{
		ID:           models.NewID(),
		Title:        d.Title,
		Body:         d.Content,
		Status:       status,
		Kind:         models.ProviderTickTick,
		Priority:     ticktickPriorityToTaskPriority(d.Priority),
		SourceItemID: *item.SourceItemID,
		SinkItemID:   &item.ID,
		UserID:       item.UserID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if d.DueDate != nil {
		t.DueAt = &models.DueDate{Kind: models.DueDateDate, Date: *d.DueDate}
	}
	return t, true
}

func ticktickPriorityToTaskPriority(p int) models.TaskPriority {
	switch {
	case p >= 5:
		return models.TaskPriorityP1
	case p >= 3:
		return models.TaskPriorityP2
	case p >= 1:
		return models.TaskPriorityP3
	default:
		return models.TaskPriorityP4
	}
}

func taskPriorityToTickTickPriority(p models.TaskPriority) int {
	switch p {
	case models.TaskPriorityP1:
		return 5
	case models.TaskPriorityP2:
		return 3
	case models.TaskPriorityP3:
		return 1
	default:
		return 0
	}
}

func dueDateFor(t models.Task) string {
	if t.DueAt == nil {
		return ""
	}
	if t.DueAt.Kind == models.DueDateDate {
		return t.DueAt.Date
	}
	return t.DueAt.DateTime.Format("2006-01-02T15:04:05-0700")
}

// PushNotificationStatus implements providers.Adapter. TickTick never
// carries notifications (spec §3.3), so this is never called.
func (a *Adapter) PushNotificationStatus(context.Context, models.IntegrationConnection, models.Notification, models.ThirdPartyItem) error {
	return fmt.Errorf("ticktick: does not originate notifications")
}

// PushTaskCreation implements providers.Adapter (spec §3.3 sink role):
// creates a mirrored TickTick task for one originated by another provider.
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
		Title:    t.Title,
		Content:  t.Body,
		Priority: taskPriorityToTickTickPriority(t.Priority),
		DueDate:  dueDateFor(t),
	}
	if conn.Config.TickTick != nil && conn.Config.TickTick.DefaultProject != nil {
		req.ProjectID = conn.Config.TickTick.DefaultProject.ID
	}
	return client.CreateTask(ctx, req)
}

// PushTaskUpdate implements providers.Adapter (spec §4.4).
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
	d := sinkItem.Data.TickTickTask
	if d == nil {
		return fmt.Errorf("ticktick: sink item missing task payload")
	}
	projectID := d.ProjectID
	switch t.Status {
	case models.TaskDone:
		return client.CompleteTask(ctx, projectID, sinkItem.SourceID)
	case models.TaskDeleted:
		return client.DeleteTask(ctx, projectID, sinkItem.SourceID)
	}
	return client.UpdateTask(ctx, sinkItem.SourceID, createTaskRequest{
		ProjectID: projectID,
		Title:     t.Title,
		Content:   t.Body,
		Priority:  taskPriorityToTickTickPriority(t.Priority),
		DueDate:   dueDateFor(t),
	})
}

var _ providers.Adapter = (*Adapter)(nil)
