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

package linear

import (
	"context"
	"fmt"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

// Adapter implements providers.Adapter for Linear.
type Adapter struct {
	encryptor   *crypto.Encryptor
	httpTimeout time.Duration
}

// NewAdapter builds a Linear Adapter. httpTimeout bounds every outbound
// call to the Linear GraphQL API (config.Config.HTTPClientTimeout).
func NewAdapter(encryptor *crypto.Encryptor, httpTimeout time.Duration) *Adapter {
	return &Adapter{encryptor: encryptor, httpTimeout: httpTimeout}
}

// Kind implements providers.Adapter.
func (a *Adapter) Kind() models.ProviderKind { return models.ProviderLinear }

func (a *Adapter) clientFor(conn models.IntegrationConnection) (*Client, error) {
	token, err := a.encryptor.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("linear: decrypt token: %w", err)
	}
	return NewClient(token, a.httpTimeout), nil
}

// ListForUser implements providers.Adapter. Linear contributes both
// assigned issues (as Tasks, spec §8 scenario 5) and inbox notifications,
// so it fetches both item kinds in one sync pass.
func (a *Adapter) ListForUser(
	ctx context.Context,
	conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	client, err := a.clientFor(conn)
	if err != nil {
		return nil, nil, err
	}

	issues, err := client.FetchAssignedIssues(ctx)
	if err != nil {
		return nil, nil, err
	}
	notifications, err := client.FetchNotifications(ctx)
	if err != nil {
		return nil, nil, err
	}

	items := make([]providers.FetchedItem, 0, len(issues)+len(notifications))
	for _, iss := range issues {
		items = append(items, providers.FetchedItem{
			SourceID: iss.ID,
			Data: models.ThirdPartyItemData{
				Kind: models.ItemKindLinearIssue,
				LinearIssue: &models.LinearIssueData{
					ID:         iss.ID,
					Identifier: iss.Identifier,
					Title:      iss.Title,
					URL:        iss.URL,
					Priority:   iss.Priority,
					DueDate:    iss.DueDate,
					StateName:  iss.State.Name,
					StateType:  iss.State.Type,
					UpdatedAt:  iss.UpdatedAt,
				},
			},
			UpdatedAt: iss.UpdatedAt,
		})
	}
	for _, n := range notifications {
		items = append(items, providers.FetchedItem{
			SourceID: n.ID,
			Data: models.ThirdPartyItemData{
				Kind: models.ItemKindLinearNotification,
				LinearNotification: &models.LinearNotificationData{
					ID:        n.ID,
					Type:      n.Type,
					IssueID:   n.Issue.ID,
					Title:     n.Issue.Title,
					URL:       n.Issue.URL,
					ReadAt:    n.ReadAt,
					UpdatedAt: n.UpdatedAt,
				},
			},
			UpdatedAt: n.UpdatedAt,
		})
	}
	// Linear's feeds are cursor-paginated by the client itself and return
	// every open item each pass; there is no incremental cursor to persist
	// in Context (spec §4.2's since-cursor is GitHub/Gmail-specific).
	return items, conn.Context, nil
}

// DeriveNotification implements providers.Adapter (spec §4.3).
func (a *Adapter) DeriveNotification(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Notification, bool) {
	if conn.Config.Linear == nil || !conn.Config.Linear.SyncNotificationsEnabled {
		return models.Notification{}, false
	}
	d := item.Data.LinearNotification
	if d == nil {
		return models.Notification{}, false
	}
	status := models.NotificationUnread
	if d.ReadAt != nil {
		status = models.NotificationRead
	}
	return models.Notification{
		ID:           models.NewID(),
		Title:        d.Title,
		Kind:         models.ProviderLinear,
		Status:       status,
		SourceItemID: item.ID,
		UpdatedAt:    d.UpdatedAt,
		LastReadAt:   d.ReadAt,
		UserID:       item.UserID,
		HTMLURL:      d.URL,
		CreatedAt:    item.CreatedAt,
	}, true
}

// DeriveTask implements providers.Adapter (spec §8 scenario 5): an assigned
// issue becomes a Task when the connection's Linear task-sync is enabled.
func (a *Adapter) DeriveTask(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Task, bool) {
	if conn.Config.Linear == nil || !conn.Config.Linear.SyncTaskConfig.Enabled {
		return models.Task{}, false
	}
	d := item.Data.LinearIssue
	if d == nil {
		return models.Task{}, false
	}
	status := models.TaskActive
	if d.StateType == "completed" {
		status = models.TaskDone
	} else if d.StateType == "canceled" {
		status = models.TaskDeleted
	}
	cfg := conn.Config.Linear.SyncTaskConfig
	priority := linearPriorityToTaskPriority(d.Priority)
	if d.Priority == 0 && cfg.DefaultPriority != nil {
		priority = *cfg.DefaultPriority
	}
	t := models.Task{
		ID:           models.NewID(),
		Title:        fmt.Sprintf("%s %s", d.Identifier, d.Title),
		Status:       status,
		Kind:         models.ProviderLinear,
		Priority:     priority,
		SourceItemID: item.ID,
		UserID:       item.UserID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.DueDate != nil {
		t.DueAt = &models.DueDate{Kind: models.DueDateDate, Date: *d.DueDate}
	} else if cfg.DefaultDueAt != nil {
		due := providers.ResolvePresetDueDate(*cfg.DefaultDueAt, item.UpdatedAt)
		t.DueAt = &due
	}
	if cfg.TargetProject != nil {
		t.Project = cfg.TargetProject.Name
	}
	return t, true
}

// linearPriorityToTaskPriority maps Linear's 0 (no priority) .. 4 (low)
// scale onto our P1 (highest) .. P4 (lowest) scale; unprioritized issues
// fall back to our lowest tier rather than our highest.
func linearPriorityToTaskPriority(p int) models.TaskPriority {
	switch p {
	case 1:
		return models.TaskPriorityP1
	case 2:
		return models.TaskPriorityP2
	case 3:
		return models.TaskPriorityP3
	default:
		return models.TaskPriorityP4
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
		return client.MarkNotificationRead(ctx, sourceItem.SourceID)
	case models.NotificationDeleted:
		return client.ArchiveNotification(ctx, sourceItem.SourceID)
	case models.NotificationUnsubscribed:
		d := sourceItem.Data.LinearNotification
		if d == nil {
			return fmt.Errorf("linear: unsubscribe: source item missing notification payload")
		}
		return client.UnsubscribeFromIssue(ctx, d.IssueID, conn.UserID)
	default:
		return nil
	}
}

// PushTaskCreation implements providers.Adapter. Linear is never a task
// sink (spec §3.3: only Todoist/TickTick are task managers), so this is
// never called.
func (a *Adapter) PushTaskCreation(context.Context, models.IntegrationConnection, models.Task) (string, error) {
	return "", fmt.Errorf("linear: not a task-manager provider")
}

// PushTaskUpdate implements providers.Adapter. Linear is the source, never
// the sink, of tasks it contributes; a completed/deleted Task unsubscribes
// the viewer from the originating issue so it stops generating further
// notifications, mirroring the unsubscribe-on-resolve behavior of spec §8
// scenario 5.
func (a *Adapter) PushTaskUpdate(
	ctx context.Context,
	conn models.IntegrationConnection,
	t models.Task,
	sourceItem models.ThirdPartyItem,
) error {
	if t.Status != models.TaskDone && t.Status != models.TaskDeleted {
		return nil
	}
	client, err := a.clientFor(conn)
	if err != nil {
		return err
	}
	return client.UnsubscribeFromIssue(ctx, sourceItem.SourceID, conn.UserID)
}

var _ providers.Adapter = (*Adapter)(nil)
