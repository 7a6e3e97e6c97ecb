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

package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

// Adapter implements providers.Adapter for starred Slack messages.
type Adapter struct {
	encryptor   *crypto.Encryptor
	httpTimeout time.Duration
}

// NewAdapter builds a Slack Adapter. httpTimeout bounds every outbound
// call to the Slack Web API (config.Config.HTTPClientTimeout).
func NewAdapter(encryptor *crypto.Encryptor, httpTimeout time.Duration) *Adapter {
	return &Adapter{encryptor: encryptor, httpTimeout: httpTimeout}
}

// Kind implements providers.Adapter.
func (a *Adapter) Kind() models.ProviderKind { return models.ProviderSlack }

func (a *Adapter) clientFor(conn models.IntegrationConnection) (*Client, error) {
	token, err := a.encryptor.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("slack: decrypt token: %w", err)
	}
	return NewClient(token, a.httpTimeout), nil
}

// ListForUser implements providers.Adapter (spec §4.2, §8 scenario 4).
func (a *Adapter) ListForUser(
	ctx context.Context,
	conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	client, err := a.clientFor(conn)
	if err != nil {
		return nil, nil, err
	}
	stars, err := client.FetchStars(ctx)
	if err != nil {
		return nil, nil, err
	}
	items := make([]providers.FetchedItem, 0, len(stars))
	for _, s := range stars {
		sourceID := s.ChannelID + ":" + s.Timestamp
		items = append(items, providers.FetchedItem{
			SourceID: sourceID,
			Data: models.ThirdPartyItemData{
				Kind: models.ItemKindSlackStar,
				SlackStar: &models.SlackStarData{
					ChannelID: s.ChannelID,
					Timestamp: s.Timestamp,
					Text:      s.Text,
					Permalink: s.Permalink,
					UserID:    s.UserID,
					StarredAt: s.StarredAt,
				},
			},
			UpdatedAt: s.StarredAt,
		})
	}
	// Slack's stars.list has no incremental cursor worth persisting: the
	// full starred set is small and re-listed every pass, with staleness
	// (unstarring) handled by the sweep over ListStaleThirdPartyItems.
	return items, conn.Context, nil
}

// DeriveNotification implements providers.Adapter (spec §4.3, §8 scenario
// 4), used when the connection is configured to sync stars as
// notifications.
func (a *Adapter) DeriveNotification(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Notification, bool) {
	if conn.Config.Slack == nil || !conn.Config.Slack.SyncEnabled || conn.Config.Slack.SyncType != models.SlackSyncAsNotifications {
		return models.Notification{}, false
	}
	d := item.Data.SlackStar
	if d == nil {
		return models.Notification{}, false
	}
	return models.Notification{
		ID:           models.NewID(),
		Title:        d.Text,
		Kind:         models.ProviderSlack,
		Status:       models.NotificationUnread,
		SourceItemID: item.ID,
		UpdatedAt:    item.UpdatedAt,
		UserID:       item.UserID,
		HTMLURL:      d.Permalink,
		CreatedAt:    item.CreatedAt,
	}, true
}

// DeriveTask implements providers.Adapter, used when the connection is
// configured to sync stars as tasks instead (spec §6.1).
func (a *Adapter) DeriveTask(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Task, bool) {
	if conn.Config.Slack == nil || !conn.Config.Slack.SyncEnabled || conn.Config.Slack.SyncType != models.SlackSyncAsTasks {
		return models.Task{}, false
	}
	d := item.Data.SlackStar
	if d == nil {
		return models.Task{}, false
	}
	cfg := conn.Config.Slack.TaskConfig
	priority := models.TaskPriorityP4
	if cfg.DefaultPriority != nil {
		priority = *cfg.DefaultPriority
	}
	t := models.Task{
		ID:           models.NewID(),
		Title:        d.Text,
		Status:       models.TaskActive,
		Kind:         models.ProviderSlack,
		Priority:     priority,
		SourceItemID: item.ID,
		UserID:       item.UserID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	// Starred messages carry no due date of their own; a configured default
	// is the only source for one.
	if cfg.DefaultDueAt != nil {
		due := providers.ResolvePresetDueDate(*cfg.DefaultDueAt, item.UpdatedAt)
		t.DueAt = &due
	}
	if cfg.TargetProject != nil {
		t.Project = cfg.TargetProject.Name
	}
	return t, true
}

// PushNotificationStatus implements providers.Adapter (spec §4.4). Slack
// stars have no separate read/unread state, so only Deleted/Unsubscribed
// map onto a real API call (unstarring); Read is a local-only transition.
func (a *Adapter) PushNotificationStatus(
	ctx context.Context,
	conn models.IntegrationConnection,
	n models.Notification,
	sourceItem models.ThirdPartyItem,
) error {
	if n.Status != models.NotificationDeleted && n.Status != models.NotificationUnsubscribed {
		return nil
	}
	client, err := a.clientFor(conn)
	if err != nil {
		return err
	}
	d := sourceItem.Data.SlackStar
	if d == nil {
		return fmt.Errorf("slack: source item missing star payload")
	}
	return client.RemoveStar(ctx, d.ChannelID, d.Timestamp)
}

// PushTaskCreation implements providers.Adapter. Slack is never a task
// sink (spec §3.3), so this is never called.
func (a *Adapter) PushTaskCreation(context.Context, models.IntegrationConnection, models.Task) (string, error) {
	return "", fmt.Errorf("slack: not a task-manager provider")
}

// PushTaskUpdate implements providers.Adapter. A completed/deleted task
// unstars the originating message so it stops reappearing on resync.
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
	d := sourceItem.Data.SlackStar
	if d == nil {
		return fmt.Errorf("slack: source item missing star payload")
	}
	return client.RemoveStar(ctx, d.ChannelID, d.Timestamp)
}

var _ providers.Adapter = (*Adapter)(nil)
