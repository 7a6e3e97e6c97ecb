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

package github

import (
	"context"
	"fmt"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

const syncContextSinceKey = "since"

// Adapter implements providers.Adapter for GitHub.
type Adapter struct {
	encryptor   *crypto.Encryptor
	httpTimeout time.Duration
}

// NewAdapter builds a GitHub Adapter. The encryptor decrypts each
// connection's stored access token before use; httpTimeout bounds every
// outbound call to the GitHub API (config.Config.HTTPClientTimeout).
func NewAdapter(encryptor *crypto.Encryptor, httpTimeout time.Duration) *Adapter {
	return &Adapter{encryptor: encryptor, httpTimeout: httpTimeout}
}

// Kind implements providers.Adapter.
func (a *Adapter) Kind() models.ProviderKind { return models.ProviderGitHub }

func (a *Adapter) clientFor(conn models.IntegrationConnection) (*Client, error) {
	token, err := a.encryptor.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("github: decrypt token: %w", err)
	}
	return NewClient(token, a.httpTimeout), nil
}

// ListForUser implements providers.Adapter (spec §4.2 list_for_user +
// into_tpi_data, combined since the REST response already carries
// everything into_tpi_data would otherwise project out of a details
// fetch).
func (a *Adapter) ListForUser(
	ctx context.Context,
	conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	client, err := a.clientFor(conn)
	if err != nil {
		return nil, nil, err
	}
	var since *time.Time
	if s, ok := conn.Context[syncContextSinceKey]; ok && s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			since = &t
		}
	}
	threads, err := client.FetchNotifications(ctx, since)
	if err != nil {
		return nil, nil, err
	}

	items := make([]providers.FetchedItem, 0, len(threads))
	latest := since
	for _, th := range threads {
		data := models.GitHubNotificationData{
			ThreadID:           th.ID,
			Reason:             th.Reason,
			Unread:             th.Unread,
			UpdatedAt:          th.UpdatedAt,
			LastReadAt:         th.LastReadAt,
			SubjectTitle:       th.Subject.Title,
			SubjectType:        th.Subject.Type,
			SubjectURL:         th.Subject.URL,
			RepositoryFullName: th.Repository.FullName,
			URL:                th.URL,
			SubscriptionURL:    th.SubscriptionURL,
		}
		items = append(items, providers.FetchedItem{
			SourceID: th.ID,
			Data: models.ThirdPartyItemData{
				Kind:               models.ItemKindGitHubNotification,
				GitHubNotification: &data,
			},
			UpdatedAt: th.UpdatedAt,
		})
		if latest == nil || th.UpdatedAt.After(*latest) {
			latest = &th.UpdatedAt
		}
	}

	nextContext := map[string]string{}
	for k, v := range conn.Context {
		nextContext[k] = v
	}
	if latest != nil {
		nextContext[syncContextSinceKey] = latest.UTC().Format(time.RFC3339)
	}
	return items, nextContext, nil
}

// DeriveNotification implements providers.Adapter (spec §4.3).
func (a *Adapter) DeriveNotification(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Notification, bool) {
	if conn.Config.GitHub == nil || !conn.Config.GitHub.SyncNotificationsEnabled {
		return models.Notification{}, false
	}
	d := item.Data.GitHubNotification
	if d == nil {
		return models.Notification{}, false
	}
	status := models.NotificationUnread
	if !d.Unread {
		status = models.NotificationRead
	}
	return models.Notification{
		ID:           models.NewID(),
		Title:        d.SubjectTitle,
		Kind:         models.ProviderGitHub,
		Status:       status,
		SourceItemID: item.ID,
		UpdatedAt:    d.UpdatedAt,
		LastReadAt:   d.LastReadAt,
		UserID:       item.UserID,
		HTMLURL:      d.SubjectURL,
		CreatedAt:    item.CreatedAt,
	}, true
}

// DeriveTask implements providers.Adapter. GitHub notifications never
// become tasks directly (spec §8 scenario 1): a user promotes one to a
// task explicitly via the notification's TaskID link instead, so this
// adapter never originates one from a sync pass.
func (a *Adapter) DeriveTask(models.IntegrationConnection, models.ThirdPartyItem) (models.Task, bool) {
	return models.Task{}, false
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
	threadID := sourceItem.SourceID
	switch n.Status {
	case models.NotificationRead:
		return client.MarkThreadRead(ctx, threadID)
	case models.NotificationDeleted:
		return client.MarkThreadDone(ctx, threadID)
	case models.NotificationUnsubscribed:
		return client.Unsubscribe(ctx, threadID)
	default:
		return nil
	}
}

// PushTaskCreation implements providers.Adapter. GitHub is never a task
// sink (spec §3.3), so this is never called; it is implemented to satisfy
// the interface and guard against a future mis-wiring.
func (a *Adapter) PushTaskCreation(context.Context, models.IntegrationConnection, models.Task) (string, error) {
	return "", fmt.Errorf("github: not a task-manager provider")
}

// PushTaskUpdate implements providers.Adapter. See PushTaskCreation.
func (a *Adapter) PushTaskUpdate(context.Context, models.IntegrationConnection, models.Task, models.ThirdPartyItem) error {
	return fmt.Errorf("github: not a task-manager provider")
}

var _ providers.Adapter = (*Adapter)(nil)
