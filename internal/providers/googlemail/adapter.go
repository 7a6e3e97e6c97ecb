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

package googlemail

import (
	"context"
	"fmt"
	"strconv"

	"github.com/octobud-hq/octobud/backend/internal/crypto"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/providers"
)

const (
	contextAccountEmailKey = "accountEmail"
	contextLastUIDKey      = "lastUid"
)

// Adapter implements providers.Adapter for Gmail threads filtered to a
// configured label.
type Adapter struct {
	encryptor *crypto.Encryptor
}

// NewAdapter builds a Google Mail Adapter.
func NewAdapter(encryptor *crypto.Encryptor) *Adapter {
	return &Adapter{encryptor: encryptor}
}

// Kind implements providers.Adapter.
func (a *Adapter) Kind() models.ProviderKind { return models.ProviderGoogleMail }

func (a *Adapter) clientFor(conn models.IntegrationConnection) (*Client, error) {
	token, err := a.encryptor.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("googlemail: decrypt token: %w", err)
	}
	email := conn.Context[contextAccountEmailKey]
	if email == "" {
		return nil, fmt.Errorf("googlemail: connection missing %q in context", contextAccountEmailKey)
	}
	return NewClient(email, token), nil
}

// ListForUser implements providers.Adapter (spec §4.2, §8 scenario 3).
func (a *Adapter) ListForUser(
	ctx context.Context,
	conn models.IntegrationConnection,
) ([]providers.FetchedItem, map[string]string, error) {
	if conn.Config.GoogleMail == nil {
		return nil, conn.Context, fmt.Errorf("googlemail: connection missing config")
	}
	client, err := a.clientFor(conn)
	if err != nil {
		return nil, nil, err
	}
	defer client.Close()

	var sinceUID uint64
	if s, ok := conn.Context[contextLastUIDKey]; ok {
		sinceUID, _ = strconv.ParseUint(s, 10, 32)
	}

	label := conn.Config.GoogleMail.SyncedLabel.Name
	messages, err := client.FetchLabelThreads(ctx, label, uint32(sinceUID))
	if err != nil {
		return nil, nil, err
	}

	items := make([]providers.FetchedItem, 0, len(messages))
	maxUID := uint32(sinceUID)
	for _, m := range messages {
		data := models.GoogleMailThreadData{
			ThreadID:  m.ThreadID,
			HistoryID: uint64(m.UID),
			Subject:   m.Subject,
			From:      m.From,
			LabelIDs:  []string{label},
			IsUnread:  !m.Seen,
		}
		items = append(items, providers.FetchedItem{
			SourceID: m.ThreadID,
			Data: models.ThirdPartyItemData{
				Kind:             models.ItemKindGoogleMailThread,
				GoogleMailThread: &data,
			},
		})
		if m.UID > maxUID {
			maxUID = m.UID
		}
	}

	nextContext := map[string]string{}
	for k, v := range conn.Context {
		nextContext[k] = v
	}
	nextContext[contextLastUIDKey] = strconv.FormatUint(uint64(maxUID), 10)
	return items, nextContext, nil
}

// DeriveNotification implements providers.Adapter (spec §4.3, §8 scenario
// 3: every synced-label thread becomes a notification, since Gmail is
// notification-only in this system, never a task source).
func (a *Adapter) DeriveNotification(
	conn models.IntegrationConnection,
	item models.ThirdPartyItem,
) (models.Notification, bool) {
	if conn.Config.GoogleMail == nil || !conn.Config.GoogleMail.SyncNotificationsEnabled {
		return models.Notification{}, false
	}
	d := item.Data.GoogleMailThread
	if d == nil {
		return models.Notification{}, false
	}
	status := models.NotificationUnread
	if !d.IsUnread {
		status = models.NotificationRead
	}
	return models.Notification{
		ID:           models.NewID(),
		Title:        d.Subject,
		Kind:         models.ProviderGoogleMail,
		Status:       status,
		SourceItemID: item.ID,
		UpdatedAt:    item.UpdatedAt,
		UserID:       item.UserID,
		CreatedAt:    item.CreatedAt,
	}, true
}

// DeriveTask implements providers.Adapter. Gmail is never a task source in
// this system (spec §6.1 lists it notification-only).
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
	defer client.Close()

	label := conn.Config.GoogleMail.SyncedLabel.Name
	d := sourceItem.Data.GoogleMailThread
	if d == nil {
		return fmt.Errorf("googlemail: source item missing thread payload")
	}
	uid, err := strconv.ParseUint(d.ThreadID, 10, 32)
	if err != nil {
		return fmt.Errorf("googlemail: thread id %q is not a UID: %w", d.ThreadID, err)
	}

	switch n.Status {
	case models.NotificationRead:
		return client.MarkSeen(ctx, label, uint32(uid))
	case models.NotificationUnread:
		return client.MarkUnseen(ctx, label, uint32(uid))
	case models.NotificationDeleted, models.NotificationUnsubscribed:
		return client.ArchiveFromLabel(ctx, label, uint32(uid))
	default:
		return nil
	}
}

// PushTaskCreation implements providers.Adapter. Gmail is never a task
// sink (spec §3.3), so this is never called.
func (a *Adapter) PushTaskCreation(context.Context, models.IntegrationConnection, models.Task) (string, error) {
	return "", fmt.Errorf("googlemail: not a task-manager provider")
}

// PushTaskUpdate implements providers.Adapter. See PushTaskCreation.
func (a *Adapter) PushTaskUpdate(context.Context, models.IntegrationConnection, models.Task, models.ThirdPartyItem) error {
	return fmt.Errorf("googlemail: not a task-manager provider")
}

var _ providers.Adapter = (*Adapter)(nil)
