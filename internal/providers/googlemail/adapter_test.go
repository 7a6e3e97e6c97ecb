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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/octobud-hq/octobud/backend/internal/models"
)

func newTestAdapter() *Adapter { return &Adapter{} }

func TestDeriveNotification_MapsUnreadAndReadStatus(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			GoogleMail: &models.GoogleMailConfig{SyncNotificationsEnabled: true},
		},
	}
	item := models.ThirdPartyItem{
		ID: "tpi-1",
		Data: models.ThirdPartyItemData{
			GoogleMailThread: &models.GoogleMailThreadData{Subject: "Re: project", IsUnread: true},
		},
	}

	n, ok := newTestAdapter().DeriveNotification(conn, item)
	require.True(t, ok)
	require.Equal(t, models.NotificationUnread, n.Status)
	require.Equal(t, "Re: project", n.Title)

	item.Data.GoogleMailThread.IsUnread = false
	n, ok = newTestAdapter().DeriveNotification(conn, item)
	require.True(t, ok)
	require.Equal(t, models.NotificationRead, n.Status)
}

func TestDeriveNotification_RequiresSyncEnabled(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			GoogleMail: &models.GoogleMailConfig{SyncNotificationsEnabled: false},
		},
	}
	item := models.ThirdPartyItem{Data: models.ThirdPartyItemData{GoogleMailThread: &models.GoogleMailThreadData{}}}

	_, ok := newTestAdapter().DeriveNotification(conn, item)
	require.False(t, ok)
}

func TestDeriveTask_NeverOriginatesFromGmail(t *testing.T) {
	_, ok := newTestAdapter().DeriveTask(models.IntegrationConnection{}, models.ThirdPartyItem{})
	require.False(t, ok)
}

func TestListForUser_RequiresConfig(t *testing.T) {
	conn := models.IntegrationConnection{}
	_, _, err := newTestAdapter().ListForUser(context.Background(), conn)
	require.Error(t, err)
}

func TestPushTaskCreationAndUpdate_RejectNonTaskManagerUse(t *testing.T) {
	ctx := context.Background()
	_, err := newTestAdapter().PushTaskCreation(ctx, models.IntegrationConnection{}, models.Task{})
	require.Error(t, err)

	err = newTestAdapter().PushTaskUpdate(ctx, models.IntegrationConnection{}, models.Task{}, models.ThirdPartyItem{})
	require.Error(t, err)
}
