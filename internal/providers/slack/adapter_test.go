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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/octobud-hq/octobud/backend/internal/models"
)

func newTestAdapter() *Adapter { return &Adapter{} }

func TestDeriveNotification_OnlyWhenSyncTypeIsNotifications(t *testing.T) {
	item := models.ThirdPartyItem{
		ID:   "tpi-1",
		Data: models.ThirdPartyItemData{SlackStar: &models.SlackStarData{Text: "look at this", Permalink: "https://slack.com/x"}},
	}

	notifConn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Slack: &models.SlackConfig{SyncEnabled: true, SyncType: models.SlackSyncAsNotifications},
		},
	}
	n, ok := newTestAdapter().DeriveNotification(notifConn, item)
	require.True(t, ok)
	require.Equal(t, "look at this", n.Title)
	require.Equal(t, models.NotificationUnread, n.Status)

	taskConn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Slack: &models.SlackConfig{SyncEnabled: true, SyncType: models.SlackSyncAsTasks},
		},
	}
	_, ok = newTestAdapter().DeriveNotification(taskConn, item)
	require.False(t, ok)
}

func TestDeriveTask_OnlyWhenSyncTypeIsTasks(t *testing.T) {
	item := models.ThirdPartyItem{
		ID:   "tpi-1",
		Data: models.ThirdPartyItemData{SlackStar: &models.SlackStarData{Text: "action item"}},
	}

	taskConn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Slack: &models.SlackConfig{SyncEnabled: true, SyncType: models.SlackSyncAsTasks},
		},
	}
	task, ok := newTestAdapter().DeriveTask(taskConn, item)
	require.True(t, ok)
	require.Equal(t, "action item", task.Title)
	require.Equal(t, models.TaskActive, task.Status)
	require.Equal(t, models.TaskPriorityP4, task.Priority)

	notifConn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Slack: &models.SlackConfig{SyncEnabled: true, SyncType: models.SlackSyncAsNotifications},
		},
	}
	_, ok = newTestAdapter().DeriveTask(notifConn, item)
	require.False(t, ok)
}

func TestDeriveTask_AppliesConfiguredDefaultPriorityAndDueDate(t *testing.T) {
	p1 := models.TaskPriorityP1
	preset := models.PresetDueToday
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Slack: &models.SlackConfig{
				SyncEnabled: true, SyncType: models.SlackSyncAsTasks,
				TaskConfig: models.TaskSyncConfig{DefaultPriority: &p1, DefaultDueAt: &preset},
			},
		},
	}
	item := models.ThirdPartyItem{
		UpdatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Data:      models.ThirdPartyItemData{SlackStar: &models.SlackStarData{Text: "urgent"}},
	}

	task, ok := newTestAdapter().DeriveTask(conn, item)
	require.True(t, ok)
	require.Equal(t, models.TaskPriorityP1, task.Priority)
	require.NotNil(t, task.DueAt)
	require.Equal(t, "2026-04-01", task.DueAt.Date)
}

func TestPushNotificationStatus_ReadIsLocalOnly(t *testing.T) {
	n := models.Notification{Status: models.NotificationRead}
	err := newTestAdapter().PushNotificationStatus(context.Background(), models.IntegrationConnection{}, n, models.ThirdPartyItem{})
	require.NoError(t, err)
}

func TestPushTaskUpdate_NoopUnlessTaskResolved(t *testing.T) {
	err := newTestAdapter().PushTaskUpdate(
		context.Background(), models.IntegrationConnection{}, models.Task{Status: models.TaskActive}, models.ThirdPartyItem{},
	)
	require.NoError(t, err)
}

func TestPushTaskCreation_RejectsNonTaskManagerUse(t *testing.T) {
	_, err := newTestAdapter().PushTaskCreation(context.Background(), models.IntegrationConnection{}, models.Task{})
	require.Error(t, err)
}
