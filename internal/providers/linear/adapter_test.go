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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/octobud-hq/octobud/backend/internal/models"
)

func newTestAdapter() *Adapter { return &Adapter{} }

func TestDeriveNotification_UnreadUntilReadAtSet(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Linear: &models.LinearConfig{SyncNotificationsEnabled: true},
		},
	}
	item := models.ThirdPartyItem{
		ID: "tpi-1",
		Data: models.ThirdPartyItemData{
			LinearNotification: &models.LinearNotificationData{Title: "Issue commented", URL: "https://linear.app/x"},
		},
	}

	n, ok := newTestAdapter().DeriveNotification(conn, item)
	require.True(t, ok)
	require.Equal(t, models.NotificationUnread, n.Status)

	readAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	item.Data.LinearNotification.ReadAt = &readAt
	n, ok = newTestAdapter().DeriveNotification(conn, item)
	require.True(t, ok)
	require.Equal(t, models.NotificationRead, n.Status)
}

func TestDeriveNotification_DisabledBySyncConfig(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Linear: &models.LinearConfig{SyncNotificationsEnabled: false},
		},
	}
	item := models.ThirdPartyItem{
		Data: models.ThirdPartyItemData{LinearNotification: &models.LinearNotificationData{}},
	}

	_, ok := newTestAdapter().DeriveNotification(conn, item)
	require.False(t, ok)
}

func TestDeriveTask_MapsStateTypeToTaskStatus(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Linear: &models.LinearConfig{SyncTaskConfig: models.TaskSyncConfig{Enabled: true}},
		},
	}

	for _, tc := range []struct {
		stateType string
		want      models.TaskStatus
	}{
		{"started", models.TaskActive},
		{"completed", models.TaskDone},
		{"canceled", models.TaskDeleted},
	} {
		item := models.ThirdPartyItem{
			ID: "tpi-1",
			Data: models.ThirdPartyItemData{
				LinearIssue: &models.LinearIssueData{
					Identifier: "ENG-1", Title: "Fix the thing", StateType: tc.stateType,
				},
			},
		}
		task, ok := newTestAdapter().DeriveTask(conn, item)
		require.True(t, ok)
		require.Equal(t, tc.want, task.Status)
		require.Equal(t, "ENG-1 Fix the thing", task.Title)
	}
}

func TestDeriveTask_DisabledByTaskSyncConfig(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Linear: &models.LinearConfig{SyncTaskConfig: models.TaskSyncConfig{Enabled: false}},
		},
	}
	item := models.ThirdPartyItem{Data: models.ThirdPartyItemData{LinearIssue: &models.LinearIssueData{}}}

	_, ok := newTestAdapter().DeriveTask(conn, item)
	require.False(t, ok)
}

func TestDeriveTask_UnprioritizedIssueFallsBackToDefaultPriority(t *testing.T) {
	p2 := models.TaskPriorityP2
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Linear: &models.LinearConfig{SyncTaskConfig: models.TaskSyncConfig{
				Enabled: true, DefaultPriority: &p2,
			}},
		},
	}
	item := models.ThirdPartyItem{
		Data: models.ThirdPartyItemData{
			LinearIssue: &models.LinearIssueData{Identifier: "ENG-2", Title: "Untriaged", Priority: 0},
		},
	}

	task, ok := newTestAdapter().DeriveTask(conn, item)
	require.True(t, ok)
	require.Equal(t, models.TaskPriorityP2, task.Priority)
}

func TestDeriveTask_NoDueDateFallsBackToPresetDefault(t *testing.T) {
	preset := models.PresetDueTomorrow
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Linear: &models.LinearConfig{SyncTaskConfig: models.TaskSyncConfig{
				Enabled: true, DefaultDueAt: &preset,
			}},
		},
	}
	item := models.ThirdPartyItem{
		UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Data: models.ThirdPartyItemData{
			LinearIssue: &models.LinearIssueData{Identifier: "ENG-3", Title: "No due date"},
		},
	}

	task, ok := newTestAdapter().DeriveTask(conn, item)
	require.True(t, ok)
	require.NotNil(t, task.DueAt)
	require.Equal(t, "2026-03-02", task.DueAt.Date)
}

func TestPushTaskUpdate_UnsubscribesOnlyWhenTaskResolved(t *testing.T) {
	err := newTestAdapter().PushTaskUpdate(
		context.Background(), models.IntegrationConnection{}, models.Task{Status: models.TaskActive}, models.ThirdPartyItem{},
	)
	require.NoError(t, err)
}

func TestPushTaskCreation_RejectsNonTaskManagerUse(t *testing.T) {
	_, err := newTestAdapter().PushTaskCreation(context.Background(), models.IntegrationConnection{}, models.Task{})
	require.Error(t, err)
}
