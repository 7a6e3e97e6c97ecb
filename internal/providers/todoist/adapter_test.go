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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/octobud-hq/octobud/backend/internal/models"
)

func newTestAdapter() *Adapter { return &Adapter{} }

func TestDeriveNotification_SkipsMirroredSinkItems(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Todoist: &models.TodoistConfig{CreateNotificationFromInboxTask: true},
		},
	}
	mirrorSourceID := "notif-1"
	item := models.ThirdPartyItem{
		ID:           "tpi-1",
		SourceItemID: &mirrorSourceID,
		Data:         models.ThirdPartyItemData{TodoistItem: &models.TodoistItemData{Content: "mirrored"}},
	}

	_, ok := newTestAdapter().DeriveNotification(conn, item)
	require.False(t, ok)
}

func TestDeriveNotification_OwnInboxTaskMapsCompletionToStatus(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{
			Todoist: &models.TodoistConfig{CreateNotificationFromInboxTask: true},
		},
	}
	item := models.ThirdPartyItem{
		ID:   "tpi-1",
		Data: models.ThirdPartyItemData{TodoistItem: &models.TodoistItemData{Content: "Buy milk", IsCompleted: false}},
	}

	n, ok := newTestAdapter().DeriveNotification(conn, item)
	require.True(t, ok)
	require.Equal(t, models.NotificationUnread, n.Status)

	item.Data.TodoistItem.IsCompleted = true
	n, ok = newTestAdapter().DeriveNotification(conn, item)
	require.True(t, ok)
	require.Equal(t, models.NotificationRead, n.Status)
}

func TestDeriveTask_SkipsMirroredSinkItems(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{Todoist: &models.TodoistConfig{SyncTasksEnabled: true}},
	}
	mirrorSourceID := "task-1"
	item := models.ThirdPartyItem{
		ID:           "tpi-1",
		SourceItemID: &mirrorSourceID,
		Data:         models.ThirdPartyItemData{TodoistItem: &models.TodoistItemData{Content: "mirrored"}},
	}

	_, ok := newTestAdapter().DeriveTask(conn, item)
	require.False(t, ok)
}

func TestDeriveTask_MapsCompletionAndPriority(t *testing.T) {
	conn := models.IntegrationConnection{
		Config: models.IntegrationConnectionConfig{Todoist: &models.TodoistConfig{SyncTasksEnabled: true}},
	}
	due := "2026-05-01"
	item := models.ThirdPartyItem{
		ID: "tpi-1",
		Data: models.ThirdPartyItemData{TodoistItem: &models.TodoistItemData{
			Content: "Ship it", Priority: 4, Due: &due,
		}},
	}

	task, ok := newTestAdapter().DeriveTask(conn, item)
	require.True(t, ok)
	require.Equal(t, models.TaskActive, task.Status)
	require.Equal(t, models.TaskPriorityP1, task.Priority)
	require.NotNil(t, task.DueAt)
	require.Equal(t, due, task.DueAt.Date)
	require.Equal(t, "tpi-1", task.SourceItemID)
	require.Equal(t, "tpi-1", *task.SinkItemID)
}

func TestTodoistPriorityToTaskPriority_RoundTrips(t *testing.T) {
	for _, tc := range []struct {
		todoist int
		task    models.TaskPriority
	}{
		{4, models.TaskPriorityP1},
		{3, models.TaskPriorityP2},
		{2, models.TaskPriorityP3},
		{1, models.TaskPriorityP4},
	} {
		require.Equal(t, tc.task, todoistPriorityToTaskPriority(tc.todoist))
		require.Equal(t, tc.todoist, taskPriorityToTodoistPriority(tc.task))
	}
}

func TestDueStringFor(t *testing.T) {
	require.Equal(t, "", dueStringFor(models.Task{}))

	require.Equal(t, "2026-06-01", dueStringFor(models.Task{
		DueAt: &models.DueDate{Kind: models.DueDateDate, Date: "2026-06-01"},
	}))

	dt := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	require.Equal(t, "2026-06-01T09:30:00", dueStringFor(models.Task{
		DueAt: &models.DueDate{Kind: models.DueDateDateTime, DateTime: dt},
	}))
}
