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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/octobud-hq/octobud/backend/internal/models"
)

func newTestAdapter() *Adapter { return &Adapter{} }

func TestDeriveNotification_NeverOriginatesFromTickTick(t *testing.T) {
	_, ok := newTestAdapter().DeriveNotification(models.IntegrationConnection{}, models.ThirdPartyItem{})
	require.False(t, ok)
}

func TestDeriveTask_OnlyProjectsOwnMirroredCopy(t *testing.T) {
	item := models.ThirdPartyItem{
		Data: models.ThirdPartyItemData{TickTickTask: &models.TickTickTaskData{Title: "orphaned"}},
	}
	_, ok := newTestAdapter().DeriveTask(models.IntegrationConnection{}, item)
	require.False(t, ok, "a mirror with no SourceItemID back-reference must not be re-derived")
}

func TestDeriveTask_MapsStatusAndPriority(t *testing.T) {
	sourceID := "task-1"
	due := "2026-07-01"
	item := models.ThirdPartyItem{
		ID:           "tpi-1",
		SourceItemID: &sourceID,
		Data: models.ThirdPartyItemData{TickTickTask: &models.TickTickTaskData{
			Title: "Ship it", Priority: 5, Status: 2, DueDate: &due,
		}},
	}

	task, ok := newTestAdapter().DeriveTask(models.IntegrationConnection{}, item)
	require.True(t, ok)
	require.Equal(t, models.TaskDone, task.Status)
	require.Equal(t, models.TaskPriorityP1, task.Priority)
	require.Equal(t, sourceID, task.SourceItemID)
	require.Equal(t, "tpi-1", *task.SinkItemID)
	require.NotNil(t, task.DueAt)
	require.Equal(t, due, task.DueAt.Date)
}

func TestTickTickPriorityToTaskPriority_RoundTrips(t *testing.T) {
	for _, tc := range []struct {
		ticktick int
		task     models.TaskPriority
	}{
		{5, models.TaskPriorityP1},
		{3, models.TaskPriorityP2},
		{1, models.TaskPriorityP3},
		{0, models.TaskPriorityP4},
	} {
		require.Equal(t, tc.task, ticktickPriorityToTaskPriority(tc.ticktick))
		require.Equal(t, tc.ticktick, taskPriorityToTickTickPriority(tc.task))
	}
}

func TestDueDateFor(t *testing.T) {
	require.Equal(t, "", dueDateFor(models.Task{}))

	require.Equal(t, "2026-07-01", dueDateFor(models.Task{
		DueAt: &models.DueDate{Kind: models.DueDateDate, Date: "2026-07-01"},
	}))

	dt := time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)
	require.Equal(t, "2026-07-01T15:00:00+0000", dueDateFor(models.Task{
		DueAt: &models.DueDate{Kind: models.DueDateDateTime, DateTime: dt},
	}))
}

func TestPushNotificationStatus_AlwaysErrors(t *testing.T) {
	err := newTestAdapter().PushNotificationStatus(
		context.Background(), models.IntegrationConnection{}, models.Notification{}, models.ThirdPartyItem{},
	)
	require.Error(t, err)
}
