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

package models

import "time"

// TaskStatus is the lifecycle state of a Task (spec §3.1).
type TaskStatus string

// Recognized task statuses.
const (
	TaskActive  TaskStatus = "Active"
	TaskDone    TaskStatus = "Done"
	TaskDeleted TaskStatus = "Deleted"
)

// IsActive reports whether the task still counts for stale-sweep and
// uniqueness purposes (spec §3.1 invariant, §4.3 step 4).
func (s TaskStatus) IsActive() bool {
	return s == TaskActive
}

// TaskPriority follows the common P1 (highest) .. P4 (lowest) scale
// (spec §3.1).
type TaskPriority int

// Recognized task priorities.
const (
	TaskPriorityP1 TaskPriority = 1
	TaskPriorityP2 TaskPriority = 2
	TaskPriorityP3 TaskPriority = 3
	TaskPriorityP4 TaskPriority = 4
)

// DueDateKind discriminates the precision of a DueDate (spec §3.1: "date,
// datetime, or datetime-with-tz").
type DueDateKind string

// Recognized due date kinds.
const (
	DueDateDate           DueDateKind = "Date"
	DueDateDateTime       DueDateKind = "DateTime"
	DueDateDateTimeWithTZ DueDateKind = "DateTimeWithTZ"
)

// DueDate represents a task's due date at one of three precisions.
type DueDate struct {
	Kind     DueDateKind `json:"kind"`
	Date     string      `json:"date,omitempty"`     // YYYY-MM-DD, used when Kind == DueDateDate
	DateTime time.Time   `json:"dateTime,omitempty"` // used for DueDateDateTime/DueDateDateTimeWithTZ
	TimeZone string      `json:"timeZone,omitempty"` // IANA zone, used when Kind == DueDateDateTimeWithTZ
}

// Task is a user-visible actionable item derived from a TPI (spec §3.1).
// Fields beyond the minimal set spec.md names (project, tags, parent_id,
// is_recurring) are carried in from original_source/'s task model per
// SPEC_FULL.md §4.
type Task struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Body     string       `json:"body"`
	Status   TaskStatus   `json:"status"`
	Kind     ProviderKind `json:"kind"`
	Priority TaskPriority `json:"priority"`
	DueAt    *DueDate     `json:"dueAt,omitempty"`
	Project  string       `json:"project,omitempty"`
	Tags     []string     `json:"tags,omitempty"`
	ParentID *string      `json:"parentId,omitempty"`

	IsRecurring bool       `json:"isRecurring"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	SourceItemID string  `json:"sourceItemId"`
	// SinkItemID points to the TPI mirroring this task in a task-manager
	// provider; may equal SourceItemID when the source is itself a task
	// manager, or be nil before the mirror is created (spec §3.1, §3.3).
	SinkItemID *string `json:"sinkItemId,omitempty"`

	UserID string `json:"userId"`
}

// TaskPatch is the user-originated mutation accepted by the action
// dispatcher (spec §4.4, §6.2 analogous /tasks/{id} PATCH).
type TaskPatch struct {
	Status   *TaskStatus   `json:"status,omitempty"`
	Title    *string       `json:"title,omitempty"`
	Body     *string       `json:"body,omitempty"`
	Project  *string       `json:"project,omitempty"`
	DueAt    **DueDate     `json:"dueAt,omitempty"`
	Priority *TaskPriority `json:"priority,omitempty"`
}
