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

// ProviderKind identifies which third-party integration a connection,
// third-party item or TPI-derived entity belongs to.
type ProviderKind string

// Recognized provider kinds (spec.md §3.1, §6.1).
const (
	ProviderGitHub     ProviderKind = "github"
	ProviderLinear     ProviderKind = "linear"
	ProviderGoogleMail ProviderKind = "googleMail"
	ProviderSlack      ProviderKind = "slack"
	ProviderTodoist    ProviderKind = "todoist"
	ProviderTickTick   ProviderKind = "ticktick"
)

// IsTaskManager reports whether the provider can act as a task sink (it can
// receive mirrored tasks originated by another provider). Spec §3.3.
func (p ProviderKind) IsTaskManager() bool {
	return p == ProviderTodoist || p == ProviderTickTick
}

// PresetDueDate is a user-configurable default due date applied to tasks
// whose provider payload carries none. Spec §6.1.
type PresetDueDate string

// Recognized preset due dates.
const (
	PresetDueToday       PresetDueDate = "Today"
	PresetDueTomorrow    PresetDueDate = "Tomorrow"
	PresetDueThisWeekend PresetDueDate = "ThisWeekend"
	PresetDueNextWeek    PresetDueDate = "NextWeek"
)

// ProjectRef identifies a target project in a task-manager provider that a
// synced task should be filed under.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Label identifies a Google Mail label used as the sync filter.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SlackSyncType selects whether a Slack connection produces Notifications
// or Tasks. Spec §6.1.
type SlackSyncType string

// Recognized Slack sync types.
const (
	SlackSyncAsNotifications SlackSyncType = "AsNotifications"
	SlackSyncAsTasks         SlackSyncType = "AsTasks"
)

// TaskSyncConfig is the common shape of "sync some items from this provider
// as Tasks" configuration, shared by Linear, Slack (as tasks), Todoist and
// TickTick. Spec §6.1.
type TaskSyncConfig struct {
	Enabled        bool           `json:"enabled"`
	TargetProject  *ProjectRef    `json:"targetProject,omitempty"`
	DefaultDueAt   *PresetDueDate `json:"defaultDueAt,omitempty"`
	DefaultPriority *TaskPriority `json:"defaultPriority,omitempty"`
}

// IntegrationConnectionConfig is the tagged union of per-provider
// configuration (spec §6.1). Exactly one of the typed fields below is
// non-nil, selected by Kind. Go has no sum types, so this mirrors the
// teacher's "config polymorphism is a match over a tag, not reflection"
// guidance (spec §9) with a discriminated struct instead of an interface,
// which keeps (de)serialization to/from the store's JSON column trivial.
type IntegrationConnectionConfig struct {
	Kind ProviderKind `json:"kind"`

	GitHub     *GitHubConfig     `json:"github,omitempty"`
	Linear     *LinearConfig     `json:"linear,omitempty"`
	GoogleMail *GoogleMailConfig `json:"googleMail,omitempty"`
	Slack      *SlackConfig      `json:"slack,omitempty"`
	Todoist    *TodoistConfig    `json:"todoist,omitempty"`
	TickTick   *TickTickConfig   `json:"ticktick,omitempty"`

	// ResyncDeletedOnChange resolves the Open Question in spec §9(a): when
	// false (the default), a Deleted/Unsubscribed notification whose
	// upstream payload later changes is never resurrected to Unread.
	ResyncDeletedOnChange bool `json:"resyncDeletedOnChange"`
}

// GitHubConfig is the GitHub variant of IntegrationConnectionConfig.
type GitHubConfig struct {
	SyncNotificationsEnabled bool `json:"syncNotificationsEnabled"`
}

// LinearConfig is the Linear variant of IntegrationConnectionConfig.
type LinearConfig struct {
	SyncNotificationsEnabled bool           `json:"syncNotificationsEnabled"`
	SyncTaskConfig           TaskSyncConfig `json:"syncTaskConfig"`
}

// GoogleMailConfig is the Google Mail variant of IntegrationConnectionConfig.
type GoogleMailConfig struct {
	SyncNotificationsEnabled bool  `json:"syncNotificationsEnabled"`
	SyncedLabel              Label `json:"syncedLabel"`
}

// SlackConfig is the Slack variant of IntegrationConnectionConfig.
type SlackConfig struct {
	SyncEnabled bool          `json:"syncEnabled"`
	SyncType    SlackSyncType `json:"syncType"`
	// TaskConfig is only meaningful when SyncType == SlackSyncAsTasks.
	TaskConfig TaskSyncConfig `json:"taskConfig,omitempty"`
}

// TodoistConfig is the Todoist variant of IntegrationConnectionConfig.
type TodoistConfig struct {
	SyncTasksEnabled               bool `json:"syncTasksEnabled"`
	CreateNotificationFromInboxTask bool `json:"createNotificationFromInboxTask"`
}

// TickTickConfig is the TickTick variant of IntegrationConnectionConfig.
type TickTickConfig struct {
	SyncTasksEnabled                bool           `json:"syncTasksEnabled"`
	CreateNotificationFromInboxTask  bool           `json:"createNotificationFromInboxTask"`
	DefaultProject                   *ProjectRef    `json:"defaultProject,omitempty"`
	DefaultDueAt                     *PresetDueDate `json:"defaultDueAt,omitempty"`
	DefaultPriority                  *TaskPriority  `json:"defaultPriority,omitempty"`
}
