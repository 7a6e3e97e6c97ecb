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

import (
	"encoding/json"
	"time"
)

// ThirdPartyItemKind discriminates the payload carried by a TPI's Data
// field. It tracks ProviderKind one-for-one today, but is kept distinct
// since a single provider could eventually emit more than one kind of item
// (spec §9 "the union is the point").
type ThirdPartyItemKind string

// Recognized third-party item kinds.
const (
	ItemKindGitHubNotification ThirdPartyItemKind = "GithubNotification"
	ItemKindLinearIssue        ThirdPartyItemKind = "LinearIssue"
	ItemKindLinearNotification ThirdPartyItemKind = "LinearNotification"
	ItemKindGoogleMailThread   ThirdPartyItemKind = "GoogleMailThread"
	ItemKindSlackStar          ThirdPartyItemKind = "SlackStar"
	ItemKindTodoistItem        ThirdPartyItemKind = "TodoistItem"
	ItemKindTickTickTask       ThirdPartyItemKind = "TickTickTask"
)

// ThirdPartyItemData is the tagged union of all provider payload types
// (spec §3.1, §9: "do not try to unify payload fields"). Exactly one of
// the typed fields is populated, selected by Kind; RawPayload always holds
// the untouched provider JSON for debugging/replay.
type ThirdPartyItemData struct {
	Kind ThirdPartyItemKind `json:"kind"`

	GitHubNotification *GitHubNotificationData `json:"githubNotification,omitempty"`
	LinearIssue        *LinearIssueData        `json:"linearIssue,omitempty"`
	LinearNotification *LinearNotificationData `json:"linearNotification,omitempty"`
	GoogleMailThread   *GoogleMailThreadData   `json:"googleMailThread,omitempty"`
	SlackStar          *SlackStarData          `json:"slackStar,omitempty"`
	TodoistItem        *TodoistItemData        `json:"todoistItem,omitempty"`
	TickTickTask       *TickTickTaskData       `json:"ticktickTask,omitempty"`

	RawPayload json.RawMessage `json:"rawPayload,omitempty"`
}

// ThirdPartyItem is the canonical record of one external object
// (spec §3.1). Its natural key is
// (SourceID, Kind, UserID, IntegrationConnectionID).
type ThirdPartyItem struct {
	ID                       string             `json:"id"`
	SourceID                 string             `json:"sourceId"`
	Kind                     ThirdPartyItemKind `json:"kind"`
	Data                     ThirdPartyItemData `json:"data"`
	UserID                   string             `json:"userId"`
	IntegrationConnectionID  string             `json:"integrationConnectionId"`
	// SourceItemID points at another TPI that originated this one — used
	// when a provider acts as a task sink mirroring a task whose source is
	// a different TPI (spec §3.1, §3.3).
	SourceItemID *string `json:"sourceItemId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Equal reports whether two TPIs are equal on the fields the store's
// upsert uses to decide Untouched vs Updated (spec §4.1): Data and
// UpdatedAt. Equality is by value, not by pointer/ID.
func (t ThirdPartyItem) Equal(other ThirdPartyItem) bool {
	if !t.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	a, errA := json.Marshal(t.Data)
	b, errB := json.Marshal(other.Data)
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// --- Provider-specific payloads ---

// GitHubNotificationData mirrors the fields the GitHub notifications API
// returns for a thread (spec §8 scenario 1/2).
type GitHubNotificationData struct {
	ThreadID         string    `json:"threadId"`
	Reason           string    `json:"reason"`
	Unread           bool      `json:"unread"`
	UpdatedAt        time.Time `json:"updatedAt"`
	LastReadAt       *time.Time `json:"lastReadAt,omitempty"`
	SubjectTitle     string    `json:"subjectTitle"`
	SubjectType      string    `json:"subjectType"`
	SubjectURL       string    `json:"subjectUrl"`
	RepositoryFullName string  `json:"repositoryFullName"`
	URL              string    `json:"url"`
	SubscriptionURL  string    `json:"subscriptionUrl"`
}

// LinearIssueData mirrors an assigned Linear issue (spec §8 scenario 5).
type LinearIssueData struct {
	ID         string     `json:"id"`
	Identifier string     `json:"identifier"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Priority   int        `json:"priority"`
	DueDate    *string    `json:"dueDate,omitempty"`
	StateName  string     `json:"stateName"`
	StateType  string     `json:"stateType"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// LinearNotificationData mirrors a Linear inbox notification.
type LinearNotificationData struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	IssueID   string    `json:"issueId"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GoogleMailThreadData mirrors a Gmail thread filtered to the configured
// synced label (spec §6.1, §8 scenario 3).
type GoogleMailThreadData struct {
	ThreadID   string    `json:"threadId"`
	HistoryID  uint64    `json:"historyId"`
	Subject    string    `json:"subject"`
	Snippet    string    `json:"snippet"`
	From       string    `json:"from"`
	LabelIDs   []string  `json:"labelIds"`
	IsUnread   bool      `json:"isUnread"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SlackStarData mirrors a starred Slack message (spec §8 scenario 4).
type SlackStarData struct {
	ChannelID string    `json:"channelId"`
	Timestamp string    `json:"timestamp"`
	Text      string    `json:"text"`
	Permalink string    `json:"permalink"`
	UserID    string    `json:"userId"`
	StarredAt time.Time `json:"starredAt"`
}

// TodoistItemData mirrors a Todoist task (spec §8 scenario 5/6 sink role
// and §6.1 task source role).
type TodoistItemData struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Description string     `json:"description"`
	ProjectID   string     `json:"projectId"`
	Priority    int        `json:"priority"`
	Due         *string    `json:"due,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	URL         string     `json:"url"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TickTickTaskData mirrors a TickTick task (spec §8 scenario 6).
type TickTickTaskData struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Priority    int       `json:"priority"`
	DueDate     *string   `json:"dueDate,omitempty"`
	Status      int       `json:"status"` // 0 = open, 2 = completed (TickTick convention)
	IsInInbox   bool      `json:"isInInbox"`
	ModifiedTime time.Time `json:"modifiedTime"`
}
