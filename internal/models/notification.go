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

// NotificationStatus is the lifecycle state of a Notification (spec §3.1).
type NotificationStatus string

// Recognized notification statuses.
const (
	NotificationUnread       NotificationStatus = "Unread"
	NotificationRead         NotificationStatus = "Read"
	NotificationDeleted      NotificationStatus = "Deleted"
	NotificationUnsubscribed NotificationStatus = "Unsubscribed"
)

// IsActive reports whether the notification still counts for stale-sweep
// and uniqueness purposes (spec §3.1 invariant, §4.3 step 4).
func (s NotificationStatus) IsActive() bool {
	return s == NotificationUnread || s == NotificationRead
}

// Notification is a user-visible inbox entry derived from a TPI
// (spec §3.1).
type Notification struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	Kind     ProviderKind       `json:"kind"`
	Status   NotificationStatus `json:"status"`
	SourceItemID string         `json:"sourceItemId"`
	TaskID   *string            `json:"taskId,omitempty"`

	UpdatedAt     time.Time  `json:"updatedAt"`
	LastReadAt    *time.Time `json:"lastReadAt,omitempty"`
	SnoozedUntil  *time.Time `json:"snoozedUntil,omitempty"`

	UserID string `json:"userId"`

	// HTMLURL is derived from the source TPI at read time, never stored
	// redundantly (spec §3.1: "html_url (derivable from source_item)").
	HTMLURL string `json:"htmlUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// IsSnoozedNow reports whether the notification is currently snoozed,
// i.e. SnoozedUntil is set and in the future. Spec §8 invariant P4.
func (n Notification) IsSnoozedNow(now time.Time) bool {
	return n.SnoozedUntil != nil && n.SnoozedUntil.After(now)
}

// NotificationPatch is the user-originated mutation accepted by the
// action dispatcher (spec §4.4, §6.2 PATCH /notifications/{id}).
type NotificationPatch struct {
	Status       *NotificationStatus `json:"status,omitempty"`
	SnoozedUntil **time.Time         `json:"snoozedUntil,omitempty"`
	TaskID       **string            `json:"taskId,omitempty"`
}
