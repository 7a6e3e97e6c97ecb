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
	"fmt"
	"time"
)

// ConnectionStatus is the lifecycle state of an IntegrationConnection.
// Spec §3.1, §4.1: only a fixed set of transitions is legal.
type ConnectionStatus string

// Recognized connection statuses.
const (
	ConnectionCreated     ConnectionStatus = "Created"
	ConnectionValidated   ConnectionStatus = "Validated"
	ConnectionFailing     ConnectionStatus = "Failing"
	ConnectionDisconnected ConnectionStatus = "Disconnected"
)

// CanTransitionTo reports whether moving from s to next is one of the
// allowed transitions in spec §4.1: Created->Validated, *->Failing,
// Failing->Validated, *->Disconnected.
func (s ConnectionStatus) CanTransitionTo(next ConnectionStatus) bool {
	switch next {
	case ConnectionFailing, ConnectionDisconnected:
		return true
	case ConnectionValidated:
		return s == ConnectionCreated || s == ConnectionFailing
	case ConnectionCreated:
		return false
	default:
		return false
	}
}

// ErrInvalidStatusTransition is returned by the store when a caller asks
// for a transition not permitted by spec §4.1.
type ErrInvalidStatusTransition struct {
	From, To ConnectionStatus
}

func (e *ErrInvalidStatusTransition) Error() string {
	return fmt.Sprintf("invalid integration connection status transition: %s -> %s", e.From, e.To)
}

// IntegrationConnection is a (user, provider) binding (spec §3.1).
type IntegrationConnection struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	ProviderKind ProviderKind `json:"providerKind"`

	Config IntegrationConnectionConfig `json:"config"`

	// Context is the provider-specific opaque sync cursor (e.g. a GitHub
	// "since" timestamp, a Gmail historyId, a Linear cursor). It replaces
	// the teacher's dedicated syncstate service: spec §3.1 folds the cursor
	// directly into the connection.
	Context map[string]string `json:"context"`

	// AccessTokenEncrypted holds the provider access token, encrypted at
	// rest via internal/crypto. Obtaining/refreshing it is out of scope
	// (spec §1); this field is simply where a caller is expected to have
	// already placed a usable token.
	AccessTokenEncrypted string `json:"-"`

	Status ConnectionStatus `json:"status"`

	LastSyncStartedAt   *time.Time `json:"lastSyncStartedAt,omitempty"`
	LastSyncCompletedAt *time.Time `json:"lastSyncCompletedAt,omitempty"`
	LastSyncFailedAt    *time.Time `json:"lastSyncFailedAt,omitempty"`
	FailureMessage      *string    `json:"failureMessage,omitempty"`

	NotificationsSyncFailures int `json:"notificationsSyncFailures"`
	TasksSyncFailures         int `json:"tasksSyncFailures"`

	// EnqueuedAt implements the single-flight marker of spec §4.6: non-nil
	// while a sync job for this connection is pending or running.
	EnqueuedAt *time.Time `json:"enqueuedAt,omitempty"`

	RegisteredScopes []string `json:"registeredScopes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
