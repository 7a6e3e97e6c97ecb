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

// Package jobs provides the job arguments.
package jobs

import "github.com/octobud-hq/octobud/backend/internal/models"

// SyncConnectionArgs contains arguments for running one sync pass of a
// connection (spec §4.5, §4.6).
type SyncConnectionArgs struct {
	ConnectionID string `json:"connectionId"`
}

// WebhookIngestArgs contains arguments for processing a single inbound
// provider webhook payload (spec §4.5, §8 scenario 4).
type WebhookIngestArgs struct {
	ConnectionID string              `json:"connectionId"`
	ProviderKind models.ProviderKind `json:"providerKind"`
	Payload      []byte              `json:"payload"`
}

// RetryPushArgs contains arguments for retrying a previously-failed push
// of a local status change back to its provider (spec §4.4, §4.5).
type RetryPushArgs struct {
	EntityKind string `json:"entityKind"` // "notification" | "task"
	EntityID   string `json:"entityId"`
}
