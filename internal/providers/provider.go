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

// Package providers defines the provider adapter capability set of
// spec.md §4.2: every third-party integration (GitHub, Linear, Google
// Mail, Slack, Todoist, TickTick) implements Adapter, and the sync engine
// (internal/sync) only ever talks to that interface.
package providers

import (
	"context"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/models"
)

// FetchedItem is one item observed from a provider during a sync pass,
// already converted into a TPI payload by into_tpi_data (spec §4.2).
type FetchedItem struct {
	SourceID string
	Data     models.ThirdPartyItemData
	// UpdatedAt is the provider's own last-modified timestamp, used to
	// decide Updated vs Untouched in UpsertThirdPartyItem.
	UpdatedAt time.Time
}

// Adapter is the capability set every provider integration implements
// (spec §4.2): list_for_user, fetch_details, into_tpi_data (folded into
// ListForUser below, since every adapter in this pack already returns
// fully-hydrated items rather than stub references), derive_notification,
// derive_task, push_status, push_creation, push_update.
type Adapter interface {
	// Kind identifies which ProviderKind this adapter implements.
	Kind() models.ProviderKind

	// ListForUser fetches every item observable for this connection since
	// its last sync cursor, already converted to TPI payloads. The
	// returned syncContext replaces the connection's stored Context.
	ListForUser(
		ctx context.Context,
		conn models.IntegrationConnection,
	) (items []FetchedItem, syncContext map[string]string, err error)

	// DeriveNotification projects a TPI into a Notification, or returns
	// ok=false if this connection's config does not sync notifications
	// for this kind of item (spec §4.3).
	DeriveNotification(conn models.IntegrationConnection, item models.ThirdPartyItem) (n models.Notification, ok bool)

	// DeriveTask projects a TPI into a Task, or returns ok=false if this
	// connection's config does not sync tasks for this kind of item.
	DeriveTask(conn models.IntegrationConnection, item models.ThirdPartyItem) (t models.Task, ok bool)

	// PushNotificationStatus pushes a user's status change for a
	// notification back to the provider (e.g. marking a GitHub thread as
	// read), per spec §4.4. sourceItem is the TPI n.SourceItemID points at;
	// its SourceID/Data carry the provider-native identifiers n itself
	// doesn't (Notification only stores our own TPI foreign key).
	PushNotificationStatus(ctx context.Context, conn models.IntegrationConnection, n models.Notification, sourceItem models.ThirdPartyItem) error

	// PushTaskCreation creates a mirrored task in a task-manager provider
	// (spec §3.3 sink role), returning the created item's source id.
	PushTaskCreation(ctx context.Context, conn models.IntegrationConnection, t models.Task) (sourceID string, err error)

	// PushTaskUpdate pushes a task patch to its provider, whether the
	// provider is the task's source or its sink (spec §4.4). sinkItem is
	// the TPI t.SinkItemID (or t.SourceItemID, when the source is itself
	// the task manager) points at, carrying the provider-native id.
	PushTaskUpdate(ctx context.Context, conn models.IntegrationConnection, t models.Task, sinkItem models.ThirdPartyItem) error
}

// ResolvePresetDueDate converts a user-configured preset due date into a
// concrete DueDate anchored to now, for tasks whose provider payload carries
// no due date of its own (spec §4.3: "merged with user-configured defaults
// ... when absent from the provider payload").
func ResolvePresetDueDate(preset models.PresetDueDate, now time.Time) models.DueDate {
	switch preset {
	case models.PresetDueToday:
		return models.DueDate{Kind: models.DueDateDate, Date: now.Format("2006-01-02")}
	case models.PresetDueTomorrow:
		return models.DueDate{Kind: models.DueDateDate, Date: now.AddDate(0, 0, 1).Format("2006-01-02")}
	case models.PresetDueThisWeekend:
		offset := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
		return models.DueDate{Kind: models.DueDateDate, Date: now.AddDate(0, 0, offset).Format("2006-01-02")}
	case models.PresetDueNextWeek:
		offset := (int(time.Monday) - int(now.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		return models.DueDate{Kind: models.DueDateDate, Date: now.AddDate(0, 0, offset).Format("2006-01-02")}
	default:
		return models.DueDate{Kind: models.DueDateDate, Date: now.Format("2006-01-02")}
	}
}

// Registry resolves the Adapter for a ProviderKind.
type Registry struct {
	adapters map[models.ProviderKind]Adapter
}

// NewRegistry builds a Registry from a list of adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.ProviderKind]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Kind()] = a
	}
	return r
}

// Get returns the adapter registered for kind, or ok=false.
func (r *Registry) Get(kind models.ProviderKind) (Adapter, bool) {
	a, ok := r.adapters[kind]
	return a, ok
}
