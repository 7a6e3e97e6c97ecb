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

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

const itemColumns = `
	id, source_id, kind, data_json, user_id, integration_connection_id, source_item_id,
	created_at, updated_at`

func scanItem(row interface{ Scan(dest ...any) error }) (models.ThirdPartyItem, error) {
	var it models.ThirdPartyItem
	var dataJSON string
	var sourceItemID sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(
		&it.ID, &it.SourceID, &it.Kind, &dataJSON, &it.UserID, &it.IntegrationConnectionID, &sourceItemID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return models.ThirdPartyItem{}, err
	}
	if err := unmarshalJSON(dataJSON, &it.Data); err != nil {
		return models.ThirdPartyItem{}, err
	}
	it.SourceItemID = toStringPtr(sourceItemID)
	it.CreatedAt = parseTime(createdAt)
	it.UpdatedAt = parseTime(updatedAt)
	return it, nil
}

// UpsertThirdPartyItem implements spec §4.1's natural-key upsert: insert
// on first sight, compare-then-update on subsequent syncs, Untouched when
// nothing observable changed (grounded on
// original_source/api/src/repository/third_party.rs's
// create_or_update_third_party_item).
func (s *Store) UpsertThirdPartyItem(
	ctx context.Context,
	q db.Querier,
	item models.ThirdPartyItem,
) (db.UpsertResult, error) {
	existing, err := s.FindThirdPartyItemBySourceID(
		ctx, q, item.UserID, item.IntegrationConnectionID, item.Kind, item.SourceID,
	)
	switch {
	case apperrors.IsNotFound(err):
		dataJSON, mErr := marshalJSON(item.Data)
		if mErr != nil {
			return db.UpsertResult{}, mErr
		}
		_, iErr := q.ExecContext(ctx, `
			INSERT INTO third_party_items (
				id, source_id, kind, data_json, user_id, integration_connection_id, source_item_id,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.SourceID, item.Kind, dataJSON, item.UserID, item.IntegrationConnectionID,
			nullString(item.SourceItemID), formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
		)
		if iErr != nil {
			return db.UpsertResult{}, fmt.Errorf("insert third party item: %w", iErr)
		}
		return db.UpsertResult{Outcome: db.UpsertCreated, New: item}, nil
	case err != nil:
		return db.UpsertResult{}, err
	}

	if existing.Equal(item) {
		return db.UpsertResult{Outcome: db.UpsertUntouched, New: existing}, nil
	}

	dataJSON, mErr := marshalJSON(item.Data)
	if mErr != nil {
		return db.UpsertResult{}, mErr
	}
	item.ID = existing.ID
	_, uErr := q.ExecContext(ctx, `
		UPDATE third_party_items SET data_json = ?, updated_at = ? WHERE id = ?`,
		dataJSON, formatTime(item.UpdatedAt), existing.ID,
	)
	if uErr != nil {
		return db.UpsertResult{}, fmt.Errorf("update third party item: %w", uErr)
	}
	old := existing
	return db.UpsertResult{Outcome: db.UpsertUpdated, Old: &old, New: item}, nil
}

// GetThirdPartyItem loads a TPI by id.
func (s *Store) GetThirdPartyItem(ctx context.Context, q db.Querier, id string) (models.ThirdPartyItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM third_party_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err != nil {
		return models.ThirdPartyItem{}, noRowsToNotFound(err, "ThirdPartyItem", id)
	}
	return it, nil
}

// FindThirdPartyItemBySourceID looks up a TPI by its natural key.
func (s *Store) FindThirdPartyItemBySourceID(
	ctx context.Context,
	q db.Querier,
	userID, integrationConnectionID string,
	kind models.ThirdPartyItemKind,
	sourceID string,
) (models.ThirdPartyItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM third_party_items
		WHERE user_id = ? AND integration_connection_id = ? AND kind = ? AND source_id = ?`,
		userID, integrationConnectionID, kind, sourceID,
	)
	it, err := scanItem(row)
	if err != nil {
		return models.ThirdPartyItem{}, noRowsToNotFound(err, "ThirdPartyItem", sourceID)
	}
	return it, nil
}

// ListStaleThirdPartyItems returns TPIs of (connection, kind) not present
// in the most recent sync pass, for the stale sweep of spec §4.3 step 4.
func (s *Store) ListStaleThirdPartyItems(
	ctx context.Context,
	q db.Querier,
	integrationConnectionID string,
	kind models.ThirdPartyItemKind,
	observedSourceIDs []string,
) ([]models.ThirdPartyItem, error) {
	placeholders := make([]string, len(observedSourceIDs))
	args := make([]any, 0, len(observedSourceIDs)+2)
	args = append(args, integrationConnectionID, kind)
	for i, id := range observedSourceIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	notIn := "0"
	if len(placeholders) > 0 {
		notIn = "source_id IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query := `SELECT ` + itemColumns + ` FROM third_party_items
		WHERE integration_connection_id = ? AND kind = ? AND NOT (` + notIn + `)`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stale third party items: %w", err)
	}
	defer rows.Close()
	var out []models.ThirdPartyItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
