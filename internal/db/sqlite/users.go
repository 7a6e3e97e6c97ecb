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
	"fmt"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
	"github.com/octobud-hq/octobud/backend/internal/models"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, q db.Querier, user models.User) (models.User, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, email, auth_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.AuthMethod, formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
	)
	if isUniqueConstraintErr(err) {
		return models.User{}, apperrors.NewAlreadyExists("User", user.Email)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, q db.Querier, id string) (models.User, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, email, auth_method, created_at, updated_at FROM users WHERE id = ?`, id)
	var u models.User
	var createdAt, updatedAt string
	if err := row.Scan(&u.ID, &u.Email, &u.AuthMethod, &createdAt, &updatedAt); err != nil {
		return models.User{}, noRowsToNotFound(err, "User", id)
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// DeleteUser removes a user and, via ON DELETE CASCADE, everything owned
// by it (spec §3.1: users own connections, which own every other entity).
func (s *Store) DeleteUser(ctx context.Context, q db.Querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return apperrors.NewNotFound("User", id)
	}
	return nil
}
