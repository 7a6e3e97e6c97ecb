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

// Package sqlite implements db.Store against modernc.org/sqlite with
// hand-written SQL, the way the teacher's own provider client is
// hand-written rather than generated: there is no sqlc toolchain in this
// module, so every statement here is a plain string next to the method
// that runs it.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
	"github.com/octobud-hq/octobud/backend/internal/db"
)

// Store implements db.Store for SQLite.
type Store struct {
	conn *sql.DB
}

// NewStore creates a new SQLite-backed Store.
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

func init() {
	db.RegisterSQLiteStore(func(conn *sql.DB) db.Store {
		return NewStore(conn)
	})
}

// Ensure Store implements db.Store at compile time.
var _ db.Store = (*Store)(nil)

// BeginTx opens a new transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.conn.BeginTx(ctx, nil)
}

// --- shared helpers ---

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}

// isUniqueConstraintErr reports whether err came from a SQLite UNIQUE
// constraint violation (modernc.org/sqlite reports these as plain errors
// whose text names the constraint).
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: UNIQUE")
}

func noRowsToNotFound(err error, entity, id string) error {
	if err == sql.ErrNoRows {
		return apperrors.NewNotFound(entity, id)
	}
	return err
}
