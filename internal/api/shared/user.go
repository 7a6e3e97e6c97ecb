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

package shared

import (
	"context"
	"net/http"
)

// AuthenticatedUserHeader is the header a trusted upstream (a reverse
// proxy, an API gateway) is expected to have already set to the caller's
// user id. Session/OIDC login is out of scope (spec §1 non-goals); this
// service only consumes an identity someone else already established.
const AuthenticatedUserHeader = "X-Authenticated-User-Id"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

// userIDContextKey is the key used to store the user ID in context.
const userIDContextKey contextKey = "userID"

// ContextWithUserID returns a new context with the user ID stored.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// GetUserIDFromContext retrieves the user ID from context.
// Returns empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDContextKey).(string); ok {
		return userID
	}
	return ""
}

// RequireUser is middleware that rejects any request missing
// AuthenticatedUserHeader and otherwise stores it in the request context
// for handlers to read via GetUserIDFromContext.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(AuthenticatedUserHeader)
		if userID == "" {
			WriteError(w, http.StatusUnauthorized, "missing authenticated user")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}

// RequireUserID is a handler-local helper that reads the user id already
// placed in context by RequireUser, writing an HTTP error if somehow
// absent (the middleware should make that impossible on any mounted
// route, but handlers stay defensive at this boundary).
func RequireUserID(ctx context.Context, w http.ResponseWriter) (string, bool) {
	userID := GetUserIDFromContext(ctx)
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "missing authenticated user")
		return "", false
	}
	return userID, true
}
