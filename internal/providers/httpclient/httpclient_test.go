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

package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
)

func newReqTo(t *testing.T, url string) func() (*http.Request, error) {
	t.Helper()
	return func() (*http.Request, error) {
		return http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	}
}

func TestDo_ClassifiesStatusCodes(t *testing.T) {
	for _, tc := range []struct {
		name       string
		statusCode int
		check      func(t *testing.T, err error)
	}{
		{"ok", http.StatusOK, func(t *testing.T, err error) { require.NoError(t, err) }},
		{"notFound", http.StatusNotFound, func(t *testing.T, err error) { require.True(t, apperrors.IsNotFound(err)) }},
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) { require.True(t, apperrors.IsUnauthorized(err)) }},
		{"forbidden", http.StatusForbidden, func(t *testing.T, err error) { require.True(t, apperrors.IsUnauthorized(err)) }},
		{"badRequest", http.StatusBadRequest, func(t *testing.T, err error) { require.True(t, apperrors.IsPermanent(err)) }},
		{"tooManyRequests", http.StatusTooManyRequests, func(t *testing.T, err error) { require.True(t, apperrors.IsRecoverable(err)) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}))
			defer server.Close()

			client := New("test-provider", time.Second)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			resp, err := client.Do(ctx, newReqTo(t, server.URL))
			tc.check(t, err)
			if err == nil {
				require.NoError(t, resp.Body.Close())
			}
		})
	}
}

func TestDo_RetriesRecoverableUntilSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New("test-provider", time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Do(ctx, newReqTo(t, server.URL))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, 3, attempts)
}
