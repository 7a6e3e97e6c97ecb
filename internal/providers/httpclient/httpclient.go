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

// Package httpclient is the shared outbound HTTP client every provider
// adapter builds on, generalized from the teacher's internal/github
// client (same timeout/header/retry shape, extracted so six adapters
// don't reimplement it).
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/octobud-hq/octobud/backend/internal/apperrors"
)

// Client wraps net/http with the provider-facing error classification
// of spec §4.2/§7: 429/5xx become apperrors.RecoverableError (the caller
// retries), 401/403 become apperrors.UnauthorizedError, 404 becomes
// apperrors.NotFoundError (the action dispatcher treats this as "sink
// gone" and recreates it, spec §4.4), and everything else becomes
// apperrors.PermanentError.
type Client struct {
	httpClient *http.Client
	provider   string
}

// New creates a Client with the given timeout.
func New(provider string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		provider:   provider,
	}
}

// Do executes the request built by newReq, classifying failures per spec
// §4.2/§7 and retrying recoverable ones with jittered exponential backoff
// (same policy shape as internal/db.RetryOnBusy, applied here to the
// network instead of SQLite). newReq is called once per attempt so a
// request body is never reused after being drained by a failed attempt.
func (c *Client) Do(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	op := func() (*http.Response, error) {
		req, err := newReq()
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, apperrors.NewRecoverable(c.provider, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, apperrors.NewRecoverable(c.provider,
				fmt.Errorf("http %d: %s", resp.StatusCode, string(body)))
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, backoff.Permanent(apperrors.NewUnauthorized(
				fmt.Sprintf("%s: http %d: %s", c.provider, resp.StatusCode, string(body))))
		}
		if resp.StatusCode == http.StatusNotFound {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, backoff.Permanent(apperrors.NewNotFound(c.provider,
				fmt.Sprintf("http 404: %s", string(body))))
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, backoff.Permanent(apperrors.NewPermanent(c.provider,
				fmt.Errorf("http %d: %s", resp.StatusCode, string(body))))
		}
		return resp, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	return backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(30*time.Second))
}
