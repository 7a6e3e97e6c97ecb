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

// Package github implements providers.Adapter for GitHub notifications
// (spec §8 scenarios 1/2), grounded on the teacher's own hand-written
// internal/github client rather than google/go-github: this module keeps
// writing its own thin REST client for providers with no Go SDK in the
// retrieved pack, the same call the teacher made for GitHub itself.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/providers/httpclient"
)

const (
	apiBase = "https://api.github.com"
	perPage = 50
)

type thread struct {
	ID          string `json:"id"`
	Unread      bool   `json:"unread"`
	Reason      string `json:"reason"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastReadAt  *time.Time `json:"last_read_at"`
	Subject     struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Type  string `json:"type"`
	} `json:"subject"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	URL             string `json:"url"`
	SubscriptionURL string `json:"subscription_url"`
}

// Client is a minimal GitHub REST API client scoped to the notifications
// endpoints this adapter needs.
type Client struct {
	http  *httpclient.Client
	token string
}

// NewClient constructs a Client for the given (already-decrypted) token.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New("github", timeout), token: token}
}

func (c *Client) authedRequest(ctx context.Context, method, url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		return req, nil
	}
}

// FetchNotifications retrieves every notification thread updated since
// the given cursor (spec §4.2 list_for_user).
func (c *Client) FetchNotifications(ctx context.Context, since *time.Time) ([]thread, error) {
	var all []thread
	page := 1
	for {
		url := fmt.Sprintf("%s/notifications?all=true&per_page=%d&page=%d", apiBase, perPage, page)
		if since != nil {
			url += "&since=" + since.UTC().Format(time.RFC3339)
		}
		resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodGet, url))
		if err != nil {
			return nil, fmt.Errorf("github: fetch notifications page %d: %w", page, err)
		}
		var batch []thread
		decodeErr := json.NewDecoder(resp.Body).Decode(&batch)
		_ = resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("github: decode notifications page %d: %w", page, decodeErr)
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
		page++
	}
	return all, nil
}

// MarkThreadRead marks a notification thread as read.
func (c *Client) MarkThreadRead(ctx context.Context, threadID string) error {
	url := fmt.Sprintf("%s/notifications/threads/%s", apiBase, threadID)
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPatch, url))
	if err != nil {
		return fmt.Errorf("github: mark thread read: %w", err)
	}
	return resp.Body.Close()
}

// MarkThreadDone marks a notification thread as done (GitHub's closest
// analogue to our Deleted status).
func (c *Client) MarkThreadDone(ctx context.Context, threadID string) error {
	url := fmt.Sprintf("%s/notifications/threads/%s", apiBase, threadID)
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodDelete, url))
	if err != nil {
		return fmt.Errorf("github: mark thread done: %w", err)
	}
	return resp.Body.Close()
}

// Unsubscribe unsubscribes from a notification thread.
func (c *Client) Unsubscribe(ctx context.Context, threadID string) error {
	url := fmt.Sprintf("%s/notifications/threads/%s/subscription", apiBase, threadID)
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodDelete, url))
	if err != nil {
		return fmt.Errorf("github: unsubscribe: %w", err)
	}
	return resp.Body.Close()
}
