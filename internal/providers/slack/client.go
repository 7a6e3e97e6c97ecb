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

// Package slack implements providers.Adapter for starred Slack messages
// (spec §8 scenario 4). No Slack Go SDK exists anywhere in the retrieved
// pack, so this is a thin hand-written REST client over net/http, the same
// call the teacher makes for its own GitHub client.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/providers/httpclient"
)

const apiBase = "https://slack.com/api"

// Star is a starred Slack message.
type Star struct {
	ChannelID string
	Timestamp string
	Text      string
	Permalink string
	UserID    string
	StarredAt time.Time
}

// Client is a minimal Slack Web API client scoped to the stars endpoints.
type Client struct {
	http  *httpclient.Client
	token string
}

// NewClient constructs a Client for the given (already-decrypted) bot/user
// token.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New("slack", timeout), token: token}
}

// authedRequest builds a request with form encoded as a query string —
// the Slack Web API accepts method arguments that way regardless of HTTP
// method, which keeps both the stars.list and stars.remove calls uniform.
func (c *Client) authedRequest(ctx context.Context, method, rawURL string, form url.Values) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL+"?"+form.Encode(), http.NoBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		return req, nil
	}
}

type apiEnvelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type starItem struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Message struct {
		Text      string `json:"text"`
		User      string `json:"user"`
		Timestamp string `json:"ts"`
		Permalink string `json:"permalink"`
	} `json:"message"`
	DateCreate int64 `json:"date_create"`
}

type starsListResponse struct {
	apiEnvelope
	Items []starItem `json:"items"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// FetchStars lists every starred message for the authenticated user
// (spec §4.2 list_for_user).
func (c *Client) FetchStars(ctx context.Context) ([]Star, error) {
	var all []Star
	cursor := ""
	for {
		form := url.Values{"limit": {"100"}}
		if cursor != "" {
			form.Set("cursor", cursor)
		}
		reqURL := apiBase + "/stars.list"
		resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodGet, reqURL, form))
		if err != nil {
			return nil, fmt.Errorf("slack: fetch stars: %w", err)
		}
		var body starsListResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&body)
		_ = resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("slack: decode stars.list: %w", decodeErr)
		}
		if !body.OK {
			return nil, fmt.Errorf("slack: stars.list: %s", body.Error)
		}
		for _, item := range body.Items {
			all = append(all, Star{
				ChannelID: item.Channel,
				Timestamp: item.Message.Timestamp,
				Text:      item.Message.Text,
				Permalink: item.Message.Permalink,
				UserID:    item.Message.User,
				StarredAt: time.Unix(item.DateCreate, 0).UTC(),
			})
		}
		if body.ResponseMetadata.NextCursor == "" {
			break
		}
		cursor = body.ResponseMetadata.NextCursor
	}
	return all, nil
}

// RemoveStar unstars a message (our closest analogue to Deleted/
// Unsubscribed on a starred-message notification).
func (c *Client) RemoveStar(ctx context.Context, channel, timestamp string) error {
	form := url.Values{"channel": {channel}, "timestamp": {timestamp}}
	reqURL := apiBase + "/stars.remove"
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, reqURL, form))
	if err != nil {
		return fmt.Errorf("slack: remove star: %w", err)
	}
	var body apiEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)
	_ = resp.Body.Close()
	if decodeErr != nil {
		return fmt.Errorf("slack: decode stars.remove: %w", decodeErr)
	}
	if !body.OK {
		return fmt.Errorf("slack: stars.remove: %s", body.Error)
	}
	return nil
}
