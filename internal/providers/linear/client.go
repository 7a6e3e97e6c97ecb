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

// Package linear implements providers.Adapter for Linear issues and inbox
// notifications (spec §8 scenario 5). Linear has no published Go SDK in
// the retrieved pack, so this talks to its GraphQL API directly over
// net/http the same way the teacher hand-writes its GitHub REST client
// rather than depending on an SDK.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/providers/httpclient"
)

const apiURL = "https://api.linear.app/graphql"

// Client is a minimal Linear GraphQL client scoped to assigned issues and
// inbox notifications.
type Client struct {
	http  *httpclient.Client
	token string
}

// NewClient constructs a Client for the given (already-decrypted) API key.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New("linear", timeout), token: token}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("linear: encode request: %w", err)
	}
	newReq := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", c.token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
	resp, err := c.http.Do(ctx, newReq)
	if err != nil {
		return fmt.Errorf("linear: request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("linear: decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("linear: graphql error: %s", envelope.Errors[0].Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

// Issue is an assigned Linear issue (spec §8 scenario 5).
type Issue struct {
	ID         string     `json:"id"`
	Identifier string     `json:"identifier"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Priority   int        `json:"priority"`
	DueDate    *string    `json:"dueDate"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	State      struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"state"`
}

// Notification is an inbox notification (issue-assigned, comment mention,
// etc.) surfaced in Linear's notification feed.
type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	ReadAt    *time.Time `json:"readAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Issue     struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"issue"`
}

const assignedIssuesQuery = `
query AssignedIssues($after: String) {
  viewer {
    assignedIssues(first: 50, after: $after, orderBy: updatedAt) {
      nodes {
        id
        identifier
        title
        url
        priority
        dueDate
        updatedAt
        state { name type }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

// FetchAssignedIssues returns every issue assigned to the authenticated
// viewer (spec §4.2 list_for_user).
func (c *Client) FetchAssignedIssues(ctx context.Context) ([]Issue, error) {
	var all []Issue
	var after *string
	for {
		var resp struct {
			Viewer struct {
				AssignedIssues struct {
					Nodes    []Issue `json:"nodes"`
					PageInfo struct {
						HasNextPage bool   `json:"hasNextPage"`
						EndCursor   string `json:"endCursor"`
					} `json:"pageInfo"`
				} `json:"assignedIssues"`
			} `json:"viewer"`
		}
		vars := map[string]any{}
		if after != nil {
			vars["after"] = *after
		}
		if err := c.do(ctx, assignedIssuesQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("linear: fetch assigned issues: %w", err)
		}
		all = append(all, resp.Viewer.AssignedIssues.Nodes...)
		if !resp.Viewer.AssignedIssues.PageInfo.HasNextPage {
			break
		}
		cursor := resp.Viewer.AssignedIssues.PageInfo.EndCursor
		after = &cursor
	}
	return all, nil
}

const notificationsQuery = `
query Notifications($after: String) {
  notifications(first: 50, after: $after, orderBy: updatedAt) {
    nodes {
      id
      type
      readAt
      updatedAt
      ... on IssueNotification {
        issue { id title url }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// FetchNotifications returns every inbox notification for the authenticated
// viewer.
func (c *Client) FetchNotifications(ctx context.Context) ([]Notification, error) {
	var all []Notification
	var after *string
	for {
		var resp struct {
			Notifications struct {
				Nodes    []Notification `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"notifications"`
		}
		vars := map[string]any{}
		if after != nil {
			vars["after"] = *after
		}
		if err := c.do(ctx, notificationsQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("linear: fetch notifications: %w", err)
		}
		all = append(all, resp.Notifications.Nodes...)
		if !resp.Notifications.PageInfo.HasNextPage {
			break
		}
		cursor := resp.Notifications.PageInfo.EndCursor
		after = &cursor
	}
	return all, nil
}

const markNotificationReadMutation = `
mutation MarkRead($id: String!) {
  notificationUpdate(id: $id, input: { readAt: "now" }) { success }
}`

// MarkNotificationRead marks an inbox notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, markNotificationReadMutation, map[string]any{"id": id}, nil)
}

const archiveNotificationMutation = `
mutation Archive($id: String!) {
  notificationArchive(id: $id) { success }
}`

// ArchiveNotification archives (our Deleted equivalent) an inbox
// notification.
func (c *Client) ArchiveNotification(ctx context.Context, id string) error {
	return c.do(ctx, archiveNotificationMutation, map[string]any{"id": id}, nil)
}

const unsubscribeFromIssueMutation = `
mutation Unsubscribe($issueId: String!, $userId: String!) {
  issueUnsubscribe(id: $issueId, userId: $userId) { success }
}`

// UnsubscribeFromIssue removes the viewer as a subscriber of an issue.
func (c *Client) UnsubscribeFromIssue(ctx context.Context, issueID, userID string) error {
	return c.do(ctx, unsubscribeFromIssueMutation, map[string]any{"issueId": issueID, "userId": userID}, nil)
}
