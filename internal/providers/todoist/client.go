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

// Package todoist implements providers.Adapter for Todoist as a task
// source and task-manager sink (spec §3.3, §8 scenario 5/6). Todoist has
// no Go SDK in the retrieved pack, so this is a hand-written REST client,
// same call the teacher makes for GitHub.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/providers/httpclient"
)

const apiBase = "https://api.todoist.com/rest/v2"

// Task is a Todoist task.
type Task struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	Description string  `json:"description"`
	ProjectID   string  `json:"project_id"`
	Priority    int     `json:"priority"`
	IsCompleted bool    `json:"is_completed"`
	URL         string  `json:"url"`
	Due         *struct {
		Date     string `json:"date"`
		Datetime string `json:"datetime"`
		Timezone string `json:"timezone"`
	} `json:"due"`
}

// Client is a minimal Todoist REST API client.
type Client struct {
	http  *httpclient.Client
	token string
}

// NewClient constructs a Client for the given (already-decrypted) API
// token.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New("todoist", timeout), token: token}
}

func (c *Client) authedRequest(ctx context.Context, method, url string, body []byte) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		var reader *bytes.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		} else {
			reader = bytes.NewReader(nil)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
}

// FetchActiveTasks lists every active (open) task (spec §4.2 list_for_user).
func (c *Client) FetchActiveTasks(ctx context.Context) ([]Task, error) {
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodGet, apiBase+"/tasks", nil))
	if err != nil {
		return nil, fmt.Errorf("todoist: fetch tasks: %w", err)
	}
	defer resp.Body.Close()
	var tasks []Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("todoist: decode tasks: %w", err)
	}
	return tasks, nil
}

type createTaskRequest struct {
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	DueString   string `json:"due_string,omitempty"`
}

// CreateTask creates a new task, returning its assigned id.
func (c *Client) CreateTask(ctx context.Context, req createTaskRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("todoist: encode create request: %w", err)
	}
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, apiBase+"/tasks", body))
	if err != nil {
		return "", fmt.Errorf("todoist: create task: %w", err)
	}
	defer resp.Body.Close()
	var created Task
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("todoist: decode created task: %w", err)
	}
	return created.ID, nil
}

// UpdateTask patches an existing task's mutable fields.
func (c *Client) UpdateTask(ctx context.Context, id string, req createTaskRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("todoist: encode update request: %w", err)
	}
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, apiBase+"/tasks/"+id, body))
	if err != nil {
		return fmt.Errorf("todoist: update task: %w", err)
	}
	return resp.Body.Close()
}

// CloseTask marks a task complete.
func (c *Client) CloseTask(ctx context.Context, id string) error {
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, apiBase+"/tasks/"+id+"/close", nil))
	if err != nil {
		return fmt.Errorf("todoist: close task: %w", err)
	}
	return resp.Body.Close()
}

// ReopenTask reopens a previously completed task.
func (c *Client) ReopenTask(ctx context.Context, id string) error {
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, apiBase+"/tasks/"+id+"/reopen", nil))
	if err != nil {
		return fmt.Errorf("todoist: reopen task: %w", err)
	}
	return resp.Body.Close()
}

// DeleteTask permanently deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodDelete, apiBase+"/tasks/"+id, nil))
	if err != nil {
		return fmt.Errorf("todoist: delete task: %w", err)
	}
	return resp.Body.Close()
}
