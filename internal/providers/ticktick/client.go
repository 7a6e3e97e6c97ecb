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

// Package ticktick implements providers.Adapter for TickTick as a
// task-manager sink (spec §3.3, §8 scenario 6). TickTick has no Go SDK in
// the retrieved pack, so this is a hand-written REST client over its Open
// API, same call the teacher makes for GitHub.
package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/providers/httpclient"
)

const apiBase = "https://api.ticktick.com/open/v1"

// Task is a TickTick task.
type Task struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Priority  int    `json:"priority"`
	DueDate   string `json:"dueDate"`
	Status    int    `json:"status"`
}

// Project is a TickTick project.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type projectData struct {
	Tasks []Task `json:"tasks"`
}

// Client is a minimal TickTick Open API client.
type Client struct {
	http  *httpclient.Client
	token string
}

// NewClient constructs a Client for the given (already-decrypted) OAuth2
// access token.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{http: httpclient.New("ticktick", timeout), token: token}
}

func (c *Client) authedRequest(ctx context.Context, method, url string, body []byte) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		reader := bytes.NewReader(body)
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

// FetchProjects lists every project (spec §6.1 target project selection).
func (c *Client) FetchProjects(ctx context.Context) ([]Project, error) {
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodGet, apiBase+"/project", nil))
	if err != nil {
		return nil, fmt.Errorf("ticktick: fetch projects: %w", err)
	}
	defer resp.Body.Close()
	var projects []Project
	if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
		return nil, fmt.Errorf("ticktick: decode projects: %w", err)
	}
	return projects, nil
}

// FetchProjectTasks lists the open tasks within a project (spec §4.2
// list_for_user).
func (c *Client) FetchProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodGet, apiBase+"/project/"+projectID+"/data", nil))
	if err != nil {
		return nil, fmt.Errorf("ticktick: fetch project %s tasks: %w", projectID, err)
	}
	defer resp.Body.Close()
	var data projectData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("ticktick: decode project %s data: %w", projectID, err)
	}
	return data.Tasks, nil
}

type createTaskRequest struct {
	ProjectID string `json:"projectId,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Priority  int    `json:"priority,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`
}

// CreateTask creates a new task, returning its assigned id.
func (c *Client) CreateTask(ctx context.Context, req createTaskRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("ticktick: encode create request: %w", err)
	}
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, apiBase+"/task", body))
	if err != nil {
		return "", fmt.Errorf("ticktick: create task: %w", err)
	}
	defer resp.Body.Close()
	var created Task
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("ticktick: decode created task: %w", err)
	}
	return created.ID, nil
}

// UpdateTask patches an existing task's mutable fields.
func (c *Client) UpdateTask(ctx context.Context, id string, req createTaskRequest) error {
	body, err := json.Marshal(struct {
		ID string `json:"id"`
		createTaskRequest
	}{ID: id, createTaskRequest: req})
	if err != nil {
		return fmt.Errorf("ticktick: encode update request: %w", err)
	}
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, apiBase+"/task/"+id, body))
	if err != nil {
		return fmt.Errorf("ticktick: update task: %w", err)
	}
	return resp.Body.Close()
}

// CompleteTask marks a task complete.
func (c *Client) CompleteTask(ctx context.Context, projectID, id string) error {
	url := apiBase + "/project/" + projectID + "/task/" + id + "/complete"
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodPost, url, nil))
	if err != nil {
		return fmt.Errorf("ticktick: complete task: %w", err)
	}
	return resp.Body.Close()
}

// DeleteTask permanently deletes a task.
func (c *Client) DeleteTask(ctx context.Context, projectID, id string) error {
	url := apiBase + "/project/" + projectID + "/task/" + id
	resp, err := c.http.Do(ctx, c.authedRequest(ctx, http.MethodDelete, url, nil))
	if err != nil {
		return fmt.Errorf("ticktick: delete task: %w", err)
	}
	return resp.Body.Close()
}
