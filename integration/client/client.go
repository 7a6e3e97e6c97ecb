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

//go:build integration

// Package client provides a typed HTTP client for integration tests,
// covering the integration-connections, notifications, tasks and webhook
// receiver routes of spec §6.2.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/octobud-hq/octobud/backend/internal/api/shared"
	"github.com/octobud-hq/octobud/backend/internal/models"
	"github.com/octobud-hq/octobud/backend/internal/sync"
)

// Client is a typed HTTP client for the inboxsync API. It authenticates as
// a single fixed user via shared.AuthenticatedUserHeader, matching how a
// trusted reverse proxy is expected to call the real server.
type Client struct {
	BaseURL    string
	UserID     string
	HTTPClient *http.Client
}

// New creates a new test client for the given base URL, authenticated as
// userID.
func New(baseURL, userID string) *Client {
	return &Client{
		BaseURL:    baseURL,
		UserID:     userID,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ListNotificationsResponse represents the response from listing
// notifications.
type ListNotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

// ListTasksResponse represents the response from listing tasks.
type ListTasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// ListIntegrationConnectionsResponse represents the response from listing
// integration connections.
type ListIntegrationConnectionsResponse struct {
	IntegrationConnections []models.IntegrationConnection `json:"integrationConnections"`
}

// CreateIntegrationConnectionRequest mirrors
// internal/api/integrationconnections.createConnectionRequest.
type CreateIntegrationConnectionRequest struct {
	ProviderKind models.ProviderKind                `json:"providerKind"`
	Config       models.IntegrationConnectionConfig `json:"config"`
	AccessToken  string                             `json:"accessToken"`
}

// CreateIntegrationConnection creates a new integration connection.
func (c *Client) CreateIntegrationConnection(
	t *testing.T, req CreateIntegrationConnectionRequest,
) models.IntegrationConnection {
	t.Helper()
	var result models.IntegrationConnection
	c.doJSON(t, http.MethodPost, "/api/integration-connections", req, http.StatusCreated, &result)
	return result
}

// ListIntegrationConnections lists the authenticated user's connections.
func (c *Client) ListIntegrationConnections(t *testing.T) *ListIntegrationConnectionsResponse {
	t.Helper()
	var result ListIntegrationConnectionsResponse
	c.doJSON(t, http.MethodGet, "/api/integration-connections", nil, http.StatusOK, &result)
	return &result
}

// GetIntegrationConnection fetches a single connection by ID.
func (c *Client) GetIntegrationConnection(t *testing.T, id string) models.IntegrationConnection {
	t.Helper()
	var result models.IntegrationConnection
	c.doJSON(t, http.MethodGet, "/api/integration-connections/"+url.PathEscape(id), nil, http.StatusOK, &result)
	return result
}

// TriggerSync triggers an asynchronous sync for a connection, returning
// whether it was accepted (true) or the connection already had a sync in
// flight (false, HTTP 409 per spec §4.6 single-flight).
func (c *Client) TriggerSync(t *testing.T, connectionID string) bool {
	t.Helper()
	resp, err := c.doRequest(t, http.MethodPost, "/api/integration-connections/"+url.PathEscape(connectionID)+"/sync", nil)
	if err != nil {
		t.Fatalf("TriggerSync request failed: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return true
	case http.StatusConflict:
		return false
	default:
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("TriggerSync failed with status %d: %s", resp.StatusCode, string(body))
		return false
	}
}

// DisconnectIntegrationConnection deletes (disconnects) a connection.
func (c *Client) DisconnectIntegrationConnection(t *testing.T, id string) {
	t.Helper()
	resp, err := c.doRequest(t, http.MethodDelete, "/api/integration-connections/"+url.PathEscape(id), nil)
	if err != nil {
		t.Fatalf("DisconnectIntegrationConnection request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("DisconnectIntegrationConnection failed with status %d: %s", resp.StatusCode, string(body))
	}
}

// ListNotifications retrieves a list of notifications, with optional
// status/sources CSV filters (empty string means "no filter").
func (c *Client) ListNotifications(t *testing.T, status, sources string) *ListNotificationsResponse {
	t.Helper()

	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if sources != "" {
		params.Set("sources", sources)
	}

	path := "/api/notifications"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result ListNotificationsResponse
	c.doJSON(t, http.MethodGet, path, nil, http.StatusOK, &result)
	return &result
}

// PatchNotificationRequest mirrors
// internal/api/notifications.patchNotificationRequest.
type PatchNotificationRequest struct {
	Status       *models.NotificationStatus `json:"status,omitempty"`
	SnoozedUntil **time.Time                `json:"snoozedUntil,omitempty"`
}

// PatchNotification applies a partial update to a notification. Returns
// (updated, true) on 200, (zero value, false) on 304 Not Modified.
func (c *Client) PatchNotification(
	t *testing.T, id string, req PatchNotificationRequest,
) (models.Notification, bool) {
	t.Helper()

	resp, err := c.doRequest(t, http.MethodPatch, "/api/notifications/"+url.PathEscape(id), req)
	if err != nil {
		t.Fatalf("PatchNotification request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return models.Notification{}, false
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("PatchNotification failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result models.Notification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode PatchNotification response: %v", err)
	}
	return result, true
}

// SyncRequest mirrors internal/api/notifications.syncRequest.
type SyncRequest struct {
	Source       *models.ProviderKind `json:"source,omitempty"`
	Asynchronous bool                 `json:"asynchronous"`
}

// Sync triggers POST /notifications/sync. When req.Asynchronous is true the
// response body is empty; otherwise it decodes the aggregated sync.Result.
func (c *Client) Sync(t *testing.T, req SyncRequest) sync.Result {
	t.Helper()

	wantStatus := http.StatusOK
	if req.Asynchronous {
		wantStatus = http.StatusCreated
	}

	resp, err := c.doRequest(t, http.MethodPost, "/api/notifications/sync", req)
	if err != nil {
		t.Fatalf("Sync request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Sync failed with status %d: %s", resp.StatusCode, string(body))
	}

	if req.Asynchronous {
		return sync.Result{}
	}
	var result sync.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode Sync response: %v", err)
	}
	return result
}

// PromoteToTaskRequest mirrors
// internal/api/notifications.promoteToTaskRequest.
type PromoteToTaskRequest struct {
	Title    *string              `json:"title,omitempty"`
	Priority *models.TaskPriority `json:"priority,omitempty"`
}

// PromoteToTask promotes a notification to a task (spec §6.2).
func (c *Client) PromoteToTask(t *testing.T, notificationID string, req PromoteToTaskRequest) models.Task {
	t.Helper()
	var result models.Task
	c.doJSON(
		t, http.MethodPost, "/api/notifications/"+url.PathEscape(notificationID)+"/task",
		req, http.StatusCreated, &result,
	)
	return result
}

// ListTasks retrieves a list of tasks, with optional status/sources CSV
// filters.
func (c *Client) ListTasks(t *testing.T, status, sources string) *ListTasksResponse {
	t.Helper()

	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if sources != "" {
		params.Set("sources", sources)
	}

	path := "/api/tasks"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var result ListTasksResponse
	c.doJSON(t, http.MethodGet, path, nil, http.StatusOK, &result)
	return &result
}

// PatchTaskRequest mirrors internal/api/tasks.patchTaskRequest.
type PatchTaskRequest struct {
	Status   *models.TaskStatus   `json:"status,omitempty"`
	Title    *string              `json:"title,omitempty"`
	Body     *string              `json:"body,omitempty"`
	Project  *string              `json:"project,omitempty"`
	DueAt    **models.DueDate     `json:"dueAt,omitempty"`
	Priority *models.TaskPriority `json:"priority,omitempty"`
}

// PatchTask applies a partial update to a task. Returns (updated, true) on
// 200, (zero value, false) on 304 Not Modified.
func (c *Client) PatchTask(t *testing.T, id string, req PatchTaskRequest) (models.Task, bool) {
	t.Helper()

	resp, err := c.doRequest(t, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), req)
	if err != nil {
		t.Fatalf("PatchTask request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return models.Task{}, false
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("PatchTask failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result models.Task
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode PatchTask response: %v", err)
	}
	return result, true
}

// SendWebhook posts a raw provider webhook payload, the way a real
// provider's outbound webhook call would (spec §4.5, §6.2's
// POST /hooks/<provider>/events).
func (c *Client) SendWebhook(t *testing.T, provider models.ProviderKind, connectionID string, payload []byte) {
	t.Helper()

	path := fmt.Sprintf("/api/hooks/%s/events?connection_id=%s", url.PathEscape(string(provider)), url.QueryEscape(connectionID))
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("failed to create webhook request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("SendWebhook request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("SendWebhook failed with status %d: %s", resp.StatusCode, string(body))
	}
}

// doJSON performs a request, fails the test unless the response status is
// wantStatus, and decodes the JSON body into out.
func (c *Client) doJSON(t *testing.T, method, path string, body any, wantStatus int, out any) {
	t.Helper()

	resp, err := c.doRequest(t, method, path, body)
	if err != nil {
		t.Fatalf("%s %s request failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s failed with status %d (want %d): %s", method, path, resp.StatusCode, wantStatus, string(respBody))
	}
	if out == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode %s %s response: %v", method, path, err)
	}
}

// doRequest performs an HTTP request against the API, authenticating via
// shared.AuthenticatedUserHeader.
func (c *Client) doRequest(t *testing.T, method, path string, body any) (*http.Response, error) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullURL := c.BaseURL + path
	req, err := http.NewRequest(method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shared.AuthenticatedUserHeader, c.UserID)

	return c.HTTPClient.Do(req)
}
