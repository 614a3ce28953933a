// Package asana files the weekly report as a task in the team's Asana
// project and attaches the CSV.
package asana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultBaseURL = "https://app.asana.com/api/1.0"

// Client creates tasks and attachments in one fixed project.
type Client struct {
	token      string
	baseURL    string
	projectID  string
	assigneeID string
	client     *http.Client
}

// Config carries the client settings. Token and ProjectID are required;
// AssigneeID is optional.
type Config struct {
	Token      string
	ProjectID  string
	AssigneeID string
	BaseURL    string
	Timeout    time.Duration
}

// New creates a task client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("asana: token not set")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("asana: project ID not set")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    base,
		projectID:  cfg.ProjectID,
		assigneeID: cfg.AssigneeID,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

type taskData struct {
	Name     string   `json:"name"`
	Notes    string   `json:"notes"`
	Projects []string `json:"projects"`
	DueOn    string   `json:"due_on"`
	Assignee string   `json:"assignee,omitempty"`
}

type taskEnvelope struct {
	Data taskData `json:"data"`
}

type taskResponse struct {
	Data struct {
		GID string `json:"gid"`
	} `json:"data"`
}

// CreateTask creates a task in the configured project and returns its ID.
func (c *Client) CreateTask(ctx context.Context, title, notes string, dueOn time.Time) (string, error) {
	body, err := json.Marshal(taskEnvelope{Data: taskData{
		Name:     title,
		Notes:    notes,
		Projects: []string{c.projectID},
		DueOn:    dueOn.Format("2006-01-02"),
		Assignee: c.assigneeID,
	}})
	if err != nil {
		return "", fmt.Errorf("asana: marshal task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("asana: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result taskResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("asana: parse task response: %w", err)
	}
	if result.Data.GID == "" {
		return "", fmt.Errorf("asana: task response missing gid")
	}
	return result.Data.GID, nil
}

// AttachFile uploads contents under fileName as an attachment on the task.
func (c *Client) AttachFile(ctx context.Context, taskID, fileName string, contents io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("asana: build multipart: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return fmt.Errorf("asana: copy attachment: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("asana: finish multipart: %w", err)
	}

	url := fmt.Sprintf("%s/tasks/%s/attachments", c.baseURL, taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("asana: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asana: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("asana: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("asana: API returned %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
