package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

// AddScythe saves a new job template, optionally with a schedule.
func (c *Client) AddScythe(ctx context.Context, scythe model.Scythe) (string, error) {
	payload := struct {
		Name     string            `json:"name"`
		JobData  model.JobTemplate `json:"job_data"`
		Schedule *model.Schedule   `json:"schedule,omitempty"`
	}{Name: scythe.Name, JobData: scythe.Template, Schedule: scythe.Schedule}

	var msg Message
	if err := c.mutate(ctx, "scythe-add", http.MethodPost, "/api/scythes", payload, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// AddScytheFromHistory saves a scythe built from a history entry's template.
func (c *Client) AddScytheFromHistory(ctx context.Context, logID int64) (string, error) {
	payload := struct {
		LogID int64 `json:"log_id"`
	}{LogID: logID}

	var msg Message
	if err := c.mutate(ctx, "scythe-add", http.MethodPost, "/api/scythes", payload, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// UpdateScythe replaces a scythe's name, template and schedule.
func (c *Client) UpdateScythe(ctx context.Context, scythe model.Scythe) error {
	payload := struct {
		Name     string            `json:"name"`
		JobData  model.JobTemplate `json:"job_data"`
		Schedule *model.Schedule   `json:"schedule,omitempty"`
	}{Name: scythe.Name, JobData: scythe.Template, Schedule: scythe.Schedule}

	return c.mutate(ctx, "scythe-update", http.MethodPut, fmt.Sprintf("/api/scythes/%d", scythe.ID), payload, nil)
}

// DeleteScythe removes a saved scythe.
func (c *Client) DeleteScythe(ctx context.Context, id int64) error {
	return c.mutate(ctx, "scythe-delete", http.MethodDelete, fmt.Sprintf("/api/scythes/%d", id), nil, nil)
}

// ReapScythe queues a scythe's template right now, independent of its
// schedule.
func (c *Client) ReapScythe(ctx context.Context, id int64) (string, error) {
	var msg Message
	if err := c.mutate(ctx, "scythe-reap", http.MethodPost, fmt.Sprintf("/api/scythes/%d/reap", id), nil, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}
