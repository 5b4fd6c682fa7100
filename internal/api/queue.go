package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

// State fetches the authoritative snapshot: active download, queue, history,
// scythes and pause flag.
func (c *Client) State(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	if err := c.get(ctx, "/api/state", &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("state fetch failed: %w", err)
	}
	return snap, nil
}

// EnqueueRequest is the payload for adding jobs. One template fans out over
// every URL in the list.
type EnqueueRequest struct {
	URLs []string          `json:"urls"`
	Job  model.JobTemplate `json:"job"`
}

// Enqueue adds one job per URL to the backend queue.
func (c *Client) Enqueue(ctx context.Context, req EnqueueRequest) (string, error) {
	var msg Message
	if err := c.mutate(ctx, "enqueue", http.MethodPost, "/queue", req, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// ContinueJob re-queues a finished history entry by log id.
func (c *Client) ContinueJob(ctx context.Context, logID int64) (string, error) {
	payload := struct {
		LogID int64 `json:"log_id"`
	}{LogID: logID}

	var msg Message
	if err := c.mutate(ctx, "continue", http.MethodPost, "/queue/continue", payload, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}

// DeleteQueueItem removes a single queued job by id.
func (c *Client) DeleteQueueItem(ctx context.Context, id int64) error {
	return c.mutate(ctx, "queue-delete", http.MethodPost, fmt.Sprintf("/queue/delete/by-id/%d", id), nil, nil)
}

// ClearQueue removes every queued job.
func (c *Client) ClearQueue(ctx context.Context) error {
	return c.mutate(ctx, "queue-clear", http.MethodPost, "/queue/clear", nil, nil)
}

// ReorderQueue sets the queue order to the given id list.
func (c *Client) ReorderQueue(ctx context.Context, order []int64) error {
	payload := struct {
		Order []int64 `json:"order"`
	}{Order: order}
	return c.mutate(ctx, "queue-reorder", http.MethodPost, "/queue/reorder", payload, nil)
}

// PauseQueue stops the worker from picking up new jobs.
func (c *Client) PauseQueue(ctx context.Context) error {
	return c.mutate(ctx, "queue-pause", http.MethodPost, "/queue/pause", nil, nil)
}

// ResumeQueue lets the worker pick up jobs again.
func (c *Client) ResumeQueue(ctx context.Context) error {
	return c.mutate(ctx, "queue-resume", http.MethodPost, "/queue/resume", nil, nil)
}

// Stop interrupts the active download. With save=true completed files are
// kept (STOPPED); otherwise temporary files are discarded (CANCELLED).
func (c *Client) Stop(ctx context.Context, save bool) (string, error) {
	mode := "cancel"
	if save {
		mode = "save"
	}
	payload := struct {
		Mode string `json:"mode"`
	}{Mode: mode}

	var msg Message
	if err := c.mutate(ctx, "stop", http.MethodPost, "/stop", payload, &msg); err != nil {
		return "", err
	}
	return msg.Message, nil
}
