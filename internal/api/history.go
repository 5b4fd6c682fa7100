package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/KaliDrag0n/ContentReaper/internal/model"
)

// HistoryItem is a single history entry, optionally including its saved log.
type HistoryItem struct {
	model.HistoryEntry
	LogContent string `json:"log_content,omitempty"`
}

// HistoryEntry fetches one history entry by log id. With includeLog the
// backend inlines the saved job log.
func (c *Client) HistoryEntry(ctx context.Context, logID int64, includeLog bool) (HistoryItem, error) {
	path := fmt.Sprintf("/api/history/item/%d", logID)
	if includeLog {
		path += "?include_log=true"
	}

	var item HistoryItem
	if err := c.get(ctx, path, &item); err != nil {
		return HistoryItem{}, fmt.Errorf("history item fetch failed: %w", err)
	}
	return item, nil
}

// HistoryLog fetches the saved log text for a finished job.
func (c *Client) HistoryLog(ctx context.Context, logID int64) (string, error) {
	var payload struct {
		Log string `json:"log"`
	}
	if err := c.get(ctx, fmt.Sprintf("/history/log/%d", logID), &payload); err != nil {
		return "", fmt.Errorf("history log fetch failed: %w", err)
	}
	return payload.Log, nil
}

// DeleteHistoryEntry removes one history entry and its stored log.
func (c *Client) DeleteHistoryEntry(ctx context.Context, logID int64) error {
	return c.mutate(ctx, "history-delete", http.MethodPost, fmt.Sprintf("/history/delete/%d", logID), nil, nil)
}

// ClearHistory removes every history entry.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.mutate(ctx, "history-clear", http.MethodPost, "/history/clear", nil, nil)
}
