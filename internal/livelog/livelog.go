// Package livelog streams the worker's live output for the job currently
// being downloaded, and fetches the stored log of finished jobs. The live
// tail is pull-on-demand: it only holds a connection while a log view is
// open, and cancelling the view releases the connection immediately.
package livelog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/KaliDrag0n/ContentReaper/internal/logger"
)

const component = "LiveLog"

const tailPath = "/api/log/live/stream"

// maxLineSize bounds one log line from the worker.
const maxLineSize = 1024 * 1024

// HistoryFetcher fetches the stored log for a finished job. *api.Client
// satisfies this.
type HistoryFetcher interface {
	HistoryLog(ctx context.Context, logID int64) (string, error)
}

// Viewer provides both log sources behind one type.
type Viewer struct {
	baseURL string
	client  *http.Client
	history HistoryFetcher
}

// NewViewer creates a log viewer. The HTTP client's cookie jar is reused so
// the tail shares the REST session; the timeout is dropped because a tail
// stays open as long as the view does.
func NewViewer(baseURL string, client *http.Client, history HistoryFetcher) *Viewer {
	streaming := &http.Client{}
	if client != nil {
		streaming.Jar = client.Jar
		streaming.Transport = client.Transport
	}
	return &Viewer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  streaming,
		history: history,
	}
}

// HistoryLog fetches the stored log of a finished job.
func (v *Viewer) HistoryLog(ctx context.Context, logID int64) (string, error) {
	return v.history.HistoryLog(ctx, logID)
}

// Tail streams live log lines to onLine until the stream ends or ctx is
// cancelled. Cancellation aborts the underlying request, so a closed log
// view never keeps a connection alive. Returns nil on cancellation.
func (v *Viewer) Tail(ctx context.Context, onLine func(string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+tailPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create tail request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("log tail connect failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("log tail connect failed with status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			deliver(data.String(), onLine)
			data.Reset()
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("log tail read failed: %w", err)
	}
	return nil
}

// deliver unwraps one event payload into log lines. The backend sends
// either a bare string or a {"line": ...} object.
func deliver(data string, onLine func(string)) {
	if data == "" {
		return
	}
	var payload struct {
		Line string `json:"line"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err == nil && payload.Line != "" {
		onLine(payload.Line)
		return
	}
	var plain string
	if err := json.Unmarshal([]byte(data), &plain); err == nil {
		onLine(plain)
		return
	}
	logger.Debugf(component, "passing through unrecognized tail payload")
	onLine(data)
}
