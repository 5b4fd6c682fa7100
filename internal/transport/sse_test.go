package transport

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KaliDrag0n/ContentReaper/internal/model"
	"github.com/KaliDrag0n/ContentReaper/internal/notify"
)

func TestSSEChannel_DeliversStateUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("expected event-stream accept header, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		fmt.Fprint(w, ":keepalive\n\n")
		fmt.Fprint(w, "event: state_update\n")
		fmt.Fprint(w, `data: {"queue":[{"id":1,"url":"https://example.com/a"}],"is_paused":false}`+"\n\n")
		flusher.Flush()

		// Unknown events are ignored without breaking the stream.
		fmt.Fprint(w, "event: log_line\ndata: {\"line\":\"x\"}\n\n")
		fmt.Fprint(w, "event: state_update\n")
		fmt.Fprint(w, `data: {"queue":[],"is_paused":true}`+"\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	ch := make(chan model.Snapshot, 16)
	sse := NewSSEChannel(server.URL, server.Client(), 5*time.Millisecond, 10, notify.NewEmitter())
	sub := sse.Subscribe(func(s model.Snapshot) { ch <- s })
	defer sub.Cancel()

	got := awaitSnapshots(t, ch, 2)
	if len(got[0].Queue) != 1 || got[0].Queue[0].ID != 1 {
		t.Errorf("unexpected first snapshot: %+v", got[0])
	}
	if !got[1].IsPaused || len(got[1].Queue) != 0 {
		t.Errorf("unexpected second snapshot: %+v", got[1])
	}
}

func TestSSEChannel_ReconnectsAfterStreamEnd(t *testing.T) {
	var serves int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serves++
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "event: state_update\ndata: {\"queue\":[{\"id\":%d}]}\n\n", serves)
		// Handler returns, closing the stream; the channel must dial again.
	}))
	defer server.Close()

	ch := make(chan model.Snapshot, 16)
	sse := NewSSEChannel(server.URL, server.Client(), 5*time.Millisecond, 10, notify.NewEmitter())
	sub := sse.Subscribe(func(s model.Snapshot) { ch <- s })
	defer sub.Cancel()

	got := awaitSnapshots(t, ch, 2)
	if got[0].Queue[0].ID == got[1].Queue[0].ID {
		t.Error("expected snapshots from two separate connections")
	}
}

func TestSSEChannel_MalformedEventSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: state_update\ndata: {not json\n\n")
		fmt.Fprint(w, "event: state_update\ndata: {\"queue\":[{\"id\":7}]}\n\n")
	}))
	defer server.Close()

	ch := make(chan model.Snapshot, 16)
	sse := NewSSEChannel(server.URL, server.Client(), 5*time.Millisecond, 10, notify.NewEmitter())
	sub := sse.Subscribe(func(s model.Snapshot) { ch <- s })
	defer sub.Cancel()

	got := awaitSnapshots(t, ch, 1)
	if got[0].Queue[0].ID != 7 {
		t.Errorf("expected the well-formed snapshot, got %+v", got[0])
	}
}
