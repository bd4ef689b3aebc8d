package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"televault/internal/domain/events"
	"televault/internal/domain/models"
)

// newClientServer serves /ws, pushing the given events to each subscriber
// and then closing the session with a normal close frame.
func newClientServer(t *testing.T, push []events.Event) string {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		for _, ev := range push {
			message, err := json.Marshal(ev)
			if err != nil {
				t.Errorf("encode: %v", err)
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}

		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		// Wait for the peer's close response before tearing down.
		ws.SetReadDeadline(time.Now().Add(time.Second))
		ws.ReadMessage()
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClientAppliesStreamAndStopsOnNormalClosure(t *testing.T) {
	added := events.New(events.FileAdded, "acct-1", events.FilePayload{
		File: models.File{ID: "f1", AccountID: "acct-1", FolderPath: "/docs", Filename: "a.pdf"},
	})
	removed := events.New(events.FileRemoved, "acct-1", events.FileRemovedPayload{ID: "f1"})
	wsURL := newClientServer(t, []events.Event{added, removed})

	logger := slog.New(slog.DiscardHandler)
	view := NewView("acct-1", nil, logger)
	view.SetPath("/docs", nil, nil)

	var seen []events.Type
	view.Subscribe(func(ev events.Event) {
		seen = append(seen, ev.Type)
	})

	client := NewClient(wsURL, "acct-1", view, logger)

	// A deliberate server close (code 1000) must end Run without retrying.
	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(context.Background()) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after normal closure")
	}

	if client.Status() != StatusDisconnected {
		t.Errorf("status = %q, want %q", client.Status(), StatusDisconnected)
	}
	if len(seen) != 2 || seen[0] != events.FileAdded || seen[1] != events.FileRemoved {
		t.Errorf("seen = %v, want [FILE_ADDED FILE_REMOVED]", seen)
	}
	if got := view.Files(); len(got) != 0 {
		t.Errorf("view files = %v, want empty after add+remove", got)
	}
}

func TestClientCloseEndsRun(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	logger := slog.New(slog.DiscardHandler)
	client := NewClient(wsURL, "acct-1", nil, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- client.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && client.Status() != StatusConnected {
		time.Sleep(10 * time.Millisecond)
	}
	if client.Status() != StatusConnected {
		t.Fatalf("status = %q, never connected", client.Status())
	}

	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run after close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after Close")
	}

	if client.Status() != StatusDisconnected {
		t.Errorf("status = %q, want %q", client.Status(), StatusDisconnected)
	}
}

func TestClientStatusStartsDisconnected(t *testing.T) {
	client := NewClient("ws://localhost:0", "acct-1", nil, slog.New(slog.DiscardHandler))
	if client.Status() != StatusDisconnected {
		t.Errorf("status = %q, want %q", client.Status(), StatusDisconnected)
	}
}
