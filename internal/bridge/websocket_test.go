package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func httpMux(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", hub.HandleWS)
	return mux
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/bridge"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial bridge: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHubAttachesAndDetachesSubscriber(t *testing.T) {
	b := New()
	hub := NewHub(b)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(httpMux(hub))
	defer srv.Close()

	if b.HasSubscriber() {
		t.Fatal("expected no subscriber before any connection")
	}

	conn := dialHub(t, srv)
	waitFor(t, b.HasSubscriber, "expected hub to attach as subscriber on first connection")

	select {
	case <-hub.Connected():
	case <-time.After(2 * time.Second):
		t.Fatal("expected Connected signal on first connection")
	}

	conn.Close()
	waitFor(t, func() bool { return !b.HasSubscriber() }, "expected hub to detach when last client leaves")
}

func TestHubRequestResponseRoundTrip(t *testing.T) {
	b := New()
	b.Register("ping", func(args json.RawMessage) (interface{}, error) {
		return "pong", nil
	})
	hub := NewHub(b)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(httpMux(hub))
	defer srv.Close()

	conn := dialHub(t, srv)

	req := Request{ID: "42", Command: "ping"}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("failed to send request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.ID != "42" || !resp.OK || resp.Result != "pong" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	b := New()
	hub := NewHub(b)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(httpMux(hub))
	defer srv.Close()

	conn := dialHub(t, srv)
	waitFor(t, b.HasSubscriber, "expected subscriber to attach")

	b.Publish(EventResourceUsage, map[string]int{"resident": 1})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if evt.Event != EventResourceUsage {
		t.Errorf("expected %s event, got %s", EventResourceUsage, evt.Event)
	}
	if evt.Timestamp == "" {
		t.Error("expected event timestamp")
	}
}

func TestHubStopIsIdempotent(t *testing.T) {
	b := New()
	hub := NewHub(b)
	go hub.Run()

	// The server and the supervisor may both stop the hub during
	// shutdown; a second Stop must be a no-op, not a panic.
	hub.Stop()
	hub.Stop()
}

func TestHubMalformedRequest(t *testing.T) {
	b := New()
	hub := NewHub(b)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(httpMux(hub))
	defer srv.Close()

	conn := dialHub(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("failed to send malformed request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.OK {
		t.Error("expected malformed request to be rejected")
	}
}
