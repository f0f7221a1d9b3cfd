package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialEvents(t *testing.T, tsURL, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(tsURL, "http") + "/api/events/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing events socket: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitForClient blocks until the hub sees at least one registered client.
func waitForClient(t *testing.T, srv *Server) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEvents_RequiresToken(t *testing.T) {
	_, ts := testServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without token succeeded, want failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake response = %v, want 401", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
}

func TestEvents_BroadcastOnCreate(t *testing.T) {
	srv, ts := testServer(t)
	access, _ := login(t, ts)

	conn := dialEvents(t, ts.URL, access)
	waitForClient(t, srv)

	created := createNews(t, ts, access, "Broadcast me")

	//nolint:errcheck // deadline on test connection
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}

	var event ContentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decoding event %q: %v", data, err)
	}
	if event.Collection != "news" {
		t.Errorf("collection = %q, want news", event.Collection)
	}
	if event.Action != "created" {
		t.Errorf("action = %q, want created", event.Action)
	}
	if event.ID != created["id"] {
		t.Errorf("id = %q, want %v", event.ID, created["id"])
	}
}

func TestEvents_BroadcastOnDelete(t *testing.T) {
	srv, ts := testServer(t)
	access, _ := login(t, ts)

	created := createNews(t, ts, access, "Doomed")
	id, _ := created["id"].(string)

	conn := dialEvents(t, ts.URL, access)
	waitForClient(t, srv)

	resp := doJSON(t, ts, http.MethodDelete, "/api/news/"+id+"/", access, nil)
	resp.Body.Close()

	//nolint:errcheck // deadline on test connection
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}

	var event ContentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("decoding event %q: %v", data, err)
	}
	if event.Action != "deleted" || event.ID != id {
		t.Errorf("event = %+v, want deleted %s", event, id)
	}
}
