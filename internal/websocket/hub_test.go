package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// serveTopic upgrades every request into a client subscribed to the topic
// named by the "topic" query parameter and signals once it is registered.
func serveTopic(t *testing.T, hub *Hub, registered chan<- struct{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		client := NewClient(hub, conn, r.URL.Query().Get("topic"))
		hub.Register(client)
		registered <- struct{}{}
		go client.WritePump()
		go client.ReadPump(func(c *Client, message []byte) {
			hub.SendTo(c, NewMessage("pong", nil))
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, topic string, registered <-chan struct{}) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?topic=" + topic
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestHubPublishesByTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	registered := make(chan struct{}, 2)
	srv := serveTopic(t, hub, registered)
	global := dial(t, srv, GlobalTopic, registered)
	post := dial(t, srv, PostTopic("p1"), registered)

	hub.Publish(PostTopic("p1"), NewMessage("post.view", map[string]int{"viewCount": 1}))
	hub.Publish(GlobalTopic, NewMessage("post.create", nil))

	if msg := readMessage(t, post); msg.Action != "post.view" {
		t.Fatalf("post client: expected post.view, got %q", msg.Action)
	}
	if msg := readMessage(t, global); msg.Action != "post.create" {
		t.Fatalf("global client: expected post.create, got %q", msg.Action)
	}

	counts := hub.Subscribers()
	if counts[GlobalTopic] != 1 || counts[PostTopic("p1")] != 1 {
		t.Fatalf("unexpected subscriber counts: %v", counts)
	}
}

func TestHubRepliesToSingleClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	registered := make(chan struct{}, 1)
	srv := serveTopic(t, hub, registered)
	conn := dial(t, srv, GlobalTopic, registered)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"ping"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msg := readMessage(t, conn); msg.Action != "pong" {
		t.Fatalf("expected pong, got %q", msg.Action)
	}
}

func TestHubStopUnblocksCallers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer*2; i++ {
			hub.Publish(GlobalTopic, []byte("x"))
		}
		_ = hub.Subscribers()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked after stop")
	}
}

func TestNewErrorMessage(t *testing.T) {
	var msg struct {
		Action  string            `json:"action"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(NewErrorMessage("boom"), &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Action != "error" || msg.Payload["message"] != "boom" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}
