package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	ws "github.com/isdelr/blog-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles upgrading HTTP connections to WebSocket connections.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The feed is public and read-only.
		return true
	},
}

// Serve handles the WebSocket connection request. /ws subscribes to the
// global feed, /ws/posts/{id} to a single post.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	topic := ws.GlobalTopic
	if postID := chi.URLParam(r, "id"); postID != "" {
		topic = ws.PostTopic(postID)
	}

	client := ws.NewClient(h.hub, conn, topic)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleIncomingWSMessage)
}

// handleIncomingWSMessage processes messages received from a websocket client.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		h.hub.SendTo(client, ws.NewErrorMessage("invalid message"))
		return
	}

	switch msg.Action {
	case "ping":
		h.hub.SendTo(client, ws.NewMessage("pong", nil))
	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		h.hub.SendTo(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}
