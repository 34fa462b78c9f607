package websocket

import "github.com/rs/zerolog/log"

// GlobalTopic receives every activity broadcast.
const GlobalTopic = "global"

// PostTopic returns the topic clients watching a single post subscribe to.
func PostTopic(postID string) string {
	return "post:" + postID
}

const broadcastBuffer = 256

type topicMessage struct {
	topic   string
	message []byte
}

type clientMessage struct {
	client  *Client
	message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
// All client and subscription state is owned by the Run goroutine; other
// goroutines talk to it through channels only.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of topics to the set of clients subscribed to it.
	subscriptions map[string]map[*Client]bool

	broadcast  chan topicMessage
	direct     chan clientMessage
	register   chan *Client
	unregister chan *Client
	counts     chan chan map[string]int
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		broadcast:     make(chan topicMessage, broadcastBuffer),
		direct:        make(chan clientMessage, broadcastBuffer),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		counts:        make(chan chan map[string]int),
		done:          make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client)
			log.Info().Int("total_clients", len(h.clients)).Str("topic", client.Topic).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case msg := <-h.broadcast:
			for client := range h.subscriptions[msg.topic] {
				select {
				case client.Send <- msg.message:
				default:
					log.Warn().Str("topic", msg.topic).Msg("Dropping slow websocket client")
					h.drop(client)
				}
			}
		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			select {
			case msg.client.Send <- msg.message:
			default:
				h.drop(msg.client)
			}
		case reply := <-h.counts:
			counts := make(map[string]int, len(h.subscriptions))
			for topic, subs := range h.subscriptions {
				counts[topic] = len(subs)
			}
			reply <- counts
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// Stop ends Run and closes every client's send channel. Stop must be
// called at most once.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client to the hub and subscribes it to its topic.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues a message for every client subscribed to topic.
func (h *Hub) Publish(topic string, message []byte) {
	select {
	case h.broadcast <- topicMessage{topic: topic, message: message}:
	case <-h.done:
	}
}

// SendTo queues a message for a single client. Messages for clients that
// already left are discarded.
func (h *Hub) SendTo(client *Client, message []byte) {
	select {
	case h.direct <- clientMessage{client: client, message: message}:
	case <-h.done:
	}
}

// Subscribers returns the number of clients per topic.
func (h *Hub) Subscribers() map[string]int {
	reply := make(chan map[string]int, 1)
	select {
	case h.counts <- reply:
		return <-reply
	case <-h.done:
		return map[string]int{}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.Topic] == nil {
		h.subscriptions[client.Topic] = make(map[*Client]bool)
	}
	h.subscriptions[client.Topic][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	if subs, ok := h.subscriptions[client.Topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscriptions, client.Topic)
		}
	}
}
