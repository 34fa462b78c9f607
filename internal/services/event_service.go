package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/isdelr/blog-be/internal/models"
	"github.com/isdelr/blog-be/internal/store"
	"github.com/isdelr/blog-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
	publishTimeout    = 5 * time.Second
)

// Broadcaster delivers live-feed messages to subscribed clients.
type Broadcaster interface {
	Publish(topic string, message []byte)
}

// Publisher forwards activity to a message broker.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	Record(ctx context.Context, eventType, message string, postID, userID *string)
	Broadcast(postID, action string, payload any)
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// EventService records activity and fans it out to the live feed and the
// broker. Both fan-out targets are optional.
type EventService struct {
	events  store.EventRepository
	hub     Broadcaster
	broker  Publisher
	channel string
}

// NewEventService creates a new EventService. hub and broker may be nil.
func NewEventService(events store.EventRepository, hub Broadcaster, broker Publisher, channel string) *EventService {
	return &EventService{events: events, hub: hub, broker: broker, channel: channel}
}

// Record persists an event and fans it out. Failures are logged and never
// reach the caller.
func (s *EventService) Record(ctx context.Context, eventType, message string, postID, userID *string) {
	event, err := s.events.Create(ctx, models.Event{
		Type:    eventType,
		Message: message,
		PostID:  postID,
		UserID:  userID,
	})
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to persist event")
		event = models.Event{Type: eventType, Message: message, PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
	}

	if s.hub != nil {
		msg := websocket.NewMessage(eventType, event)
		s.hub.Publish(websocket.GlobalTopic, msg)
		if postID != nil {
			s.hub.Publish(websocket.PostTopic(*postID), msg)
		}
	}

	if s.broker != nil {
		s.publish(ctx, event)
	}
}

func (s *EventService) publish(ctx context.Context, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to encode event for broker")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if _, err := s.broker.Publish(ctx, s.channel, data, map[string]string{"type": event.Type}); err != nil {
		log.Error().Err(err).Str("type", event.Type).Str("channel", s.channel).Msg("Failed to publish event")
	}
}

// Broadcast sends a live-feed notification that is not persisted.
func (s *EventService) Broadcast(postID, action string, payload any) {
	if s.hub == nil {
		return
	}
	msg := websocket.NewMessage(action, payload)
	s.hub.Publish(websocket.GlobalTopic, msg)
	s.hub.Publish(websocket.PostTopic(postID), msg)
}

// GetRecentEvents retrieves the most recent events. limit is clamped to
// (0, 100] and defaults to 20.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	return s.events.Recent(ctx, limit)
}
