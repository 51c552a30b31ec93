// Package ws fans realtime twin events out to websocket subscribers. It is a
// hub-and-spoke design: services publish onto per-patient topics and
// connected clients manage their own subscription sets.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types published by the twin services.
const (
	EventSnapshotCreated    = "snapshot.created"
	EventDeformationUpdated = "deformation.updated"
)

// PatientTopic returns the subscription topic carrying one patient's updates.
func PatientTopic(patientID string) string {
	return "patient." + patientID
}

// Event is one realtime notification.
type Event struct {
	Type      string    `json:"type"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// ClientMessage is an inbound subscription command.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// EventPublisher is the publishing side of the hub, the only part services
// depend on.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Client is one connected peer. Send is drained by the connection's write
// pump; the hub never blocks on a slow client.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// Hub tracks clients and their topic subscriptions. All methods are safe for
// concurrent use.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	all    map[*Client]struct{}
	logger zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]struct{}),
		all:    make(map[*Client]struct{}),
		logger: logger,
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[c] = struct{}{}
	for _, topic := range c.Topics {
		h.addSubscription(c, topic)
	}
}

// Unregister drops a client from every topic and closes its send channel.
// Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	for _, topic := range c.Topics {
		h.dropSubscription(c, topic)
	}
	delete(h.all, c)
	close(c.Send)
}

// Subscribe adds topics to a registered client.
func (h *Hub) Subscribe(c *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		h.addSubscription(c, topic)
	}
	c.Topics = append(c.Topics, topics...)
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(c *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drop := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		drop[topic] = struct{}{}
		h.dropSubscription(c, topic)
	}
	kept := c.Topics[:0]
	for _, topic := range c.Topics {
		if _, gone := drop[topic]; !gone {
			kept = append(kept, topic)
		}
	}
	c.Topics = kept
}

// Process dispatches an inbound client command. Unknown actions are ignored.
func (h *Hub) Process(c *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(c, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(c, msg.Topics)
	}
}

// Publish broadcasts the event to every subscriber of its topic. A zero
// timestamp is stamped with the current time. Slow clients whose buffers are
// full miss the event rather than stalling the hub.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("ws event marshal failed")
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[event.Topic] {
		select {
		case c.Send <- data:
		default:
			h.logger.Warn().Str("client_id", c.ID).Str("topic", event.Topic).Msg("ws client buffer full, event dropped")
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of subscribers of one topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// addSubscription and dropSubscription assume h.mu is held.
func (h *Hub) addSubscription(c *Client, topic string) {
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
}

func (h *Hub) dropSubscription(c *Client, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}
