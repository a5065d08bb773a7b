package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ai-thumbnail-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "cluster_events"

// Sender is the transport-owned handle a subscriber is reached through.
// Send must not block; an error marks the subscriber as dead.
type Sender interface {
	Send(data []byte) error
}

// Event is the envelope delivered to every subscriber of a topic.
type Event struct {
	Type      string                 `json:"type"`
	Topic     string                 `json:"topic"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewEvent(eventType string, data map[string]interface{}) Event {
	return Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}
}

type HubStats struct {
	ActiveTopics      int            `json:"active_conversations"`
	ActiveSubscribers int            `json:"active_users"`
	Topics            map[string]int `json:"conversations"`
}

// topic is one partition of the registry with its own lock.
type topic struct {
	mu          sync.Mutex
	subscribers map[string]Sender
}

// Hub keeps topic -> subscriber registrations and fans events out to them.
// Lock order is Hub.mu before topic.mu.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]*topic

	// Redis connection for cross-instance fan-out, optional
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		topics:     make(map[string]*topic),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run relays broadcasts published by other instances until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		<-ctx.Done()
		return
	}
	h.subscribeToRedis(ctx)
}

func (h *Hub) Subscribe(name, subscriberID string, sender Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[name]
	if !ok {
		t = &topic{subscribers: make(map[string]Sender)}
		h.topics[name] = t
	}
	t.mu.Lock()
	t.subscribers[subscriberID] = sender
	count := len(t.subscribers)
	t.mu.Unlock()

	h.logger.Info("Hub", "Subscriber joined", map[string]interface{}{
		"topic":         name,
		"subscriber_id": subscriberID,
		"active":        count,
	})
}

func (h *Hub) Unsubscribe(name, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[name]
	if !ok {
		return
	}
	t.mu.Lock()
	delete(t.subscribers, subscriberID)
	empty := len(t.subscribers) == 0
	t.mu.Unlock()

	if empty {
		delete(h.topics, name)
		h.logger.Info("Hub", "Topic removed", map[string]interface{}{"topic": name})
	}
}

// Broadcast delivers evt to every subscriber of name except exclude and returns the delivered count.
// Subscribers whose send fails are removed; the rest still receive the event.
func (h *Hub) Broadcast(name string, evt Event, exclude string) int {
	evt.Topic = name
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode event", map[string]interface{}{"topic": name, "error": err.Error()})
		return 0
	}

	delivered := h.deliver(name, data, exclude)

	if h.rdb != nil {
		h.publishRelay(name, data, exclude)
	}
	return delivered
}

// SendTo delivers evt to a single subscriber of name.
func (h *Hub) SendTo(name, subscriberID string, evt Event) error {
	evt.Topic = name
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	h.mu.RLock()
	t, ok := h.topics[name]
	if !ok {
		h.mu.RUnlock()
		return ErrNotSubscribed
	}
	t.mu.Lock()
	sender, ok := t.subscribers[subscriberID]
	if ok {
		err = sender.Send(data)
	}
	t.mu.Unlock()
	h.mu.RUnlock()

	if !ok {
		return ErrNotSubscribed
	}
	if err != nil {
		h.Unsubscribe(name, subscriberID)
	}
	return err
}

func (h *Hub) ActiveCount(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	t, ok := h.topics[name]
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subscribers)
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HubStats{Topics: make(map[string]int, len(h.topics))}
	unique := make(map[string]struct{})
	for name, t := range h.topics {
		t.mu.Lock()
		stats.Topics[name] = len(t.subscribers)
		for id := range t.subscribers {
			unique[id] = struct{}{}
		}
		t.mu.Unlock()
	}
	stats.ActiveTopics = len(h.topics)
	stats.ActiveSubscribers = len(unique)
	return stats
}

// deliver pushes data to local subscribers while holding the topic lock,
// which keeps events of one topic in production order.
func (h *Hub) deliver(name string, data []byte, exclude string) int {
	h.mu.RLock()
	t, ok := h.topics[name]
	if !ok {
		h.mu.RUnlock()
		return 0
	}

	t.mu.Lock()
	delivered := 0
	var failed []string
	for id, sender := range t.subscribers {
		if id == exclude {
			continue
		}
		if err := sender.Send(data); err != nil {
			failed = append(failed, id)
			continue
		}
		delivered++
	}
	for _, id := range failed {
		delete(t.subscribers, id)
	}
	empty := len(t.subscribers) == 0
	t.mu.Unlock()
	h.mu.RUnlock()

	if len(failed) > 0 {
		h.logger.Warn("Hub", "Dropped subscribers after failed send", map[string]interface{}{
			"topic":          name,
			"subscriber_ids": failed,
		})
		if empty {
			h.dropIfEmpty(name)
		}
	}
	return delivered
}

func (h *Hub) dropIfEmpty(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[name]
	if !ok {
		return
	}
	t.mu.Lock()
	empty := len(t.subscribers) == 0
	t.mu.Unlock()
	if empty {
		delete(h.topics, name)
	}
}

type relayMessage struct {
	Origin  string          `json:"origin"`
	Topic   string          `json:"topic"`
	Exclude string          `json:"exclude,omitempty"`
	Message json.RawMessage `json:"message"`
}

func (h *Hub) publishRelay(name string, data []byte, exclude string) {
	payload, err := json.Marshal(relayMessage{
		Origin:  h.instanceID,
		Topic:   name,
		Exclude: exclude,
		Message: data,
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.rdb.Publish(ctx, relayChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis relay publish failed", map[string]interface{}{"topic": name, "error": err.Error()})
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis relay message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliver(payload.Topic, payload.Message, payload.Exclude)
		}
	}
}

var ErrNotSubscribed = errors.New("subscriber is not registered on topic")

func GenerationTopic(id uuid.UUID) string {
	return "generation:" + id.String()
}

func ConversationTopic(id uuid.UUID) string {
	return "conversation:" + id.String()
}
