// Package bus is an in-process publish/subscribe channel for dashboard events.
//
// Delivery is synchronous and serialized: at most one handler runs at a time,
// across all topics, mirroring a single UI event loop. Handlers must not
// publish from inside a delivery.
package bus

import (
	"sync"

	"github.com/rs/zerolog"
)

// Topic names are the contract with event producers
const (
	TopicNetError        = "app:neterror"
	TopicConfigError     = "app:configerror"
	TopicHeartbeatUpdate = "heartbeat:update"
	TopicRequestSuccess  = "request:success"
	TopicRequestError    = "request:error"
)

// Topics lists every topic the dashboard understands
func Topics() []string {
	return []string{
		TopicNetError,
		TopicConfigError,
		TopicHeartbeatUpdate,
		TopicRequestSuccess,
		TopicRequestError,
	}
}

// Handler receives a published payload
type Handler func(payload any)

// Subscription is released with Unsubscribe
type Subscription interface {
	Unsubscribe()
}

// Subscriber registers handlers by topic
type Subscriber interface {
	Subscribe(topic string, h Handler) Subscription
}

// Publisher sends payloads to topic handlers
type Publisher interface {
	Publish(topic string, payload any) int
}

type subscription struct {
	bus   *Bus
	topic string
	id    uint64
	h     Handler
	once  sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() { s.bus.remove(s.topic, s.id) })
}

// Bus is the default Subscriber/Publisher
type Bus struct {
	logger    zerolog.Logger
	deliverMu sync.Mutex
	mu        sync.RWMutex
	subs      map[string][]*subscription
	nextID    uint64
}

// New creates an empty bus
func New(logger zerolog.Logger) *Bus {
	return &Bus{
		logger: logger.With().Str("component", "bus").Logger(),
		subs:   make(map[string][]*subscription),
	}
}

// Subscribe registers h for topic
func (b *Bus) Subscribe(topic string, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{bus: b, topic: topic, id: b.nextID, h: h}
	b.subs[topic] = append(b.subs[topic], sub)

	b.logger.Debug().Str("topic", topic).Uint64("subscription", sub.id).Msg("subscribed")
	return sub
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish delivers payload to every handler of topic and returns how many ran
func (b *Bus) Publish(topic string, payload any) int {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, s := range b.subs[topic] {
		handlers = append(handlers, s.h)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug().Str("topic", topic).Msg("no subscribers")
		return 0
	}

	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
	return len(handlers)
}

// SubscriberCount returns the number of live handlers on topic
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
