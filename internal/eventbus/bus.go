// Package eventbus is the in-process signal bus the views use to tell each
// other that store data changed. Delivery is synchronous and fire-and-forget:
// handler failures are logged and never reach the publisher.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topic names a broadcast channel.
type Topic string

const (
	// TopicDataChanged asks every attached view to reload.
	TopicDataChanged Topic = "data.changed"
	// TopicItemsChanged carries a fresh item list.
	TopicItemsChanged Topic = "items.changed"
	// TopicCurrentSprintChanged carries the active sprint (nil when none).
	TopicCurrentSprintChanged Topic = "sprint.current.changed"
	// TopicArchivedSprintsChanged carries the archived sprint list.
	TopicArchivedSprintsChanged Topic = "sprint.archived.changed"
)

// OriginStore marks events republished from a store change feed.
const OriginStore = "store"

// Event is one broadcast.
type Event struct {
	ID         string
	Topic      Topic
	Origin     string
	IsTutorial bool
	Payload    any
	At         time.Time
}

// Handler receives events for a topic. A returned error is logged.
type Handler func(ctx context.Context, event Event) error

// Token identifies a subscription.
type Token string

type subscription struct {
	token   Token
	topic   Topic
	handler Handler
}

// Bus dispatches events to subscribers in subscription order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	latest map[Topic]Event
	logger *slog.Logger
}

// New creates an empty bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{latest: make(map[Topic]Event), logger: logger}
}

// Subscribe registers handler for topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) Token {
	token := Token(uuid.NewString())
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{token: token, topic: topic, handler: handler})
	return token
}

// Unsubscribe removes a subscription and reports whether it existed.
func (b *Bus) Unsubscribe(token Token) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.token == token {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish stamps event, records it as the topic's latest and delivers it to
// every handler subscribed at the time of the call. Handlers run without the
// bus lock held, so they may publish or subscribe themselves.
func (b *Bus) Publish(ctx context.Context, topic Topic, event Event) Event {
	event.Topic = topic
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.Lock()
	b.latest[topic] = event
	var matching []subscription
	for _, s := range b.subs {
		if s.topic == topic {
			matching = append(matching, s)
		}
	}
	b.mu.Unlock()

	for _, s := range matching {
		if ctx.Err() != nil {
			b.logger.DebugContext(ctx, "publish cancelled", "topic", topic, "event_id", event.ID)
			break
		}
		if err := b.deliver(ctx, s, event); err != nil {
			b.logger.ErrorContext(ctx, "event handler failed",
				"topic", topic, "event_id", event.ID, "token", s.token, "error", err)
		}
	}
	return event
}

// Latest returns the most recent event published on topic.
func (b *Bus) Latest(topic Topic) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	event, ok := b.latest[topic]
	return event, ok
}

// Subscribers returns the number of subscriptions on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.subs {
		if s.topic == topic {
			n++
		}
	}
	return n
}

func (b *Bus) deliver(ctx context.Context, s subscription, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return s.handler(ctx, event)
}
