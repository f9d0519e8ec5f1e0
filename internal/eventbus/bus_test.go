package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToTopicSubscribersInOrder(t *testing.T) {
	bus := New(nil)
	var calls []string

	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe(TopicItemsChanged, func(ctx context.Context, e Event) error {
		calls = append(calls, "items")
		return nil
	})
	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		return nil
	})

	bus.Publish(context.Background(), TopicDataChanged, Event{Origin: "planning"})

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPublishStampsEvent(t *testing.T) {
	bus := New(nil)
	var got Event
	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		got = e
		return nil
	})

	sent := bus.Publish(context.Background(), TopicDataChanged, Event{Origin: "board", IsTutorial: true})

	require.NotEmpty(t, sent.ID)
	assert.Equal(t, TopicDataChanged, sent.Topic)
	assert.False(t, sent.At.IsZero())
	assert.Equal(t, sent, got)
	assert.True(t, got.IsTutorial)
}

func TestHandlerFailuresDoNotStopDispatch(t *testing.T) {
	bus := New(nil)
	reached := false

	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		panic("handler bug")
	})
	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), TopicDataChanged, Event{})
	})
	assert.True(t, reached)
}

func TestUnsubscribe(t *testing.T) {
	bus := New(nil)
	count := 0
	token := bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		count++
		return nil
	})
	require.Equal(t, 1, bus.Subscribers(TopicDataChanged))

	bus.Publish(context.Background(), TopicDataChanged, Event{})
	assert.True(t, bus.Unsubscribe(token))
	assert.False(t, bus.Unsubscribe(token))
	bus.Publish(context.Background(), TopicDataChanged, Event{})

	assert.Equal(t, 1, count)
	assert.Zero(t, bus.Subscribers(TopicDataChanged))
}

func TestLatest(t *testing.T) {
	bus := New(nil)

	_, ok := bus.Latest(TopicCurrentSprintChanged)
	assert.False(t, ok)

	bus.Publish(context.Background(), TopicCurrentSprintChanged, Event{Payload: 1})
	bus.Publish(context.Background(), TopicCurrentSprintChanged, Event{Payload: 2})

	latest, ok := bus.Latest(TopicCurrentSprintChanged)
	require.True(t, ok)
	assert.Equal(t, 2, latest.Payload)
}

func TestHandlerMayPublish(t *testing.T) {
	bus := New(nil)
	relayed := false

	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		bus.Publish(ctx, TopicItemsChanged, Event{Origin: e.Origin})
		return nil
	})
	bus.Subscribe(TopicItemsChanged, func(ctx context.Context, e Event) error {
		relayed = e.Origin == "planning"
		return nil
	})

	bus.Publish(context.Background(), TopicDataChanged, Event{Origin: "planning"})
	assert.True(t, relayed)
}

func TestPublishStopsOnCancelledContext(t *testing.T) {
	bus := New(nil)
	called := false
	bus.Subscribe(TopicDataChanged, func(ctx context.Context, e Event) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, TopicDataChanged, Event{})

	assert.False(t, called)
	_, ok := bus.Latest(TopicDataChanged)
	assert.True(t, ok, "latest is recorded even when delivery is cancelled")
}
