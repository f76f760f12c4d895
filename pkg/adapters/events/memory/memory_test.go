package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/pixo/pkg/domain"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	received := make(chan domain.Event, 1)
	err := bus.Subscribe(context.Background(), domain.EventsTopic, func(_ context.Context, e domain.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	event := domain.Event{ID: "ev-1", Type: domain.EventUploaded, Image: "a.png"}
	require.NoError(t, bus.Publish(context.Background(), domain.EventsTopic, event))

	select {
	case got := <-received:
		assert.Equal(t, "ev-1", got.ID)
		assert.Equal(t, domain.EventUploaded, got.Type)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	received := make(chan domain.Event, 1)
	err := bus.Subscribe(context.Background(), "other.topic", func(_ context.Context, e domain.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), domain.EventsTopic, domain.Event{ID: "ev-2"}))

	select {
	case <-received:
		t.Fatal("event delivered to wrong topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionRemovedOnContextCancel(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan domain.Event, 1)
	err := bus.Subscribe(ctx, domain.EventsTopic, func(_ context.Context, e domain.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)

	cancel()
	// Give the cleanup goroutine a moment to run.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), domain.EventsTopic, domain.Event{ID: "ev-3"}))

	select {
	case <-received:
		t.Fatal("cancelled subscription still received events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewEventBus()

	received := make(chan domain.Event, 1)
	err := bus.Subscribe(context.Background(), domain.EventsTopic, func(_ context.Context, e domain.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	require.NoError(t, bus.Publish(context.Background(), domain.EventsTopic, domain.Event{ID: "ev-4"}))

	select {
	case <-received:
		t.Fatal("closed bus still delivered events")
	case <-time.After(50 * time.Millisecond):
	}
}
