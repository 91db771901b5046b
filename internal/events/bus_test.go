package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	mu   sync.Mutex
	seen []Event
}

func (r *recorder) record(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, e)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func testEvent(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

func TestPublishSyncDelivers(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 10)
	defer bus.Shutdown(context.Background())

	rec := &recorder{}
	bus.SubscribeFunc(AssetsLocked, rec.record)

	err := bus.PublishSync(context.Background(), testEvent(AssetsLocked))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())
}

func TestPublishOnlyMatchingType(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 10)
	defer bus.Shutdown(context.Background())

	locked := &recorder{}
	unlocked := &recorder{}
	bus.SubscribeFunc(AssetsLocked, locked.record)
	bus.SubscribeFunc(AssetsUnlocked, unlocked.record)

	require.NoError(t, bus.PublishSync(context.Background(), testEvent(AssetsLocked)))

	assert.Equal(t, 1, locked.count())
	assert.Equal(t, 0, unlocked.count())
}

func TestAsyncPublishDrainsOnShutdown(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 10)

	rec := &recorder{}
	bus.SubscribeFunc(TokenWhitelisted, rec.record)

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(testEvent(TokenWhitelisted)))
	}
	require.NoError(t, bus.Shutdown(context.Background()))
	assert.Equal(t, 5, rec.count())
}

func TestPublishAfterShutdownFails(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 10)
	require.NoError(t, bus.Shutdown(context.Background()))

	err := bus.Publish(testEvent(AssetsLocked))
	assert.Error(t, err)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 10)
	defer bus.Shutdown(context.Background())

	rec := &recorder{}
	sub := bus.SubscribeFunc(AssetsLocked, rec.record)

	require.NoError(t, bus.PublishSync(context.Background(), testEvent(AssetsLocked)))
	sub.Unsubscribe()
	require.NoError(t, bus.PublishSync(context.Background(), testEvent(AssetsLocked)))

	assert.Equal(t, 1, rec.count())
}
