package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewEnvelope: конверт получает UUID, время и сериализованный payload
func TestNewEnvelope(t *testing.T) {
	ev, err := NewEnvelope("voxel-editor", EventLayerApplied, map[string]int{"entries": 3})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "voxel-editor", ev.Source)
	assert.Equal(t, EventLayerApplied, ev.EventType)
	assert.False(t, ev.Timestamp.IsZero())
	assert.JSONEq(t, `{"entries":3}`, string(ev.Payload))
}

// TestMemoryBusDelivery: подписчик получает опубликованное событие
func TestMemoryBusDelivery(t *testing.T) {
	bus := NewMemoryBus(16)
	var received int64

	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventLayerApplied}},
		func(ctx context.Context, ev *Envelope) {
			atomic.AddInt64(&received, 1)
		})
	require.NoError(t, err)

	ev, err := NewEnvelope("test", EventLayerApplied, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&received) == 1
	}, time.Second, 10*time.Millisecond)

	stats := bus.Metrics()
	assert.Equal(t, uint64(1), stats.Published)
}

// TestMemoryBusFilter: события чужого типа не доставляются
func TestMemoryBusFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	var applied, discarded int64

	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{EventLayerApplied}},
		func(ctx context.Context, ev *Envelope) { atomic.AddInt64(&applied, 1) })
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{EventLayerDiscard}},
		func(ctx context.Context, ev *Envelope) { atomic.AddInt64(&discarded, 1) })
	require.NoError(t, err)

	ev, err := NewEnvelope("test", EventLayerDiscard, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&discarded) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&applied))
}

// TestMemoryBusUnsubscribe: после отписки события не приходят
func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(16)
	var received int64

	sub, err := bus.Subscribe(context.Background(), Filter{},
		func(ctx context.Context, ev *Envelope) { atomic.AddInt64(&received, 1) })
	require.NoError(t, err)
	sub.Unsubscribe()

	ev, err := NewEnvelope("test", EventChunkDirty, nil)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), ev))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&received))
}

// TestGlobalPublishWithoutInit: публикация без шины — мягкий no-op
func TestGlobalPublishWithoutInit(t *testing.T) {
	prev := globalBus
	globalBus = nil
	defer func() { globalBus = prev }()

	ev, err := NewEnvelope("test", EventChunkDirty, nil)
	require.NoError(t, err)
	assert.NoError(t, Publish(context.Background(), ev))
}
