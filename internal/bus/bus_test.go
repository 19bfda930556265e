package bus

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_DeliversToTopicOnly(t *testing.T) {
	b := New(zerolog.Nop())

	var got []any
	b.Subscribe(TopicNetError, func(p any) { got = append(got, p) })
	b.Subscribe(TopicConfigError, func(p any) { t.Fatalf("unexpected delivery: %v", p) })

	n := b.Publish(TopicNetError, "payload")
	assert.Equal(t, 1, n)
	assert.Equal(t, []any{"payload"}, got)
}

func TestPublish_NoSubscribers(t *testing.T) {
	b := New(zerolog.Nop())
	assert.Equal(t, 0, b.Publish(TopicRequestSuccess, nil))
}

func TestUnsubscribe(t *testing.T) {
	b := New(zerolog.Nop())

	calls := 0
	sub := b.Subscribe(TopicHeartbeatUpdate, func(any) { calls++ })
	other := b.Subscribe(TopicHeartbeatUpdate, func(any) { calls += 10 })
	require.Equal(t, 2, b.SubscriberCount(TopicHeartbeatUpdate))

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 1, b.SubscriberCount(TopicHeartbeatUpdate))

	b.Publish(TopicHeartbeatUpdate, nil)
	assert.Equal(t, 10, calls)

	other.Unsubscribe()
	assert.Equal(t, 0, b.SubscriberCount(TopicHeartbeatUpdate))
}

func TestPublish_SerializesDelivery(t *testing.T) {
	b := New(zerolog.Nop())

	var (
		active  int
		maxSeen int
		mu      sync.Mutex
	)
	b.Subscribe(TopicNetError, func(any) {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()

		mu.Lock()
		active--
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(TopicNetError, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestTopics(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"app:neterror", "app:configerror", "heartbeat:update", "request:success", "request:error",
	}, Topics())
}
