package event

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/apictl/pkg/api"
	"github.com/getmockd/apictl/pkg/logging"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := 0
	bus.Subscribe(TypeAPIChanged, func(Event) { called++ })
	assert.Zero(t, called, "handler must not run before a publish")

	bus.Publish(NewAPIChangedEvent(nil))
	bus.Publish(NewAPIChangedEvent(nil))
	assert.Equal(t, 2, called)
}

func TestBus_PublishAPIChanged(t *testing.T) {
	bus := NewBus()

	var got Event
	bus.Subscribe(TypeAPIChanged, func(e Event) { got = e })

	a := &api.API{ID: "api-1"}
	bus.Publish(NewAPIChangedEvent(a))

	require.NotNil(t, got)
	changed, ok := got.(APIChangedEvent)
	require.True(t, ok)
	assert.Same(t, a, changed.API)
	assert.NotEmpty(t, changed.ID())
	assert.False(t, changed.Timestamp().IsZero())
}

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(TypeAPIChanged, func(Event) { order = append(order, "first") })
	bus.Subscribe(TypeAPIChanged, func(Event) { order = append(order, "second") })
	bus.Subscribe("other.event", func(Event) { order = append(order, "other") })

	bus.Publish(NewAPIChangedEvent(nil))

	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestBus_PanicDoesNotStopDelivery(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(WithLogger(logging.New(logging.Config{Level: logging.LevelError, Output: &buf})))

	delivered := false
	bus.Subscribe(TypeAPIChanged, func(Event) { panic("boom") })
	bus.Subscribe(TypeAPIChanged, func(Event) { delivered = true })

	bus.Publish(NewAPIChangedEvent(nil))

	assert.True(t, delivered)
	assert.Contains(t, buf.String(), "event handler panicked")
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(TypeAPIChanged, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(NewAPIChangedEvent(nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
}
