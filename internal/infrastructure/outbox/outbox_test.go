package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-catalog/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct{ name, payload string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	var got []string
	var wg sync.WaitGroup
	wg.Add(2)
	record := func(tag string) domoutbox.Handler {
		return func(_ context.Context, e domoutbox.Event) error {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			got = append(got, tag+":"+e.(testEvent).payload)
			return nil
		}
	}
	bus.Subscribe("thing.happened", record("a"))
	bus.Subscribe("thing.happened", record("b"))
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "thing.happened", payload: "x"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "unrelated"}))

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a:x", "b:x"}, got)
}

func TestBusSurvivesFailingHandlers(t *testing.T) {
	bus := NewBus(nil)

	delivered := make(chan struct{}, 3)
	bus.Subscribe("evt", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		panic("boom")
	})
	bus.Subscribe("evt", func(context.Context, domoutbox.Event) error {
		delivered <- struct{}{}
		return errors.New("handler failed")
	})
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "evt"}))
	bus.Stop(context.Background())

	assert.Len(t, delivered, 2)
}

func TestStopDrainsQueuedEvents(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	count := 0
	bus.Subscribe("evt", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for range 5 {
		require.NoError(t, bus.Publish(context.Background(), testEvent{name: "evt"}))
	}
	bus.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, count)
}

func TestPublishAfterStop(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	bus.Stop(context.Background())

	err := bus.Publish(context.Background(), testEvent{name: "evt"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, bus.Publish(context.Background(), nil))
}

func TestStopWithoutStart(t *testing.T) {
	bus := NewBus(nil)
	bus.Stop(context.Background())
	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{name: "evt"}), ErrClosed)
}
