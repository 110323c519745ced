package eventBus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/polkaswap/bridge-sidecar/internal/tests"
	"github.com/polkaswap/bridge-sidecar/pkg/eventBus/eventBusTypes"
	"github.com/stretchr/testify/assert"
)

func Test_EventBus(t *testing.T) {
	cfg := tests.GetConfig()
	l := tests.GetLogger(cfg)

	t.Run("Should deliver events until the consumer unsubscribes", func(t *testing.T) {
		eb := NewEventBus(l)
		consumer := eventBusTypes.NewConsumer(context.Background(), 1000)

		receivedCount := atomic.Uint64{}
		wg := sync.WaitGroup{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case event := <-consumer.Channel:
					assert.Equal(t, eventBusTypes.Event_BlockSynced, event.Name)
					if receivedCount.Add(1) == 3 {
						eb.Unsubscribe(consumer)
						return
					}
				case <-consumer.Context.Done():
					return
				}
			}
		}()
		eb.Subscribe(consumer)

		for i := 0; i < 10; i++ {
			eb.Publish(&eventBusTypes.Event{
				Name: eventBusTypes.Event_BlockSynced,
				Data: &eventBusTypes.BlockSyncedData{BlockNumber: uint32(i)},
			})
		}
		wg.Wait()

		assert.Equal(t, uint64(3), receivedCount.Load())
	})
	t.Run("Should drop events for a full consumer without blocking", func(t *testing.T) {
		eb := NewEventBus(l)
		consumer := eventBusTypes.NewConsumer(context.Background(), 1)
		eb.Subscribe(consumer)

		eb.Publish(&eventBusTypes.Event{Name: "first"})
		eb.Publish(&eventBusTypes.Event{Name: "second"})

		assert.Equal(t, 1, len(consumer.Channel))
		assert.Equal(t, "first", (<-consumer.Channel).Name)
	})
	t.Run("Should wait for a blocking consumer instead of dropping events", func(t *testing.T) {
		eb := NewEventBus(l)
		consumer := eventBusTypes.NewBlockingConsumer(context.Background(), 1)
		eb.Subscribe(consumer)

		published := make(chan struct{})
		go func() {
			for i := 0; i < 5; i++ {
				eb.Publish(&eventBusTypes.Event{
					Name: eventBusTypes.Event_BlockSynced,
					Data: &eventBusTypes.BlockSyncedData{BlockNumber: uint32(i)},
				})
			}
			close(published)
		}()

		for i := 0; i < 5; i++ {
			event := <-consumer.Channel
			assert.Equal(t, uint32(i), event.Data.(*eventBusTypes.BlockSyncedData).BlockNumber)
		}
		<-published
	})
	t.Run("Should stop waiting once a blocking consumer is cancelled", func(t *testing.T) {
		eb := NewEventBus(l)
		ctx, cancel := context.WithCancel(context.Background())
		consumer := eventBusTypes.NewBlockingConsumer(ctx, 1)
		eb.Subscribe(consumer)

		eb.Publish(&eventBusTypes.Event{Name: "first"})
		published := make(chan struct{})
		go func() {
			eb.Publish(&eventBusTypes.Event{Name: "second"})
			close(published)
		}()
		cancel()
		<-published

		assert.Equal(t, 1, len(consumer.Channel))
		assert.Equal(t, "first", (<-consumer.Channel).Name)
	})
	t.Run("Should give consumers unique ids", func(t *testing.T) {
		a := eventBusTypes.NewConsumer(context.Background(), 1)
		b := eventBusTypes.NewConsumer(context.Background(), 1)
		assert.NotEqual(t, a.Id, b.Id)
	})
}
