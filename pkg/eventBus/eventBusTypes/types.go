package eventBusTypes

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/polkaswap/bridge-sidecar/pkg/bridge/types"
)

const Event_BlockSynced = "block_synced"

type Event struct {
	Name string
	Data any
}

type ConsumerId string

type Consumer struct {
	Id      ConsumerId
	Context context.Context
	Channel chan *Event
	// Blocking consumers make Publish wait for room in the channel until their context is done.
	Blocking bool
}

// NewConsumer creates a consumer with a random id and a channel of the given capacity.
func NewConsumer(ctx context.Context, bufferSize int) *Consumer {
	return &Consumer{
		Id:      ConsumerId(uuid.New().String()),
		Context: ctx,
		Channel: make(chan *Event, bufferSize),
	}
}

// NewBlockingConsumer creates a consumer that never misses an event while its context is alive.
func NewBlockingConsumer(ctx context.Context, bufferSize int) *Consumer {
	c := NewConsumer(ctx, bufferSize)
	c.Blocking = true
	return c
}

type ConsumerList struct {
	mu        sync.Mutex
	consumers []*Consumer
}

func NewConsumerList() *ConsumerList {
	return &ConsumerList{
		consumers: make([]*Consumer, 0),
	}
}

func (cl *ConsumerList) Add(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.consumers = append(cl.consumers, consumer)
}

func (cl *ConsumerList) Remove(consumer *Consumer) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.consumers = slices.DeleteFunc(cl.consumers, func(c *Consumer) bool {
		return c.Id == consumer.Id
	})
}

func (cl *ConsumerList) GetAll() []*Consumer {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return slices.Clone(cl.consumers)
}

type IEventBus interface {
	Subscribe(consumer *Consumer)
	Unsubscribe(consumer *Consumer)
	Publish(event *Event)
}

// BlockSyncedData is published once per committed block.
type BlockSyncedData struct {
	BlockNumber uint32
	StateRoot   string
	Events      []*types.Event
}
