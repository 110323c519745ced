package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/polkaswap/bridge-sidecar/pkg/eventBus/eventBusTypes"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, exchangeName string, routingKey string, publishing amqp.Publishing) error
}

// EventSink forwards every ledger event of a synced block to an exchange,
// routed by event kind.
type EventSink struct {
	publisher Publisher
	exchange  string
	bus       eventBusTypes.IEventBus
	logger    *zap.Logger
}

func NewEventSink(publisher Publisher, exchange string, bus eventBusTypes.IEventBus, l *zap.Logger) *EventSink {
	return &EventSink{
		publisher: publisher,
		exchange:  exchange,
		bus:       bus,
		logger:    l,
	}
}

// Run consumes the event bus until the context is done. The subscription is
// blocking, so a slow broker holds back the pipeline instead of losing blocks.
// Events that fail to publish are logged; /v1/blocks/{blockNumber}/events serves them for backfill.
func (s *EventSink) Run(ctx context.Context) {
	consumer := eventBusTypes.NewBlockingConsumer(ctx, 100)
	s.bus.Subscribe(consumer)
	defer s.bus.Unsubscribe(consumer)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-consumer.Channel:
			if event.Name != eventBusTypes.Event_BlockSynced {
				continue
			}
			data, ok := event.Data.(*eventBusTypes.BlockSyncedData)
			if !ok {
				s.logger.Sugar().Errorw("Unexpected event payload", zap.String("eventName", event.Name))
				continue
			}
			if err := s.PublishBlock(ctx, data); err != nil {
				s.logger.Sugar().Errorw("Failed to publish block events",
					zap.Uint32("blockNumber", data.BlockNumber),
					zap.Error(err),
				)
			}
		}
	}
}

func (s *EventSink) PublishBlock(ctx context.Context, data *eventBusTypes.BlockSyncedData) error {
	for _, e := range data.Events {
		body, err := json.Marshal(e)
		if err != nil {
			return err
		}
		err = s.publisher.Publish(ctx, s.exchange, string(e.Kind), amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
		if err != nil {
			return err
		}
	}
	s.logger.Sugar().Debugw("Published block events",
		zap.Uint32("blockNumber", data.BlockNumber),
		zap.Int("count", len(data.Events)),
	)
	return nil
}
