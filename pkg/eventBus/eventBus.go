package eventBus

import (
	"github.com/polkaswap/bridge-sidecar/pkg/eventBus/eventBusTypes"
	"go.uber.org/zap"
)

// EventBus fans events out to subscribed consumers. A consumer with a full channel
// misses the event, unless it is blocking: then Publish waits for it.
type EventBus struct {
	consumers *eventBusTypes.ConsumerList
	logger    *zap.Logger
}

func NewEventBus(l *zap.Logger) *EventBus {
	return &EventBus{
		consumers: eventBusTypes.NewConsumerList(),
		logger:    l,
	}
}

func (eb *EventBus) Subscribe(consumer *eventBusTypes.Consumer) {
	eb.consumers.Add(consumer)
	eb.logger.Sugar().Infow("Subscribed consumer", zap.String("consumerId", string(consumer.Id)))
}

func (eb *EventBus) Unsubscribe(consumer *eventBusTypes.Consumer) {
	eb.consumers.Remove(consumer)
	eb.logger.Sugar().Infow("Unsubscribed consumer", zap.String("consumerId", string(consumer.Id)))
}

func (eb *EventBus) ConsumerCount() int {
	return len(eb.consumers.GetAll())
}

func (eb *EventBus) Publish(event *eventBusTypes.Event) {
	eb.logger.Sugar().Debugw("Publishing event", zap.String("eventName", event.Name))
	for _, consumer := range eb.consumers.GetAll() {
		if consumer.Channel == nil {
			eb.logger.Sugar().Debugw("Consumer channel is nil", zap.String("consumerId", string(consumer.Id)))
			continue
		}
		if consumer.Blocking {
			eb.publishBlocking(consumer, event)
			continue
		}
		select {
		case consumer.Channel <- event:
			eb.logger.Sugar().Debugw("Published event to consumer",
				zap.String("consumerId", string(consumer.Id)),
				zap.String("eventName", event.Name),
			)
		default:
			eb.logger.Sugar().Warnw("No receiver available, or channel is full",
				zap.String("consumerId", string(consumer.Id)),
				zap.String("eventName", event.Name),
			)
		}
	}
}

func (eb *EventBus) publishBlocking(consumer *eventBusTypes.Consumer, event *eventBusTypes.Event) {
	select {
	case consumer.Channel <- event:
		return
	default:
	}
	eb.logger.Sugar().Debugw("Waiting for blocking consumer",
		zap.String("consumerId", string(consumer.Id)),
		zap.String("eventName", event.Name),
	)
	select {
	case consumer.Channel <- event:
	case <-consumer.Context.Done():
		eb.logger.Sugar().Warnw("Blocking consumer stopped before receiving event",
			zap.String("consumerId", string(consumer.Id)),
			zap.String("eventName", event.Name),
		)
	}
}
