package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type RabbitMQ struct {
	logger     *zap.Logger
	config     *RabbitMQConfig
	connection *amqp.Connection
	channel    *amqp.Channel
}

func NewRabbitMQ(config *RabbitMQConfig, l *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		config: config,
		logger: l,
	}
}

func (r *RabbitMQ) Connect() error {
	connUrl := buildConnectionUrl(r.config)
	r.logger.Sugar().Debugw("Connecting to RabbitMQ", zap.String("url", r.config.Url))
	conn, err := amqp.Dial(connUrl)
	if err != nil {
		r.logger.Sugar().Errorw("Failed to connect to RabbitMQ", zap.Error(err))
		return err
	}
	r.connection = conn

	ch, err := conn.Channel()
	if err != nil {
		r.logger.Sugar().Errorw("Failed to open a channel", zap.Error(err))
		_ = conn.Close()
		return err
	}
	r.channel = ch

	for _, e := range r.config.Exchanges {
		r.logger.Sugar().Debugw("Declaring exchange", zap.String("exchange", e.Name))
		if err := r.channel.ExchangeDeclare(e.Name, e.Kind, e.Durable, e.AutoDelete, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, exchangeName string, routingKey string, publishing amqp.Publishing) error {
	if r.channel == nil {
		return fmt.Errorf("rabbitmq channel is not open")
	}
	return r.channel.PublishWithContext(ctx, exchangeName, routingKey, false, false, publishing)
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.connection != nil {
		return r.connection.Close()
	}
	return nil
}

func buildConnectionUrl(cfg *RabbitMQConfig) string {
	protocol := "amqp"
	if cfg.Secure {
		protocol = "amqps"
	}
	return fmt.Sprintf("%s://%s:%s@%s", protocol, cfg.Username, cfg.Password, cfg.Url)
}
