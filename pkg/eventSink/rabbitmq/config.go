package rabbitmq

import "github.com/polkaswap/bridge-sidecar/internal/config"

const (
	DefaultExchange = "bridge-events"
	ExchangeKind    = "topic"
)

type RabbitMQExchange struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Kind       string
}

type RabbitMQConfig struct {
	Username  string
	Password  string
	Url       string
	Secure    bool
	Exchanges []*RabbitMQExchange
}

// ConfigFromGlobal declares the single topic exchange the ledger events are published to.
func ConfigFromGlobal(cfg *config.RabbitMqConfig) *RabbitMQConfig {
	return &RabbitMQConfig{
		Username: cfg.Username,
		Password: cfg.Password,
		Url:      cfg.Url,
		Secure:   cfg.Secure,
		Exchanges: []*RabbitMQExchange{
			{
				Name:       ExchangeName(cfg),
				Durable:    true,
				AutoDelete: false,
				Kind:       ExchangeKind,
			},
		},
	}
}

func ExchangeName(cfg *config.RabbitMqConfig) string {
	if cfg.Exchange == "" {
		return DefaultExchange
	}
	return cfg.Exchange
}
