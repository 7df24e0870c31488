package rabbitmq

import (
	"camera-ingest/config"
	"context"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Topology names the exchange, queue and dead letter pair used for one job type.
type Topology struct {
	Exchange      string
	Kind          string
	Queue         string
	RoutingKey    string
	DLX           string
	DLQ           string
	DLQRoutingKey string
}

func NewTopology(cfg *config.RabbitMQ) Topology {
	kind := cfg.Kind
	if kind == "" {
		kind = amqp.ExchangeDirect
	}
	return Topology{
		Exchange:      cfg.ExchangeName,
		Kind:          kind,
		Queue:         cfg.QueueName,
		RoutingKey:    cfg.RoutingKey,
		DLX:           cfg.ExchangeName + "_dlx",
		DLQ:           cfg.QueueName + "_dlq",
		DLQRoutingKey: "dlq." + cfg.RoutingKey,
	}
}

func (t Topology) declareExchange(ctx context.Context, ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(t.Exchange, t.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("exchange", t.Exchange).Msg("failed to declare exchange")
	}
	return err
}

// Declare creates the exchange, the dead letter exchange and both queues.
func (t Topology) Declare(ctx context.Context, ch *amqp.Channel) error {
	if err := t.declareExchange(ctx, ch); err != nil {
		return err
	}

	err := ch.ExchangeDeclare(t.DLX, t.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("exchange", t.DLX).Msg("failed to declare dlx")
		return err
	}

	dlq, err := ch.QueueDeclare(t.DLQ, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", t.DLQ).Msg("failed to declare dlq")
		return err
	}

	if err = ch.QueueBind(dlq.Name, t.DLQRoutingKey, t.DLX, false, nil); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", t.DLQ).Msg("failed to bind dlq")
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    t.DLX,
		"x-dead-letter-routing-key": t.DLQRoutingKey,
	}
	q, err := ch.QueueDeclare(t.Queue, true, false, false, false, args)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", t.Queue).Msg("failed to declare queue")
		return err
	}

	if err = ch.QueueBind(q.Name, t.RoutingKey, t.Exchange, false, nil); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", t.Queue).Msg("failed to bind queue")
		return err
	}
	return nil
}
