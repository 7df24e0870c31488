package rabbitmq

import (
	"camera-ingest/config"
	"context"
	"encoding/json"
	"errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var ErrNoConnection = errors.New("rabbitmq connection is not available")

// Publisher sends JSON encoded messages of type T to the job exchange.
type Publisher[T any] struct {
	conn     *amqp.Connection
	topology Topology
}

func NewPublisher[T any](conn *amqp.Connection, cfg *config.RabbitMQ) *Publisher[T] {
	return &Publisher[T]{
		conn:     conn,
		topology: NewTopology(cfg),
	}
}

func (p *Publisher[T]) Publish(ctx context.Context, message T) error {
	if p.conn == nil || p.conn.IsClosed() {
		return ErrNoConnection
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err = p.topology.declareExchange(ctx, ch); err != nil {
		return err
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx,
		p.topology.Exchange,
		p.topology.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("exchange", p.topology.Exchange).Msg("failed to publish message")
		return err
	}
	return nil
}
