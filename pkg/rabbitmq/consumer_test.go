package rabbitmq

import (
	"camera-ingest/config"
	"context"
	"errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"testing"
)

type fakeAcknowledger struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	return a.Nack(0, false, requeue)
}

func newTestConsumer(maxRetries uint, handler func(ctx context.Context, msg amqp.Delivery, _ struct{}) error) consumer[struct{}] {
	return consumer[struct{}]{
		cfg:     &config.RabbitMQ{MaxRetries: maxRetries},
		handler: handler,
	}
}

func TestDeliverAcksOnSuccess(t *testing.T) {
	ack := &fakeAcknowledger{}
	c := newTestConsumer(1, func(context.Context, amqp.Delivery, struct{}) error { return nil })

	c.deliver(context.Background(), 1, amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, struct{}{})

	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
}

func TestDeliverDeadLettersAfterRetries(t *testing.T) {
	ack := &fakeAcknowledger{}
	calls := 0
	c := newTestConsumer(2, func(context.Context, amqp.Delivery, struct{}) error {
		calls++
		return errors.New("disk full")
	})

	c.deliver(context.Background(), 1, amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, struct{}{})

	assert.Equal(t, 2, calls)
	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestDeliverRequeuesOnShutdown(t *testing.T) {
	ack := &fakeAcknowledger{}
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestConsumer(3, func(ctx context.Context, _ amqp.Delivery, _ struct{}) error {
		cancel()
		return ctx.Err()
	})

	c.deliver(ctx, 1, amqp.Delivery{Acknowledger: ack, DeliveryTag: 1}, struct{}{})

	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeue)
}
