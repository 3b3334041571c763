package events

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"
)

const (
	// Exchange names
	ExchangeMailrefreshDirect = "mailrefresh-direct"
	ExchangeDeadLetter        = "dead-letter"

	// queues
	QueueInboxRefresh = "mailrefresh-inbox-refresh"
	DLQInboxRefresh   = QueueInboxRefresh + "-dlq"

	// routing keys
	RoutingKeyDeadLetter   = "dead-letter"
	RoutingKeyInboxRefresh = "mailrefresh-inbox-refresh"

	DefaultMessageTTL = 240 * time.Hour // after TTL message moves to DLQ
)

// declareTopology declares exchanges and queues. Declarations are idempotent,
// so publisher and subscriber both call it.
func declareTopology(channel *amqp091.Channel, messageTTL time.Duration) error {
	err := channel.ExchangeDeclare(
		ExchangeDeadLetter,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return errors.Wrap(err, "Failed to declare dead letter exchange")
	}

	err = channel.ExchangeDeclare(
		ExchangeMailrefreshDirect,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Failed to declare mailrefresh-direct exchange")
	}

	err = declareQueueWithDLQ(channel, QueueInboxRefresh, DLQInboxRefresh, messageTTL)
	if err != nil {
		return err
	}
	err = channel.QueueBind(
		QueueInboxRefresh,
		RoutingKeyInboxRefresh,
		ExchangeMailrefreshDirect,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "Failed to bind queue %s to exchange %s", QueueInboxRefresh, ExchangeMailrefreshDirect)
	}

	return nil
}

func declareQueueWithDLQ(channel *amqp091.Channel, queueName, dlqName string, messageTTL time.Duration) error {
	_, err := channel.QueueDeclare(
		dlqName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "Failed to declare DLQ %s", dlqName)
	}

	err = channel.QueueBind(
		dlqName,
		RoutingKeyDeadLetter,
		ExchangeDeadLetter,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "Failed to bind DLQ %s to exchange", dlqName)
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		queueArgs(messageTTL),
	)
	if err != nil {
		return errors.Wrapf(err, "Failed to declare queue %s", queueName)
	}

	return nil
}

func queueArgs(messageTTL time.Duration) amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange":    ExchangeDeadLetter,
		"x-dead-letter-routing-key": RoutingKeyDeadLetter,
		"x-message-ttl":             messageTTL.Milliseconds(),
	}
}
