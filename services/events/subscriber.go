package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"

	"github.com/customeros/mailrefresh/dto"
	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/tracing"
	"github.com/customeros/mailrefresh/internal/utils"
)

const appSourceQueue = "queue"

type SubscriberConfig struct {
	MessageTTL          time.Duration
	ReconnectBackoff    time.Duration
	MaxReconnectBackoff time.Duration
}

type RabbitMQSubscriber struct {
	connection      *amqp091.Connection
	connectionMutex sync.Mutex
	url             string
	logger          logger.Logger
	config          SubscriberConfig
	listeners       map[string]interfaces.EventListener
	listenerMutex   sync.RWMutex
	closed          chan struct{}
	closeOnce       sync.Once
}

func NewRabbitMQSubscriber(rabbitmqURL string, logger logger.Logger, config *SubscriberConfig) (*RabbitMQSubscriber, error) {
	subscriber := newSubscriber(rabbitmqURL, logger, config)

	err := subscriber.connect()
	if err != nil {
		return nil, err
	}

	return subscriber, nil
}

func newSubscriber(rabbitmqURL string, logger logger.Logger, config *SubscriberConfig) *RabbitMQSubscriber {
	if config == nil {
		config = &SubscriberConfig{
			MessageTTL:          DefaultMessageTTL,
			ReconnectBackoff:    time.Second,
			MaxReconnectBackoff: time.Second * 30,
		}
	}

	return &RabbitMQSubscriber{
		url:       rabbitmqURL,
		logger:    logger,
		config:    *config,
		listeners: make(map[string]interfaces.EventListener),
		closed:    make(chan struct{}),
	}
}

func (r *RabbitMQSubscriber) RegisterListener(listener interfaces.EventListener) {
	r.listenerMutex.Lock()
	defer r.listenerMutex.Unlock()

	eventType := listener.GetEventType()
	r.listeners[eventType] = listener
	r.logger.Infof("Registered listener for event type: %s on queue: %s",
		eventType, listener.GetQueueName())
}

// ListenQueue consumes queueName in the background, reconnecting until Close
func (r *RabbitMQSubscriber) ListenQueue(queueName string) error {
	go func() {
		for {
			select {
			case <-r.closed:
				return
			default:
			}

			retryAfter := r.consume(queueName)

			select {
			case <-r.closed:
				return
			case <-time.After(retryAfter):
			}
		}
	}()

	return nil
}

// consume runs one consumer session and returns the delay before the next attempt
func (r *RabbitMQSubscriber) consume(queueName string) time.Duration {
	r.connectionMutex.Lock()
	connection := r.connection
	r.connectionMutex.Unlock()

	if connection == nil || connection.IsClosed() {
		r.logger.Warnf("No RabbitMQ connection for queue %s. Retrying...", queueName)
		return r.config.ReconnectBackoff
	}

	channel, err := connection.Channel()
	if err != nil {
		r.logger.Errorf("Failed to open channel for queue %s: %v. Retrying...", queueName, err)
		return 5 * time.Second
	}
	defer channel.Close()

	// Serialize refresh cycles per consumer
	if err := channel.Qos(1, 0, false); err != nil {
		r.logger.Errorf("Failed to set prefetch on queue %s: %v", queueName, err)
		return 5 * time.Second
	}

	msgs, err := channel.Consume(
		queueName, // queue
		"",        // consumer tag
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		r.logger.Errorf("Failed to register consumer on queue %s: %v. Retrying...", queueName, err)
		return 5 * time.Second
	}

	r.logger.Infof("Listening for messages on queue %s", queueName)

	for d := range msgs {
		r.handleMessage(d, queueName)
	}

	r.logger.Warnf("Connection lost for queue %s. Reconnecting...", queueName)
	return 5 * time.Second
}

func (r *RabbitMQSubscriber) handleMessage(d amqp091.Delivery, queueName string) {
	defer tracing.RecoverAndLogToJaeger(r.logger)

	err := r.processMessage(d.Body, queueName)
	if err != nil {
		r.logger.Errorf("Failed to process message on queue %s: %v", queueName, err)
		r.retryAckNack(d, false)
	} else {
		r.retryAckNack(d, true)
	}
}

func (r *RabbitMQSubscriber) processMessage(body []byte, queueName string) error {
	var event dto.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}

	appSource := event.Metadata.AppSource
	if appSource == "" {
		appSource = appSourceQueue
	}
	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
		AppSource: appSource,
	})

	ctx, span := tracing.StartRabbitMQMessageTracerSpanWithHeader(ctx, "RabbitMQSubscriber.ProcessMessage", event.Metadata.UberTraceId)
	defer span.Finish()
	span.LogKV("event_type", event.Event.EventType)
	span.LogKV("queue_name", queueName)

	r.listenerMutex.RLock()
	listener, exists := r.listeners[event.Event.EventType]
	r.listenerMutex.RUnlock()

	if !exists {
		r.logger.Infof("No listener found for event type: %s on queue: %s", event.Event.EventType, queueName)
		return nil // No listener found, acknowledge the message
	}

	if listener.GetQueueName() != queueName {
		r.logger.Warnf("Event type %s received on wrong queue. Expected %s, got %s",
			event.Event.EventType, listener.GetQueueName(), queueName)
		return nil // Wrong queue, acknowledge the message
	}

	err := listener.Handle(ctx, event)
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *RabbitMQSubscriber) connect() error {
	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	connection, err := amqp091.Dial(r.url)
	if err != nil {
		return errors.Wrap(err, "Failed to connect to RabbitMQ")
	}

	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return errors.Wrap(err, "Failed to open channel for exchange/queue setup")
	}
	err = declareTopology(channel, r.config.MessageTTL)
	channel.Close()
	if err != nil {
		connection.Close()
		return errors.Wrap(err, "Failed to setup exchanges and queues")
	}

	r.connection = connection
	go r.handleReconnection(connection)

	return nil
}

func (r *RabbitMQSubscriber) handleReconnection(connection *amqp091.Connection) {
	notifyClose := connection.NotifyClose(make(chan *amqp091.Error, 1))
	select {
	case <-r.closed:
		return
	case err := <-notifyClose:
		r.logger.Warnf("RabbitMQ connection closed: %v, attempting to reconnect", err)
	}

	backoff := r.config.ReconnectBackoff
	for {
		select {
		case <-r.closed:
			return
		default:
		}

		err := r.connect()
		if err == nil {
			r.logger.Info("Successfully reconnected to RabbitMQ")
			return
		}

		r.logger.Errorf("Failed to reconnect: %v, retrying in %v", err, backoff)
		time.Sleep(backoff)

		backoff *= 2
		if backoff > r.config.MaxReconnectBackoff {
			backoff = r.config.MaxReconnectBackoff
		}
	}
}

func (r *RabbitMQSubscriber) retryAckNack(d amqp091.Delivery, ack bool) {
	maxRetries := 5
	retryDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		var err error
		if ack {
			err = d.Ack(false)
		} else {
			// failed refresh requests go to the DLQ, never back on the queue
			err = d.Nack(false, false)
		}

		if err == nil {
			return
		}

		time.Sleep(retryDelay)
	}

	r.logger.Errorf("Failed to %s message after %d attempts",
		map[bool]string{true: "acknowledge", false: "negative acknowledge"}[ack],
		maxRetries)
}

func (r *RabbitMQSubscriber) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })

	r.connectionMutex.Lock()
	defer r.connectionMutex.Unlock()

	if r.connection != nil && !r.connection.IsClosed() {
		return r.connection.Close()
	}
	return nil
}
