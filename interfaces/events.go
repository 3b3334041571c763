package interfaces

import (
	"context"

	"github.com/customeros/mailrefresh/dto"
)

type EventListener interface {
	Handle(ctx context.Context, event any) error
	GetEventType() string
	GetQueueName() string
}

type EventSubscriber interface {
	RegisterListener(listener EventListener)
	ListenQueue(queueName string) error
	Close() error
}

type RefreshRequestPublisher interface {
	PublishInboxRefreshRequested(ctx context.Context, message dto.InboxRefreshRequested) error
}
