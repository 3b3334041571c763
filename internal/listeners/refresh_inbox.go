package listeners

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/mailrefresh/dto"
	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/tracing"
	"github.com/customeros/mailrefresh/services/events"
)

type RefreshInboxListener struct {
	events.BaseEventListener
	inbox interfaces.InboxService
}

func NewRefreshInboxListener(logger logger.Logger, inbox interfaces.InboxService) interfaces.EventListener {
	return &RefreshInboxListener{
		BaseEventListener: events.NewBaseEventListener(
			logger,
			events.GetEventType[dto.InboxRefreshRequested](), // subscribed event
			events.QueueInboxRefresh,                          // listening on Direct queue
		),
		inbox: inbox,
	}
}

func (l *RefreshInboxListener) Handle(ctx context.Context, baseEvent any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RefreshInboxListener.Handle")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)
	tracing.LogObjectAsJson(span, "event", baseEvent)

	validatedEvent, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	request, err := events.DecodeEventData[dto.InboxRefreshRequested](ctx, validatedEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogKV("requestedBy", request.RequestedBy)

	if err := l.inbox.RefreshInbox(ctx); err != nil {
		tracing.TraceErr(span, err)
		l.Logger().Errorf("Inbox refresh requested by %s failed: %v", request.RequestedBy, err)
		return err
	}

	return nil
}
