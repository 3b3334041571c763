package inbox

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/mailrefresh/interfaces"
	inboxerrors "github.com/customeros/mailrefresh/internal/errors"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/tracing"
	"github.com/customeros/mailrefresh/internal/utils"
)

const (
	SettingInboxRefresh  = "InboxRefresh"
	SettingEmailInbox    = "EmailInbox"
	SettingEmailPassword = "EmailPassword"
	SettingEmailServer   = "EmailServer"

	MailServerPort = 110
)

// InboxMailService mirrors the remote mailbox into the local inbox store.
type InboxMailService struct {
	configuration interfaces.ConfigurationSource
	inboxStore    interfaces.InboxStore
	mailClient    interfaces.MailClient
	log           logger.Logger

	// one refresh cycle at a time per service
	refreshMutex sync.Mutex
}

func NewInboxMailService(
	configuration interfaces.ConfigurationSource,
	inboxStore interfaces.InboxStore,
	mailClient interfaces.MailClient,
	log logger.Logger,
) (*InboxMailService, error) {
	switch {
	case configuration == nil:
		return nil, errors.Wrap(inboxerrors.ErrMissingDependency, "configuration")
	case inboxStore == nil:
		return nil, errors.Wrap(inboxerrors.ErrMissingDependency, "inboxStore")
	case mailClient == nil:
		return nil, errors.Wrap(inboxerrors.ErrMissingDependency, "mailClient")
	case log == nil:
		return nil, errors.Wrap(inboxerrors.ErrMissingDependency, "log")
	}

	return &InboxMailService{
		configuration: configuration,
		inboxStore:    inboxStore,
		mailClient:    mailClient,
		log:           log,
	}, nil
}

type mailSettings struct {
	mailbox  string
	password string
	server   string
}

// RefreshInbox runs one refresh cycle. The inbox table is reset before the
// connection attempt, so a failed connection leaves the table empty.
func (s *InboxMailService) RefreshInbox(ctx context.Context) error {
	s.refreshMutex.Lock()
	defer s.refreshMutex.Unlock()

	if utils.GetRunIdFromContext(ctx) == "" {
		ctx = utils.WithRunId(ctx, utils.GenerateNanoIdWithPrefix("refresh", 16))
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "InboxMailService.RefreshInbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	refreshEnabled, err := s.configuration.ReadBool(ctx, SettingInboxRefresh)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if !refreshEnabled {
		span.LogFields(tracingLog.Bool("skipped", true))
		s.log.Debugf("Inbox refresh disabled by %s, skipping", SettingInboxRefresh)
		return nil
	}

	settings, err := s.readMailSettings(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if err := s.inboxStore.ResetInboxTable(ctx); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("Failed to reset inbox table: %v", err)
		return err
	}

	connected, err := s.mailClient.Connect(ctx, settings.server, MailServerPort, settings.mailbox, settings.password)
	if err != nil || !connected {
		if err != nil {
			s.log.Warnf("Connection to %s:%d failed: %v", settings.server, MailServerPort, err)
		} else {
			s.log.Warnf("Login to %s:%d rejected for %s", settings.server, MailServerPort, settings.mailbox)
		}
		connErr := inboxerrors.NewConnectionFailedError(err)
		tracing.TraceErr(span, connErr)
		return connErr
	}
	defer func() {
		if err := s.mailClient.Close(); err != nil {
			s.log.Warnf("Failed to close mail session: %v", err)
		}
	}()

	summaries, err := s.mailClient.ListMessages(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.LogFields(tracingLog.Int("messages.listed", len(summaries)))

	// Fetched messages are not persisted; the first failing fetch ends the cycle.
	for _, summary := range summaries {
		if _, err := s.mailClient.FetchMessage(ctx, summary.ID); err != nil {
			tracing.TraceErr(span, err, tracingLog.Int64("message.id", summary.ID))
			s.log.Errorf("Failed to fetch message %d: %v", summary.ID, err)
			return err
		}
	}

	s.log.Infof("Inbox refresh completed, %d messages fetched from %s", len(summaries), settings.server)
	return nil
}

func (s *InboxMailService) readMailSettings(ctx context.Context) (*mailSettings, error) {
	var settings mailSettings
	var err error

	if settings.mailbox, err = s.configuration.ReadString(ctx, SettingEmailInbox); err != nil {
		return nil, err
	}
	if settings.password, err = s.configuration.ReadString(ctx, SettingEmailPassword); err != nil {
		return nil, err
	}
	if settings.server, err = s.configuration.ReadString(ctx, SettingEmailServer); err != nil {
		return nil, err
	}

	if utils.IsBlank(settings.mailbox) || utils.IsBlank(settings.password) || utils.IsBlank(settings.server) {
		s.log.Warnf("Mail settings incomplete, check %s, %s and %s", SettingEmailInbox, SettingEmailPassword, SettingEmailServer)
		return nil, inboxerrors.NewConfigurationInvalidError()
	}

	return &settings, nil
}
