package services

import (
	"github.com/pkg/errors"

	"github.com/customeros/mailrefresh/config"
	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/repository"
	"github.com/customeros/mailrefresh/services/events"
	"github.com/customeros/mailrefresh/services/inbox"
	"github.com/customeros/mailrefresh/services/pop3"
	"github.com/customeros/mailrefresh/services/settings"
)

type Services struct {
	Configuration interfaces.ConfigurationSource
	MailClient    *pop3.Client
	InboxService  *inbox.InboxMailService
	EventsService *events.EventsService
}

// InitServices wires the refresh workflow. The events service is only
// created when withEvents is set and a RabbitMQ URL is configured.
func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories, withEvents bool) (*Services, error) {
	configuration, err := newConfigurationSource(cfg.SettingsConfig, repos)
	if err != nil {
		return nil, err
	}

	mailClient := pop3.NewClient(*cfg.Pop3Config, log)

	inboxService, err := inbox.NewInboxMailService(configuration, repos.InboxRepository, mailClient, log)
	if err != nil {
		return nil, err
	}

	services := Services{
		Configuration: configuration,
		MailClient:    mailClient,
		InboxService:  inboxService,
	}

	if withEvents && cfg.AppConfig.RabbitMQURL != "" {
		publisherConfig := &events.PublisherConfig{
			MessageTTL:     events.DefaultMessageTTL,
			MaxRetries:     events.DefaultMaxRetries,
			PublishTimeout: events.DefaultPublishTimeout,
		}
		eventsService, err := events.NewEventsService(cfg.AppConfig.RabbitMQURL, log, publisherConfig, nil)
		if err != nil {
			return nil, err
		}
		services.EventsService = eventsService
	}

	return &services, nil
}

// RefreshRequestPublisher returns nil when no message queue is configured.
func (s *Services) RefreshRequestPublisher() interfaces.RefreshRequestPublisher {
	if s.EventsService == nil || s.EventsService.Publisher == nil {
		return nil
	}
	return s.EventsService.Publisher
}

func (s *Services) Close() error {
	if s.EventsService != nil {
		return s.EventsService.Close()
	}
	return nil
}

func newConfigurationSource(cfg *config.SettingsConfig, repos *repository.Repositories) (interfaces.ConfigurationSource, error) {
	switch cfg.Source {
	case config.SettingsSourceDatabase:
		if repos.SettingsRepository == nil {
			return nil, errors.New("settings source database requires the postgres driver")
		}
		return repos.SettingsRepository, nil
	case config.SettingsSourceFile, "":
		return settings.NewViperSource(cfg.File)
	default:
		return nil, errors.Errorf("unknown settings source %q", cfg.Source)
	}
}
