package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailrefresh/config"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/repository"
	"github.com/customeros/mailrefresh/services/pop3"
)

type noopInboxStore struct{}

func (noopInboxStore) ResetInboxTable(ctx context.Context) error { return nil }

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func testConfig(settingsFile string) *config.Config {
	return &config.Config{
		AppConfig:      &config.AppConfig{RabbitMQURL: "amqp://unused"},
		SettingsConfig: &config.SettingsConfig{Source: config.SettingsSourceFile, File: settingsFile},
		Pop3Config:     &pop3.Config{DialTimeout: time.Second, CommandTimeout: time.Second},
	}
}

func TestInitServices_FileSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("InboxRefresh: false\n"), 0o600))

	svcs, err := InitServices(testConfig(path), getLogger(), &repository.Repositories{InboxRepository: noopInboxStore{}}, false)
	require.NoError(t, err)

	assert.NotNil(t, svcs.InboxService)
	assert.Nil(t, svcs.EventsService)
	assert.Nil(t, svcs.RefreshRequestPublisher())
	assert.NoError(t, svcs.InboxService.RefreshInbox(context.Background()))
	assert.NoError(t, svcs.Close())
}

func TestInitServices_DatabaseSettingsNeedRepository(t *testing.T) {
	cfg := testConfig("")
	cfg.SettingsConfig.Source = config.SettingsSourceDatabase

	_, err := InitServices(cfg, getLogger(), &repository.Repositories{InboxRepository: noopInboxStore{}}, false)

	assert.Error(t, err)
}

func TestInitServices_UnknownSettingsSource(t *testing.T) {
	cfg := testConfig("")
	cfg.SettingsConfig.Source = "etcd"

	_, err := InitServices(cfg, getLogger(), &repository.Repositories{InboxRepository: noopInboxStore{}}, false)

	assert.Error(t, err)
}

func TestInitServices_MissingStore(t *testing.T) {
	_, err := InitServices(testConfig(""), getLogger(), &repository.Repositories{}, false)

	assert.Error(t, err)
}
