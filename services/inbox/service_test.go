package inbox

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/customeros/mailrefresh/interfaces"
	inboxerrors "github.com/customeros/mailrefresh/internal/errors"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/utils"
)

const (
	testMailBox      = "inbox"
	testMailPassword = "!@#1234"
	testMailServer   = "192.168.1.1"
)

type mockConfigurationSource struct {
	mock.Mock
}

func (m *mockConfigurationSource) ReadBool(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockConfigurationSource) ReadString(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

type mockInboxStore struct {
	mock.Mock
}

func (m *mockInboxStore) ResetInboxTable(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockMailClient struct {
	mock.Mock
}

func (m *mockMailClient) Connect(ctx context.Context, server string, port int, userName, password string) (bool, error) {
	args := m.Called(ctx, server, port, userName, password)
	return args.Bool(0), args.Error(1)
}

func (m *mockMailClient) ListMessages(ctx context.Context) ([]interfaces.MessageSummary, error) {
	args := m.Called(ctx)
	summaries, _ := args.Get(0).([]interfaces.MessageSummary)
	return summaries, args.Error(1)
}

func (m *mockMailClient) FetchMessage(ctx context.Context, id int64) (*interfaces.Message, error) {
	args := m.Called(ctx, id)
	msg, _ := args.Get(0).(*interfaces.Message)
	return msg, args.Error(1)
}

func (m *mockMailClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type fixture struct {
	config *mockConfigurationSource
	store  *mockInboxStore
	client *mockMailClient
	calls  []string
	sut    *InboxMailService
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		config: &mockConfigurationSource{},
		store:  &mockInboxStore{},
		client: &mockMailClient{},
	}

	sut, err := NewInboxMailService(f.config, f.store, f.client, getLogger())
	require.NoError(t, err)
	f.sut = sut

	return f
}

func (f *fixture) record(name string) func(mock.Arguments) {
	return func(mock.Arguments) {
		f.calls = append(f.calls, name)
	}
}

func (f *fixture) enableRefresh(enabled bool) {
	f.config.On("ReadBool", mock.Anything, SettingInboxRefresh).Return(enabled, nil)
}

func (f *fixture) enableReadMailSettings() {
	f.enableRefresh(true)
	f.config.On("ReadString", mock.Anything, SettingEmailInbox).Return(testMailBox, nil)
	f.config.On("ReadString", mock.Anything, SettingEmailPassword).Return(testMailPassword, nil)
	f.config.On("ReadString", mock.Anything, SettingEmailServer).Return(testMailServer, nil)
	f.store.On("ResetInboxTable", mock.Anything).Return(nil).Run(f.record("reset"))
}

func (f *fixture) mailClientConnect(connected bool) {
	f.client.On("Connect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(connected, nil).Run(f.record("connect"))
	f.client.On("Close").Return(nil).Run(f.record("close"))
}

func (f *fixture) fillMails() {
	f.client.On("ListMessages", mock.Anything).
		Return([]interfaces.MessageSummary{{ID: 1234}, {ID: 5678}}, nil).Run(f.record("list"))
	f.client.On("FetchMessage", mock.Anything, int64(1234)).
		Return(&interfaces.Message{ID: 1234, Sender: interfaces.Sender{Name: "Ranga", Address: "ranga@gmail.com"}}, nil).
		Run(f.record("fetch:1234"))
	f.client.On("FetchMessage", mock.Anything, int64(5678)).
		Return(&interfaces.Message{ID: 5678}, nil).Run(f.record("fetch:5678"))
}

func TestNewInboxMailService_RejectsMissingDependencies(t *testing.T) {
	log := getLogger()

	_, err := NewInboxMailService(nil, &mockInboxStore{}, &mockMailClient{}, log)
	assert.ErrorIs(t, err, inboxerrors.ErrMissingDependency)

	_, err = NewInboxMailService(&mockConfigurationSource{}, nil, &mockMailClient{}, log)
	assert.ErrorIs(t, err, inboxerrors.ErrMissingDependency)

	_, err = NewInboxMailService(&mockConfigurationSource{}, &mockInboxStore{}, nil, log)
	assert.ErrorIs(t, err, inboxerrors.ErrMissingDependency)

	_, err = NewInboxMailService(&mockConfigurationSource{}, &mockInboxStore{}, &mockMailClient{}, nil)
	assert.ErrorIs(t, err, inboxerrors.ErrMissingDependency)
}

func TestRefreshInbox_ExitsWhenRefreshDisabled(t *testing.T) {
	f := newFixture(t)
	f.enableRefresh(false)

	err := f.sut.RefreshInbox(context.Background())

	require.NoError(t, err)
	f.config.AssertNumberOfCalls(t, "ReadBool", 1)
	f.config.AssertNotCalled(t, "ReadString", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "ResetInboxTable", mock.Anything)
	f.client.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshInbox_KeepsRunIdFromCaller(t *testing.T) {
	f := newFixture(t)
	f.config.On("ReadBool", mock.MatchedBy(func(ctx context.Context) bool {
		return utils.GetRunIdFromContext(ctx) == "refresh-caller"
	}), SettingInboxRefresh).Return(false, nil).Once()

	err := f.sut.RefreshInbox(utils.WithRunId(context.Background(), "refresh-caller"))

	require.NoError(t, err)
	f.config.AssertExpectations(t)
}

func TestRefreshInbox_GeneratesRunIdWhenMissing(t *testing.T) {
	f := newFixture(t)
	f.config.On("ReadBool", mock.MatchedBy(func(ctx context.Context) bool {
		return utils.GetRunIdFromContext(ctx) != ""
	}), SettingInboxRefresh).Return(false, nil).Once()

	err := f.sut.RefreshInbox(context.Background())

	require.NoError(t, err)
	f.config.AssertExpectations(t)
}

func TestRefreshInbox_ReadsMailSettingsWhenEnabled(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(true)
	f.fillMails()

	err := f.sut.RefreshInbox(context.Background())

	require.NoError(t, err)
	f.config.AssertNumberOfCalls(t, "ReadBool", 1)
	f.config.AssertNumberOfCalls(t, "ReadString", 3)
}

func TestRefreshInbox_ConfigurationInvalidWhenSettingsBlank(t *testing.T) {
	tests := []struct {
		name     string
		mailbox  string
		password string
		server   string
	}{
		{"all empty", "", "", ""},
		{"mailbox empty", "", testMailPassword, testMailServer},
		{"password whitespace", testMailBox, "   ", testMailServer},
		{"server empty", testMailBox, testMailPassword, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.enableRefresh(true)
			f.config.On("ReadString", mock.Anything, SettingEmailInbox).Return(tt.mailbox, nil)
			f.config.On("ReadString", mock.Anything, SettingEmailPassword).Return(tt.password, nil)
			f.config.On("ReadString", mock.Anything, SettingEmailServer).Return(tt.server, nil)

			err := f.sut.RefreshInbox(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, inboxerrors.ErrConfigurationInvalid)
			assert.Equal(t, "Unable to connect to Email Server.  Please check your connection settings.", err.Error())
			f.store.AssertNotCalled(t, "ResetInboxTable", mock.Anything)
			f.client.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRefreshInbox_ResetsInboxTableOnceBeforeConnecting(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(true)
	f.fillMails()

	err := f.sut.RefreshInbox(context.Background())

	require.NoError(t, err)
	f.store.AssertNumberOfCalls(t, "ResetInboxTable", 1)
	require.NotEmpty(t, f.calls)
	assert.Equal(t, "reset", f.calls[0])
	assert.Equal(t, "connect", f.calls[1])
}

func TestRefreshInbox_ConnectsWithSettingsOnPort110(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(true)
	f.fillMails()

	err := f.sut.RefreshInbox(context.Background())

	require.NoError(t, err)
	f.client.AssertNumberOfCalls(t, "Connect", 1)
	f.client.AssertCalled(t, "Connect", mock.Anything, testMailServer, 110, testMailBox, testMailPassword)
}

func TestRefreshInbox_ConnectionFailed(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(false)

	err := f.sut.RefreshInbox(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, inboxerrors.ErrConnectionFailed)
	assert.Equal(t, "Unable to connect to Email Server.  Please check and verify connection settings.", err.Error())
	f.store.AssertNumberOfCalls(t, "ResetInboxTable", 1)
	f.client.AssertNotCalled(t, "ListMessages", mock.Anything)
	f.client.AssertNotCalled(t, "FetchMessage", mock.Anything, mock.Anything)
	f.client.AssertNotCalled(t, "Close")
}

func TestRefreshInbox_TransportErrorOnConnectIsConnectionFailed(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	dialErr := stderrors.New("dial tcp 192.168.1.1:110: connection refused")
	f.client.On("Connect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, dialErr)

	err := f.sut.RefreshInbox(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, inboxerrors.ErrConnectionFailed)
	assert.ErrorIs(t, err, dialErr)
	f.client.AssertNotCalled(t, "ListMessages", mock.Anything)
}

func TestRefreshInbox_FetchesEveryListedMessageInOrder(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(true)
	f.fillMails()

	err := f.sut.RefreshInbox(context.Background())

	require.NoError(t, err)
	f.client.AssertNumberOfCalls(t, "ListMessages", 1)
	f.client.AssertNumberOfCalls(t, "FetchMessage", 2)
	assert.Equal(t, []string{"reset", "connect", "list", "fetch:1234", "fetch:5678", "close"}, f.calls)
}

func TestRefreshInbox_EmptyMailboxFetchesNothing(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(true)
	f.client.On("ListMessages", mock.Anything).Return([]interfaces.MessageSummary{}, nil)

	err := f.sut.RefreshInbox(context.Background())

	require.NoError(t, err)
	f.client.AssertNotCalled(t, "FetchMessage", mock.Anything, mock.Anything)
	f.client.AssertNumberOfCalls(t, "Close", 1)
}

func TestRefreshInbox_AbortsOnFirstFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(true)
	fetchErr := stderrors.New("RETR 1: no such message")
	f.client.On("ListMessages", mock.Anything).
		Return([]interfaces.MessageSummary{{ID: 1}, {ID: 2}, {ID: 3}}, nil)
	f.client.On("FetchMessage", mock.Anything, int64(1)).Return(&interfaces.Message{ID: 1}, nil)
	f.client.On("FetchMessage", mock.Anything, int64(2)).Return(nil, fetchErr)

	err := f.sut.RefreshInbox(context.Background())

	assert.Same(t, fetchErr, err)
	f.client.AssertNumberOfCalls(t, "FetchMessage", 2)
	f.client.AssertNotCalled(t, "FetchMessage", mock.Anything, int64(3))
	f.client.AssertNumberOfCalls(t, "Close", 1)
}

func TestRefreshInbox_ResetFailurePropagatesUnmodified(t *testing.T) {
	f := newFixture(t)
	f.enableRefresh(true)
	f.config.On("ReadString", mock.Anything, mock.Anything).Return("value", nil)
	resetErr := stderrors.New("drop table: permission denied")
	f.store.On("ResetInboxTable", mock.Anything).Return(resetErr)

	err := f.sut.RefreshInbox(context.Background())

	assert.Same(t, resetErr, err)
	f.client.AssertNotCalled(t, "Connect", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshInbox_ConfigurationReadFailurePropagates(t *testing.T) {
	f := newFixture(t)
	readErr := stderrors.New("settings unavailable")
	f.config.On("ReadBool", mock.Anything, SettingInboxRefresh).Return(false, readErr)

	err := f.sut.RefreshInbox(context.Background())

	assert.Same(t, readErr, err)
	f.store.AssertNotCalled(t, "ResetInboxTable", mock.Anything)
}

func TestRefreshInbox_RepeatedInvocationsAreIdentical(t *testing.T) {
	f := newFixture(t)
	f.enableReadMailSettings()
	f.mailClientConnect(true)
	f.fillMails()

	require.NoError(t, f.sut.RefreshInbox(context.Background()))
	first := append([]string(nil), f.calls...)
	f.calls = nil

	require.NoError(t, f.sut.RefreshInbox(context.Background()))

	assert.Equal(t, first, f.calls)
	f.store.AssertNumberOfCalls(t, "ResetInboxTable", 2)
	f.client.AssertNumberOfCalls(t, "Connect", 2)
	f.client.AssertNumberOfCalls(t, "ListMessages", 2)
	f.client.AssertNumberOfCalls(t, "FetchMessage", 4)
}
