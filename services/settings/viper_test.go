package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViperSource_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "InboxRefresh: true\nEmailInbox: inbox\nEmailPassword: \"!@#1234\"\nEmailServer: 192.168.1.1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	source, err := NewViperSource(path)
	require.NoError(t, err)
	ctx := context.Background()

	enabled, err := source.ReadBool(ctx, "InboxRefresh")
	require.NoError(t, err)
	assert.True(t, enabled)

	server, err := source.ReadString(ctx, "EmailServer")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", server)

	password, err := source.ReadString(ctx, "EmailPassword")
	require.NoError(t, err)
	assert.Equal(t, "!@#1234", password)
}

func TestViperSource_MissingFileAndKeys(t *testing.T) {
	source, err := NewViperSource(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	ctx := context.Background()

	enabled, err := source.ReadBool(ctx, "InboxRefresh")
	require.NoError(t, err)
	assert.False(t, enabled)

	value, err := source.ReadString(ctx, "EmailInbox")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestViperSource_EnvOverride(t *testing.T) {
	t.Setenv("MAILREFRESH_INBOXREFRESH", "true")
	t.Setenv("MAILREFRESH_EMAILINBOX", "from-env")

	source, err := NewViperSource("")
	require.NoError(t, err)

	enabled, err := source.ReadBool(context.Background(), "InboxRefresh")
	require.NoError(t, err)
	assert.True(t, enabled)

	value, err := source.ReadString(context.Background(), "EmailInbox")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestViperSource_InvalidBool(t *testing.T) {
	v := viper.New()
	v.Set("InboxRefresh", "sometimes")
	source := NewViperSourceFrom(v)

	_, err := source.ReadBool(context.Background(), "InboxRefresh")

	assert.Error(t, err)
}
