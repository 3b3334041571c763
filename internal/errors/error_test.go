package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationInvalidError(t *testing.T) {
	var err error = NewConfigurationInvalidError()

	assert.Equal(t, MessageConfigurationInvalid, err.Error())
	assert.True(t, stderrors.Is(err, ErrConfigurationInvalid))
	assert.False(t, stderrors.Is(err, ErrConnectionFailed))
}

func TestConnectionFailedError_KeepsCause(t *testing.T) {
	var err error = NewConnectionFailedError(io.ErrUnexpectedEOF)

	assert.Equal(t, MessageConnectionFailed, err.Error())
	assert.True(t, stderrors.Is(err, ErrConnectionFailed))
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF))

	var serviceErr *InboxMailServiceError
	assert.True(t, stderrors.As(err, &serviceErr))
	assert.Equal(t, ErrConnectionFailed, serviceErr.Kind)
}

func TestMessagesAreDistinct(t *testing.T) {
	assert.NotEqual(t, MessageConfigurationInvalid, MessageConnectionFailed)
}
