package errors

import "github.com/pkg/errors"

var (
	// refresh errors
	ErrConfigurationInvalid = errors.New("configuration invalid")
	ErrConnectionFailed     = errors.New("connection failed")

	// construction errors
	ErrMissingDependency = errors.New("missing dependency")
)

const (
	MessageConfigurationInvalid = "Unable to connect to Email Server.  Please check your connection settings."
	MessageConnectionFailed     = "Unable to connect to Email Server.  Please check and verify connection settings."
)

// InboxMailServiceError is returned by a refresh cycle for failures meant to be
// shown to the operator as is. Error returns the operator message only.
type InboxMailServiceError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *InboxMailServiceError) Error() string {
	return e.Message
}

func (e *InboxMailServiceError) Is(target error) bool {
	return target == e.Kind
}

func (e *InboxMailServiceError) Unwrap() error {
	return e.Cause
}

func NewConfigurationInvalidError() *InboxMailServiceError {
	return &InboxMailServiceError{
		Kind:    ErrConfigurationInvalid,
		Message: MessageConfigurationInvalid,
	}
}

func NewConnectionFailedError(cause error) *InboxMailServiceError {
	return &InboxMailServiceError{
		Kind:    ErrConnectionFailed,
		Message: MessageConnectionFailed,
		Cause:   cause,
	}
}
