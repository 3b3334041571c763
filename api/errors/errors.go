package errors

import (
	"errors"
	"net/http"

	mailrefresh_errors "github.com/customeros/mailrefresh/internal/errors"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusCode maps a refresh error to the HTTP status returned to the caller
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, mailrefresh_errors.ErrConfigurationInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mailrefresh_errors.ErrConnectionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{Error: err.Error()}
}
