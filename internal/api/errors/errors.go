package errors

import (
	"net/http"

	apperrors "scribe/internal/app/errors"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindBadRequest         ErrorKind = "bad_request"
	KindUpstream           ErrorKind = "upstream"
)

// APIError represents a structured API error response. State carries the pipeline state
// document after the failed operation, when there is one.
type APIError struct {
	Kind      ErrorKind   `json:"kind"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	State     interface{} `json:"state,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// FromDomain maps a pipeline error onto an API error kind. The message is the one a user
// would see in the error panel.
func FromDomain(err error) *APIError {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}

	kind := KindInternal
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidFileType):
		kind = KindValidation
	case apperrors.Is(err, apperrors.ErrNoFileSelected),
		apperrors.Is(err, apperrors.ErrUnsupportedFormat),
		apperrors.Is(err, apperrors.ErrFileReadFailed):
		kind = KindBadRequest
	case apperrors.Is(err, apperrors.ErrBusy):
		kind = KindConflict
	case apperrors.Is(err, apperrors.ErrNothingToDownload):
		kind = KindNotFound
	case apperrors.Is(err, apperrors.ErrDeviceUnavailable):
		kind = KindServiceUnavailable
	case apperrors.Is(err, apperrors.ErrTranscriptionFailed):
		kind = KindUpstream
	}

	return &APIError{
		Kind:    kind,
		Message: apperrors.UserMessage(err),
	}
}
