package errors

import (
	stderrors "errors"
	"fmt"
)

// Pipeline error taxonomy. The message of each sentinel is the text shown to the user.
var (
	ErrDeviceUnavailable   = New("Could not access microphone. Please ensure it is connected and permissions are granted.")
	ErrInvalidFileType     = New("Please select an audio file (e.g., MP3, WAV).")
	ErrNoFileSelected      = New("Please select an audio file to upload.")
	ErrFileReadFailed      = New("Failed to read the audio file.")
	ErrTranscriptionFailed = New("Failed to transcribe audio. Please try again.")
	ErrRenderingFallback   = New("PDF renderer not available. Downloading as plain text.")

	// ErrNoTranscription is the malformed-response flavour of ErrTranscriptionFailed.
	ErrNoTranscription = ErrTranscriptionFailed.Sub("No transcription found or unexpected response structure.")

	ErrBusy              = New("A transcription is already in progress.")
	ErrNothingToDownload = New("There is no transcription to download.")
	ErrUnsupportedFormat = New("Unsupported download format.")
	ErrInvalidConfig     = New("invalid configuration")
	ErrProviderNotFound  = New("transcription backend not found")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
	parent  *Error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Sub creates a more specific error that still matches e under errors.Is.
func (e *Error) Sub(message string) *Error {
	return &Error{message: message, parent: e}
}

// With attaches a cause while keeping the identity (and message) of e.
func (e *Error) With(cause error) error {
	return &Error{message: e.message, cause: cause, parent: e.parent}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Message returns the message without the cause chain.
func (e *Error) Message() string {
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.message == t.message {
		return true
	}
	return e.parent != nil && e.parent.Is(target)
}

// UserMessage returns the single human-readable line for the error panel.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.message
	}
	return err.Error()
}

// Is is errors.Is, re-exported so callers need a single errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
