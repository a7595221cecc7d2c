// Package capture produces one complete audio buffer, either from a live microphone or from a
// file the user picked.
package capture

import (
	"context"
)

// RecordingMIMEType is the type every microphone recording is tagged with.
const RecordingMIMEType = "audio/webm"

// Device is a microphone. Acquire hands out an exclusively owned Stream; a device that is busy,
// missing, or not permitted returns ErrDeviceUnavailable.
type Device interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Stream is an active capture.
//
// Fragments delivers audio in order and is closed once the stream has been stopped and the last
// fragment flushed. Stop and Release are idempotent; Release must be called exactly when the
// owner is done with the device, even if Stop failed.
type Stream interface {
	Fragments() <-chan []byte
	Stop() error
	Release() error
}
