package api

import (
	"context"

	"scribe/internal/app/encoder"
)

// Transcriber submits one encoded audio payload and returns the plain-text transcription.
// Every failure satisfies errors.Is(err, errors.ErrTranscriptionFailed).
type Transcriber interface {
	Transcribe(ctx context.Context, payload encoder.Payload) (string, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, payload encoder.Payload) (string, error)

// Transcribe calls f.
func (f TranscriberFunc) Transcribe(ctx context.Context, payload encoder.Payload) (string, error) {
	return f(ctx, payload)
}
