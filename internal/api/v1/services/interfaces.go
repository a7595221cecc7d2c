package services

import (
	"context"

	"scribe/internal/app/capture"
	"scribe/internal/app/export"
	"scribe/internal/app/pipeline"
)

// TranscriptionService is the pipeline as the handlers see it. *pipeline.Pipeline implements it.
type TranscriptionService interface {
	Snapshot() pipeline.State
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (string, error)
	SelectFile(file *capture.SelectedFile) error
	TriggerUpload(ctx context.Context) (string, error)
	Download(format export.Format) (*export.Artifact, error)
}

// BackendService reports which transcription backends exist
type BackendService interface {
	Active() string
	Available() []string
	Formats() []export.Format
}

var _ TranscriptionService = (*pipeline.Pipeline)(nil)
