package pipeline

import (
	apperrors "scribe/internal/app/errors"
)

// FileInfo describes the staged file without giving access to its content.
type FileInfo struct {
	Name     string
	MIMEType string
	Size     int64
}

// State is what a front-end shows: the activity, the latest error, the latest result and the
// staged file.
type State struct {
	Phase            Phase
	Err              error
	Transcription    string
	HasTranscription bool
	SelectedFile     *FileInfo
}

func (s State) Recording() bool    { return s.Phase == PhaseRecording }
func (s State) Transcribing() bool { return s.Phase == PhaseTranscribing }

// ErrorMessage is the text of the error panel, or "".
func (s State) ErrorMessage() string {
	return apperrors.UserMessage(s.Err)
}

// Status is the progress line for the current phase, or "" when idle.
func (s State) Status() string {
	switch s.Phase {
	case PhaseRecording:
		return "Recording..."
	case PhaseTranscribing:
		return "Transcribing audio..."
	}
	return ""
}
