package dto

import (
	"scribe/internal/app/pipeline"
)

// StateResponse is the document every pipeline endpoint returns.
type StateResponse struct {
	Phase            string        `json:"phase"`
	Recording        bool          `json:"recording"`
	Transcribing     bool          `json:"transcribing"`
	Status           string        `json:"status,omitempty"`
	Error            string        `json:"error"`
	Transcription    string        `json:"transcription"`
	HasTranscription bool          `json:"has_transcription"`
	SelectedFile     *FileResponse `json:"selected_file"`
}

// FileResponse describes the staged file.
type FileResponse struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// BackendsResponse lists the transcription backends compiled into the binary and the download
// formats on offer.
type BackendsResponse struct {
	Active    string   `json:"active"`
	Available []string `json:"available"`
	Formats   []string `json:"formats"`
}

// NewStateResponse converts a pipeline snapshot.
func NewStateResponse(s pipeline.State) *StateResponse {
	resp := &StateResponse{
		Phase:            s.Phase.String(),
		Recording:        s.Recording(),
		Transcribing:     s.Transcribing(),
		Status:           s.Status(),
		Error:            s.ErrorMessage(),
		Transcription:    s.Transcription,
		HasTranscription: s.HasTranscription,
	}
	if s.SelectedFile != nil {
		resp.SelectedFile = &FileResponse{
			Name:     s.SelectedFile.Name,
			MIMEType: s.SelectedFile.MIMEType,
			Size:     s.SelectedFile.Size,
		}
	}
	return resp
}
