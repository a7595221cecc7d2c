package pipeline

import "fmt"

// Phase is the single activity the pipeline is in. Recording and transcribing are exclusive.
type Phase int

const (
	// PhaseIdle waits for a recording to start or an upload to be triggered.
	PhaseIdle Phase = iota
	// PhaseRecording holds the microphone.
	PhaseRecording
	// PhaseTranscribing has one request outstanding at the backend.
	PhaseTranscribing
)

// String returns the lowercase name used in logs and the state document.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseTranscribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*p = PhaseIdle
	case "recording":
		*p = PhaseRecording
	case "transcribing":
		*p = PhaseTranscribing
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}
