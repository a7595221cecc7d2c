// Package export turns a finished transcription into a downloadable document.
package export

// Renderer produces one document format from the transcription text.
type Renderer interface {
	Render(text string) ([]byte, error)
	Extension() string
	ContentType() string
}

// TextRenderer writes the transcription bytes unchanged.
type TextRenderer struct{}

func (TextRenderer) Render(text string) ([]byte, error) {
	return []byte(text), nil
}

func (TextRenderer) Extension() string   { return ".txt" }
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }
