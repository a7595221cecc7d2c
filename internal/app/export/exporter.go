package export

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	apperrors "scribe/internal/app/errors"
)

// DefaultName names artifacts that have no source file.
const DefaultName = "transcription"

// Format selects the artifact type of a download.
type Format string

const (
	FormatAuto  Format = "auto"
	FormatPDF   Format = "pdf"
	FormatText  Format = "txt"
	FormatExcel Format = "xlsx"
)

// ParseFormat accepts the format names and their common aliases. An empty string is FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "auto":
		return FormatAuto, nil
	case "pdf":
		return FormatPDF, nil
	case "txt", "text", "plain":
		return FormatText, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	}
	return "", apperrors.ErrUnsupportedFormat.With(fmt.Errorf("format %q", s))
}

// Artifact is a rendered download.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	// Fallback is set when auto wanted a PDF but plain text was produced instead.
	Fallback bool
}

// Exporter holds the renderers available at runtime.
type Exporter struct {
	renderers   map[Format]Renderer
	defaultName string
}

// NewExporter registers text and Excel always, and PDF only when pdfEnabled.
func NewExporter(pdfEnabled bool, defaultName string) *Exporter {
	e := &Exporter{
		renderers: map[Format]Renderer{
			FormatText:  TextRenderer{},
			FormatExcel: ExcelRenderer{},
		},
		defaultName: lo.CoalesceOrEmpty(defaultName, DefaultName),
	}
	if pdfEnabled {
		e.renderers[FormatPDF] = NewPDFRenderer()
	}
	return e
}

// Register installs or replaces the renderer for format.
func (e *Exporter) Register(format Format, r Renderer) {
	e.renderers[format] = r
}

// HasPDF reports whether a PDF renderer is available.
func (e *Exporter) HasPDF() bool {
	_, ok := e.renderers[FormatPDF]
	return ok
}

// Formats lists the explicit formats that can be rendered.
func (e *Exporter) Formats() []Format {
	return lo.Filter([]Format{FormatPDF, FormatText, FormatExcel}, func(f Format, _ int) bool {
		_, ok := e.renderers[f]
		return ok
	})
}

// Export renders text for a download named after source. Auto renders a PDF when available and
// plain text otherwise; an explicitly requested format that is unavailable is an error.
func (e *Exporter) Export(text, source string, format Format) (*Artifact, error) {
	fallback := false
	if format == FormatAuto || format == "" {
		format = FormatPDF
		if !e.HasPDF() {
			format, fallback = FormatText, true
		}
	}

	r, ok := e.renderers[format]
	if !ok {
		return nil, apperrors.ErrUnsupportedFormat.With(fmt.Errorf("no %s renderer available", format))
	}

	data, err := r.Render(text)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Name:        artifactName(source, e.defaultName, r.Extension()),
		ContentType: r.ContentType(),
		Data:        data,
		Fallback:    fallback,
	}, nil
}

// ArtifactName strips a literal ".mp3" suffix from source, or uses DefaultName when there is no
// source, and appends ext.
func ArtifactName(source, ext string) string {
	return artifactName(source, DefaultName, ext)
}

func artifactName(source, fallback, ext string) string {
	base := strings.TrimSuffix(source, ".mp3")
	if base == "" {
		base = fallback
	}
	return base + ext
}
