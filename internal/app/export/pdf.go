package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer lays the transcription out as wrapped text on A4 pages.
type PDFRenderer struct {
	FontSize float64
	Margin   float64
	// Now stamps the document; nil means time.Now.
	Now func() time.Time
}

// NewPDFRenderer returns a renderer with the default layout.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{FontSize: 12, Margin: 10}
}

func (r *PDFRenderer) Render(text string) ([]byte, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(r.Margin, r.Margin, r.Margin)
	pdf.SetAutoPageBreak(true, r.Margin)
	pdf.SetCreationDate(now())
	pdf.SetTitle("Transcription", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", r.FontSize)

	// Core fonts are cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.MultiCell(0, r.FontSize*0.5, tr(text), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) Extension() string   { return ".pdf" }
func (r *PDFRenderer) ContentType() string { return "application/pdf" }
