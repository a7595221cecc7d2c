package export

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tealeg/xlsx"
)

// ExcelRenderer writes a single "Transcription" sheet: a header row and one row with the text.
type ExcelRenderer struct{}

func (ExcelRenderer) Render(text string) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transcription")
	if err != nil {
		return nil, fmt.Errorf("adding sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	headerRow.AddCell().Value = "Transcription"
	headerRow.AddCell().Value = "Characters"
	headerRow.AddCell().Value = "Words"

	row := sheet.AddRow()
	row.AddCell().Value = text
	row.AddCell().SetInt(utf8.RuneCountInString(text))
	row.AddCell().SetInt(len(strings.Fields(text)))

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (ExcelRenderer) Extension() string { return ".xlsx" }
func (ExcelRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
