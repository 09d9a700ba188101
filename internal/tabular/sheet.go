package tabular

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// zipMagic opens every OOXML workbook.
var zipMagic = []byte("PK\x03\x04")

// LooksLikeWorkbook reports whether data starts like an .xlsx file.
func LooksLikeWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// SheetNotFoundError reports a workbook without the requested worksheet.
type SheetNotFoundError struct {
	Sheet string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("worksheet %q not found", e.Sheet)
}

// SheetNames lists the worksheets of a workbook.
func SheetNames(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return f.GetSheetList(), nil
}

// ReadSheet returns the header and data rows of the named worksheet, using
// the same header zip and blank-row rules as the text tokenizers. An empty
// sheet name reads the first worksheet.
func ReadSheet(data []byte, sheet string) ([]string, []Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil, &SheetNotFoundError{Sheet: sheet}
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	headers, rows := splitHeader(raw)
	return headers, zip(headers, rows), nil
}
