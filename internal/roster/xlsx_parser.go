package roster

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXParser parses roster templates saved as Excel workbooks. Only the first
// sheet is read.
type XLSXParser struct{}

// NewXLSXParser creates a new XLSX parser
func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse opens the workbook and scans the first sheet.
func (p *XLSXParser) Parse(r io.Reader) ([]Skater, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ErrMalformedFile
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []Skater{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ErrMalformedFile
	}

	s := newScanner()
	for i, row := range rows {
		if err := s.add(i+1, row); err != nil {
			return nil, err
		}
	}
	return s.result(), nil
}
