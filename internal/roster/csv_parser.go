package roster

import (
	"encoding/csv"
	"errors"
	"io"
)

// CSVParser parses comma separated roster templates.
type CSVParser struct{}

// NewCSVParser creates a new CSV parser
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads r row by row and stops at the first bound violation.
func (p *CSVParser) Parse(r io.Reader) ([]Skater, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	s := newScanner()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ErrMalformedFile
		}

		// encoding/csv drops blank lines, the line number keeps them counted.
		line, _ := reader.FieldPos(0)
		if err := s.add(line, record); err != nil {
			return nil, err
		}
	}
	return s.result(), nil
}
