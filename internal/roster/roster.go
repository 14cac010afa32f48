// Package roster turns uploaded roster templates into skater records.
//
// A template is any row-oriented file (CSV or an Excel workbook) with a header
// row naming a uniform_nbr and a derby_name column. Rows above the header are
// ignored, every row below it becomes one skater. The parser bounds both the
// number of rows it reads and the number of skaters it accepts so that a wrong
// or garbage file is rejected early.
package roster

import (
	"errors"
	"io"
	"strings"
)

// Column names that identify the header row.
const (
	NumberColumn = "uniform_nbr"
	NameColumn   = "derby_name"
)

const (
	// MaxRows is the number of rows read before a file is considered malformed.
	MaxRows = 50
	// MaxSkaters is the number of skaters a single roster may hold.
	MaxSkaters = 20
)

var (
	// ErrMalformedFile is returned when a file exceeds the template bounds or
	// cannot be read at all. Its text is shown to the uploader as is.
	ErrMalformedFile = errors.New("Looks like something went funny with your file. Please download a new copy of the template and try again.")

	// ErrUnsupportedFormat is returned by the Factory for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported roster file type")
)

// Skater is one parsed roster line. Number is kept as the text found in the
// file, it is not checked for being numeric or unique.
type Skater struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// Parser reads a roster file.
type Parser interface {
	Parse(r io.Reader) ([]Skater, error)
}

// scanner holds the header state while rows are fed in file order.
type scanner struct {
	nameIdx   int
	numberIdx int
	header    bool
	skaters   []Skater
}

func newScanner() *scanner {
	return &scanner{skaters: []Skater{}}
}

// add consumes one row. rowNum is the 1-based position of the row in the file,
// counting blank lines.
func (s *scanner) add(rowNum int, row []string) error {
	if len(row) < 2 {
		return nil
	}

	if rowNum > MaxRows {
		return ErrMalformedFile
	}

	if !s.header {
		s.detectHeader(row)
		return nil
	}

	s.skaters = append(s.skaters, Skater{
		Name:   cell(row, s.nameIdx),
		Number: cell(row, s.numberIdx),
	})
	if len(s.skaters) > MaxSkaters {
		return ErrMalformedFile
	}
	return nil
}

func (s *scanner) detectHeader(row []string) {
	nameIdx, numberIdx := -1, -1
	for i, v := range row {
		if i == 0 {
			v = strings.TrimPrefix(v, "\ufeff")
		}
		switch v {
		case NameColumn:
			if nameIdx < 0 {
				nameIdx = i
			}
		case NumberColumn:
			if numberIdx < 0 {
				numberIdx = i
			}
		}
	}
	if nameIdx >= 0 && numberIdx >= 0 {
		s.nameIdx, s.numberIdx, s.header = nameIdx, numberIdx, true
	}
}

// result returns the accumulated skaters. A file that never produced a header
// yields an empty roster.
func (s *scanner) result() []Skater {
	return s.skaters
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
