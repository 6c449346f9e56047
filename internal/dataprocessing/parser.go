package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv has no header row")

// ParseWarning describes a cell whose text did not match its declared type.
// The cell is stored as missing.
type ParseWarning struct {
	Dataset  string
	Line     int
	Field    string
	Value    string
	Expected FieldType
}

func (w ParseWarning) Error() string {
	return fmt.Sprintf("%s line %d: field %q value %q is not a %s", w.Dataset, w.Line, w.Field, w.Value, w.Expected)
}

// MarshalText lets warnings travel in JSON status payloads as plain strings.
func (w ParseWarning) MarshalText() ([]byte, error) {
	return []byte(w.Error()), nil
}

// ParseCSV reads a header row followed by data rows and converts every cell
// according to schema. Blank lines are skipped, header names are trimmed and
// a UTF-8 BOM is dropped. Rows shorter than the header leave the remaining
// fields missing; extra cells are ignored.
//
// A cell that does not match its declared type is stored as nil and reported
// as a ParseWarning. Only an unreadable header or a reader failure is an error.
func ParseCSV(r io.Reader, schema Schema, loc *time.Location) (Dataset, []ParseWarning, error) {
	if loc == nil {
		loc = time.Local
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Dataset{}, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	fields := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		fields[i] = strings.TrimSpace(h)
	}
	types := make([]FieldType, len(fields))
	for i, f := range fields {
		types[i] = schema.TypeOf(f)
	}

	dataset := Dataset{}
	var warnings []ParseWarning

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, warnings, fmt.Errorf("failed to read row: %w", err)
		}
		if blankRow(row) {
			continue
		}
		line, _ := reader.FieldPos(0)

		record := make(Record, len(fields))
		for i, field := range fields {
			if field == "" {
				continue
			}
			if i >= len(row) {
				record[field] = nil
				continue
			}
			value, ok := parseCell(row[i], types[i], loc)
			if !ok {
				warnings = append(warnings, ParseWarning{
					Dataset:  schema.Name,
					Line:     line,
					Field:    field,
					Value:    row[i],
					Expected: types[i],
				})
			}
			record[field] = value
		}
		dataset = append(dataset, record)
	}

	return dataset, warnings, nil
}

// parseCell converts text to the declared type. Blank text is missing and
// not a mismatch.
func parseCell(text string, t FieldType, loc *time.Location) (any, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, true
	}

	switch t {
	case Number:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	case Flag:
		switch strings.ToLower(s) {
		case "true", "yes":
			return true, true
		case "false", "no":
			return false, true
		}
		return nil, false
	case Timestamp:
		ts, ok := ParseTimestamp(s, loc)
		if !ok {
			return nil, false
		}
		return ts, true
	default:
		return s, true
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
