package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the canonical text form of timestamps in the source files.
const TimestampLayout = "2006-01-02 15:04:05"

// timestampLayouts are tried in order when parsing timestamp text.
var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
}

// Record is one CSV row. Values are float64, string, bool, time.Time or
// nil for a missing cell.
type Record map[string]any

// Dataset is an ordered sequence of records from one source file.
type Dataset []Record

// Len returns the number of records.
func (d Dataset) Len() int { return len(d) }

// Number returns the numeric value of field. Numeric text is accepted so that
// undeclared columns still aggregate; anything else, NaN and Inf are not numbers.
func (r Record) Number(field string) (float64, bool) {
	var f float64
	switch v := r[field].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text returns field as a string, "" when missing.
func (r Record) Text(field string) string {
	return stringify(r[field])
}

// Time returns the timestamp held in field. Text values are parsed with the
// accepted layouts in the local zone.
func (r Record) Time(field string) (time.Time, bool) {
	switch v := r[field].(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		return ParseTimestamp(v, time.Local)
	default:
		return time.Time{}, false
	}
}

// Is reports whether field holds exactly literal.
func (r Record) Is(field, literal string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return false
	}
	return stringify(v) == literal
}

// Missing reports whether field is absent, nil or blank text.
func (r Record) Missing(field string) bool {
	v, ok := r[field]
	if !ok || v == nil {
		return true
	}
	if s, isText := v.(string); isText {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Truthy follows the dashboard's filter convention: missing values, blank
// text, zero, NaN and false do not count.
func (r Record) Truthy(field string) bool {
	switch v := r[field].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case time.Time:
		return !v.IsZero()
	default:
		f, ok := r.Number(field)
		return ok && f != 0
	}
}

// ParseTimestamp parses s with the accepted layouts in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(TimestampLayout)
	default:
		return ""
	}
}
