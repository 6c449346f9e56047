package exporter

import (
	"strconv"
	"strings"
	"unicode"
)

// formatFloat formats a float64 value for report output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatInt formats an int value for report output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// fileName turns a table name into a lower-case file stem:
// "NRW by Zone" -> "nrw_by_zone".
func fileName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
