package kpi

import (
	"strings"

	dp "opsdash/internal/dataprocessing"
)

// UnknownGroup labels the breakdown row for records without a group key.
const UnknownGroup = "Unknown"

// groupLabel is the raw key of g, or UnknownGroup for the missing bucket.
func groupLabel(g dp.Group) string {
	if g.Missing {
		return UnknownGroup
	}
	return g.Key
}

// stationName turns "Station-03-Residential-North" into "03 Residential North".
func stationName(g dp.Group) string {
	if g.Missing {
		return UnknownGroup
	}
	return strings.ReplaceAll(strings.TrimPrefix(g.Key, "Station-"), "-", " ")
}

// zoneName turns "Zone-H-Hills" into "H-Hills".
func zoneName(g dp.Group) string {
	if g.Missing {
		return UnknownGroup
	}
	return strings.TrimPrefix(g.Key, "Zone-")
}

// percentOf returns part/total*100, or 0 when total is 0.
func percentOf(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}
