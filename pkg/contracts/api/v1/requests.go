// Package api contains API contract definitions for the opsdash HTTP API.
// Version v1 represents the current stable API version.
package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted format of the from and to query parameters.
const DateLayout = "2006-01-02"

// MaxLimit caps the number of raw records a single request may return.
const MaxLimit = 10000

// DateRangeRequest represents a date range in requests
type DateRangeRequest struct {
	From string `json:"from" query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// Bounds returns the parsed range. Zero times mean the side is open. The
// upper bound is the last instant of the To day so the range is inclusive.
func (d DateRangeRequest) Bounds(loc *time.Location) (from, to time.Time, err error) {
	if loc == nil {
		loc = time.Local
	}
	if d.From != "" {
		if from, err = time.ParseInLocation(DateLayout, d.From, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
		}
	}
	if d.To != "" {
		day, perr := time.ParseInLocation(DateLayout, d.To, loc)
		if perr != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to: %w", perr)
		}
		to = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return from, to, nil
}

// Empty reports whether neither side of the range is set.
func (d DateRangeRequest) Empty() bool {
	return d.From == "" && d.To == ""
}

// AnalysisRequest narrows an analysis endpoint to a date range.
type AnalysisRequest struct {
	DateRangeRequest
}

// RecordsRequest represents the query of a raw dataset endpoint.
type RecordsRequest struct {
	DateRangeRequest
	Station string `json:"station" query:"station" validate:"omitempty,max=64,slug"`
	Zone    string `json:"zone" query:"zone" validate:"omitempty,max=64,slug"`
	Limit   int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=10000"`
}

// QueryError reports a query parameter that could not be decoded.
type QueryError struct {
	Param string
	Value string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s must be an integer, got %q", e.Param, e.Value)
}

// NewAnalysisRequest reads an AnalysisRequest from query values.
func NewAnalysisRequest(q url.Values) AnalysisRequest {
	return AnalysisRequest{DateRangeRequest: dateRangeFrom(q)}
}

// NewRecordsRequest reads a RecordsRequest from query values. Only decoding
// happens here; constraints are checked by the validator.
func NewRecordsRequest(q url.Values) (RecordsRequest, error) {
	req := RecordsRequest{
		DateRangeRequest: dateRangeFrom(q),
		Station:          strings.TrimSpace(q.Get("station")),
		Zone:             strings.TrimSpace(q.Get("zone")),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, &QueryError{Param: "limit", Value: raw}
		}
		if n == 0 {
			// 0 would read as "unset" after decoding
			n = -1
		}
		req.Limit = n
	}
	return req, nil
}

func dateRangeFrom(q url.Values) DateRangeRequest {
	return DateRangeRequest{
		From: strings.TrimSpace(q.Get("from")),
		To:   strings.TrimSpace(q.Get("to")),
	}
}
