package api

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRangeRequest_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		req      DateRangeRequest
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{
			name: "open",
			req:  DateRangeRequest{},
		},
		{
			name:     "both sides",
			req:      DateRangeRequest{From: "2024-01-01", To: "2024-01-31"},
			wantFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:   "to only",
			req:    DateRangeRequest{To: "2024-02-29"},
			wantTo: time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC),
		},
		{name: "bad from", req: DateRangeRequest{From: "2024-13-01"}, wantErr: true},
		{name: "bad to", req: DateRangeRequest{To: "yesterday"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := tt.req.Bounds(time.UTC)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantFrom.Equal(from), "from = %v", from)
			assert.True(t, tt.wantTo.Equal(to), "to = %v", to)
		})
	}
}

func TestDateRangeRequest_BoundsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	from, _, err := DateRangeRequest{From: "2024-01-01"}.Bounds(loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 31, 21, 0, 0, 0, time.UTC), from.UTC())

	_, _, err = DateRangeRequest{From: "2024-01-01"}.Bounds(nil)
	assert.NoError(t, err)
}

func TestDateRangeRequest_Empty(t *testing.T) {
	assert.True(t, DateRangeRequest{}.Empty())
	assert.False(t, DateRangeRequest{To: "2024-01-01"}.Empty())
}

func TestNewRecordsRequest(t *testing.T) {
	q := url.Values{}
	q.Set("from", " 2024-01-01 ")
	q.Set("station", "Station-01-Downtown")
	q.Set("limit", "25")

	req, err := NewRecordsRequest(q)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", req.From)
	assert.Empty(t, req.To)
	assert.Equal(t, "Station-01-Downtown", req.Station)
	assert.Empty(t, req.Zone)
	assert.Equal(t, 25, req.Limit)
}

func TestNewRecordsRequest_Limit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "0", want: -1},
		{raw: "-5", want: -5},
		{raw: "ten", wantErr: true},
		{raw: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req, err := NewRecordsRequest(url.Values{"limit": {tt.raw}})
			if tt.wantErr {
				var qerr *QueryError
				require.ErrorAs(t, err, &qerr)
				assert.Equal(t, "limit", qerr.Param)
				assert.Equal(t, `limit must be an integer, got "`+tt.raw+`"`, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Limit)
		})
	}
}

func TestNewAnalysisRequest(t *testing.T) {
	req := NewAnalysisRequest(url.Values{"to": {"2024-03-31"}})
	assert.Equal(t, "2024-03-31", req.To)
	assert.Empty(t, req.From)
}
