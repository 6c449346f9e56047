package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "opsdash/internal/errors"
	"opsdash/internal/shared/testutil"
)

func TestQueryValidator_RecordsRequest(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewQueryValidator(logger)

	tests := []struct {
		name      string
		query     string
		wantField string
		wantLimit int
	}{
		{name: "empty query", query: ""},
		{name: "full query", query: "from=2024-01-01&to=2024-01-31&station=Station-01-Downtown&limit=50", wantLimit: 50},
		{name: "same day range", query: "from=2024-01-01&to=2024-01-01"},
		{name: "bad from", query: "from=01/02/2024", wantField: "from"},
		{name: "impossible date", query: "to=2024-02-30", wantField: "to"},
		{name: "reversed range", query: "from=2024-02-01&to=2024-01-01", wantField: "to"},
		{name: "station with spaces", query: "station=Station%2001", wantField: "station"},
		{name: "zone with slash", query: "zone=..%2Fetc", wantField: "zone"},
		{name: "limit zero", query: "limit=0", wantField: "limit"},
		{name: "limit too large", query: "limit=10001", wantField: "limit"},
		{name: "limit not a number", query: "limit=ten", wantField: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/water-quality?"+tt.query, nil)
			got, err := v.RecordsRequest(req)

			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantLimit, got.Limit)
				return
			}

			require.Error(t, err)
			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.([]apierrors.ValidationError)
			require.True(t, ok)
			require.NotEmpty(t, details)
			assert.Equal(t, tt.wantField, details[0].Field)
			assert.Equal(t, details[0].Message, apiErr.Message)
		})
	}
}

func TestQueryValidator_AnalysisRequest(t *testing.T) {
	v := NewQueryValidator(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/energy/analysis?from=2024-01-01&to=2024-03-31", nil)
	got, err := v.AnalysisRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", got.From)
	assert.Equal(t, "2024-03-31", got.To)

	req = httptest.NewRequest(http.MethodGet, "/api/energy/analysis?from=2024-13-01", nil)
	_, err = v.AnalysisRequest(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}
