package dataprocessing

import (
	"fmt"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverage(t *testing.T) {
	tests := []struct {
		name string
		ds   Dataset
		want float64
	}{
		{name: "empty dataset", ds: Dataset{}, want: 0},
		{name: "nil dataset", ds: nil, want: 0},
		{
			name: "all numeric",
			ds:   Dataset{{"x": 1.0}, {"x": 2.0}, {"x": 6.0}},
			want: 3,
		},
		{
			name: "non-numeric excluded from denominator",
			ds:   Dataset{{"x": 1.0}, {"x": "abc"}, {"x": 3.0}},
			want: 2,
		},
		{
			name: "missing and nil excluded",
			ds:   Dataset{{"x": 4.0}, {"x": nil}, {"y": 100.0}},
			want: 4,
		},
		{
			name: "zero is a value",
			ds:   Dataset{{"x": 0.0}, {"x": 10.0}},
			want: 5,
		},
		{
			name: "NaN excluded",
			ds:   Dataset{{"x": math.NaN()}, {"x": 8.0}},
			want: 8,
		},
		{
			name: "numeric text counts",
			ds:   Dataset{{"x": "2.5"}, {"x": 7.5}},
			want: 5,
		},
		{
			name: "no qualifying values",
			ds:   Dataset{{"x": "n/a"}, {"x": nil}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Average(tt.ds, "x"), 1e-9)
		})
	}
}

func TestSumTreatsMissingAsZero(t *testing.T) {
	assert.Equal(t, 5.0, Sum(Dataset{{"x": 5.0}, {"x": nil}}, "x"))
	assert.Equal(t, 5.0, Sum(Dataset{{"x": 5.0}, {}, {"x": "bad"}}, "x"))
	assert.Equal(t, 0.0, Sum(Dataset{}, "x"))
}

func TestAverageAndSumDisagreeOnMissing(t *testing.T) {
	ds := Dataset{{"x": 10.0}, {"x": nil}}

	assert.Equal(t, 10.0, Average(ds, "x"))
	assert.Equal(t, 10.0, Sum(ds, "x"))
	assert.NotEqual(t, Sum(ds, "x")/float64(len(ds)), Average(ds, "x"))
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(5, 0))
	assert.Equal(t, 50.0, Rate(1, 2))
	assert.Equal(t, 100.0, Rate(3, 3))
}

func TestGroupBy(t *testing.T) {
	ds := Dataset{
		{"id": 1.0, "station": "A"},
		{"id": 2.0, "station": nil},
		{"id": 3.0, "station": "B"},
		{"id": 4.0, "station": "A"},
		{"id": 5.0},
		{"id": 6.0, "station": ""},
	}

	groups := GroupBy(ds, "station")
	require.Len(t, groups, 3)

	assert.Equal(t, "A", groups[0].Key)
	assert.False(t, groups[0].Missing)
	assert.Len(t, groups[0].Records, 2)

	assert.True(t, groups[1].Missing, "missing keys share one bucket at first-occurrence position")
	assert.Equal(t, "", groups[1].Key)
	assert.Len(t, groups[1].Records, 3)

	assert.Equal(t, "B", groups[2].Key)
	assert.Len(t, groups[2].Records, 1)
}

func TestGroupByPreservesMultiset(t *testing.T) {
	ds := Dataset{}
	for i := 0; i < 50; i++ {
		r := Record{"id": float64(i)}
		switch i % 4 {
		case 0:
			r["zone"] = "Zone-A"
		case 1:
			r["zone"] = "Zone-B"
		case 2:
			r["zone"] = nil
		}
		ds = append(ds, r)
	}

	var flattened Dataset
	for _, g := range GroupBy(ds, "zone") {
		flattened = append(flattened, g.Records...)
	}

	ids := func(d Dataset) []float64 {
		out := make([]float64, 0, len(d))
		for _, r := range d {
			v, _ := r.Number("id")
			out = append(out, v)
		}
		sort.Float64s(out)
		return out
	}
	if diff := cmp.Diff(ids(ds), ids(flattened)); diff != "" {
		t.Errorf("GroupBy dropped or duplicated records (-want +got):\n%s", diff)
	}
}

func TestGroupByNumericKeys(t *testing.T) {
	groups := GroupBy(Dataset{{"k": 1.0}, {"k": 1.5}, {"k": 1.0}}, "k")
	require.Len(t, groups, 2)
	assert.Equal(t, "1", groups[0].Key)
	assert.Equal(t, "1.5", groups[1].Key)
}

func TestGroupByEmpty(t *testing.T) {
	assert.Equal(t, []Group{}, GroupBy(nil, "k"))
}

func TestUniqueValues(t *testing.T) {
	ds := Dataset{
		{"s": "B"}, {"s": "A"}, {"s": "B"}, {"s": ""}, {"s": nil}, {}, {"s": "C"}, {"s": 0.0},
	}
	if diff := cmp.Diff([]string{"B", "A", "C"}, UniqueValues(ds, "s")); diff != "" {
		t.Errorf("UniqueValues mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{}, UniqueValues(Dataset{}, "s"))
}

func TestFilterByDateRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.Local) }
	ds := Dataset{
		{"ts": day(1)},
		{"ts": day(5)},
		{"ts": day(10)},
		{"ts": "2024-01-07 12:00:00"},
		{"ts": "not a date"},
		{"ts": nil},
	}

	got := FilterByDateRange(ds, day(5), day(10), "ts")
	require.Len(t, got, 3, "both ends inclusive, text dates parsed, bad dates excluded")
	assert.Equal(t, day(5), got[0]["ts"])
	assert.Equal(t, day(10), got[1]["ts"])
	assert.Equal(t, "2024-01-07 12:00:00", got[2]["ts"])
}

func TestDateRange(t *testing.T) {
	ds := Dataset{{"ts": "2024-03-01"}, {"ts": "2024-01-15"}, {"ts": "garbage"}, {"ts": "2024-02-01"}}
	earliest, latest, ok := DateRange(ds, "ts")
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", earliest.Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", latest.Format("2006-01-02"))

	_, _, ok = DateRange(Dataset{{"ts": "nope"}}, "ts")
	assert.False(t, ok)
}

func TestAggregateByMonth(t *testing.T) {
	ds := Dataset{
		{"timestamp": "2024-02-10"},
		{"timestamp": "2024-01-05"},
		{"timestamp": "bad"},
	}

	buckets := AggregateByMonth(ds, "timestamp")
	require.Len(t, buckets, 2)
	assert.Equal(t, "2024-01", buckets[0].Key)
	assert.Equal(t, 1, buckets[0].Count)
	assert.Len(t, buckets[0].Records, 1)
	assert.Equal(t, "2024-02", buckets[1].Key)
	assert.Equal(t, 1, buckets[1].Count)
}

func TestAggregateByDayUsesTimestampZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	ds := Dataset{
		{"ts": time.Date(2024, 1, 2, 1, 0, 0, 0, tokyo)},
		{"ts": time.Date(2024, 1, 1, 23, 0, 0, 0, tokyo)},
		{"ts": time.Date(2024, 1, 2, 8, 0, 0, 0, tokyo)},
	}

	buckets := AggregateByDay(ds, "ts")
	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = fmt.Sprintf("%s:%d", b.Key, b.Count)
	}
	assert.Equal(t, []string{"2024-01-01:1", "2024-01-02:2"}, keys)
}

func TestCountWhereAndFilter(t *testing.T) {
	ds := Dataset{{"ok": "Yes"}, {"ok": "No"}, {"ok": "Yes"}, {}}
	assert.Equal(t, 2, CountWhere(ds, FieldEquals("ok", "Yes")))
	assert.Len(t, Filter(ds, FieldEquals("ok", "No")), 1)
	assert.Equal(t, Dataset{}, Filter(nil, FieldEquals("ok", "No")))
}
