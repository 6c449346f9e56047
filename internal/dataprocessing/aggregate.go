package dataprocessing

import (
	"sort"
	"time"
)

// Average is the mean of the numeric values of field. Records where the
// field is missing or not a number are left out of both the sum and the
// count. Returns 0 when no record qualifies.
//
// Sum uses a different policy on purpose; see Sum.
func Average(ds Dataset, field string) float64 {
	var total float64
	var n int
	for _, r := range ds {
		if v, ok := r.Number(field); ok {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Sum adds the numeric values of field, counting missing and non-numeric
// values as 0. Unlike Average, a record never needs to qualify.
func Sum(ds Dataset, field string) float64 {
	var total float64
	for _, r := range ds {
		if v, ok := r.Number(field); ok {
			total += v
		}
	}
	return total
}

// Rate returns part/total*100, or 0 when total is 0.
func Rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// CountWhere counts records matching pred.
func CountWhere(ds Dataset, pred func(Record) bool) int {
	n := 0
	for _, r := range ds {
		if pred(r) {
			n++
		}
	}
	return n
}

// Filter returns the records matching pred, in order.
func Filter(ds Dataset, pred func(Record) bool) Dataset {
	out := Dataset{}
	for _, r := range ds {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// FieldEquals is a predicate for Filter and CountWhere.
func FieldEquals(field, literal string) func(Record) bool {
	return func(r Record) bool { return r.Is(field, literal) }
}

// Group is one partition produced by GroupBy.
type Group struct {
	Key string
	// Missing marks the single bucket holding records without a key value.
	Missing bool
	Records Dataset
}

// GroupBy partitions ds by the string form of field. Groups appear in the
// order their key first occurs. Records whose key is missing or blank are
// not dropped and not merged into a real key: they share one group with
// Missing set and an empty Key, positioned like any other group.
func GroupBy(ds Dataset, field string) []Group {
	var groups []Group
	index := make(map[string]int)
	missing := -1

	for _, r := range ds {
		if r.Missing(field) {
			if missing < 0 {
				missing = len(groups)
				groups = append(groups, Group{Missing: true, Records: Dataset{}})
			}
			groups[missing].Records = append(groups[missing].Records, r)
			continue
		}
		key := r.Text(field)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Records: Dataset{}})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	if groups == nil {
		return []Group{}
	}
	return groups
}

// UniqueValues returns the distinct truthy values of field in first
// occurrence order.
func UniqueValues(ds Dataset, field string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range ds {
		if !r.Truthy(field) {
			continue
		}
		v := r.Text(field)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// FilterByDateRange keeps records whose field lies within [start, end],
// both ends inclusive. Records without a parsable date are dropped.
func FilterByDateRange(ds Dataset, start, end time.Time, field string) Dataset {
	return Filter(ds, func(r Record) bool {
		t, ok := r.Time(field)
		return ok && !t.Before(start) && !t.After(end)
	})
}

// DateRange returns the earliest and latest parsable date of field.
func DateRange(ds Dataset, field string) (earliest, latest time.Time, ok bool) {
	for _, r := range ds {
		t, valid := r.Time(field)
		if !valid {
			continue
		}
		if !ok || t.Before(earliest) {
			earliest = t
		}
		if !ok || t.After(latest) {
			latest = t
		}
		ok = true
	}
	return earliest, latest, ok
}

// Bucket is one calendar period of a time aggregation.
type Bucket struct {
	Key     string  `json:"key"`
	Records Dataset `json:"-"`
	Count   int     `json:"count"`
}

// AggregateByMonth buckets records by YYYY-MM of field, ascending. The
// calendar is taken in each timestamp's own zone, which is the loader's
// zone (local by default). Records without a parsable date are dropped.
func AggregateByMonth(ds Dataset, field string) []Bucket {
	return aggregateBy(ds, field, "2006-01")
}

// AggregateByDay is AggregateByMonth with YYYY-MM-DD buckets.
func AggregateByDay(ds Dataset, field string) []Bucket {
	return aggregateBy(ds, field, "2006-01-02")
}

func aggregateBy(ds Dataset, field, layout string) []Bucket {
	index := make(map[string]int)
	buckets := []Bucket{}
	for _, r := range ds {
		t, ok := r.Time(field)
		if !ok {
			continue
		}
		key := t.Format(layout)
		i, seen := index[key]
		if !seen {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key, Records: Dataset{}})
		}
		buckets[i].Records = append(buckets[i].Records, r)
		buckets[i].Count++
	}
	sort.Slice(buckets, func(a, b int) bool { return buckets[a].Key < buckets[b].Key })
	return buckets
}
