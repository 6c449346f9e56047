// Package kpi computes the dashboard's key performance indicators from the
// operational datasets.
//
// Every calculator is a pure function of its input datasets. An empty
// dataset yields the zero value of the summary type: all fields present,
// numeric fields 0. Empty input, no data yet and everything filtered out are
// therefore indistinguishable to callers.
//
// Percentages are in [0,100]. Averages skip missing values and sums count
// them as zero, following dataprocessing.Average and dataprocessing.Sum.
//
// # Files
//
//   - water_quality.go: compliance and chemistry by station
//   - distribution.go: flow, pressure and non-revenue water by zone
//   - energy.go: consumption, cost and pumping efficiency by facility
//   - maintenance.go: work orders by asset type and failure mode
//   - customer.go: billing, collections and complaints
//   - compliance.go: regulatory report and threshold alerts
//
// Breakdowns come back in first-occurrence order of the group key; sorting
// is left to the caller.
package kpi
