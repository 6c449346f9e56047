// Package dataprocessing turns the utility's operational CSV files into
// in-memory datasets and provides the aggregation helpers the KPI
// calculators are built on.
//
// # Architecture
//
// The package is organized into four parts:
//
// 1. Schema: the declared column types of the six source files
// 2. Parser and Loader: schema-on-read CSV parsing from a URL or directory
// 3. Cache: an immutable snapshot of all datasets from one load cycle
// 4. Aggregation: Average, Sum, GroupBy, UniqueValues and date bucketing
//
// # Usage
//
//	loader := dataprocessing.NewLoader(dataprocessing.NewSource(dir, 30*time.Second))
//	cache := dataprocessing.LoadAll(ctx, loader, 0)
//	avg := dataprocessing.Average(cache.WaterQuality(), "chlorine_mg_l")
//
// # Error Handling
//
// Loading never fails. A dataset that cannot be fetched or parsed is logged
// and stored empty; cells that do not match their declared type are stored
// as missing and reported as ParseWarning values.
//
// # Missing Values
//
// Average ignores missing values entirely while Sum counts them as zero.
// The two policies differ deliberately and callers rely on both.
package dataprocessing
