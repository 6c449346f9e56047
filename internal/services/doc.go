// Package services implements the business logic layer of opsdash. It sits
// between the HTTP handlers and the dataset loader.
//
// # Services
//
//	- DataService owns the current dataset snapshot and reloads it. Reloads
//	  are single-flight: concurrent callers share one load and all observe
//	  the same snapshot. Listeners registered with Subscribe run after every
//	  completed reload.
//	- AnalyticsService turns a snapshot into response payloads using the kpi
//	  package. It never mutates the snapshot.
//	- RefreshScheduler triggers DataService.Reload on a cron schedule.
//	- HealthService reports liveness and readiness.
//
// # Snapshots
//
// A snapshot (*dataprocessing.Cache) is immutable. DataService swaps the
// pointer atomically, so a request that started on an old snapshot finishes
// on it while new requests see the new one.
//
// Services take a *slog.Logger through their constructors and add a
// "component" attribute to it.
package services
