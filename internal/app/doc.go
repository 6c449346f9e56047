// Package app wires the opsdash server together: configuration, logging,
// OpenTelemetry, the dataset loader and snapshot service, the refresh
// schedule, the websocket hub and the chi router.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML file, OPSDASH_* environment)
//	2. Initialize logging and OpenTelemetry providers
//	3. Build the loader, DataService, AnalyticsService and RefreshScheduler
//	4. Create the websocket hub and subscribe it to dataset reloads
//	5. Set up middleware and routes
//
// New performs steps 2 to 5 for an already loaded configuration and does
// not touch the network. Start runs the initial dataset load, starts the
// hub and the schedule, and begins serving.
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then Stop:
//
//	- stops accepting requests and drains in-flight ones
//	- halts the refresh schedule, waiting for a running reload
//	- closes websocket clients with a going-away frame
//	- flushes telemetry
//
// The package never calls os.Exit; errors are returned to main.
package app
