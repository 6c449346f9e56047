package config

import "time"

// Application constants
const (
	AppName    = "opsdash"
	AppVersion = "1.0.0"

	// Server
	DefaultPort           = 8000
	DefaultRequestTimeout = 60 * time.Second

	// Rate limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Datasets
	DefaultFetchTimeout     = 30 * time.Second
	DefaultMaxConcurrency   = 6
	DefaultMaxParseWarnings = 20

	// WebSocket
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
)
