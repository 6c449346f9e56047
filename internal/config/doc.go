// Package config provides centralized configuration management for opsdash.
//
// # Configuration Sources
//
// Configuration is layered, later layers winning:
//
//	1. Default()
//	2. A YAML file: $OPSDASH_CONFIG, ./config.yaml, ./configs/config.yaml
//	   or config.yaml next to the executable
//	3. Environment variables with the OPSDASH_ prefix
//
// # Environment Variables
//
// Nested sections are joined with underscores:
//
//	OPSDASH_SERVER_PORT=8000
//	OPSDASH_DATASETS_SOURCE=https://cdn.example.com/datasets
//	OPSDASH_DATASETS_REFRESH_SCHEDULE="*/15 * * * *"
//	OPSDASH_LOGGING_LEVEL=debug
//
// # Path Management
//
// Paths are resolved relative to the executable through GetPaths. When no
// dataset source is configured the loader reads data/datasets below the
// executable directory.
package config
