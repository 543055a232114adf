// Package config handles configuration loading for labsyncd.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LABSYNC_CONFIG environment variable
//  2. ~/.config/labsync/labsyncd.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${LABSYNC_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "127.0.0.1:8080"  # JSON API for the lab UI
//
// Database and session credential:
//
//	database:
//	  path: "/var/lib/labsync/labsync.db"
//
//	auth:
//	  jwt_secret: "${LABSYNC_JWT_SECRET}"
//	  credential_path: "/var/lib/labsync/credential"
//	  credential_ttl: "168h"
//
// Bootstrap fixtures:
//
//	fixtures:
//	  seed_file: "seed.toml"  # TOML list of bootstrap users
//
// Logging and metrics:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// # Validation
//
// Load() requires database.path, auth.jwt_secret, and auth.credential_path,
// and checks duration format validity.
package config
