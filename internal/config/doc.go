// Package config handles configuration loading for townday.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  session_secret: "${TOWNDAY_SESSION_SECRET}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  addr: ":8080"   # HTTP listener
//	  path: "/mcp"    # agent endpoint path
//
// Database:
//
//	database:
//	  path: "/var/lib/townday/townday.db"
//
// Authentication:
//
//	auth:
//	  session_secret: "${TOWNDAY_SESSION_SECRET}"
//
// Rate limiting (omit or set rps to 0 to disable):
//
//	rate_limit:
//	  rps: 10
//	  burst: 20
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
