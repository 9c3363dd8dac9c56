// Package config handles configuration loading for the backoffice server.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	upstream:
//	  base_url: "${METAMARC_API_URL}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	upstream:
//	  timeout: "15s"
//	session:
//	  ttl: "168h"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  base_url: "https://backoffice.example.com"
//
// Upstream Metamarc API:
//
//	upstream:
//	  base_url: "https://api.metamarc.example.com"
//	  timeout: "15s"
//
// Database (durable session records):
//
//	database:
//	  path: "./data/backoffice.db"
//
// Session lifetime (fallback when the bearer token carries no expiry):
//
//	session:
//	  ttl: "168h"
//
// Logging and metrics:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
