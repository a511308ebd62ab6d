// Package config loads and validates coven-stream configuration files.
//
// # File Format
//
// Configuration is YAML by default, or TOML when the file ends in .toml:
//
//	gateway:
//	  url: http://localhost:8080/api/events
//	  transport: sse
//	  headers:
//	    Authorization: Bearer ${COVEN_TOKEN}
//
//	stream:
//	  max_retries: 5
//	  initial_retry_delay: 1s
//	  max_retry_delay: 30s
//	  heartbeat_interval: 30s
//	  stale_threshold: 60s
//
//	logging:
//	  level: info
//	  format: text
//
// # Environment Variable Expansion
//
// ${VAR_NAME} patterns anywhere in the file are replaced with the value of
// the named environment variable before parsing; unset variables expand to
// the empty string.
//
// # Durations
//
// Duration fields accept Go duration strings ("500ms", "1s", "2m"). Fields
// left empty fall back to the stream package defaults.
//
// # Validation
//
// Load fails fast with a descriptive error when gateway.url is missing, the
// transport is unknown, or a duration string does not parse.
package config
