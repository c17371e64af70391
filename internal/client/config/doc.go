// Package config loads runtime configuration for the ViQi client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: VIQI_* variables, merged over an optional dotenv file
//     (--env-file, or ".env" in the working directory when present).
//  3. Optional JSON file selected with -c, -config or --config (or VIQI_CONFIG).
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	--api-url string          backend base URL
//	--app-url string          app base URL for checkout return links
//	--store string            local SQLite store path
//	--timeout duration        per-request timeout
//	--online-interval duration online status check interval
//	--max-results int         contacts requested per query
//	-m, --mode string         poc or account
//	--log-level string        debug, info, warn, error
//	--fresh                   start with an empty session
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "api_base_url": "https://api.viqi.example",
//	  "request_timeout": "15s",
//	  "online_check_interval": "10s",
//	  "matching_mode": "account"
//	}
package config
