// Package config loads scoop's TOML configuration.
//
// # Configuration Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/scoop/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Fields
//
//	api_url           base URL of the collection store (http://127.0.0.1:7488)
//	collection_path   path of the collection endpoint (/collection)
//	request_timeout   per-request timeout in seconds (5)
//	rate_limit        outgoing requests per second, 0 disables pacing
//	rate_burst        limiter burst (1)
//	refresh_interval  periodic reload in seconds, 0 disables it
//	log_file          JSON log destination (~/.local/share/scoop/scoop.log)
//	log_level         debug, info, warn or error (info)
//	metrics_addr      listen address for /metrics, empty disables it
//	identity          identity to sign in with at startup
//
// Paths starting with ~ are expanded against the user's home directory.
package config
