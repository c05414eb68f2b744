// Package config loads, normalizes, and validates the engine configuration.
//
// Configuration lives in a TOML file (default ~/.config/turnstile/config.toml)
// covering paths, database location, ETL tuning, and logging. The feed
// catalog is intentionally not part of this file; it is a separate YAML
// document handled by the feeds package so operators can edit the feed list
// without touching engine settings.
package config
