// Package config loads and validates the TOML configuration file, applying
// defaults and environment fallbacks for provider credentials.
package config
