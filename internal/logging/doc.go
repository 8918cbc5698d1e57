// Package logging configures slog output for subforge and provides the
// standardized attribute keys used across pipeline stages.
package logging
