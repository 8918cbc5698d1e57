// Package services defines the shared error taxonomy for external
// collaborators (subtitle providers, alignment, remux) and the helpers the
// orchestrator uses to classify stage failures.
package services
