package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for the pipeline. Provider and candidate failures are
// contained at the language granularity; embed and archival failures are
// fatal to the asset but never to the batch.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrNoCandidate         = errors.New("no candidate found")
	ErrSyncFailure         = errors.New("synchronization failure")
	ErrEmbedFailure        = errors.New("embed failure")
	ErrArchivalFailure     = errors.New("archival failure")
	ErrConfiguration       = errors.New("configuration error")
	ErrExternalTool        = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error should be retried with backoff before
// being treated as "no candidate from this provider".
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
