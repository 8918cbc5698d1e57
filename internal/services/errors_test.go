package services_test

import (
	"errors"
	"testing"

	"subforge/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrProviderUnavailable, "acquiring", "query", "primary provider unreachable", cause)
	if !errors.Is(err, services.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable marker, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	want := "provider unavailable: acquiring: query: primary provider unreachable: connection refused"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapWithoutCauseOrMarker(t *testing.T) {
	err := services.Wrap(nil, "embedding", "", "remux produced no output", nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool fallback marker, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	if !services.Retryable(services.Wrap(services.ErrProviderUnavailable, "acquiring", "query", "timeout", nil)) {
		t.Fatal("provider unavailable should be retryable")
	}
	if services.Retryable(services.Wrap(services.ErrNoCandidate, "acquiring", "query", "empty", nil)) {
		t.Fatal("no candidate should not be retryable")
	}
}
