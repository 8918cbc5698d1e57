// Package notifications pushes run summaries to an ntfy topic. It is fully
// optional: an empty topic disables every call.
package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"subforge/internal/logging"
)

// Notifier posts messages to an ntfy.sh compatible endpoint.
type Notifier struct {
	Topic      string
	Timeout    time.Duration
	Completion bool
	Errors     bool
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Enabled reports whether notifications are configured.
func (n *Notifier) Enabled() bool {
	return n != nil && strings.TrimSpace(n.Topic) != ""
}

// RunCompleted announces a finished batch. Failures are logged, never
// propagated: a notification must not fail a run.
func (n *Notifier) RunCompleted(ctx context.Context, processed, failed, skipped int) {
	if !n.Enabled() || !n.Completion {
		return
	}
	title := "subtitle run complete"
	message := fmt.Sprintf("%d processed, %d failed, %d skipped", processed, failed, skipped)
	n.send(ctx, title, message, "white_check_mark")
}

// RunFailed announces a batch that could not run at all.
func (n *Notifier) RunFailed(ctx context.Context, reason string) {
	if !n.Enabled() || !n.Errors {
		return
	}
	n.send(ctx, "subtitle run failed", reason, "rotating_light")
}

func (n *Notifier) send(ctx context.Context, title, message, tags string) {
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := n.Topic
	if !strings.Contains(url, "://") {
		url = "https://ntfy.sh/" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
	if err != nil {
		n.logger().Warn("build notification request failed", logging.Error(err))
		return
	}
	req.Header.Set("Title", title)
	req.Header.Set("Tags", tags)

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		n.logger().Warn("notification delivery failed", logging.Error(err))
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= 400 {
		n.logger().Warn("notification rejected", logging.String("status", resp.Status))
	}
}

func (n *Notifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return logging.NewNop()
}
