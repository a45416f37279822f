package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/foliohq/folio-auth/internal/ports"
)

// WebhookConfig captures the subset of webhook behaviour we need.
type WebhookConfig struct {
	URL        string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	Logger     *slog.Logger
}

// Webhook delivers session banners to an HTTP webhook (chat integrations,
// on-call surfaces). Delivery is fire-and-forget: failures are logged and
// never reach the session manager's control flow.
type Webhook struct {
	url        string
	username   string
	retryLimit int
	client     *http.Client
	logger     *slog.Logger
}

// NewWebhook builds a webhook notifier. Callers should pass a validated config.
func NewWebhook(cfg WebhookConfig) (*Webhook, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "folio-auth"
	}

	return &Webhook{
		url:        url,
		username:   username,
		retryLimit: retries,
		client:     hc,
		logger:     logger.With("component", "webhook_notifier"),
	}, nil
}

var _ ports.Notifier = (*Webhook)(nil)

func (w *Webhook) Success(ctx context.Context, message string) {
	w.send(ctx, "success", message)
}

func (w *Webhook) Error(ctx context.Context, message string) {
	w.send(ctx, "error", message)
}

func (w *Webhook) send(ctx context.Context, level, message string) {
	body, err := json.Marshal(map[string]any{
		"username": w.username,
		"level":    level,
		"text":     message,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "encode webhook payload failed", "error", err)
		return
	}

	attempts := w.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		lastErr = w.post(ctx, body)
		if lastErr == nil {
			return
		}
		if attempt < attempts-1 {
			// Simple linear backoff to avoid thundering retries.
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				w.logger.WarnContext(ctx, "webhook delivery abandoned", "error", ctx.Err())
				return
			case <-timer.C:
			}
		}
	}

	w.logger.WarnContext(ctx, "webhook delivery failed", "error", lastErr, "level", level)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
