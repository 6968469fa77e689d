package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Webhook posts events as JSON to a configured URL.
type Webhook struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// NewWebhook returns nil when no URL is configured, which the pipeline
// treats as notifications disabled.
func NewWebhook(url string, timeout time.Duration, logger *slog.Logger) *Webhook {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhook{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

var _ Notifier = (*Webhook)(nil)

func (w *Webhook) Notify(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	w.logger.Debug("notify.webhook.sent", "document_id", e.DocumentID, "stage", e.Stage, "status", e.Status)
	return nil
}
