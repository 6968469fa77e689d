package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docsentry/internal/common"
	"docsentry/internal/entity"
)

// Client calls a remote detection service over HTTP. It satisfies Detector
// so the pipeline can swap it for the in-process Engine.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type detectRequest struct {
	Text string `json:"text"`
}

// Detect posts the text to the service and decodes the item list.
func (c *Client) Detect(ctx context.Context, text string) ([]entity.DetectedItem, error) {
	start := time.Now()

	bs, err := json.Marshal(detectRequest{Text: text})
	if err != nil {
		return nil, common.InternalErrorf("encode detect request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(bs))
	if err != nil {
		return nil, common.InternalErrorf("build detect request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("detect.client.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, common.TransportError("call detection service", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("detect.client.body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("detect.client.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, common.UpstreamError(
			fmt.Sprintf("detection service status %d: %s", resp.StatusCode, common.Truncate(string(raw), 500)),
			common.ErrInternal,
		)
	}

	var items []entity.DetectedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, common.UpstreamError("decode detection response", err)
	}
	if items == nil {
		items = []entity.DetectedItem{}
	}
	return items, nil
}
