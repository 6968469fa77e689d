package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"docsentry/internal/common"
	"docsentry/internal/entity"
)

// Result is the conversion service's answer. Text may be nil: a document
// can convert successfully and still contain no extractable text.
type Result struct {
	Text     *string          `json:"text"`
	Metadata *entity.Metadata `json:"metadata"`
}

// Converter turns an original document stream into normalized text.
type Converter interface {
	Convert(ctx context.Context, filename, contentType string, r io.Reader) (Result, error)
}

// Client calls the external conversion service with a multipart upload.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

var _ Converter = (*Client)(nil)

// Convert streams the file to the conversion service and decodes the
// text/metadata answer. Error messages are persisted verbatim on failed
// documents, so they name the stage and carry a bounded upstream body.
func (c *Client) Convert(ctx context.Context, filename, contentType string, r io.Reader) (Result, error) {
	start := time.Now()
	logger := c.logger
	if id := common.DocumentIDFromContext(ctx); id != "" {
		logger = logger.With("document_id", id)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := createFilePart(mw, filename, contentType)
	if err != nil {
		return Result{}, common.InternalErrorf("build multipart body: %v", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return Result{}, common.InternalErrorf("read document stream: %v", err)
	}
	if err := mw.Close(); err != nil {
		return Result{}, common.InternalErrorf("finalize multipart body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return Result{}, common.InternalErrorf("build conversion request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error("convert.client.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return Result{}, common.TransportError(fmt.Sprintf("Network error calling Conversion: %v", err), err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logger.Warn("convert.client.body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	logger.Info("convert.client.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return Result{}, common.UpstreamError(
			fmt.Sprintf("Error from Conversion (%d): %s", resp.StatusCode, common.Truncate(string(raw), 500)),
			common.ErrInternal,
		)
	}

	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, common.UpstreamError("Invalid response from Conversion: not JSON", err)
	}
	if out.Metadata == nil {
		return Result{}, common.UpstreamError("Invalid response from Conversion: missing metadata", common.ErrInvalidInput)
	}
	return out, nil
}

func createFilePart(mw *multipart.Writer, filename, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return mw.CreatePart(h)
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
