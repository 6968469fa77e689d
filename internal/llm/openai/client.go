package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsentry/constants"
	"docsentry/internal/detect"
	"docsentry/internal/llm"
)

// Extract implements detect.Extractor over chat/completions. A missing API
// key or exhausted retries are not errors: the model source contributes an
// empty list and the pattern rules carry the run.
func (c *Client) Extract(ctx context.Context, text string) ([]detect.Finding, error) {
	if c.cfg.APIKey == "" {
		return []detect.Finding{}, nil
	}

	rid := uuid.New().String()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TotalBudget)
	defer cancel()

	schema := llm.BuildDetectionJSONSchema(constants.AsStringSlice())
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(constants.AsStringSlice(), detect.RuleLabels())},
			{"role": "user", "content": llm.BuildUserPrompt(text)},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	c.log.Info("llm.extract.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.cfg.BaseBackoff * time.Duration(1<<(attempt-2))
			c.log.Warn("llm.extract.retry", "req_id", rid, "attempt", attempt, "backoff", backoff, "error", lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = c.cfg.MaxAttempts // budget spent
				continue
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		items, err := c.once(ctx, rid, endpoint, body, headers, schema)
		if err != nil {
			lastErr = err
			continue
		}

		findings := toFindings(items)
		c.log.Info("llm.extract.ok",
			"req_id", rid,
			"attempt", attempt,
			"items", len(findings),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return findings, nil
	}

	c.log.Error("llm.extract.exhausted",
		"req_id", rid,
		"attempts", c.cfg.MaxAttempts,
		"error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []detect.Finding{}, nil
}

// once performs a single request/parse cycle.
func (c *Client) once(ctx context.Context, rid, endpoint string, body map[string]any, headers map[string]string, schema map[string]any) ([]llm.Item, error) {
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	// Strict pass first: the content should be exactly the schema'd array.
	if err := llm.ValidateJSONAgainstSchema(schema, content); err == nil {
		var items []llm.Item
		if uErr := json.Unmarshal(content, &items); uErr == nil {
			return items, nil
		}
	}

	items, strategy, err := llm.DecodeLenient(content)
	if err != nil {
		c.log.Error("llm.extract.undecodable", "req_id", rid, "content_len", len(content))
		return nil, err
	}
	c.log.Warn("llm.extract.lenient_decode", "req_id", rid, "strategy", strategy, "items", len(items))
	return items, nil
}

func toFindings(items []llm.Item) []detect.Finding {
	findings := make([]detect.Finding, 0, len(items))
	for _, it := range items {
		value := strings.TrimSpace(it.Value)
		if value == "" {
			continue
		}
		cat, _ := constants.Canonicalize(it.Type)
		label := strings.TrimSpace(it.Label)
		if label == "" {
			label = "UNKNOWN"
		}
		findings = append(findings, detect.Finding{
			Category: cat,
			Value:    it.Value,
			Label:    label,
			Source:   detect.SourceModel,
		})
	}
	return findings
}
