package openai

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config for the OpenAI-compatible chat completions client.
type Config struct {
	APIKey      string        // empty disables the model source entirely
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g. "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // per-request http timeout
	MaxAttempts int           // bounded retries per Extract call
	BaseBackoff time.Duration // doubled each retry
	TotalBudget time.Duration // wall-clock cap across all attempts
	RatePerMin  int           // client-side request rate limit
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 2 * time.Second
	}
	if cfg.TotalBudget <= 0 {
		cfg.TotalBudget = 90 * time.Second
	}
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 60
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" {
		logger.Warn("llm.openai.no_api_key", "hint", "model source disabled; pattern rules still run")
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), cfg.RatePerMin),
		log:     logger,
	}
}
