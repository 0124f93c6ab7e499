package ai

import (
	"context"
	"edu_ai_backend/internal/config"
	"edu_ai_backend/internal/util"
	"edu_ai_backend/pkg/monitoring"
	"fmt"
	"math/rand"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 60 * time.Second
	defaultMaxTokens  = 4096
	defaultMaxRetries = 2
	retryBaseDelay    = 2 * time.Second
)

// Client wraps the generative model API behind the single Complete
// call the pipeline needs. Calls are rate limited client-side, carry a
// wall-clock timeout and retry transient failures with jittered
// backoff. The model output is untrusted; callers parse defensively.
type Client struct {
	api        *openai.Client
	model      string
	maxTokens  int
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	log        *zap.Logger
}

func NewClient(cfg config.AIConfig, log *zap.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		maxTokens:  maxTokens,
		timeout:    timeout,
		maxRetries: maxRetries,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		log:        log,
	}
}

// Complete sends one prompt and returns the raw text of the first
// choice. jsonMode asks the provider for a JSON-object response when
// it supports that; the caller must still treat the output as loose
// text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, jsonMode bool) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay*time.Duration(1<<(attempt-1)) + time.Duration(rand.Int63n(int64(time.Second)))
			c.log.Warn("retrying model call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := c.complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("model call failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	monitoring.OracleCallDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", util.ErrOracleNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
