package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const (
	envAnthropicAPIKey    = "ANTHROPIC_API_KEY"
	envAnthropicModel     = "ANTHROPIC_MODEL"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultMaxTokens      = 1024
)

// AnthropicClient is an alternate Client backed by the official SDK,
// replacing the teacher's hand-rolled net/http caller while keeping
// its retry/backoff posture.
type AnthropicClient struct {
	client anthropic.Client
	model  string
	logger zerolog.Logger
}

func NewAnthropicWithLogger(logger zerolog.Logger) (*AnthropicClient, error) {
	apiKey := strings.TrimSpace(os.Getenv(envAnthropicAPIKey))
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set: %w", envAnthropicAPIKey, ErrUnconfigured)
	}
	model := strings.TrimSpace(os.Getenv(envAnthropicModel))
	if model == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{client: client, model: model, logger: logger.With().Str("comp", "llm.anthropic").Logger()}, nil
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := c.client.Messages.New(cctx, params)
		if err == nil {
			var b strings.Builder
			for _, block := range resp.Content {
				if block.Type == "text" {
					b.WriteString(block.Text)
				}
			}
			return b.String(), nil
		}
		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("anthropic call failed, retrying")
		select {
		case <-time.After(backoff):
		case <-cctx.Done():
			return "", cctx.Err()
		}
		backoff *= 2
	}
	return "", fmt.Errorf("anthropic call failed after retries: %w", lastErr)
}
