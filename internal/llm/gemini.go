package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	envGeminiAPIKey = "GEMINI_API_KEY"
	envGeminiModel  = "GEMINI_MODEL"
	defaultGeminiModel = "gemini-2.0-flash"
)

// GeminiClient is the primary Client implementation, grounded on
// moolen-spectre's google.golang.org/genai usage. Picked as the
// spec's default provider since the config surface names
// llm.geminiApiKey explicitly.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

// NewGeminiWithLogger builds a Gemini client from GEMINI_API_KEY /
// GEMINI_MODEL env vars.
func NewGeminiWithLogger(logger zerolog.Logger) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(os.Getenv(envGeminiAPIKey))
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set: %w", envGeminiAPIKey, ErrUnconfigured)
	}
	model := strings.TrimSpace(os.Getenv(envGeminiModel))
	if model == "" {
		model = defaultGeminiModel
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model, logger: logger.With().Str("comp", "llm.gemini").Logger()}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.client.Models.GenerateContent(cctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}
