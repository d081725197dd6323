// Package llm provides a vendor-neutral text-completion client used
// by internal/decision and internal/planner to get a single JSON
// response out of an LLM call. Generalized from the teacher's
// tool-calling Request/Response shape (internal/llm/anthropic.go) into
// a plain prompt-in/text-out contract, since the spec's DecisionOracle
// and Planner both work by asking for raw JSON in a text completion,
// not by dispatching tool calls.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const envProvider = "LLM_PROVIDER" // "gemini" (default), "anthropic", or "openai"

// ErrUnconfigured is wrapped into a provider constructor's error when
// its API key env var is unset. NewClientWithLogger treats it as
// non-fatal: per spec §6, an absent llm.geminiApiKey/llm.apiKey means
// the heuristic planner and decision paths are used instead of
// failing startup.
var ErrUnconfigured = errors.New("llm: no API key configured for provider")

// Client is the minimal surface DecisionOracle/Planner need.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// CompletionRequest is one text-completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// NewClientFromEnv picks a provider based on LLM_PROVIDER, defaulting
// to Gemini per the spec's explicit llm.geminiApiKey config surface.
func NewClientFromEnv() (Client, error) {
	return NewClientWithLogger(zerolog.Nop())
}

// NewClientWithLogger is the logger-carrying variant, mirroring the
// teacher's NewClientWithLogger factory. Returns (nil, nil) when the
// selected provider has no API key configured, rather than an error —
// callers (decision.Oracle, planner.Planner) treat a nil Client as
// "heuristics only".
func NewClientWithLogger(logger zerolog.Logger) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv(envProvider)))
	if provider == "" {
		provider = "gemini"
	}

	var client Client
	var err error
	switch provider {
	case "gemini":
		client, err = NewGeminiWithLogger(logger)
	case "anthropic":
		client, err = NewAnthropicWithLogger(logger)
	case "openai":
		client, err = NewOpenAIWithLogger(logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (use 'gemini', 'anthropic', or 'openai')", provider)
	}
	if errors.Is(err, ErrUnconfigured) {
		logger.Warn().Str("provider", provider).Msg("no LLM API key configured; heuristic planner and decision paths will be used")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
