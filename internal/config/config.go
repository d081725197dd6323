// Package config loads environment and YAML configuration, following
// the teacher's cmd/agent/main.go pattern of godotenv.Load() plus
// os.Getenv/strings.TrimSpace reads with documented defaults, and
// gopkg.in/yaml.v3 for the guardrails policy file (grounded on
// josephGuo-katana's and moolen-spectre's YAML-driven templates).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/avalonis/browserpilot/internal/guardrails"
)

// Config is the process-wide, read-only-after-init configuration
// surface described in spec §6.
type Config struct {
	LLMProvider string
	StartURL    string
	Headless    bool
	MaxSteps    int
	Guardrails  guardrails.Config
}

// Load reads .env (best-effort, matching the teacher's `_ =
// godotenv.Load()`), then env vars, then an optional guardrails YAML
// policy file referenced by AGENT_GUARDRAILS_FILE.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		LLMProvider: envOr("LLM_PROVIDER", "gemini"),
		StartURL:    envOr("AGENT_START_URL", "about:blank"),
		Headless:    envBoolOr("AGENT_HEADLESS", false),
		MaxSteps:    envIntOr("AGENT_MAX_STEPS", 50),
	}

	policyPath := strings.TrimSpace(os.Getenv("AGENT_GUARDRAILS_FILE"))
	if policyPath == "" {
		cfg.Guardrails = defaultGuardrails()
		return cfg, nil
	}
	gcfg, err := loadGuardrailsFile(policyPath)
	if err != nil {
		return Config{}, err
	}
	cfg.Guardrails = gcfg
	return cfg, nil
}

func defaultGuardrails() guardrails.Config {
	return guardrails.Config{
		AllowedDomains:    []string{},
		RequireConfirmFor: []string{"delete", "cancel", "unsubscribe", "purchase", "pay", "send money", "transfer"},
	}
}

func loadGuardrailsFile(path string) (guardrails.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return guardrails.Config{}, fmt.Errorf("read guardrails policy %s: %w", path, err)
	}
	var cfg guardrails.Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return guardrails.Config{}, fmt.Errorf("parse guardrails policy %s: %w", path, err)
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envIntOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
