// Package planner implements the Planner capability (spec §4.5):
// decomposing a task into an ordered Plan of PlanSteps, generalizing
// the teacher's single step-by-step buildSystemPrompt/Decision loop
// driver into an up-front classify-then-decompose call.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/avalonis/browserpilot/internal/domain"
	"github.com/avalonis/browserpilot/internal/jsonextract"
	"github.com/avalonis/browserpilot/internal/llm"
)

const (
	llmTimeout     = 30 * time.Second
	llmTemperature = 0.2
	maxSteps       = 10
)

type Planner struct {
	client llm.Client
	logger zerolog.Logger
}

func New(client llm.Client, logger zerolog.Logger) *Planner {
	return &Planner{client: client, logger: logger.With().Str("comp", "planner").Logger()}
}

const systemPrompt = `You decompose a browser-automation task into an ordered plan.

Classify the task as one of: SIMPLE_ACTION, DEEP_RESEARCH, TRANSACTIONAL.
Mentally simulate the target site and produce 1 to 10 atomic steps.

Respond with JSON only, no prose, no markdown fences:
{"strategy":"SIMPLE_ACTION","steps":[{"id":"1","title":"...","description":"...","needsAuth":false}]}`

// Plan implements plan(task) -> Plan. Falls back to a deterministic
// heuristic split when the LLM path fails, its output fails schema
// validation, or no client is configured (spec §6).
func (p *Planner) Plan(ctx context.Context, task string) (*domain.Plan, error) {
	if p.client == nil {
		return p.fallback(task), nil
	}
	plan, err := p.planViaLLM(ctx, task)
	if err == nil && plan != nil {
		return plan, nil
	}
	if err != nil {
		p.logger.Warn().Err(err).Msg("llm planning failed, using heuristic fallback")
	}
	return p.fallback(task), nil
}

func (p *Planner) planViaLLM(ctx context.Context, task string) (*domain.Plan, error) {
	cctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	raw, err := p.client.Complete(cctx, llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf("TASK: %s", task),
		Temperature: llmTemperature,
		MaxTokens:   1200,
		Timeout:     llmTimeout,
	})
	if err != nil {
		return nil, &domain.LLMUnavailableError{Cause: err}
	}
	return parsePlan(raw)
}

type planJSON struct {
	Strategy string `json:"strategy"`
	Steps    []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		NeedsAuth   bool   `json:"needsAuth"`
	} `json:"steps"`
}

func parsePlan(text string) (*domain.Plan, error) {
	jsonStr, err := jsonextract.Extract(text)
	if err != nil {
		return nil, err
	}
	var parsed planJSON
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("plan json parse: %w", err)
	}
	if len(parsed.Steps) == 0 || len(parsed.Steps) > maxSteps {
		return nil, &domain.SchemaError{Message: "plan must contain between 1 and 10 steps"}
	}
	strategy := domain.Strategy(strings.ToUpper(strings.TrimSpace(parsed.Strategy)))
	switch strategy {
	case domain.StrategySimpleAction, domain.StrategyDeepResearch, domain.StrategyTransactional:
	default:
		strategy = domain.StrategySimpleAction
	}
	steps := make([]domain.PlanStep, 0, len(parsed.Steps))
	for i, s := range parsed.Steps {
		id := s.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		steps = append(steps, domain.PlanStep{
			ID:          id,
			Title:       s.Title,
			Description: s.Description,
			NeedsAuth:   s.NeedsAuth,
		})
	}
	return &domain.Plan{Strategy: strategy, Steps: steps}, nil
}

var authKeywords = regexp.MustCompile(`(?i)login|sign in|password`)

// fallback implements spec §4.5's heuristic: split on then|,|.;|\n, cap
// at 10, mark any part mentioning login/sign-in/password as needing
// auth, wrap in a "System Offline" strategy.
func (p *Planner) fallback(task string) *domain.Plan {
	splitter := regexp.MustCompile(`then|,|\.;|\n`)
	parts := splitter.Split(task, -1)

	steps := make([]domain.PlanStep, 0, maxSteps)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(steps) >= maxSteps {
			break
		}
		steps = append(steps, domain.PlanStep{
			ID:          strconv.Itoa(i + 1),
			Title:       part,
			Description: part,
			NeedsAuth:   authKeywords.MatchString(part),
		})
	}
	if len(steps) == 0 {
		steps = append(steps, domain.PlanStep{ID: "1", Title: task, Description: task, NeedsAuth: authKeywords.MatchString(task)})
	}
	return &domain.Plan{Strategy: domain.Strategy("System Offline: " + task), Steps: steps}
}
