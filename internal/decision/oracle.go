// Package decision implements the DecisionOracle capability (spec
// §4.4): an LLM-backed decide() call with a deterministic heuristic
// fallback, generalizing the teacher's fastPlanner (internal/agent/planner.go).
package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/avalonis/browserpilot/internal/domain"
	"github.com/avalonis/browserpilot/internal/jsonextract"
	"github.com/avalonis/browserpilot/internal/llm"
)

const (
	llmTimeout      = 30 * time.Second
	llmTemperature  = 0.2
	maxPromptRegions = 60
	maxTextSnippet   = 2000
)

// Oracle is the DecisionOracle.
type Oracle struct {
	client    llm.Client
	logger    zerolog.Logger
	firstCall bool
}

func New(client llm.Client, logger zerolog.Logger) *Oracle {
	return &Oracle{client: client, logger: logger.With().Str("comp", "decision").Logger(), firstCall: true}
}

// Decide implements decide(task, step, regions, feedback, history) ->
// Decision | null per spec §4.4. On the LLM path's first-step failure
// it returns an ASK_USER decision exposing the failure instead of
// falling back, per the special failure policy. With no client
// configured (spec §6: llm.apiKey absent), it skips straight to the
// heuristic fallback — that is the expected steady state, not a
// failure.
func (o *Oracle) Decide(ctx context.Context, task string, step int, regions []domain.Region, feedback *domain.Feedback, history []domain.HistoryItem, visibleText string) (*domain.Decision, error) {
	isFirstStep := o.firstCall
	o.firstCall = false

	if o.client == nil {
		return o.fallback(task, regions, feedback, history), nil
	}

	dec, err := o.decideViaLLM(ctx, task, step, regions, feedback, history, visibleText)
	if err == nil && dec != nil {
		return dec, nil
	}
	if err != nil {
		o.logger.Warn().Err(err).Msg("llm decision path failed")
		if isFirstStep {
			return &domain.Decision{
				Action:     &domain.AskUserAction{Message: fmt.Sprintf("LLM unavailable: %v", err)},
				Reasoning:  "LLM call failed on the first step; surfacing for configuration review",
				Confidence: 0.0,
			}, nil
		}
	}
	return o.fallback(task, regions, feedback, history), nil
}

func (o *Oracle) decideViaLLM(ctx context.Context, task string, step int, regions []domain.Region, feedback *domain.Feedback, history []domain.HistoryItem, visibleText string) (*domain.Decision, error) {
	prompt := buildPrompt(task, step, prioritizeRegions(regions), feedback, history, visibleText)
	cctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	raw, err := o.client.Complete(cctx, llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: llmTemperature,
		MaxTokens:   800,
		Timeout:     llmTimeout,
	})
	if err != nil {
		return nil, &domain.LLMUnavailableError{Cause: err}
	}

	dec, perr := parseDecision(raw)
	if perr != nil {
		o.logger.Debug().Err(perr).Str("raw", truncate(raw, 300)).Msg("decision schema validation failed")
		return nil, nil
	}
	return dec, nil
}

// prioritizeRegions orders inputs first, then content links, then
// everything else, capped at 60 (spec §4.4 primary path).
func prioritizeRegions(regions []domain.Region) []domain.Region {
	rank := func(r domain.Region) int {
		switch r.Role {
		case "textbox", "textarea", "select":
			return 0
		case "link":
			return 1
		default:
			return 2
		}
	}
	sorted := make([]domain.Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool { return rank(sorted[i]) < rank(sorted[j]) })
	if len(sorted) > maxPromptRegions {
		sorted = sorted[:maxPromptRegions]
	}
	return sorted
}

const systemPrompt = `You are the decision core of a browser automation agent. Given a task, the current page state, and recent history, respond with exactly one JSON action object describing the single next step.

Allowed action grammar (respond with one of these shapes):
{"action":"VISION_CLICK","regionId":"...","description":"...","confidence":0.0,"reasoning":"..."}
{"action":"VISION_FILL","regionId":"...","value":"...","description":"...","confidence":0.0,"reasoning":"..."}
{"action":"DOM_CLICK","regionId":"...","selector":"...","role":"...","name":"...","description":"...","confidence":0.0,"reasoning":"..."}
{"action":"DOM_FILL","regionId":"...","selector":"...","role":"...","name":"...","value":"...","description":"...","confidence":0.0,"reasoning":"..."}
{"action":"KEY_PRESS","key":"...","regionId":"...","confidence":0.0,"reasoning":"..."}
{"action":"SCROLL","direction":"up|down","amount":0,"confidence":0.0,"reasoning":"..."}
{"action":"WAIT","duration":0,"until":"load|domcontentloaded|networkidle","confidence":0.0,"reasoning":"..."}
{"action":"ASK_USER","message":"...","confidence":0.0,"reasoning":"..."}
{"action":"CONFIRM","message":"...","confidence":0.0,"reasoning":"..."}
{"action":"DONE","reason":"...","confidence":0.0,"reasoning":"..."}

Rules:
- Fill values must come from the task text; never invent data.
- Passwords, payment details, and MFA/OTP codes must produce ASK_USER, never a fill.
- If the feedback shows new elements appeared since the last action, that action likely succeeded — do not repeat it.
- If stateChanged is false and no new elements appeared, try a different approach than the last action.
- Respond with JSON only, no prose, no markdown fences.`

func buildPrompt(task string, step int, regions []domain.Region, feedback *domain.Feedback, history []domain.HistoryItem, visibleText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TASK: %s\nSTEP: %d\n\n", task, step)
	if len(visibleText) > maxTextSnippet {
		visibleText = visibleText[:maxTextSnippet]
	}
	fmt.Fprintf(&b, "VISIBLE TEXT:\n%s\n\n", visibleText)

	b.WriteString("REGIONS:\n")
	for _, r := range regions {
		fmt.Fprintf(&b, "- id=%s role=%s label=%q\n", r.ID, r.Role, r.Label)
	}
	b.WriteString("\n")

	if feedback != nil {
		fmt.Fprintf(&b, "FEEDBACK: %s\n\n", describeFeedback(feedback))
	}

	b.WriteString("RECENT HISTORY:\n")
	start := 0
	if len(history) > 5 {
		start = len(history) - 5
	}
	for _, h := range history[start:] {
		fmt.Fprintf(&b, "- step %d: %s (%s)\n", h.Step, h.Action.Describe(), h.Reasoning)
	}
	return b.String()
}

func describeFeedback(f *domain.Feedback) string {
	var parts []string
	if f.LastAction != nil {
		parts = append(parts, "lastAction="+f.LastAction.Describe())
	}
	if f.LastOutcome != nil {
		parts = append(parts, fmt.Sprintf("stateChanged=%v", f.LastOutcome.StateChanged))
	}
	if f.RegionDiff != nil {
		parts = append(parts, fmt.Sprintf("appeared=%d disappeared=%d", len(f.RegionDiff.Appeared), len(f.RegionDiff.Disappeared)))
	}
	return strings.Join(parts, " ")
}

// decisionJSON mirrors the LLM-boundary JSON shape; map[string]any
// equivalents are kept only here, per SPEC_FULL.md §3.
type decisionJSON struct {
	Action      string  `json:"action"`
	RegionID    string  `json:"regionId"`
	Selector    string  `json:"selector"`
	Role        string  `json:"role"`
	Name        string  `json:"name"`
	Value       string  `json:"value"`
	Description string  `json:"description"`
	Key         string  `json:"key"`
	Direction   string  `json:"direction"`
	Amount      float64 `json:"amount"`
	Duration    int     `json:"duration"`
	Until       string  `json:"until"`
	Message     string  `json:"message"`
	ActionID    string  `json:"actionId"`
	Reason      string  `json:"reason"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

func parseDecision(text string) (*domain.Decision, error) {
	jsonStr, err := jsonextract.Extract(text)
	if err != nil {
		return nil, err
	}
	var parsed decisionJSON
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("decision json parse: %w", err)
	}
	if parsed.Confidence == 0 {
		parsed.Confidence = 0.5
	}
	if strings.TrimSpace(parsed.Reasoning) == "" {
		parsed.Reasoning = "(no reasoning provided)"
	}

	action, err := toAction(parsed)
	if err != nil {
		return nil, err
	}
	return &domain.Decision{Action: action, Reasoning: parsed.Reasoning, Confidence: parsed.Confidence}, nil
}

func toAction(p decisionJSON) (domain.Action, error) {
	switch strings.ToUpper(strings.TrimSpace(p.Action)) {
	case "VISION_CLICK":
		if p.RegionID == "" {
			return nil, &domain.SchemaError{Message: "VISION_CLICK requires regionId"}
		}
		return &domain.VisionClickAction{RegionID: p.RegionID, Description: p.Description}, nil
	case "VISION_FILL":
		if p.RegionID == "" || p.Value == "" {
			return nil, &domain.SchemaError{Message: "VISION_FILL requires regionId and non-empty value"}
		}
		return &domain.VisionFillAction{RegionID: p.RegionID, Value: p.Value, Description: p.Description}, nil
	case "DOM_CLICK":
		if p.RegionID == "" && p.Selector == "" && !(p.Role != "" && p.Name != "") {
			return nil, &domain.SchemaError{Message: "DOM_CLICK requires regionId, selector, or role+name"}
		}
		return &domain.DOMClickAction{RegionID: p.RegionID, Selector: p.Selector, Role: p.Role, Name: p.Name, Description: p.Description}, nil
	case "DOM_FILL":
		if p.Value == "" {
			return nil, &domain.SchemaError{Message: "DOM_FILL requires non-empty value"}
		}
		targets := 0
		if p.RegionID != "" {
			targets++
		}
		if p.Selector != "" {
			targets++
		}
		if p.Role != "" && p.Name != "" {
			targets++
		}
		if targets != 1 {
			return nil, &domain.SchemaError{Message: "DOM_FILL requires exactly one target specification"}
		}
		return &domain.DOMFillAction{RegionID: p.RegionID, Selector: p.Selector, Role: p.Role, Name: p.Name, Value: p.Value, Description: p.Description}, nil
	case "KEY_PRESS":
		if p.Key == "" {
			return nil, &domain.SchemaError{Message: "KEY_PRESS requires key"}
		}
		return &domain.KeyPressAction{Key: p.Key, RegionID: p.RegionID, Description: p.Description}, nil
	case "SCROLL":
		dir := p.Direction
		if dir != "up" && dir != "down" {
			dir = "down"
		}
		return &domain.ScrollAction{Direction: dir, Amount: int(p.Amount), Description: p.Description}, nil
	case "WAIT":
		return &domain.WaitAction{DurationMS: p.Duration, Until: p.Until, Description: p.Description}, nil
	case "ASK_USER":
		if p.Message == "" {
			return nil, &domain.SchemaError{Message: "ASK_USER requires message"}
		}
		return &domain.AskUserAction{Message: p.Message, ActionID: p.ActionID}, nil
	case "CONFIRM":
		if p.Message == "" {
			return nil, &domain.SchemaError{Message: "CONFIRM requires message"}
		}
		return &domain.ConfirmAction{Message: p.Message, ActionID: p.ActionID}, nil
	case "DONE":
		return &domain.DoneAction{Reason: p.Reason}, nil
	default:
		return nil, &domain.SchemaError{Message: "unknown action type: " + p.Action}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
