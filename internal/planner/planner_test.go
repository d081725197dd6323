package planner

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avalonis/browserpilot/internal/domain"
	"github.com/avalonis/browserpilot/internal/llm"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return f.response, f.err
}

func TestPlan_ParsesLLMOutput(t *testing.T) {
	p := New(&fakeLLM{response: `{"strategy":"simple_action","steps":[{"id":"1","title":"open site","description":"go to the page","needsAuth":false}]}`}, zerolog.Nop())
	plan, err := p.Plan(context.Background(), "open the site")
	require.NoError(t, err)
	assert.Equal(t, domain.StrategySimpleAction, plan.Strategy)
	assert.Len(t, plan.Steps, 1)
}

func TestPlan_RejectsTooManySteps(t *testing.T) {
	steps := ""
	for i := 0; i < 11; i++ {
		if i > 0 {
			steps += ","
		}
		steps += `{"id":"` + string(rune('a'+i)) + `","title":"x","description":"x"}`
	}
	p := New(&fakeLLM{response: `{"strategy":"SIMPLE_ACTION","steps":[` + steps + `]}`}, zerolog.Nop())
	plan, err := p.Plan(context.Background(), "do eleven things")
	require.NoError(t, err) // falls back to heuristic, not an error
	assert.Contains(t, string(plan.Strategy), "System Offline")
}

func TestPlan_FallbackSplitsOnDelimiters(t *testing.T) {
	p := New(&fakeLLM{err: assertErr{}}, zerolog.Nop())
	plan, err := p.Plan(context.Background(), "login then search, then checkout")
	require.NoError(t, err)
	assert.Contains(t, string(plan.Strategy), "System Offline")
	require.NotEmpty(t, plan.Steps)
	assert.True(t, plan.Steps[0].NeedsAuth)
}

func TestPlan_NilClientSkipsStraightToFallback(t *testing.T) {
	p := New(nil, zerolog.Nop())
	plan, err := p.Plan(context.Background(), "search then checkout")
	require.NoError(t, err)
	assert.Contains(t, string(plan.Strategy), "System Offline")
	require.NotEmpty(t, plan.Steps)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
