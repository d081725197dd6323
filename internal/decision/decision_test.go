package decision

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

func TestParseDecision_MarkdownFenceTolerant(t *testing.T) {
	raw := "Here you go:\n```json\n{\"action\":\"VISION_CLICK\",\"regionId\":\"element-aaa\",\"confidence\":0.9,\"reasoning\":\"clicking\"}\n```"
	dec, err := parseDecision(raw)
	require.NoError(t, err)
	click, ok := dec.Action.(*domain.VisionClickAction)
	require.True(t, ok)
	assert.Equal(t, "element-aaa", click.RegionID)
}

func TestParseDecision_DefaultsConfidenceAndReasoning(t *testing.T) {
	dec, err := parseDecision(`{"action":"DONE"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.5, dec.Confidence)
	assert.Equal(t, "(no reasoning provided)", dec.Reasoning)
}

func TestParseDecision_FillRequiresExactlyOneTarget(t *testing.T) {
	_, err := parseDecision(`{"action":"DOM_FILL","regionId":"element-a","selector":"#x","value":"hi"}`)
	assert.Error(t, err)
}

func TestParseDecision_UnknownActionRejected(t *testing.T) {
	_, err := parseDecision(`{"action":"TELEPORT"}`)
	assert.Error(t, err)
}

func TestDecide_FirstStepLLMFailureReturnsAskUser(t *testing.T) {
	oracle := New(&fakeLLM{err: assertError{}}, zerolog.Nop())
	dec, err := oracle.Decide(context.Background(), "do something", 1, nil, nil, nil, "")
	require.NoError(t, err)
	_, ok := dec.Action.(*domain.AskUserAction)
	assert.True(t, ok)
}

func TestDecide_SubsequentStepFailureFallsBackToHeuristic(t *testing.T) {
	oracle := New(&fakeLLM{err: assertError{}}, zerolog.Nop())
	_, _ = oracle.Decide(context.Background(), "x", 1, nil, nil, nil, "")
	dec, err := oracle.Decide(context.Background(), "click first link", 2, []domain.Region{
		{ID: "element-1", Role: "link", Label: "Home"},
	}, nil, nil, "")
	require.NoError(t, err)
	click, ok := dec.Action.(*domain.VisionClickAction)
	require.True(t, ok)
	assert.Equal(t, "element-1", click.RegionID)
}

func TestDecide_NilClientSkipsStraightToFallback(t *testing.T) {
	oracle := New(nil, zerolog.Nop())
	dec, err := oracle.Decide(context.Background(), "click first link", 1, []domain.Region{
		{ID: "element-1", Role: "link", Label: "Home"},
	}, nil, nil, "")
	require.NoError(t, err)
	click, ok := dec.Action.(*domain.VisionClickAction)
	require.True(t, ok)
	assert.Equal(t, "element-1", click.RegionID)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

func TestPrioritizeRegions_InputsFirstThenLinksThenRest(t *testing.T) {
	regions := []domain.Region{
		{ID: "1", Role: "button"},
		{ID: "2", Role: "textbox"},
		{ID: "3", Role: "link"},
	}
	sorted := prioritizeRegions(regions)
	assert.Equal(t, "2", sorted[0].ID)
	assert.Equal(t, "3", sorted[1].ID)
	assert.Equal(t, "1", sorted[2].ID)
}
