package controller

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avalonis/browserpilot/internal/browsergateway"
	"github.com/avalonis/browserpilot/internal/catalogue"
	"github.com/avalonis/browserpilot/internal/decision"
	"github.com/avalonis/browserpilot/internal/domain"
	"github.com/avalonis/browserpilot/internal/guardrails"
	"github.com/avalonis/browserpilot/internal/llm"
	"github.com/avalonis/browserpilot/internal/memory"
	"github.com/avalonis/browserpilot/internal/verifier"
)

// fakeGateway implements gatewayPort without a real browser.
type fakeGateway struct {
	url   string
	title string
	body  string
}

func (g *fakeGateway) URL() string                { return g.url }
func (g *fakeGateway) Title() (string, error)     { return g.title, nil }
func (g *fakeGateway) BodyText() (string, error)  { return g.body, nil }
func (g *fakeGateway) GetScrollGeometry() (browsergateway.ScrollGeometry, error) {
	return browsergateway.ScrollGeometry{}, nil
}
func (g *fakeGateway) Wheel(dx, dy float64) error                       { return nil }
func (g *fakeGateway) WaitForStability(ctx context.Context, d time.Duration) error { return nil }
func (g *fakeGateway) VisionClick(ctx context.Context, h browsergateway.ElementHandle) error {
	return nil
}
func (g *fakeGateway) VisionFill(ctx context.Context, h browsergateway.ElementHandle, v string) error {
	return nil
}
func (g *fakeGateway) ClickByRole(role, name string) error      { return nil }
func (g *fakeGateway) ClickBySelector(selector string) error    { return nil }
func (g *fakeGateway) FillByRole(role, name, value string) error { return nil }
func (g *fakeGateway) FillBySelector(selector, value string) error { return nil }
func (g *fakeGateway) PressPage(key string) error                { return nil }
func (g *fakeGateway) WaitForLoadState(state string) error       { return nil }

// fakeCatalogue implements regionSource with a fixed region set.
type fakeCatalogue struct {
	regions []domain.Region
	store   *catalogue.ElementStore
}

func newFakeCatalogue(regions []domain.Region) *fakeCatalogue {
	return &fakeCatalogue{regions: regions, store: catalogue.NewElementStore()}
}

func (f *fakeCatalogue) Scan(ctx context.Context) ([]domain.Region, error) { return f.regions, nil }
func (f *fakeCatalogue) Store() *catalogue.ElementStore                    { return f.store }

// fakeLLM returns queued responses in order, repeating the last one.
type fakeLLM struct {
	responses []string
	calls     int
}

func (f *fakeLLM) Name() string { return "fake" }
func (f *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	return f.responses[idx], nil
}

func newController(t *testing.T, gw gatewayPort, cat regionSource, oracleLLM llm.Client, guard guardrails.Config) *Controller {
	t.Helper()
	oracle := decision.New(oracleLLM, zerolog.Nop())
	policy := guardrails.New(guard)
	verf := verifier.New()
	mem := memory.NewInProcess()
	return New(gw, cat, policy, oracle, verf, mem, nil, "test-session", zerolog.Nop())
}

func TestRunLoop_DoneTerminatesCompleted(t *testing.T) {
	gw := &fakeGateway{url: "https://a.test", title: "A", body: "hello"}
	cat := newFakeCatalogue([]domain.Region{{ID: "element-1", Label: "Docs", Role: "link", BBox: domain.BBox{W: 10, H: 10}}})
	fake := &fakeLLM{responses: []string{`{"action":"DONE","reason":"finished","confidence":0.9,"reasoning":"done"}`}}
	c := newController(t, gw, cat, fake, guardrails.Config{})

	result, err := c.RunLoop(context.Background(), "click the first link", nil, RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, "finished", result.Reason)
}

func TestRunLoop_AskUserPauses(t *testing.T) {
	gw := &fakeGateway{url: "https://a.test", title: "A", body: "hello"}
	cat := newFakeCatalogue(nil)
	fake := &fakeLLM{responses: []string{`{"action":"ASK_USER","message":"need MFA code","confidence":0.9,"reasoning":"needs human"}`}}
	c := newController(t, gw, cat, fake, guardrails.Config{})

	result, err := c.RunLoop(context.Background(), "log in", nil, RunOptions{})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, domain.PauseAskUser, result.PauseKind)
}

func TestRunLoop_OscillationPausesAfterThirdRepeat(t *testing.T) {
	gw := &fakeGateway{url: "https://a.test", title: "A", body: "hello"}
	cat := newFakeCatalogue([]domain.Region{{ID: "element-1", Label: "Submit", Role: "button", BBox: domain.BBox{W: 10, H: 10}}})
	resp := `{"action":"DOM_CLICK","regionId":"element-1","confidence":0.9,"reasoning":"try submit"}`
	fake := &fakeLLM{responses: []string{resp, resp, resp, resp}}
	c := newController(t, gw, cat, fake, guardrails.Config{})

	result, err := c.RunLoop(context.Background(), "submit the form", nil, RunOptions{})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, domain.PauseOscillation, result.PauseKind)
	assert.True(t, result.StepCompletionCheck)
}

func TestRunLoop_ResetOscillationAllowsSameActionAgain(t *testing.T) {
	gw := &fakeGateway{url: "https://a.test", title: "A", body: "hello"}
	cat := newFakeCatalogue([]domain.Region{{ID: "element-1", Label: "Submit", Role: "button", BBox: domain.BBox{W: 10, H: 10}}})
	resp := `{"action":"DOM_CLICK","regionId":"element-1","confidence":0.9,"reasoning":"try submit"}`
	fake := &fakeLLM{responses: []string{resp, resp, resp}}
	c := newController(t, gw, cat, fake, guardrails.Config{})

	result, err := c.RunLoop(context.Background(), "submit the form", nil, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.PauseOscillation, result.PauseKind)

	// Simulates the CLI's "y" answer to "is this step already complete?":
	// without the reset, the next RunLoop call would see the same
	// action-key still at its repeat threshold and pause immediately.
	c.ResetOscillation()

	fake.responses = append(fake.responses, resp, `{"action":"DONE","reason":"already done","confidence":0.9,"reasoning":"confirmed"}`)
	result, err = c.RunLoop(context.Background(), "submit the form", nil, RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestRunLoop_GuardrailSkipsSensitiveFillThenCompletes(t *testing.T) {
	gw := &fakeGateway{url: "https://a.test", title: "A", body: "hello"}
	cat := newFakeCatalogue([]domain.Region{{ID: "element-1", Label: "Password", Role: "textbox", BBox: domain.BBox{W: 10, H: 10}}})
	fillResp := `{"action":"DOM_FILL","regionId":"element-1","value":"hunter2","confidence":0.9,"reasoning":"fill password"}`
	doneResp := `{"action":"DONE","reason":"nothing left to do","confidence":0.5,"reasoning":"done"}`
	fake := &fakeLLM{responses: []string{fillResp, doneResp}}
	c := newController(t, gw, cat, fake, guardrails.Config{})

	result, err := c.RunLoop(context.Background(), "fill password field with hunter2", nil, RunOptions{})
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestRunLoop_GuardrailRiskyClickPauses(t *testing.T) {
	gw := &fakeGateway{url: "https://a.test", title: "A", body: "hello"}
	cat := newFakeCatalogue([]domain.Region{{ID: "element-1", Label: "Delete account", Role: "button", BBox: domain.BBox{W: 10, H: 10}}})
	resp := `{"action":"DOM_CLICK","regionId":"element-1","confidence":0.9,"reasoning":"delete it"}`
	fake := &fakeLLM{responses: []string{resp}}
	c := newController(t, gw, cat, fake, guardrails.Config{RequireConfirmFor: []string{"delete"}})

	result, err := c.RunLoop(context.Background(), "delete the account", nil, RunOptions{})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, domain.PauseGuardrail, result.PauseKind)
}

func TestRunLoop_MaxStepsExhausted(t *testing.T) {
	gw := &fakeGateway{url: "https://a.test", title: "A", body: "hello"}
	cat := newFakeCatalogue([]domain.Region{{ID: "element-1", Label: "x", Role: "button", BBox: domain.BBox{W: 10, H: 10}}})
	scrollResp := `{"action":"SCROLL","direction":"down","confidence":0.5,"reasoning":"keep scrolling"}`
	waitResp := `{"action":"WAIT","duration":1,"confidence":0.5,"reasoning":"keep waiting"}`
	responses := make([]string, 0, domain.MaxSteps+1)
	for i := 0; i <= domain.MaxSteps; i++ {
		if i%2 == 0 {
			responses = append(responses, scrollResp)
		} else {
			responses = append(responses, waitResp)
		}
	}
	fake := &fakeLLM{responses: responses}
	c := newController(t, gw, cat, fake, guardrails.Config{})

	result, err := c.RunLoop(context.Background(), "scroll forever", nil, RunOptions{})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, "Max steps reached", result.Reason)
}
