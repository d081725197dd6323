package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avalonis/browserpilot/internal/domain"
)

func TestObserve_NoChange(t *testing.T) {
	v := New()
	outcome, msg := v.Observe(&domain.WaitAction{}, "https://a.test", "https://a.test", "A", "A", "hello world", "hello world")
	assert.False(t, outcome.StateChanged)
	assert.Contains(t, msg, "no observable change")
}

func TestObserve_URLChange(t *testing.T) {
	v := New()
	action := &domain.VisionClickAction{RegionID: "element-ab12cd34"}
	outcome, msg := v.Observe(action, "https://a.test", "https://a.test/next", "A", "B", "x", "y")
	assert.True(t, outcome.StateChanged)
	assert.Contains(t, msg, "url changed to https://a.test/next")
	assert.Contains(t, msg, "title changed")
}

func TestNormalizeSnippet_Truncates(t *testing.T) {
	long := ""
	for i := 0; i < 500; i++ {
		long += "a "
	}
	got := normalizeSnippet(long)
	assert.LessOrEqual(t, len(got), snippetLen)
}
