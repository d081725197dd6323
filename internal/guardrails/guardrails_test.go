package guardrails

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avalonis/browserpilot/internal/domain"
)

func testPolicy() *Policy {
	return New(Config{
		AllowedDomains:    []string{"example.com"},
		RequireConfirmFor: []string{"delete", "purchase"},
	})
}

func TestEvaluate_SensitiveFieldDeniesOutright(t *testing.T) {
	p := testPolicy()
	regions := []domain.Region{{ID: "element-aaa", Label: "Password"}}
	v := p.Evaluate(&domain.VisionFillAction{RegionID: "element-aaa", Value: "hunter2"}, regions)
	assert.False(t, v.Allowed)
	assert.False(t, v.RequiresConfirmation)
}

func TestEvaluate_SecretMarkerDenies(t *testing.T) {
	p := testPolicy()
	regions := []domain.Region{{ID: "element-bbb", Label: "Comment box"}}
	v := p.Evaluate(&domain.DOMFillAction{RegionID: "element-bbb", Value: "token is SECRET.abc123"}, regions)
	assert.False(t, v.Allowed)
	assert.False(t, v.RequiresConfirmation)
}

func TestEvaluate_RiskyClickRequiresConfirmation(t *testing.T) {
	p := testPolicy()
	regions := []domain.Region{{ID: "element-ccc", Label: "Delete account"}}
	v := p.Evaluate(&domain.VisionClickAction{RegionID: "element-ccc"}, regions)
	assert.False(t, v.Allowed)
	assert.True(t, v.RequiresConfirmation)
}

func TestEvaluate_BenignClickAllowed(t *testing.T) {
	p := testPolicy()
	regions := []domain.Region{{ID: "element-ddd", Label: "Next page"}}
	v := p.Evaluate(&domain.VisionClickAction{RegionID: "element-ddd"}, regions)
	assert.True(t, v.Allowed)
}

func TestEvaluate_NonTargetedActionsPassThrough(t *testing.T) {
	p := testPolicy()
	v := p.Evaluate(&domain.ScrollAction{Direction: "down"}, nil)
	assert.True(t, v.Allowed)
}

func TestIsDomainAllowed(t *testing.T) {
	p := testPolicy()
	assert.True(t, p.IsDomainAllowed("example.com"))
	assert.True(t, p.IsDomainAllowed("www.example.com"))
	assert.False(t, p.IsDomainAllowed("notexample.com"))
	assert.False(t, p.IsDomainAllowed(""))
}

func TestEvaluate_DOMClickBySelectorFallback(t *testing.T) {
	p := testPolicy()
	v := p.Evaluate(&domain.DOMClickAction{Selector: "#purchase-button"}, nil)
	assert.False(t, v.Allowed)
	assert.True(t, v.RequiresConfirmation)
}
