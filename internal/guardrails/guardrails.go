package guardrails

import (
	"strings"

	"github.com/avalonis/browserpilot/internal/domain"
)

// Evaluate classifies a proposed Action against the current Region
// set, applying spec §4.3's rules 1-3 in order: sensitive fill target,
// secret marker in a fill value, risky click. The domain allow-list
// (rule 4, IsDomainAllowed) is not consulted here. Non-click/fill
// actions (SCROLL, WAIT, KEY_PRESS, ASK_USER, CONFIRM, DONE) always
// pass through allowed.
func (p *Policy) Evaluate(action domain.Action, regions []domain.Region) Verdict {
	switch a := action.(type) {
	case *domain.VisionFillAction:
		return p.evaluateFill(resolveLabel(a.RegionID, regions), a.Value)
	case *domain.DOMFillAction:
		label := resolveLabel(a.RegionID, regions)
		if label == "" {
			label = concatTarget(a.Selector, a.Role, a.Name)
		}
		return p.evaluateFill(label, a.Value)
	case *domain.VisionClickAction:
		return p.evaluateClick(resolveLabel(a.RegionID, regions))
	case *domain.DOMClickAction:
		label := resolveLabel(a.RegionID, regions)
		if label == "" {
			label = concatTarget(a.Selector, a.Role, a.Name)
		}
		return p.evaluateClick(label)
	default:
		return Verdict{Allowed: true}
	}
}

func (p *Policy) evaluateFill(label, value string) Verdict {
	if kw, hit := containsAny(label, sensitiveFieldKeywords); hit {
		return Verdict{Allowed: false, Reason: "sensitive field: " + kw, RequiresConfirmation: false}
	}
	for _, marker := range secretMarkers {
		if strings.Contains(value, marker) {
			return Verdict{Allowed: false, Reason: "secret marker in value: " + marker, RequiresConfirmation: false}
		}
	}
	return Verdict{Allowed: true}
}

func (p *Policy) evaluateClick(label string) Verdict {
	if label == "" {
		return Verdict{Allowed: true}
	}
	if kw, hit := containsAny(label, p.cfg.RequireConfirmFor); hit {
		return Verdict{Allowed: false, Reason: "risky click: " + kw, RequiresConfirmation: true}
	}
	return Verdict{Allowed: true}
}

func resolveLabel(regionID string, regions []domain.Region) string {
	if regionID == "" {
		return ""
	}
	for _, r := range regions {
		if r.ID == regionID {
			return r.Label
		}
	}
	return ""
}

func concatTarget(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
