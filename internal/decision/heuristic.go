package decision

import (
	"strings"

	"github.com/avalonis/browserpilot/internal/domain"
)

// fallback implements spec §4.4's deterministic heuristic ladder,
// generalized from the teacher's fallbackDecision in
// internal/agent/subagent.go (same idea — a deterministic decision
// when the LLM path is unavailable — widened from email-specific
// heuristics to click/scroll/wait/done).
//
// The "region id begins with link-" check in spec.md assumed an
// id-scheme that varies by role; this catalogue mints every region
// id with a uniform "element-" prefix (§4.2), so the equivalent check
// here is role == "link" — same semantics, carried through the field
// that actually distinguishes link regions in this implementation.
func (o *Oracle) fallback(task string, regions []domain.Region, feedback *domain.Feedback, history []domain.HistoryItem) *domain.Decision {
	taskLower := strings.ToLower(task)

	if strings.Contains(taskLower, "click") && strings.Contains(taskLower, "first link") {
		if link, ok := firstByRole(regions, "link"); ok {
			return &domain.Decision{
				Action:     &domain.VisionClickAction{RegionID: link.ID, Description: "heuristic: first link"},
				Reasoning:  "heuristic fallback: task asks to click the first link",
				Confidence: 0.8,
			}
		}
	}

	if strings.Contains(taskLower, "click") {
		if region, ok := labelSubstringMatch(regions, taskLower); ok {
			return &domain.Decision{
				Action:     &domain.VisionClickAction{RegionID: region.ID, Description: "heuristic: label match"},
				Reasoning:  "heuristic fallback: label substring matched task text",
				Confidence: 0.7,
			}
		}
		if region, ok := firstClickable(regions); ok {
			return &domain.Decision{
				Action:     &domain.VisionClickAction{RegionID: region.ID, Description: "heuristic: first clickable"},
				Reasoning:  "heuristic fallback: no label match, clicking first clickable region",
				Confidence: 0.5,
			}
		}
	}

	if urlSatisfiesStep(taskLower, currentURLFromFeedback(feedback)) {
		return &domain.Decision{
			Action:     &domain.DoneAction{Reason: "heuristic: URL already satisfies step objective"},
			Reasoning:  "heuristic fallback: current URL already matches the step objective",
			Confidence: 0.6,
		}
	}

	failures := consecutiveFailures(history)
	switch failures {
	case 0:
		return &domain.Decision{
			Action:     &domain.ScrollAction{Direction: "down"},
			Reasoning:  "heuristic fallback: scrolling to reveal more content",
			Confidence: 0.4,
		}
	case 1:
		return &domain.Decision{
			Action:     &domain.WaitAction{DurationMS: 2000},
			Reasoning:  "heuristic fallback: waiting for the page to settle",
			Confidence: 0.4,
		}
	default:
		return &domain.Decision{
			Action:     &domain.DoneAction{Reason: "heuristic: unable to make progress"},
			Reasoning:  "heuristic fallback: exhausted the retry ladder",
			Confidence: 0.3,
		}
	}
}

func firstByRole(regions []domain.Region, role string) (domain.Region, bool) {
	for _, r := range regions {
		if r.Role == role {
			return r, true
		}
	}
	return domain.Region{}, false
}

func labelSubstringMatch(regions []domain.Region, taskLower string) (domain.Region, bool) {
	for _, r := range regions {
		if r.Label == "" {
			continue
		}
		if strings.Contains(taskLower, strings.ToLower(r.Label)) {
			return r, true
		}
	}
	return domain.Region{}, false
}

func firstClickable(regions []domain.Region) (domain.Region, bool) {
	for _, r := range regions {
		switch r.Role {
		case "button", "link", "checkbox", "radio":
			return r, true
		}
	}
	if len(regions) > 0 {
		return regions[0], true
	}
	return domain.Region{}, false
}

func currentURLFromFeedback(f *domain.Feedback) string {
	if f == nil || f.LastOutcome == nil {
		return ""
	}
	return f.LastOutcome.URLAfter
}

// urlSatisfiesStep matches the teacher's terse intent-from-URL checks
// ("navigate to google" while URL contains google.com, etc.).
func urlSatisfiesStep(taskLower, url string) bool {
	if url == "" {
		return false
	}
	urlLower := strings.ToLower(url)
	if strings.Contains(taskLower, "navigate to google") && strings.Contains(urlLower, "google.com") {
		return true
	}
	if strings.Contains(taskLower, "search") {
		for _, marker := range []string{"search", "results", "?q=", "query="} {
			if strings.Contains(urlLower, marker) {
				return true
			}
		}
	}
	return false
}

func consecutiveFailures(history []domain.HistoryItem) int {
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Outcome.StateChanged {
			break
		}
		count++
	}
	return count
}
