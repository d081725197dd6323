// Package verifier implements the Verifier capability (spec §4.6 step
// 8): a post-action effect observer producing a human-readable
// summary, generalizing the judgement the teacher's planner prompt
// asked the LLM to make inline ("Explicitly judge success/failure of
// the last action... by checking if the page state changed") into a
// small deterministic component the controller calls directly.
package verifier

import (
	"fmt"
	"strings"

	"github.com/avalonis/browserpilot/internal/domain"
)

// Verifier compares before/after page state and narrates the effect
// of the dispatched action.
type Verifier struct{}

func New() *Verifier { return &Verifier{} }

// Observe computes domain.Outcome.StateChanged and produces a short
// message describing what happened. urlBefore/after, titleBefore/after
// and textBefore/after are raw page reads taken immediately before ACT
// and immediately after (the latter possibly incomplete if navigation
// destroyed the page context — callers pass whatever they could read).
func (v *Verifier) Observe(action domain.Action, urlBefore, urlAfter, titleBefore, titleAfter, textBefore, textAfter string) (domain.Outcome, string) {
	changed := urlBefore != urlAfter || titleBefore != titleAfter || normalizeSnippet(textBefore) != normalizeSnippet(textAfter)

	outcome := domain.Outcome{
		StateChanged: changed,
		URLBefore:    urlBefore,
		URLAfter:     urlAfter,
		TitleBefore:  titleBefore,
		TitleAfter:   titleAfter,
		TextBefore:   textBefore,
		TextAfter:    textAfter,
	}
	return outcome, v.describe(action, outcome)
}

func (v *Verifier) describe(action domain.Action, outcome domain.Outcome) string {
	what := "No action"
	if action != nil {
		what = action.Describe()
	}
	if !outcome.StateChanged {
		return fmt.Sprintf("%s produced no observable change.", what)
	}
	var changes []string
	if outcome.URLBefore != outcome.URLAfter {
		changes = append(changes, fmt.Sprintf("url changed to %s", outcome.URLAfter))
	}
	if outcome.TitleBefore != outcome.TitleAfter {
		changes = append(changes, fmt.Sprintf("title changed to %q", outcome.TitleAfter))
	}
	if normalizeSnippet(outcome.TextBefore) != normalizeSnippet(outcome.TextAfter) {
		changes = append(changes, "page content changed")
	}
	return fmt.Sprintf("%s: %s.", what, strings.Join(changes, "; "))
}

const snippetLen = 400

// normalizeSnippet matches spec §3's "400-char normalised text
// snippet" used to decide stateChanged.
func normalizeSnippet(text string) string {
	fields := strings.Fields(text)
	joined := strings.Join(fields, " ")
	if len(joined) > snippetLen {
		joined = joined[:snippetLen]
	}
	return joined
}
