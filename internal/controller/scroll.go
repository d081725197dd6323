package controller

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/avalonis/browserpilot/internal/domain"
	"github.com/avalonis/browserpilot/internal/llm"
)

const (
	scrollStepPixels   = 600.0
	semanticTimeout    = 10 * time.Second
	stepObjectiveChars = 200
	stepObjectiveMark  = "CURRENT STEP:"
)

// autoScrollGate implements spec §4.6 step 3. It evaluates the gate
// once per outer loop iteration (a scroll dispatch always hands control
// back to the outer OBSERVE, so the "while" in the spec text collapses
// to a single per-iteration check here). Returns scrolled=true when it
// performed a scroll and populated lastAction/lastOutcome for the
// caller to re-observe immediately.
func (c *Controller) autoScrollGate(ctx context.Context, task string, regions []domain.Region) (scrolled bool) {
	if c.scroll.ContentVisible || c.scroll.BottomReached || c.scroll.ScrollCount >= domain.MaxAutoScrolls {
		return false
	}

	visible := c.semanticVisibilityCheck(ctx, task, regions)
	if visible {
		c.scroll.ContentVisible = true
		return false
	}

	geo, err := c.gateway.GetScrollGeometry()
	if err != nil {
		c.logger.Debug().Err(err).Msg("scroll geometry read failed, skipping gate")
		c.scroll.ContentVisible = true
		return false
	}

	scrollYStuck := geo.ScrollY == c.scroll.LastScrollY
	heightStuck := geo.ScrollHeight == c.scroll.LastScrollHeight
	atDocumentBottom := geo.ScrollY+geo.ViewportHeight >= geo.ScrollHeight-5
	pageUnscrollable := geo.ScrollY == 0 && math.Abs(geo.ScrollHeight-geo.ViewportHeight) < 10
	scrolledAtLeastOnce := c.scroll.ScrollCount > 0

	if scrolledAtLeastOnce && ((scrollYStuck && heightStuck && !pageUnscrollable) ||
		(atDocumentBottom && heightStuck && !pageUnscrollable) ||
		(pageUnscrollable && c.scroll.ScrollCount >= domain.MaxAutoScrolls)) {
		c.scroll.BottomReached = true
		return false
	}

	if err := c.gateway.Wheel(0, scrollStepPixels); err != nil {
		c.logger.Debug().Err(err).Msg("auto-scroll wheel failed")
	}
	_ = c.gateway.WaitForStability(ctx, 5*time.Second)

	postGeo, _ := c.gateway.GetScrollGeometry()
	c.scroll.LastScrollY = postGeo.ScrollY
	c.scroll.LastScrollHeight = postGeo.ScrollHeight
	c.scroll.ScrollCount++

	action := &domain.ScrollAction{Direction: "down", Amount: int(scrollStepPixels), Description: "auto-scroll gate"}
	c.lastAction = action
	c.lastOutcome = &domain.Outcome{StateChanged: postGeo.ScrollY != geo.ScrollY}
	return true
}

// semanticVisibilityCheck asks a cheap, separate LLM call whether the
// currently visible text/labels already satisfy the step objective.
// On a missing client, a call failure, or an ambiguous response, it
// treats the page as visible (skip the gate) per spec §4.6 step 3a.
func (c *Controller) semanticVisibilityCheck(ctx context.Context, task string, regions []domain.Region) bool {
	if c.scrollOracle == nil {
		return true
	}
	bodyText, err := c.gateway.BodyText()
	if err != nil {
		return true
	}

	cctx, cancel := context.WithTimeout(ctx, semanticTimeout)
	defer cancel()
	raw, err := c.scrollOracle.Complete(cctx, llm.CompletionRequest{
		System:      semanticSystemPrompt,
		Prompt:      buildVisibilityPrompt(extractStepObjective(task), bodyText, regions),
		Temperature: 0,
		MaxTokens:   5,
		Timeout:     semanticTimeout,
	})
	if err != nil {
		c.logger.Debug().Err(err).Msg("semantic visibility check failed, treating page as visible")
		return true
	}
	yes, no := false, false
	for _, w := range strings.Fields(strings.ToUpper(raw)) {
		switch strings.Trim(w, `.,!?"'`) {
		case "YES":
			yes = true
		case "NO":
			no = true
		}
	}
	// Only an unambiguous NO keeps the gate scrolling.
	return yes || !no
}

const semanticSystemPrompt = `Answer with exactly one word, YES or NO: is the current step objective already satisfied by the visible page content below?`

func buildVisibilityPrompt(objective, bodyText string, regions []domain.Region) string {
	var b strings.Builder
	fmt.Fprintf(&b, "STEP OBJECTIVE: %s\n\n", objective)
	if len(bodyText) > 1500 {
		bodyText = bodyText[:1500]
	}
	fmt.Fprintf(&b, "VISIBLE TEXT:\n%s\n\nINTERACTIVE LABELS:\n", bodyText)
	for i, r := range regions {
		if i >= 40 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", r.Label)
	}
	return b.String()
}

func extractStepObjective(task string) string {
	if idx := strings.Index(task, stepObjectiveMark); idx >= 0 {
		rest := strings.TrimSpace(task[idx+len(stepObjectiveMark):])
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		return rest
	}
	if len(task) > stepObjectiveChars {
		return task[:stepObjectiveChars]
	}
	return task
}
